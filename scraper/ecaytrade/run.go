package ecaytrade

import (
	"context"
	"errors"
	"fmt"

	"ecaytracker/config"
	"ecaytracker/services"
	"ecaytracker/storage"
	"ecaytracker/utils"
)

// Deactivator is implemented by stores that can retire listings which
// disappeared from the site.
type Deactivator interface {
	DeactivateMissing(ctx context.Context, seen []string) (int64, error)
}

// RunSummary counts what one scrape run did to the store.
type RunSummary struct {
	Cards        int
	Listings     int
	Inserted     int
	Updated      int
	PriceChanged int
	Failed       int
	Deactivated  int64
}

// Run performs one full scrape: collect cards, save them raw when rawOut
// is non-nil, clean, enrich mileage and upsert every listing. Upsert
// failures are counted, not fatal.
func Run(ctx context.Context, cfg *config.Config, logger *utils.Logger, store storage.ListingWriter, rawOut storage.RawCardWriter) (RunSummary, error) {
	var sum RunSummary

	s := New(cfg, logger)
	if err := s.Start(ctx); err != nil {
		return sum, err
	}
	defer s.Close()

	cards, err := s.Cards(ctx)
	if err != nil {
		return sum, fmt.Errorf("ecaytrade: scrape: %w", err)
	}
	sum.Cards = len(cards)
	if len(cards) == 0 {
		return sum, errors.New("ecaytrade: no cards extracted, selectors may need updating")
	}

	if rawOut != nil {
		if err := rawOut.WriteRaw(cards); err != nil {
			logger.Error("[ecaytrade] Raw CSV write failed: %v", err)
		}
	}

	listings := services.NewCleaner(logger, cfg.MinPrice).Clean(cards)
	sum.Listings = len(listings)
	s.EnrichMileage(ctx, listings)

	seen := make([]string, 0, len(listings))
	for _, l := range listings {
		res, err := store.Upsert(ctx, l)
		if err != nil {
			logger.Error("[ecaytrade] Upsert %s (%s) failed: %v", l.ExternalID, l.Title, err)
			sum.Failed++
			continue
		}
		seen = append(seen, l.ExternalID)
		tally(&sum, res)
	}

	if d, ok := store.(Deactivator); ok && s.Complete() && sum.Failed == 0 {
		n, err := d.DeactivateMissing(ctx, seen)
		if err != nil {
			logger.Warn("[ecaytrade] Deactivating stale listings failed: %v", err)
		}
		sum.Deactivated = n
	}

	logger.Info("[ecaytrade] Done: inserted %d | updated %d (price changed %d) | failed %d | deactivated %d",
		sum.Inserted, sum.Updated, sum.PriceChanged, sum.Failed, sum.Deactivated)
	return sum, nil
}

func tally(sum *RunSummary, res storage.UpsertResult) {
	switch {
	case res.Inserted:
		sum.Inserted++
	case res.PriceChanged:
		sum.PriceChanged++
		sum.Updated++
	default:
		sum.Updated++
	}
}
