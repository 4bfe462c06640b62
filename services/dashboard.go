package services

import (
	"time"

	"ecaytracker/models"
	"ecaytracker/utils"
)

// Fallback is the bundled reference data shown when the live snapshot
// is unavailable.
type Fallback struct {
	Listings  []models.Listing
	Stats     models.Stats
	Changes   *models.KPIChanges
	Points    []models.MileagePricePoint
	Appraiser Appraiser
}

// DashboardService assembles every widget from one snapshot.
type DashboardService struct {
	logger    *utils.Logger
	stats     *StatsService
	appraiser Appraiser
}

// NewDashboardService creates a DashboardService. appraiser annotates live
// listings and may be nil.
func NewDashboardService(logger *utils.Logger, appraiser Appraiser) *DashboardService {
	return &DashboardService{
		logger:    logger,
		stats:     NewStatsService(logger),
		appraiser: appraiser,
	}
}

// Build picks live data per widget when it is available and reference
// data otherwise. The aggregator, bucketizer and view run the same way
// whichever source feeds them.
func (s *DashboardService) Build(live models.Snapshot, fb Fallback, q ViewQuery, now time.Time) models.Dashboard {
	hasListings := len(live.Listings) > 0
	d := models.Dashboard{LiveStats: live.Stats != nil || hasListings, LiveListings: hasListings}

	switch {
	case live.Stats != nil:
		d.Stats = *live.Stats
	case hasListings:
		s.logger.Info("[dashboard] No pre-aggregated stats, computing from %d listings", len(live.Listings))
		d.Stats = s.stats.Generate(live.Listings, now)
	default:
		s.logger.Warn("[dashboard] Live data unavailable, using reference dataset")
		d.Stats = fb.Stats
		d.Changes = fb.Changes
	}

	source, appraiser := live.Listings, s.appraiser
	if hasListings {
		d.Buckets = Bucketize(live.Listings)
	} else {
		source, appraiser = fb.Listings, fb.Appraiser
		d.Buckets = BucketizeReference(fb.Points)
	}

	view := NewListingsView(appraiser)
	d.Rows = view.Rows(source, q, now)
	d.Makes = Makes(source)
	d.GreatDeals = countGreatDeals(source, appraiser)
	return d
}

func countGreatDeals(listings []models.Listing, appraiser Appraiser) int {
	if appraiser == nil {
		return 0
	}
	n := 0
	for i := range listings {
		if _, rating := appraiser.Appraise(listings[i]); rating == models.GreatDeal {
			n++
		}
	}
	return n
}
