// Package snapshot acquires the listing snapshot on a best-effort basis:
// any failure becomes the "unavailable" value instead of an error.
package snapshot

import (
	"context"

	"ecaytracker/models"
	"ecaytracker/utils"
)

// Source is anything that can supply stats and listings, e.g. the HTTP
// client or the Postgres store.
type Source interface {
	FetchStats(ctx context.Context) (*models.Stats, error)
	FetchListings(ctx context.Context) ([]models.Listing, error)
}

// Acquire fetches stats and listings concurrently and waits for both.
// A failed stats fetch yields nil, a failed listings fetch yields an
// empty slice; neither is retried.
func Acquire(ctx context.Context, src Source, logger *utils.Logger) models.Snapshot {
	var snap models.Snapshot
	pool := utils.NewWorkerPool(2, 0)

	pool.Submit(func() {
		stats, err := src.FetchStats(ctx)
		if err != nil {
			logger.Warn("[snapshot] Stats unavailable: %v", err)
			return
		}
		snap.Stats = stats
	})
	pool.Submit(func() {
		listings, err := src.FetchListings(ctx)
		if err != nil {
			logger.Warn("[snapshot] Listings unavailable: %v", err)
			return
		}
		snap.Listings = listings
	})
	pool.Wait()

	if snap.Listings == nil {
		snap.Listings = make([]models.Listing, 0)
	}
	logger.Info("[snapshot] Acquired stats=%v listings=%d", snap.Stats != nil, len(snap.Listings))
	return snap
}
