package storage

import (
	"context"

	"ecaytracker/models"
)

// ListingRepository is the read side served by the API. Any backend that
// can list active listings and summarise them satisfies it.
type ListingRepository interface {
	FetchListings(ctx context.Context) ([]models.Listing, error)
	FetchStats(ctx context.Context) (*models.Stats, error)
	Ping(ctx context.Context) error
}

// ListingWriter persists cleaned listings one at a time.
type ListingWriter interface {
	Upsert(ctx context.Context, l models.Listing) (UpsertResult, error)
	Close() error
}

// RawCardWriter is the interface for persisting unprocessed scraped data.
type RawCardWriter interface {
	WriteRaw(cards []models.RawCard) error
	Close() error
}

// UpsertResult describes what an Upsert did.
type UpsertResult struct {
	Inserted     bool
	PriceChanged bool
}
