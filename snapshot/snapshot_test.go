package snapshot

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"ecaytracker/models"
	"ecaytracker/utils"
)

type fakeSource struct {
	stats       *models.Stats
	statsErr    error
	listings    []models.Listing
	listingsErr error
	delay       time.Duration
	inFlight    int32
	peak        int32
}

func (f *fakeSource) enter() func() {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return func() { atomic.AddInt32(&f.inFlight, -1) }
}

func (f *fakeSource) FetchStats(context.Context) (*models.Stats, error) {
	defer f.enter()()
	return f.stats, f.statsErr
}

func (f *fakeSource) FetchListings(context.Context) ([]models.Listing, error) {
	defer f.enter()()
	return f.listings, f.listingsErr
}

func quietLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, "error") }

func TestAcquireBothAvailable(t *testing.T) {
	src := &fakeSource{
		stats:    &models.Stats{TotalListings: 1},
		listings: []models.Listing{{ID: "x"}},
		delay:    20 * time.Millisecond,
	}
	snap := Acquire(context.Background(), src, quietLogger())

	if snap.Stats == nil || snap.Stats.TotalListings != 1 {
		t.Errorf("stats: got %+v", snap.Stats)
	}
	if len(snap.Listings) != 1 {
		t.Errorf("listings: got %d, want 1", len(snap.Listings))
	}
	if src.peak != 2 {
		t.Errorf("fetches should overlap, peak in-flight %d", src.peak)
	}
}

func TestAcquireDegradesToUnavailable(t *testing.T) {
	src := &fakeSource{
		statsErr:    errors.New("connection refused"),
		listingsErr: errors.New("status 500"),
	}
	snap := Acquire(context.Background(), src, quietLogger())

	if snap.Stats != nil {
		t.Error("failed stats fetch should yield nil")
	}
	if snap.Listings == nil || len(snap.Listings) != 0 {
		t.Errorf("failed listings fetch should yield an empty slice, got %v", snap.Listings)
	}
}

func TestAcquireHalvesAreIndependent(t *testing.T) {
	src := &fakeSource{
		statsErr: errors.New("timeout"),
		listings: []models.Listing{{ID: "a"}, {ID: "b"}},
	}
	snap := Acquire(context.Background(), src, quietLogger())
	if snap.Stats != nil || len(snap.Listings) != 2 {
		t.Errorf("snapshot: got stats=%v listings=%d", snap.Stats, len(snap.Listings))
	}
}
