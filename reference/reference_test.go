package reference

import (
	"os"
	"path/filepath"
	"testing"

	"ecaytracker/models"
	"ecaytracker/services"
)

func TestLoadEmbedded(t *testing.T) {
	ds, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Listings) == 0 {
		t.Fatal("embedded dataset has no listings")
	}
	if ds.Stats.TotalListings == 0 || len(ds.Stats.TopBrands) == 0 {
		t.Errorf("stats not decoded: %+v", ds.Stats)
	}
	if ds.Changes == nil {
		t.Error("KPI changes not decoded")
	}
	if len(ds.Points) == 0 {
		t.Error("mileage points not decoded")
	}

	first := ds.Listings[0]
	if first.Year == nil || first.Mileage == nil || first.FirstSeen == nil {
		t.Errorf("optional fields not decoded: %+v", first)
	}
}

func TestEmbeddedAppraisals(t *testing.T) {
	ds, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	great := 0
	for _, l := range ds.Listings {
		fair, rating := ds.Appraise(l)
		if fair == nil || rating == "" {
			t.Errorf("%s: reference listings are all appraised", l.ID)
		}
		if rating == models.GreatDeal {
			great++
		}
	}
	if great == 0 {
		t.Error("expected at least one great deal")
	}

	if fair, rating := ds.Appraise(models.Listing{ID: "unknown"}); fair != nil || rating != "" {
		t.Errorf("unknown listing should be unrated, got %v %q", fair, rating)
	}
}

func TestEmbeddedFallbackRenders(t *testing.T) {
	ds, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fb := ds.Fallback()
	rows := services.NewListingsView(fb.Appraiser).Rows(fb.Listings, services.ViewQuery{Sort: services.DefaultSort()}, ds.Listings[0].FirstSeen.AddDate(0, 0, 1))
	if len(rows) != len(ds.Listings) {
		t.Fatalf("rows: got %d, want %d", len(rows), len(ds.Listings))
	}
	if rows[0].FairPrice == nil {
		t.Error("rows should carry fair prices")
	}
	// a few of the points sit far beyond the live cap and must still appear
	buckets := services.BucketizeReference(fb.Points)
	if last := buckets[len(buckets)-1]; last.Key <= services.MaxBucketMileage {
		t.Errorf("reference buckets are uncapped, last key %d", last.Key)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	doc := `
stats:
  total_listings: 1
  avg_price: 5000
listings:
  - id: a
    make: Mazda
    price: 5000
    year: 2012
    fair_price: 5500
    deal_rating: Good Deal
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Listings) != 1 || ds.Listings[0].Make != "Mazda" {
		t.Errorf("listings: got %+v", ds.Listings)
	}
	if ds.Listings[0].Mileage != nil {
		t.Error("absent mileage should stay unset")
	}
	fair, rating := ds.Appraise(ds.Listings[0])
	if fair == nil || *fair != 5500 || rating != models.GoodDeal {
		t.Errorf("appraisal: got %v %q", fair, rating)
	}
	if ds.Changes != nil {
		t.Error("absent changes should stay nil")
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":    "stats: [",
		"missing id":   "listings:\n  - make: Kia\n",
		"duplicate id": "listings:\n  - id: x\n  - id: x\n",
	}
	for name, doc := range tests {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected an error")
	}
}
