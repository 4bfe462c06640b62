package services

import (
	"testing"

	"ecaytracker/models"
)

func withMileage(m int, price float64) models.Listing {
	return models.Listing{Mileage: models.IntPtr(m), Price: price}
}

func TestBucketKey(t *testing.T) {
	tests := []struct {
		mileage int
		want    int
	}{
		{0, 0},
		{24999, 0},
		{25000, 25000},
		{299999, 275000},
		{300000, 300000},
		{1250000, 300000},
	}
	for _, tt := range tests {
		if got := BucketKey(tt.mileage); got != tt.want {
			t.Errorf("BucketKey(%d) = %d; want %d", tt.mileage, got, tt.want)
		}
	}
}

func TestBucketizeScenario(t *testing.T) {
	listings := []models.Listing{
		withMileage(500, 1000),
		withMileage(500, 3000),
		withMileage(26000, 5000),
		withMileage(27000, 7000),
		withMileage(400000, 9000),
	}
	got := Bucketize(listings)
	want := []models.MileageBucket{
		{Key: 0, AvgPrice: 2000, Count: 2},
		{Key: 25000, AvgPrice: 6000, Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("buckets: got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBucketizeOverflowIsFoldedNotDropped(t *testing.T) {
	got := Bucketize([]models.Listing{withMileage(300000, 4000), withMileage(900000, 2000)})
	if len(got) != 1 || got[0].Key != MaxBucketMileage || got[0].Count != 2 || got[0].AvgPrice != 3000 {
		t.Errorf("overflow bucket: got %+v", got)
	}
}

func TestBucketizeDropsSingleSample(t *testing.T) {
	if got := Bucketize([]models.Listing{withMileage(1000, 5000)}); len(got) != 0 {
		t.Errorf("single-sample bucket should be dropped, got %+v", got)
	}
}

func TestBucketizeSkipsUnusableListings(t *testing.T) {
	listings := []models.Listing{
		{Price: 5000},            // no mileage
		{Price: 5000},            // no mileage
		withMileage(1000, 0),     // no price
		withMileage(2000, -1),    // negative price
		withMileage(3000, 10000), // kept
		withMileage(4000, 20000), // kept
	}
	got := Bucketize(listings)
	if len(got) != 1 || got[0].Count != 2 || got[0].AvgPrice != 15000 {
		t.Errorf("buckets: got %+v", got)
	}
}

func TestBucketizeOrderedAscending(t *testing.T) {
	listings := []models.Listing{
		withMileage(210000, 1), withMileage(210000, 1),
		withMileage(10000, 1), withMileage(10000, 1),
		withMileage(110000, 1), withMileage(110000, 1),
	}
	got := Bucketize(listings)
	for i := 1; i < len(got); i++ {
		if got[i-1].Key >= got[i].Key {
			t.Fatalf("buckets not ascending: %+v", got)
		}
	}
	if len(got) != 3 {
		t.Errorf("bucket count: got %d, want 3", len(got))
	}
}

func TestBucketizeReferenceKeepsSingletonsAndHighMileage(t *testing.T) {
	got := BucketizeReference([]models.MileagePricePoint{
		{Mileage: 1000, Price: 30000},
		{Mileage: 410000, Price: 2000},
	})
	if len(got) != 2 {
		t.Fatalf("reference buckets: got %+v", got)
	}
	if got[1].Key != 400000 {
		t.Errorf("reference path is uncapped: got key %d, want 400000", got[1].Key)
	}
}

func TestBucketLabel(t *testing.T) {
	if got := BucketLabel(25000); got != "25k" {
		t.Errorf("BucketLabel(25000) = %q", got)
	}
	if got := BucketLabel(0); got != "0k" {
		t.Errorf("BucketLabel(0) = %q", got)
	}
}
