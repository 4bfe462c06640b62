package services

import (
	"fmt"
	"sort"

	"ecaytracker/models"
)

const (
	BucketWidth      = 25_000
	MaxBucketMileage = 300_000
	// MinBucketSamples drops ranges backed by a single listing.
	MinBucketSamples = 2
)

type bucketAcc struct {
	sum   float64
	count int
}

// BucketKey returns the capped lower bound of the range mileage falls in.
// Anything at or above MaxBucketMileage lands in the overflow bucket.
func BucketKey(mileage int) int {
	key := (mileage / BucketWidth) * BucketWidth
	if key > MaxBucketMileage {
		return MaxBucketMileage
	}
	return key
}

// Bucketize groups live listings into mileage ranges with their mean
// price. Listings without mileage or with a non-positive price are
// skipped, and buckets with fewer than MinBucketSamples are dropped.
// The result is ordered by ascending key.
func Bucketize(listings []models.Listing) []models.MileageBucket {
	acc := make(map[int]*bucketAcc)
	for i := range listings {
		l := &listings[i]
		if l.Mileage == nil || l.Price <= 0 {
			continue
		}
		add(acc, BucketKey(*l.Mileage), l.Price)
	}
	return collect(acc, MinBucketSamples)
}

// BucketizeReference buckets the bundled reference samples. Unlike
// Bucketize it applies neither the mileage cap nor the sample minimum;
// the reference chart has always been drawn that way and is kept as is.
func BucketizeReference(points []models.MileagePricePoint) []models.MileageBucket {
	acc := make(map[int]*bucketAcc)
	for _, p := range points {
		add(acc, (p.Mileage/BucketWidth)*BucketWidth, p.Price)
	}
	return collect(acc, 1)
}

// BucketLabel formats a bucket key in compact form, e.g. 25000 → "25k".
func BucketLabel(key int) string {
	return fmt.Sprintf("%dk", key/1000)
}

func add(acc map[int]*bucketAcc, key int, price float64) {
	b, ok := acc[key]
	if !ok {
		b = &bucketAcc{}
		acc[key] = b
	}
	b.sum += price
	b.count++
}

func collect(acc map[int]*bucketAcc, minSamples int) []models.MileageBucket {
	keys := make([]int, 0, len(acc))
	for k, b := range acc {
		if b.count >= minSamples {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)

	out := make([]models.MileageBucket, 0, len(keys))
	for _, k := range keys {
		b := acc[k]
		out = append(out, models.MileageBucket{
			Key:      k,
			AvgPrice: b.sum / float64(b.count),
			Count:    b.count,
		})
	}
	return out
}
