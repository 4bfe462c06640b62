package services

import (
	"math"
	"sort"
	"time"

	"ecaytracker/models"
	"ecaytracker/utils"
)

// NewListingWindow is the trailing window counted as "new this week".
const NewListingWindow = 7 * 24 * time.Hour

// StatsService recomputes dashboard statistics from a listing snapshot.
// It is only used when the repository did not supply pre-aggregated stats.
type StatsService struct {
	logger *utils.Logger
}

func NewStatsService(logger *utils.Logger) *StatsService {
	return &StatsService{logger: logger}
}

// Generate computes Stats over listings as of now. It never fails: an
// empty snapshot yields zero scalars and empty (non-nil) breakdowns.
func (s *StatsService) Generate(listings []models.Listing, now time.Time) models.Stats {
	stats := models.Stats{
		TotalListings:    len(listings),
		TopBrands:        make([]models.BrandStat, 0),
		BodyTypes:        make([]models.BodyTypeStat, 0),
		YearDistribution: make([]models.YearStat, 0),
	}
	if len(listings) == 0 {
		return stats
	}

	var prices []float64
	var mileageTotal float64
	var mileageCount int
	brands := newPriceGroups[string]()
	bodies := newPriceGroups[string]()
	years := newPriceGroups[int]()
	cutoff := now.Add(-NewListingWindow)

	for i := range listings {
		l := &listings[i]

		if l.Price > 0 {
			prices = append(prices, l.Price)
		}
		if l.Mileage != nil {
			mileageTotal += float64(*l.Mileage)
			mileageCount++
		}
		if t, ok := l.ListedAt(); ok && !t.Before(cutoff) && !t.After(now) {
			stats.NewThisWeek++
		}

		if l.Make != "" {
			brands.add(l.Make, l.Price)
		}
		if l.BodyType != "" {
			bodies.add(l.BodyType, l.Price)
		}
		if l.Year != nil {
			years.add(*l.Year, l.Price)
		}
	}

	if len(prices) > 0 {
		var total float64
		for _, p := range prices {
			total += p
		}
		stats.AvgPrice = round2(total / float64(len(prices)))
		stats.MedianPrice = round2(median(prices))
	}
	if mileageCount > 0 {
		stats.AvgMileage = round2(mileageTotal / float64(mileageCount))
	}

	for _, g := range brands.ranked() {
		stats.TopBrands = append(stats.TopBrands, models.BrandStat{Name: g.key, Count: g.count, AvgPrice: g.avgPrice()})
	}
	for _, g := range bodies.ranked() {
		stats.BodyTypes = append(stats.BodyTypes, models.BodyTypeStat{Type: g.key, Count: g.count, AvgPrice: g.avgPrice()})
	}
	for _, g := range years.ranked() {
		stats.YearDistribution = append(stats.YearDistribution, models.YearStat{Year: g.key, Count: g.count})
	}

	s.logger.Debug("[stats] %d listings → %d priced, %d with mileage, %d brands",
		len(listings), len(prices), mileageCount, len(stats.TopBrands))
	return stats
}

// median returns the middle value of values (the mean of the two middle
// values for an even count), or 0 for an empty slice. values is not modified.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

type priceGroup[K comparable] struct {
	key        K
	count      int
	priceSum   float64
	priceCount int
}

func (g *priceGroup[K]) avgPrice() float64 {
	if g.priceCount == 0 {
		return 0
	}
	return round2(g.priceSum / float64(g.priceCount))
}

// priceGroups accumulates per-key counts, remembering first-seen order so
// that ranking can break count ties deterministically.
type priceGroups[K comparable] struct {
	index  map[K]int
	groups []*priceGroup[K]
}

func newPriceGroups[K comparable]() *priceGroups[K] {
	return &priceGroups[K]{index: make(map[K]int)}
}

func (p *priceGroups[K]) add(key K, price float64) {
	i, ok := p.index[key]
	if !ok {
		i = len(p.groups)
		p.index[key] = i
		p.groups = append(p.groups, &priceGroup[K]{key: key})
	}
	g := p.groups[i]
	g.count++
	if price > 0 {
		g.priceSum += price
		g.priceCount++
	}
}

// ranked orders groups by descending count; ties keep first-seen order.
func (p *priceGroups[K]) ranked() []*priceGroup[K] {
	out := make([]*priceGroup[K], len(p.groups))
	copy(out, p.groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].count > out[j].count
	})
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
