package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Placeholder is shown in place of an unknown value.
const Placeholder = "—"

// MileageBucket is one point of the mileage-vs-price chart. Key is the
// lower bound of the range; formatting it is left to the caller.
type MileageBucket struct {
	Key      int     `json:"key"`
	AvgPrice float64 `json:"avg_price"`
	Count    int     `json:"count"`
}

// DisplayRow is the table projection of a Listing. FairPrice and
// DealRating belong to the appraiser and are never derived here.
type DisplayRow struct {
	ID           string     `json:"id"`
	Make         string     `json:"make"`
	Model        string     `json:"model"`
	Year         *int       `json:"year"`
	Price        float64    `json:"price"`
	Mileage      *int       `json:"mileage"`
	FairPrice    *float64   `json:"fair_price"`
	DealRating   DealRating `json:"deal_rating,omitempty"`
	ListedDate   time.Time  `json:"listed_date"`
	Condition    string     `json:"condition"`
	Transmission string     `json:"transmission"`
	FuelType     string     `json:"fuel_type"`
	BodyType     string     `json:"body_type"`
	URL          string     `json:"url,omitempty"`
}

// YearText renders the model year or the placeholder.
func (r *DisplayRow) YearText() string {
	if r.Year == nil {
		return Placeholder
	}
	return strconv.Itoa(*r.Year)
}

// MileageText renders the odometer reading or the placeholder.
func (r *DisplayRow) MileageText() string {
	if r.Mileage == nil {
		return Placeholder
	}
	return groupThousands(int64(*r.Mileage)) + " km"
}

// PriceDiff compares the asking price with the appraiser's estimate.
// pct is rounded to one decimal. ok is false without a usable estimate.
func (r *DisplayRow) PriceDiff() (diff, pct float64, ok bool) {
	if r.FairPrice == nil || *r.FairPrice == 0 {
		return 0, 0, false
	}
	diff = r.Price - *r.FairPrice
	pct = math.Round(diff/(*r.FairPrice)*1000) / 10
	return diff, pct, true
}

// Subtitle joins body type, transmission and fuel type, skipping blanks.
func (r *DisplayRow) Subtitle() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.BodyType, r.Transmission, r.FuelType} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}

// Dashboard is everything one render needs, built from a single snapshot.
type Dashboard struct {
	// LiveStats and LiveListings record which widgets came from the live
	// snapshot. Buckets, rows and makes follow LiveListings.
	LiveStats    bool
	LiveListings bool
	Stats        Stats
	Changes      *KPIChanges
	GreatDeals   int
	Buckets      []MileageBucket
	Rows         []DisplayRow
	Makes        []string
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatMoney renders a whole-unit amount with thousands separators.
func FormatMoney(v float64) string {
	n := int64(v + 0.5)
	if v < 0 {
		n = int64(v - 0.5)
	}
	return "$" + groupThousands(n)
}

// Snapshot is one acquisition from the listing repository. A nil Stats or
// empty Listings means that half was unavailable.
type Snapshot struct {
	Stats    *Stats
	Listings []Listing
}
