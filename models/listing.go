package models

import "time"

// RawCard holds an unprocessed advert card exactly as scraped from the
// results page. It is written to CSV before any parsing.
type RawCard struct {
	URL       string
	Text      string
	ImageURL  string
	ScrapedAt time.Time
}

// Listing is one vehicle-for-sale record. Fields map 1-to-1 with the
// `listings` table. Year, Mileage and the lifecycle timestamps are
// pointers because absence means "unknown", not zero.
type Listing struct {
	ID            string     `json:"id,omitempty" yaml:"id"`
	ExternalID    string     `json:"external_id" yaml:"external_id"`
	URL           string     `json:"url" yaml:"url"`
	Title         string     `json:"title" yaml:"title"`
	Make          string     `json:"make,omitempty" yaml:"make"`
	Model         string     `json:"model,omitempty" yaml:"model"`
	BodyType      string     `json:"body_type,omitempty" yaml:"body_type"`
	Year          *int       `json:"year,omitempty" yaml:"year"`
	Mileage       *int       `json:"mileage,omitempty" yaml:"mileage"`
	Price         float64    `json:"price" yaml:"price"`
	Currency      string     `json:"currency" yaml:"currency"`
	Condition     string     `json:"condition,omitempty" yaml:"condition"`
	Transmission  string     `json:"transmission,omitempty" yaml:"transmission"`
	FuelType      string     `json:"fuel_type,omitempty" yaml:"fuel_type"`
	Color         string     `json:"color,omitempty" yaml:"color"`
	Drive         string     `json:"drive,omitempty" yaml:"drive"`
	Cylinders     string     `json:"cylinders,omitempty" yaml:"cylinders"`
	Steering      string     `json:"steering,omitempty" yaml:"steering"`
	InteriorColor string     `json:"interior_color,omitempty" yaml:"interior_color"`
	Doors         string     `json:"doors,omitempty" yaml:"doors"`
	OnIsland      bool       `json:"on_island" yaml:"on_island"`
	Description   string     `json:"description,omitempty" yaml:"description"`
	Images        []string   `json:"images,omitempty" yaml:"images"`
	Location      string     `json:"location,omitempty" yaml:"location"`
	SellerName    string     `json:"seller_name,omitempty" yaml:"seller_name"`
	IsActive      bool       `json:"is_active" yaml:"is_active"`
	FirstSeen     *time.Time `json:"first_seen,omitempty" yaml:"first_seen"`
	LastSeen      *time.Time `json:"last_seen,omitempty" yaml:"last_seen"`
	CreatedAt     *time.Time `json:"created_at,omitempty" yaml:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" yaml:"updated_at"`
}

// ListedAt returns first_seen, falling back to created_at. ok is false
// when neither is known.
func (l *Listing) ListedAt() (t time.Time, ok bool) {
	switch {
	case l.FirstSeen != nil:
		return *l.FirstSeen, true
	case l.CreatedAt != nil:
		return *l.CreatedAt, true
	}
	return time.Time{}, false
}

// DealRating is the categorical judgement attached by the fair-price
// appraiser. The empty value means "not rated".
type DealRating string

const (
	GreatDeal  DealRating = "Great Deal"
	GoodDeal   DealRating = "Good Deal"
	FairDeal   DealRating = "Fair Deal"
	Overpriced DealRating = "Overpriced"
)

// MileagePricePoint is a bare (mileage, price) sample used by the
// reference dataset's mileage chart.
type MileagePricePoint struct {
	Mileage int     `json:"mileage" yaml:"mileage"`
	Price   float64 `json:"price" yaml:"price"`
}

// IntPtr is a small helper for building optional integer fields.
func IntPtr(v int) *int { return &v }

// TimePtr is a small helper for building optional timestamps.
func TimePtr(t time.Time) *time.Time { return &t }
