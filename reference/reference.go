// Package reference loads the bundled market snapshot that stands in for
// live data when the API cannot be reached.
package reference

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ecaytracker/models"
	"ecaytracker/services"
)

//go:embed listings.yaml
var embedded []byte

type appraisal struct {
	fairPrice *float64
	rating    models.DealRating
}

type entry struct {
	models.Listing `yaml:",inline"`
	FairPrice      *float64          `yaml:"fair_price"`
	DealRating     models.DealRating `yaml:"deal_rating"`
}

type document struct {
	Stats    models.Stats               `yaml:"stats"`
	Changes  *models.KPIChanges         `yaml:"changes"`
	Points   []models.MileagePricePoint `yaml:"points"`
	Listings []entry                    `yaml:"listings"`
}

// Dataset is a decoded reference snapshot. It also appraises its own
// listings from the precomputed fair prices.
type Dataset struct {
	Stats    models.Stats
	Changes  *models.KPIChanges
	Points   []models.MileagePricePoint
	Listings []models.Listing

	appraisals map[string]appraisal
}

// Load reads the dataset at path, or the embedded copy when path is empty.
func Load(path string) (*Dataset, error) {
	raw := embedded
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reference: read %s: %w", path, err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes a YAML reference document.
func Parse(raw []byte) (*Dataset, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("reference: decode: %w", err)
	}

	ds := &Dataset{
		Stats:      doc.Stats,
		Changes:    doc.Changes,
		Points:     doc.Points,
		Listings:   make([]models.Listing, 0, len(doc.Listings)),
		appraisals: make(map[string]appraisal, len(doc.Listings)),
	}
	for i, e := range doc.Listings {
		if e.ID == "" {
			return nil, fmt.Errorf("reference: listing %d has no id", i)
		}
		if _, dup := ds.appraisals[e.ID]; dup {
			return nil, fmt.Errorf("reference: duplicate listing id %q", e.ID)
		}
		ds.Listings = append(ds.Listings, e.Listing)
		ds.appraisals[e.ID] = appraisal{fairPrice: e.FairPrice, rating: e.DealRating}
	}
	return ds, nil
}

// Appraise returns the precomputed fair price and rating for a reference
// listing. Unknown listings are unrated.
func (d *Dataset) Appraise(l models.Listing) (*float64, models.DealRating) {
	a, ok := d.appraisals[l.ID]
	if !ok {
		return nil, ""
	}
	if a.fairPrice == nil {
		return nil, a.rating
	}
	fair := *a.fairPrice
	return &fair, a.rating
}

// Fallback packages the dataset for the dashboard service.
func (d *Dataset) Fallback() services.Fallback {
	return services.Fallback{
		Listings:  d.Listings,
		Stats:     d.Stats,
		Changes:   d.Changes,
		Points:    d.Points,
		Appraiser: d,
	}
}
