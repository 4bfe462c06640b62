package models

// Stats holds the dashboard summary figures. It is either supplied
// pre-aggregated by the repository or recomputed from a listing snapshot.
type Stats struct {
	TotalListings    int            `json:"total_listings" yaml:"total_listings"`
	AvgPrice         float64        `json:"avg_price" yaml:"avg_price"`
	MedianPrice      float64        `json:"median_price" yaml:"median_price"`
	NewThisWeek      int            `json:"new_this_week" yaml:"new_this_week"`
	AvgMileage       float64        `json:"avg_mileage" yaml:"avg_mileage"`
	TopBrands        []BrandStat    `json:"top_brands" yaml:"top_brands"`
	BodyTypes        []BodyTypeStat `json:"body_types" yaml:"body_types"`
	YearDistribution []YearStat     `json:"year_distribution" yaml:"year_distribution"`
}

// BrandStat holds per-make aggregates.
type BrandStat struct {
	Name     string  `json:"name" yaml:"name"`
	Count    int     `json:"count" yaml:"count"`
	AvgPrice float64 `json:"avg_price" yaml:"avg_price"`
}

// BodyTypeStat holds per-body-type aggregates.
type BodyTypeStat struct {
	Type     string  `json:"type" yaml:"type"`
	Count    int     `json:"count" yaml:"count"`
	AvgPrice float64 `json:"avg_price" yaml:"avg_price"`
}

// YearStat holds the listing count for a model year.
type YearStat struct {
	Year  int `json:"year" yaml:"year"`
	Count int `json:"count" yaml:"count"`
}

// KPIChanges are month-over-month deltas in percent. Only the reference
// dataset carries them; live stats have no history to compare against.
type KPIChanges struct {
	TotalListings float64 `json:"total_listings" yaml:"total_listings"`
	AvgPrice      float64 `json:"avg_price" yaml:"avg_price"`
	MedianPrice   float64 `json:"median_price" yaml:"median_price"`
	AvgMileage    float64 `json:"avg_mileage" yaml:"avg_mileage"`
	NewThisWeek   float64 `json:"new_this_week" yaml:"new_this_week"`
	GreatDeals    float64 `json:"great_deals" yaml:"great_deals"`
}
