package services

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"ecaytracker/models"
)

type SortField string

const (
	SortPrice      SortField = "price"
	SortYear       SortField = "year"
	SortMileage    SortField = "mileage"
	SortListedDate SortField = "listedDate"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// AllMakes is the make filter value that disables filtering.
const AllMakes = "all"

// SortSpec is the active table ordering.
type SortSpec struct {
	Field SortField
	Order SortOrder
}

// DefaultSort lists the most recently seen vehicles first.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortListedDate, Order: Descending}
}

// Toggle flips the direction when field is already active; selecting a
// different field always starts descending.
func (s SortSpec) Toggle(field SortField) SortSpec {
	if s.Field == field {
		if s.Order == Ascending {
			return SortSpec{Field: field, Order: Descending}
		}
		return SortSpec{Field: field, Order: Ascending}
	}
	return SortSpec{Field: field, Order: Descending}
}

// ParseSortField accepts the table's column keys.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortPrice, SortYear, SortMileage, SortListedDate:
		return f, true
	}
	if strings.EqualFold(s, "listed") || strings.EqualFold(s, "listed_date") {
		return SortListedDate, true
	}
	return "", false
}

// ParseSortOrder accepts "asc" or "desc" in any case.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(s)) {
	case Ascending:
		return Ascending, true
	case Descending:
		return Descending, true
	}
	return "", false
}

// ViewQuery is the table state driving one render.
type ViewQuery struct {
	Search string
	Make   string
	Sort   SortSpec
}

// Appraiser attaches a fair-price estimate and deal rating to a listing.
// Either result may be empty; the view only displays what it returns.
type Appraiser interface {
	Appraise(l models.Listing) (fairPrice *float64, rating models.DealRating)
}

// ListingsView turns a listing snapshot into ordered table rows.
type ListingsView struct {
	appraiser Appraiser
}

// NewListingsView creates a view. appraiser may be nil.
func NewListingsView(appraiser Appraiser) *ListingsView {
	return &ListingsView{appraiser: appraiser}
}

// Rows maps, filters and sorts listings for display. now is the fallback
// listed date for listings with no known timestamp; it is captured once
// by the caller so repeated renders order identically.
func (v *ListingsView) Rows(listings []models.Listing, q ViewQuery, now time.Time) []models.DisplayRow {
	search := strings.ToLower(q.Search)
	filterMake := q.Make != "" && q.Make != AllMakes

	rows := make([]models.DisplayRow, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		if search != "" && !matchesSearch(l, search) {
			continue
		}
		if filterMake && l.Make != q.Make {
			continue
		}
		rows = append(rows, v.toRow(l, now))
	}

	sortRows(rows, q.Sort)
	return rows
}

func (v *ListingsView) toRow(l *models.Listing, now time.Time) models.DisplayRow {
	listed, ok := l.ListedAt()
	if !ok {
		listed = now
	}
	row := models.DisplayRow{
		ID:           l.ID,
		Make:         l.Make,
		Model:        l.Model,
		Year:         copyInt(l.Year),
		Price:        l.Price,
		Mileage:      copyInt(l.Mileage),
		ListedDate:   listed,
		Condition:    l.Condition,
		Transmission: l.Transmission,
		FuelType:     l.FuelType,
		BodyType:     l.BodyType,
		URL:          l.URL,
	}
	if v.appraiser != nil {
		fair, rating := v.appraiser.Appraise(*l)
		if fair != nil {
			f := *fair
			row.FairPrice = &f
		}
		row.DealRating = rating
	}
	return row
}

// matchesSearch reports whether make, model or year contains q. q must
// already be lower-cased.
func matchesSearch(l *models.Listing, q string) bool {
	if strings.Contains(strings.ToLower(l.Make), q) || strings.Contains(strings.ToLower(l.Model), q) {
		return true
	}
	return l.Year != nil && strings.Contains(strconv.Itoa(*l.Year), q)
}

func sortRows(rows []models.DisplayRow, spec SortSpec) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareRows(&rows[i], &rows[j], spec.Field)
		if spec.Order == Ascending {
			return c < 0
		}
		return c > 0
	})
}

// compareRows returns <0, 0 or >0. Missing year or mileage compare as zero.
func compareRows(a, b *models.DisplayRow, field SortField) int {
	switch field {
	case SortPrice:
		return cmpFloat(a.Price, b.Price)
	case SortYear:
		return intOrZero(a.Year) - intOrZero(b.Year)
	case SortMileage:
		return intOrZero(a.Mileage) - intOrZero(b.Mileage)
	case SortListedDate:
		return a.ListedDate.Compare(b.ListedDate)
	}
	return 0
}

// Makes returns the sorted distinct non-empty makes, for the filter options.
func Makes(listings []models.Listing) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := range listings {
		mk := listings[i].Make
		if mk == "" {
			continue
		}
		if _, dup := seen[mk]; dup {
			continue
		}
		seen[mk] = struct{}{}
		out = append(out, mk)
	}
	sort.Strings(out)
	return out
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
