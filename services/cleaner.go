package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"ecaytracker/models"
	"ecaytracker/utils"
)

var (
	// priceRegexp captures "CI$ 5,000", "KYD$6,000", "US$ 16,000"
	priceRegexp = regexp.MustCompile(`(?i)(CI\$|KYD\$?|US\$?)\s*([\d,]+(?:\.\d+)?)`)
	// yearRegexp captures a 19xx/20xx model year
	yearRegexp = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	// advertIDRegexp captures the numeric id at the end of an advert URL
	advertIDRegexp = regexp.MustCompile(`/advert/(\d+)/?$`)
	// mileageRegexp captures "over 100,000", "under 50,000", "85,000 km", "60000 miles"
	mileageRegexp = regexp.MustCompile(`(?i)(over\s+[\d,]+|under\s+[\d,]+|[\d,]+\s*(?:km|miles|mi)\b)`)
	digitsRegexp  = regexp.MustCompile(`[\d,]+`)
	// locationRegexp captures the island / district names used on the site
	locationRegexp = regexp.MustCompile(`(?i)(on island|off island|grand cayman|cayman brac|little cayman|george town|bodden town|west bay|north side|east end)`)
)

// knownMakes helps split "Land Rover Defender" into make and model.
var knownMakes = []string{
	"Acura", "Alfa Romeo", "Aston Martin", "Audi", "Bentley", "BMW", "Bugatti",
	"Buick", "Cadillac", "Chevrolet", "Chrysler", "Citroën", "Dodge", "Ferrari",
	"Fiat", "Ford", "Genesis", "GMC", "Honda", "Hyundai", "Infiniti", "Jaguar",
	"Jeep", "Kia", "Lamborghini", "Land Rover", "Lexus", "Lincoln", "Lotus",
	"Maserati", "Mazda", "McLaren", "Mercedes-Benz", "Mercedes", "MINI", "Mitsubishi",
	"Nissan", "Peugeot", "Pontiac", "Porsche", "Ram", "Rolls-Royce", "Subaru",
	"Suzuki", "Tesla", "Toyota", "Volkswagen", "Volvo",
}

// Cleaner turns scraped advert cards into validated Listings.
type Cleaner struct {
	logger   *utils.Logger
	minPrice float64
}

// NewCleaner creates a Cleaner that drops listings priced below minPrice.
func NewCleaner(logger *utils.Logger, minPrice float64) *Cleaner {
	return &Cleaner{logger: logger, minPrice: minPrice}
}

// Clean parses cards and returns the listings worth keeping: unique URL,
// known year, price at or above the minimum, and a real asking price.
func (c *Cleaner) Clean(cards []models.RawCard) []models.Listing {
	seen := make(map[string]struct{})
	result := make([]models.Listing, 0, len(cards))

	for _, card := range cards {
		url := strings.TrimSpace(card.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping card with empty URL")
			continue
		}
		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		l := ParseCard(card)
		switch {
		case l.Title == "" && l.Price == 0:
			c.logger.Debug("[cleaner] Empty card skipped: %s", url)
			continue
		case strings.Contains(strings.ToLower(l.Title), "price upon request"):
			c.logger.Debug("[cleaner] Price upon request skipped: %s", l.Title)
			continue
		case l.Year == nil:
			c.logger.Debug("[cleaner] No year, skipped: %s", l.Title)
			continue
		case l.Price < c.minPrice:
			c.logger.Debug("[cleaner] Price too low (CI$%.0f), skipped: %s", l.Price, l.Title)
			continue
		}

		l.ID = uuid.NewString()
		if !card.ScrapedAt.IsZero() {
			l.FirstSeen = models.TimePtr(card.ScrapedAt)
			l.LastSeen = models.TimePtr(card.ScrapedAt)
		}
		result = append(result, l)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(cards), len(result), len(cards)-len(result))
	return result
}

// ParseCard extracts what it can from one advert card's text.
func ParseCard(card models.RawCard) models.Listing {
	l := models.Listing{
		URL:      strings.TrimSpace(card.URL),
		IsActive: true,
	}
	if card.ImageURL != "" {
		l.Images = []string{card.ImageURL}
	}
	if m := advertIDRegexp.FindStringSubmatch(l.URL); len(m) == 2 {
		l.ExternalID = m[1]
	}

	text := card.Text
	if m := priceRegexp.FindStringSubmatch(text); len(m) == 3 {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64); err == nil {
			l.Price = v
			l.Currency = normaliseCurrency(m[1])
		}
	}

	// The title often starts with the year, so the last match is preferred.
	if years := yearRegexp.FindAllString(text, -1); len(years) > 0 {
		if v, err := strconv.Atoi(years[len(years)-1]); err == nil {
			l.Year = &v
		}
	}

	if m := locationRegexp.FindString(text); m != "" {
		l.Location = titleCase(m)
	}
	l.Mileage = ParseMileage(text)
	l.Title = extractTitle(text)
	l.Make, l.Model = splitMakeModel(l.Title)
	return l
}

// ParseMileage returns the first odometer reading in text, or nil.
func ParseMileage(text string) *int {
	m := mileageRegexp.FindString(text)
	if m == "" {
		return nil
	}
	digits := strings.ReplaceAll(digitsRegexp.FindString(m), ",", "")
	v, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &v
}

// extractTitle picks the first line that is neither a bare price nor a
// "·"-separated detail line.
func extractTitle(text string) string {
	for _, line := range strings.Split(strings.ReplaceAll(text, "\t", " "), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if priceRegexp.MatchString(line) && len(line) < 20 {
			continue
		}
		if strings.Contains(line, "·") {
			continue
		}
		return normaliseText(line)
	}
	clean := normaliseText(text)
	if r := []rune(clean); len(r) > 60 {
		return string(r[:60])
	}
	return clean
}

// splitMakeModel turns "2018 Toyota Camry SE" into ("Toyota", "Camry SE").
func splitMakeModel(title string) (make_, model string) {
	stripped := strings.TrimSpace(yearRegexp.ReplaceAllString(title, ""))
	upper := strings.ToUpper(stripped)
	for _, mk := range knownMakes {
		if strings.HasPrefix(upper, strings.ToUpper(mk)) {
			return mk, strings.TrimSpace(stripped[len(mk):])
		}
	}

	parts := strings.Fields(stripped)
	switch len(parts) {
	case 0:
		return "", title
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func normaliseCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "CI"), strings.HasPrefix(s, "KYD"):
		return "KYD"
	case strings.HasPrefix(s, "US"):
		return "USD"
	}
	return s
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
