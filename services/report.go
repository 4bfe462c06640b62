package services

import (
	"fmt"
	"io"
	"strings"

	"ecaytracker/models"
)

const (
	reportBrands  = 8
	reportRows    = 20
	reportBarUnit = 40
)

// Print renders the dashboard as a coloured terminal report.
func Print(w io.Writer, d models.Dashboard) {
	sep := strings.Repeat("═", 72)
	thin := strings.Repeat("─", 72)

	var source string
	switch {
	case d.LiveStats && d.LiveListings:
		source = "live"
	case d.LiveStats:
		source = "live stats, listings from reference dataset"
	default:
		source = "reference dataset (offline)"
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🚗 ECAYTRADE VEHICLE MARKET\033[0m  (%s)\n", source)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	section(w, "Overview", thin)
	s := d.Stats
	kpi(w, "Total listings", fmt.Sprintf("%d", s.TotalListings), changeOf(d.Changes, func(c *models.KPIChanges) float64 { return c.TotalListings }))
	kpi(w, "Average price", models.FormatMoney(s.AvgPrice), changeOf(d.Changes, func(c *models.KPIChanges) float64 { return c.AvgPrice }))
	kpi(w, "Median price", models.FormatMoney(s.MedianPrice), changeOf(d.Changes, func(c *models.KPIChanges) float64 { return c.MedianPrice }))
	mileage := models.Placeholder
	if s.AvgMileage > 0 {
		mileage = strings.TrimPrefix(models.FormatMoney(s.AvgMileage), "$") + " km"
	}
	kpi(w, "Avg mileage", mileage, changeOf(d.Changes, func(c *models.KPIChanges) float64 { return c.AvgMileage }))
	kpi(w, "New this week", fmt.Sprintf("%d", s.NewThisWeek), changeOf(d.Changes, func(c *models.KPIChanges) float64 { return c.NewThisWeek }))
	kpi(w, "Great deals", fmt.Sprintf("%d", d.GreatDeals), changeOf(d.Changes, func(c *models.KPIChanges) float64 { return c.GreatDeals }))
	fmt.Fprintln(w)

	section(w, "Top Brands", thin)
	if len(s.TopBrands) == 0 {
		fmt.Fprintf(w, "  No brand data\n")
	}
	brands := s.TopBrands
	if len(brands) > reportBrands {
		brands = brands[:reportBrands]
	}
	maxCount := 0
	for _, b := range brands {
		maxCount = max(maxCount, b.Count)
	}
	for _, b := range brands {
		fmt.Fprintf(w, "  %-16s %s %d  (avg %s)\n", truncate(b.Name, 16), bar(b.Count, maxCount), b.Count, models.FormatMoney(b.AvgPrice))
	}
	fmt.Fprintln(w)

	section(w, "Body Types", thin)
	if len(s.BodyTypes) == 0 {
		fmt.Fprintf(w, "  No body type data\n")
	}
	for _, b := range s.BodyTypes {
		fmt.Fprintf(w, "  %-16s %4d listings  avg %s\n", truncate(b.Type, 16), b.Count, models.FormatMoney(b.AvgPrice))
	}
	fmt.Fprintln(w)

	section(w, "Model Years", thin)
	if len(s.YearDistribution) == 0 {
		fmt.Fprintf(w, "  No year data\n")
	}
	maxCount = 0
	for _, y := range s.YearDistribution {
		maxCount = max(maxCount, y.Count)
	}
	for _, y := range s.YearDistribution {
		fmt.Fprintf(w, "  %d  %s %d\n", y.Year, bar(y.Count, maxCount), y.Count)
	}
	fmt.Fprintln(w)

	section(w, "Mileage vs Price (25k km buckets)", thin)
	if len(d.Buckets) == 0 {
		fmt.Fprintf(w, "  Not enough mileage data\n")
	}
	for _, b := range d.Buckets {
		fmt.Fprintf(w, "  %6s  avg \033[1;32m%-10s\033[0m %d listings\n", BucketLabel(b.Key), models.FormatMoney(b.AvgPrice), b.Count)
	}
	fmt.Fprintln(w)

	section(w, fmt.Sprintf("Listings (%d vehicles)", len(d.Rows)), thin)
	if len(d.Makes) > 0 {
		fmt.Fprintf(w, "  Makes: %s\n\n", strings.Join(d.Makes, ", "))
	}
	rows := d.Rows
	if len(rows) > reportRows {
		rows = rows[:reportRows]
	}
	for _, r := range rows {
		fair := models.Placeholder
		if diff, pct, ok := r.PriceDiff(); ok {
			sign := ""
			if diff > 0 {
				sign = "+"
			}
			fair = fmt.Sprintf("%s (%s%.1f%%)", models.FormatMoney(*r.FairPrice), sign, pct)
		}
		rating := string(r.DealRating)
		if rating == "" {
			rating = models.Placeholder
		}
		fmt.Fprintf(w, "  %-28s %4s %10s %-20s %12s  %-10s %s\n",
			truncate(r.Make+" "+r.Model, 28), r.YearText(), models.FormatMoney(r.Price),
			fair, r.MileageText(), rating, r.ListedDate.Format("Jan 2"))
		if sub := r.Subtitle(); sub != "" {
			fmt.Fprintf(w, "  \033[2m  %s\033[0m\n", sub)
		}
	}
	if len(d.Rows) > len(rows) {
		fmt.Fprintf(w, "  … %d more\n", len(d.Rows)-len(rows))
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func section(w io.Writer, title, rule string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", rule)
}

func kpi(w io.Writer, label, value string, change *float64) {
	fmt.Fprintf(w, "  %-16s: \033[1m%s\033[0m", label, value)
	if change != nil {
		colour, sign := "32", "+"
		if *change < 0 {
			colour, sign = "31", ""
		}
		fmt.Fprintf(w, "  \033[%sm%s%.1f%%\033[0m vs last month", colour, sign, *change)
	}
	fmt.Fprintln(w)
}

func changeOf(c *models.KPIChanges, pick func(*models.KPIChanges) float64) *float64 {
	if c == nil {
		return nil
	}
	v := pick(c)
	return &v
}

func bar(count, maxCount int) string {
	if maxCount == 0 {
		return ""
	}
	n := count * reportBarUnit / maxCount
	if n == 0 && count > 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
