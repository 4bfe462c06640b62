package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"ecaytracker/models"
)

// RawCardHeader and RowHeader are the column sets written by WriteRaw and
// WriteRows respectively.
var (
	RawCardHeader = []string{"url", "text", "image_url", "scraped_at"}
	RowHeader     = []string{
		"id", "make", "model", "year", "price", "mileage", "fair_price",
		"deal_rating", "listed_date", "condition", "transmission", "fuel_type", "body_type", "url",
	}
)

// CSVWriter writes records to a CSV file. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends unparsed advert cards.
func (c *CSVWriter) WriteRaw(cards []models.RawCard) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, card := range cards {
		row := []string{card.URL, card.Text, card.ImageURL, formatTime(card.ScrapedAt)}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write card: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteRows appends table rows in display order. Unknown values are left
// empty rather than written as the on-screen placeholder.
func (c *CSVWriter) WriteRows(rows []models.DisplayRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		record := []string{
			r.ID,
			r.Make,
			r.Model,
			optInt(r.Year),
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			optInt(r.Mileage),
			optFloat(r.FairPrice),
			string(r.DealRating),
			formatTime(r.ListedDate),
			r.Condition,
			r.Transmission,
			r.FuelType,
			r.BodyType,
			r.URL,
		}
		if err := c.writer.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
