package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ecaytracker/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestWriteRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw.csv")
	w, err := NewCSVWriter(path, RawCardHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	err = w.WriteRaw([]models.RawCard{
		{URL: "https://ecaytrade.com/advert/1", Text: "2018 Toyota Corolla, CI$ 12,000", ScrapedAt: at},
		{URL: "https://ecaytrade.com/advert/2", Text: "Honda Fit"},
	})
	if err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("records: got %d, want 3", len(records))
	}
	if records[0][0] != "url" {
		t.Errorf("header: got %v", records[0])
	}
	if records[1][1] != "2018 Toyota Corolla, CI$ 12,000" {
		t.Errorf("text with comma should round-trip, got %q", records[1][1])
	}
	if records[1][3] != "2026-02-25T09:00:00Z" || records[2][3] != "" {
		t.Errorf("scraped_at: got %q / %q", records[1][3], records[2][3])
	}
}

func TestWriteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	w, err := NewCSVWriter(path, RowHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fair := 14000.0
	err = w.WriteRows([]models.DisplayRow{
		{ID: "a", Make: "Toyota", Model: "Corolla", Year: models.IntPtr(2018), Price: 12000, Mileage: models.IntPtr(45000),
			FairPrice: &fair, DealRating: models.GreatDeal, ListedDate: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Make: "Kia", Price: 9000},
	})
	if err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 3 || len(records[0]) != len(RowHeader) {
		t.Fatalf("shape: got %d records, header %v", len(records), records[0])
	}
	first := records[1]
	if first[3] != "2018" || first[4] != "12000.00" || first[5] != "45000" || first[6] != "14000.00" || first[7] != "Great Deal" {
		t.Errorf("first row: got %v", first)
	}
	second := records[2]
	if second[3] != "" || second[5] != "" || second[6] != "" || second[8] != "" {
		t.Errorf("unknown values should be empty, got %v", second)
	}
}
