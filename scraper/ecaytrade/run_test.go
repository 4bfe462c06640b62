package ecaytrade

import (
	"testing"

	"ecaytracker/config"
	"ecaytracker/storage"
)

func TestTally(t *testing.T) {
	var sum RunSummary
	for _, res := range []storage.UpsertResult{
		{Inserted: true},
		{Inserted: true},
		{PriceChanged: true},
		{},
	} {
		tally(&sum, res)
	}
	if sum.Inserted != 2 || sum.Updated != 2 || sum.PriceChanged != 1 {
		t.Errorf("summary: got %+v", sum)
	}
}

func TestPageURL(t *testing.T) {
	s := &Scraper{cfg: testConfig()}
	if got := s.pageURL(1); got != "https://ecaytrade.com/autos-boats/autos?minprice=4000" {
		t.Errorf("page 1: got %q", got)
	}
	if got := s.pageURL(3); got != "https://ecaytrade.com/autos-boats/autos?minprice=4000&page=3" {
		t.Errorf("page 3: got %q", got)
	}
}

func testConfig() *config.Config {
	return &config.Config{MinPrice: 4000, MaxConcurrency: 1}
}
