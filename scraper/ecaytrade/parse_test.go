package ecaytrade

import (
	"strings"
	"testing"
	"time"
)

const resultsHTML = `<html><body>
<div class="grid">
  <a href="/advert/48213">
    <img src="/img/48213.jpg">
    <div><h3>2019 Toyota RAV4 XLE</h3></div>
    <div><span>CI$ 26,500</span></div>
    <div>George Town · 42,000 km</div>
  </a>
  <a href="https://ecaytrade.com/advert/48190/">
    <div>2017 Honda Civic</div><div>US$ 18,000</div>
  </a>
  <a href="/advert/48213">duplicate</a>
  <a href="/advert/48213/photos">photos</a>
  <a href="/advert/new">post an ad</a>
</div>
<nav><a href="/autos-boats/autos?minprice=4000&page=21">21</a></nav>
</body></html>`

func TestParseResultsPage(t *testing.T) {
	at := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	cards, hasNext, err := ParseResultsPage(resultsHTML, "https://ecaytrade.com/autos-boats/autos?minprice=4000", 1, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("cards: got %d, want 2 (%+v)", len(cards), cards)
	}
	if hasNext {
		t.Error("page=21 must not count as a link to page 2")
	}

	first := cards[0]
	if first.URL != "https://ecaytrade.com/advert/48213" {
		t.Errorf("URL: got %q", first.URL)
	}
	if first.ImageURL != "https://ecaytrade.com/img/48213.jpg" {
		t.Errorf("ImageURL: got %q", first.ImageURL)
	}
	lines := strings.Split(first.Text, "\n")
	if len(lines) != 3 || lines[0] != "2019 Toyota RAV4 XLE" || lines[1] != "CI$ 26,500" {
		t.Errorf("Text lines: got %q", lines)
	}
	if !first.ScrapedAt.Equal(at) {
		t.Errorf("ScrapedAt: got %v", first.ScrapedAt)
	}
	if cards[1].URL != "https://ecaytrade.com/advert/48190" {
		t.Errorf("trailing slash should be trimmed, got %q", cards[1].URL)
	}
}

func TestHasNextPage(t *testing.T) {
	tests := []struct {
		name string
		nav  string
		want bool
	}{
		{"numbered link", `<a href="/autos-boats/autos?minprice=4000&page=3">3</a>`, true},
		{"aria label", `<a href="#" aria-label="Next page">›</a>`, true},
		{"rel next", `<a href="/x" rel="next">next</a>`, true},
		{"prefix only", `<a href="/autos-boats/autos?page=30">30</a>`, false},
		{"none", `<a href="/autos-boats/autos?page=1">1</a>`, false},
	}
	for _, tt := range tests {
		html := `<html><body><a href="/advert/1">2019 Kia</a><nav>` + tt.nav + `</nav></body></html>`
		_, got, err := ParseResultsPage(html, "https://ecaytrade.com/autos-boats/autos", 2, time.Time{})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseResultsPageEmpty(t *testing.T) {
	cards, hasNext, err := ParseResultsPage(`<html><body><p>No results</p></body></html>`, "https://ecaytrade.com/", 4, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 0 || hasNext {
		t.Errorf("got %d cards, hasNext=%v", len(cards), hasNext)
	}
}

func TestParseDetailText(t *testing.T) {
	html := `<html><head><style>.x{}</style></head><body>
<h1>2016 Suzuki Swift</h1>
<script>var mileage = "999 km";</script>
<ul><li>Mileage</li><li>72,000 km</li></ul>
</body></html>`
	text, err := ParseDetailText(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text, "999") {
		t.Errorf("script content leaked into text: %q", text)
	}
	if !strings.Contains(text, "72,000 km") || !strings.HasPrefix(text, "2016 Suzuki Swift") {
		t.Errorf("text: got %q", text)
	}
}
