package ecaytrade

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ecaytracker/models"
)

const cardSelector = `a[href*="/advert/"]`

// blockSelector lists the elements that start a new line of visible text.
const blockSelector = "div, p, li, tr, br, h1, h2, h3, h4, h5, h6, section, article, header, footer"

var advertPathRegexp = regexp.MustCompile(`/advert/\d+$`)

// ParseResultsPage extracts the advert cards from one results page and
// reports whether the page links to page+1. Relative links are resolved
// against pageURL; cards are unique by URL within the page.
func ParseResultsPage(html, pageURL string, page int, scrapedAt time.Time) ([]models.RawCard, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, fmt.Errorf("parse results page: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, false, fmt.Errorf("parse page url %q: %w", pageURL, err)
	}

	markLineBreaks(doc.Selection)

	seen := make(map[string]struct{})
	cards := make([]models.RawCard, 0)
	doc.Find(cardSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := resolve(base, href)
		if abs == "" || !advertPathRegexp.MatchString(abs) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		img, _ := a.Find("img").First().Attr("src")
		cards = append(cards, models.RawCard{
			URL:       abs,
			Text:      visibleText(a),
			ImageURL:  resolve(base, img),
			ScrapedAt: scrapedAt,
		})
	})

	return cards, hasNextPage(doc, page), nil
}

// ParseDetailText returns the line-broken visible text of a detail page.
func ParseDetailText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	markLineBreaks(doc.Selection)
	return visibleText(doc.Find("body")), nil
}

func hasNextPage(doc *goquery.Document, page int) bool {
	want := fmt.Sprintf("page=%d", page+1)
	next := false
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		label, _ := a.Attr("aria-label")
		rel, _ := a.Attr("rel")
		if containsParam(href, want) || label == "Next page" || rel == "next" {
			next = true
			return false
		}
		return true
	})
	return next
}

// containsParam matches want as a whole query parameter so that page=2
// does not match page=21.
func containsParam(href, want string) bool {
	i := strings.Index(href, want)
	if i < 0 {
		return false
	}
	if i > 0 && href[i-1] != '?' && href[i-1] != '&' {
		return false
	}
	end := i + len(want)
	return end == len(href) || href[end] == '&' || href[end] == '#'
}

func markLineBreaks(s *goquery.Selection) {
	s.Find(blockSelector).Each(func(_ int, el *goquery.Selection) {
		el.BeforeHtml("\n")
		el.AfterHtml("\n")
	})
}

// visibleText collapses runs of whitespace inside each line and drops
// blank lines, roughly what a browser's innerText gives.
func visibleText(s *goquery.Selection) string {
	var lines []string
	for _, line := range strings.Split(s.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	abs.Fragment = ""
	return strings.TrimRight(abs.String(), "/")
}
