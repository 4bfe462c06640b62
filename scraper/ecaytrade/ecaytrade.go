package ecaytrade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"ecaytracker/config"
	"ecaytracker/models"
	"ecaytracker/services"
	"ecaytracker/utils"
)

const (
	listingsURL = "https://ecaytrade.com/autos-boats/autos"
	pageTimeout = 60 * time.Second
	pageSettle  = 3 * time.Second
)

// Scraper drives a headless browser through the autos results pages.
// Start must be called before Cards or EnrichMileage.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.URLSet
	retry  *utils.RetryConfig

	browserCtx context.Context
	closers    []context.CancelFunc
	complete   bool
}

// New creates a ready-to-start Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		seen:   utils.NewURLSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Start launches the browser. The browser lives until Close or until ctx
// is cancelled.
func (s *Scraper) Start(ctx context.Context) error {
	chromeBin := s.findChromeBinary()
	s.logger.Info("[ecaytrade] Using browser binary: %q (headless=%v)", chromeBin, s.cfg.Headless)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run starts the browser so launch errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("ecaytrade: launch browser: %w", err)
	}

	s.browserCtx = browserCtx
	s.closers = []context.CancelFunc{cancelBrowser, cancelAlloc}
	return nil
}

// Close shuts the browser down.
func (s *Scraper) Close() {
	for _, cancel := range s.closers {
		cancel()
	}
	s.closers = nil
}

// Cards walks the results pages until a page has no cards, there is no
// next page, or MAX_PAGES is reached. A page that fails after retries ends
// pagination; whatever was collected so far is returned.
func (s *Scraper) Cards(ctx context.Context) ([]models.RawCard, error) {
	if s.browserCtx == nil {
		return nil, errors.New("ecaytrade: scraper not started")
	}

	s.logger.Info("[ecaytrade] Starting scrape (max pages: %d, min price: %.0f)", s.cfg.MaxPages, s.cfg.MinPrice)

	var all []models.RawCard
	s.complete = false
	page := 1
	for {
		if s.cfg.MaxPages > 0 && page > s.cfg.MaxPages {
			s.logger.Info("[ecaytrade] Reached MAX_PAGES=%d, stopping", s.cfg.MaxPages)
			break
		}

		pageURL := s.pageURL(page)
		s.logger.Info("[ecaytrade] Scraping page %d: %s", page, pageURL)

		html, err := s.loadHTML(ctx, fmt.Sprintf("results page %d", page), pageURL)
		if err != nil {
			s.logger.Error("[ecaytrade] Page %d failed, stopping pagination: %v", page, err)
			break
		}
		cards, hasNext, err := ParseResultsPage(html, pageURL, page, time.Now().UTC())
		if err != nil {
			s.logger.Error("[ecaytrade] Page %d unparseable, stopping pagination: %v", page, err)
			break
		}
		if len(cards) == 0 {
			s.logger.Info("[ecaytrade] Page %d has no cards, end of listings", page)
			s.complete = true
			break
		}

		fresh := 0
		for _, c := range cards {
			if s.seen.Add(c.URL) {
				all = append(all, c)
				fresh++
			}
		}
		s.logger.Info("[ecaytrade] Page %d: %d cards (%d new), %d total", page, len(cards), fresh, len(all))

		if !hasNext {
			s.logger.Info("[ecaytrade] Page %d has no next page, done", page)
			s.complete = true
			break
		}
		page++

		select {
		case <-ctx.Done():
			return all, ctx.Err()
		case <-time.After(time.Duration(s.cfg.RateLimitMs) * time.Millisecond):
		}
	}

	s.logger.Info("[ecaytrade] Scrape complete: %d pages, %d unique cards", page, s.seen.Size())
	return all, nil
}

// Complete reports whether the last Cards call reached the end of the
// listings rather than stopping on an error or the page limit.
func (s *Scraper) Complete() bool {
	return s.complete
}

// EnrichMileage fills in mileage from the detail page for listings whose
// card did not show it. Failures leave the mileage unknown.
func (s *Scraper) EnrichMileage(ctx context.Context, listings []models.Listing) {
	if s.browserCtx == nil {
		return
	}
	missing := 0
	for i := range listings {
		if listings[i].Mileage != nil || listings[i].URL == "" {
			continue
		}
		missing++
		l := &listings[i]
		s.pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			html, err := s.loadHTML(ctx, "detail page", l.URL)
			if err != nil {
				s.logger.Warn("[ecaytrade] Detail page failed for %s: %v", l.URL, err)
				return
			}
			text, err := ParseDetailText(html)
			if err != nil {
				s.logger.Warn("[ecaytrade] Detail page unparseable for %s: %v", l.URL, err)
				return
			}
			l.Mileage = services.ParseMileage(text)
			if l.Mileage != nil {
				s.logger.Debug("[ecaytrade] Detail mileage %d for %s", *l.Mileage, l.Title)
			}
		})
	}
	s.pool.Wait()
	s.logger.Info("[ecaytrade] Detail enrichment done for %d listings", missing)
}

func (s *Scraper) pageURL(page int) string {
	u := fmt.Sprintf("%s?minprice=%.0f", listingsURL, s.cfg.MinPrice)
	if page > 1 {
		u = fmt.Sprintf("%s&page=%d", u, page)
	}
	return u
}

// loadHTML opens url in a fresh tab and returns the rendered document.
func (s *Scraper) loadHTML(ctx context.Context, name, url string) (string, error) {
	var html string
	err := s.retry.Do(ctx, name, func() error {
		tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
		defer cancelTab()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, pageTimeout)
		defer cancelTimeout()

		// Stop the tab as soon as the caller gives up.
		stop := context.AfterFunc(ctx, cancelTab)
		defer stop()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(pageSettle),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	})
	return html, err
}

// findChromeBinary locates Chrome/Chromium. CHROME_BIN wins; an empty
// result lets chromedp use its own lookup.
func (s *Scraper) findChromeBinary() string {
	if s.cfg.ChromeBin != "" {
		return s.cfg.ChromeBin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
