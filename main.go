package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ecaytracker/api"
	"ecaytracker/client"
	"ecaytracker/config"
	"ecaytracker/models"
	"ecaytracker/reference"
	"ecaytracker/scheduler"
	"ecaytracker/scraper/ecaytrade"
	"ecaytracker/services"
	"ecaytracker/snapshot"
	"ecaytracker/storage"
	"ecaytracker/utils"
)

const usage = `usage: ecaytracker [report|serve|scrape] [flags]

  report  fetch the live snapshot and print the market dashboard (default)
  serve   run the HTTP API, plus the scrape scheduler when SCRAPE_CRON is set
  scrape  run one scrape and upsert the results
`

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	mode, args := "report", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		mode, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode {
	case "report":
		err = runReport(ctx, cfg, logger, args)
	case "serve":
		err = runServe(ctx, cfg, logger)
	case "scrape":
		err = runScrape(ctx, cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("%s: %v", mode, err)
		os.Exit(1)
	}
}

func runReport(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	search := fs.String("search", "", "case-insensitive match on make, model or year")
	makeFilter := fs.String("make", services.AllMakes, `exact make to show, or "all"`)
	sortField := fs.String("sort", string(services.SortListedDate), "price, year, mileage or listedDate")
	sortOrder := fs.String("order", string(services.Descending), "asc or desc")
	source := fs.String("source", "api", "snapshot source: api or db")
	csvPath := fs.String("csv", cfg.ReportCSVPath, "export the table rows to this CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	field, ok := services.ParseSortField(*sortField)
	if !ok {
		return fmt.Errorf("unknown sort field %q", *sortField)
	}
	order, ok := services.ParseSortOrder(*sortOrder)
	if !ok {
		return fmt.Errorf("unknown sort order %q", *sortOrder)
	}
	query := services.ViewQuery{
		Search: *search,
		Make:   *makeFilter,
		Sort:   services.SortSpec{Field: field, Order: order},
	}

	ref, err := reference.Load(cfg.ReferencePath)
	if err != nil {
		return err
	}

	var src snapshot.Source
	switch *source {
	case "api":
		src = client.New(cfg.APIBaseURL, cfg.FetchTimeout)
	case "db":
		store, err := storage.NewPostgresStore(ctx, cfg.DSN(), utils.RetryConfig{MaxAttempts: 1})
		if err != nil {
			logger.Warn("Database unavailable, showing reference data: %v", err)
			src = unavailable{err}
			break
		}
		defer store.Close()
		src = store
	default:
		return fmt.Errorf("unknown source %q", *source)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	snap := snapshot.Acquire(fetchCtx, src, logger)
	cancel()

	dash := services.NewDashboardService(logger, nil).Build(snap, ref.Fallback(), query, time.Now())
	services.Print(os.Stdout, dash)

	if *csvPath != "" {
		w, err := storage.NewCSVWriter(*csvPath, storage.RowHeader)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.WriteRows(dash.Rows); err != nil {
			return err
		}
		logger.Info("Exported %d rows to %s", len(dash.Rows), *csvPath)
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	store, err := storage.NewPostgresStore(ctx, cfg.DSN(), utils.RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Database connected")

	if cfg.ScrapeCron != "" {
		sched := scheduler.New(logger, func(ctx context.Context) error {
			_, err := ecaytrade.Run(ctx, cfg, logger, store, nil)
			return err
		})
		if err := sched.Start(cfg.ScrapeCron); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		defer sched.Stop()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(store, cfg.FrontendURL, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening on :%s (env: %s)", cfg.Port, cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runScrape(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== EcayTrade scrape starting ===")
	logger.Info("Config: max pages %d | concurrency %d | rate %dms | min price %.0f",
		cfg.MaxPages, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MinPrice)

	store, err := storage.NewPostgresStore(ctx, cfg.DSN(), utils.RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	var raw storage.RawCardWriter
	if cfg.CSVOutputPath != "" {
		w, err := storage.NewCSVWriter(cfg.CSVOutputPath, storage.RawCardHeader)
		if err != nil {
			return err
		}
		defer w.Close()
		raw = w
	}

	sum, err := ecaytrade.Run(ctx, cfg, logger, store, raw)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Done. %d cards → %d listings | inserted %d | updated %d | failed %d\n\n",
		sum.Cards, sum.Listings, sum.Inserted, sum.Updated, sum.Failed)
	return nil
}

// unavailable is a snapshot source that always fails, so the report falls
// back to reference data.
type unavailable struct{ err error }

func (u unavailable) FetchStats(context.Context) (*models.Stats, error) { return nil, u.err }

func (u unavailable) FetchListings(context.Context) ([]models.Listing, error) { return nil, u.err }
