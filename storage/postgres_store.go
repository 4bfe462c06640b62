package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"ecaytracker/models"
	"ecaytracker/utils"
)

// PostgresStore persists listings and their price history in PostgreSQL
// and serves the dashboard read queries.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, pings it under retry, runs schema
// migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id             UUID          PRIMARY KEY,
			external_id    TEXT          UNIQUE NOT NULL,
			url            TEXT          NOT NULL,
			title          TEXT          NOT NULL DEFAULT '',
			make           TEXT          NOT NULL DEFAULT '',
			model          TEXT          NOT NULL DEFAULT '',
			body_type      TEXT          NOT NULL DEFAULT '',
			year           INT,
			mileage        INT,
			price          NUMERIC(12,2) NOT NULL DEFAULT 0,
			currency       VARCHAR(8)    NOT NULL DEFAULT 'KYD',
			condition      TEXT          NOT NULL DEFAULT '',
			transmission   TEXT          NOT NULL DEFAULT '',
			fuel_type      TEXT          NOT NULL DEFAULT '',
			color          TEXT          NOT NULL DEFAULT '',
			drive          TEXT          NOT NULL DEFAULT '',
			cylinders      TEXT          NOT NULL DEFAULT '',
			steering       TEXT          NOT NULL DEFAULT '',
			interior_color TEXT          NOT NULL DEFAULT '',
			doors          TEXT          NOT NULL DEFAULT '',
			on_island      BOOLEAN       NOT NULL DEFAULT FALSE,
			description    TEXT          NOT NULL DEFAULT '',
			images         TEXT[]        NOT NULL DEFAULT '{}',
			location       TEXT          NOT NULL DEFAULT '',
			seller_name    TEXT          NOT NULL DEFAULT '',
			is_active      BOOLEAN       NOT NULL DEFAULT TRUE,
			first_seen     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			last_seen      TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS price_history (
			id          BIGSERIAL     PRIMARY KEY,
			listing_id  UUID          NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			price       NUMERIC(12,2) NOT NULL,
			recorded_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_active     ON listings(is_active);
		CREATE INDEX IF NOT EXISTS idx_listings_make       ON listings(make);
		CREATE INDEX IF NOT EXISTS idx_listings_first_seen ON listings(first_seen);
		CREATE INDEX IF NOT EXISTS idx_price_history_listing ON price_history(listing_id);
	`)
	return err
}

// Upsert inserts a new listing or refreshes the one sharing its
// external_id. A positive price that differs from the stored one is
// appended to price_history.
func (ps *PostgresStore) Upsert(ctx context.Context, l models.Listing) (UpsertResult, error) {
	var res UpsertResult

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingPrice float64
	err = tx.QueryRowContext(ctx,
		`SELECT price::float8 FROM listings WHERE external_id = $1`, l.ExternalID,
	).Scan(&existingPrice)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res.Inserted = true
	case err != nil:
		return res, fmt.Errorf("postgres: check %s: %w", l.ExternalID, err)
	}

	id := l.ID
	if _, perr := uuid.Parse(id); perr != nil {
		id = uuid.NewString()
	}

	var listingID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO listings
			(id, external_id, url, title, make, model, body_type, year, mileage,
			 price, currency, condition, transmission, fuel_type, color,
			 drive, cylinders, steering, interior_color, doors, on_island,
			 description, images, location, seller_name, is_active, last_seen)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,TRUE,NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			url            = EXCLUDED.url,
			title          = EXCLUDED.title,
			make           = EXCLUDED.make,
			model          = EXCLUDED.model,
			body_type      = EXCLUDED.body_type,
			year           = EXCLUDED.year,
			mileage        = COALESCE(EXCLUDED.mileage, listings.mileage),
			price          = EXCLUDED.price,
			currency       = EXCLUDED.currency,
			condition      = EXCLUDED.condition,
			transmission   = EXCLUDED.transmission,
			fuel_type      = EXCLUDED.fuel_type,
			color          = EXCLUDED.color,
			drive          = EXCLUDED.drive,
			cylinders      = EXCLUDED.cylinders,
			steering       = EXCLUDED.steering,
			interior_color = EXCLUDED.interior_color,
			doors          = EXCLUDED.doors,
			on_island      = EXCLUDED.on_island,
			description    = EXCLUDED.description,
			images         = EXCLUDED.images,
			location       = EXCLUDED.location,
			seller_name    = EXCLUDED.seller_name,
			is_active      = TRUE,
			last_seen      = NOW(),
			updated_at     = NOW()
		RETURNING id`,
		id, l.ExternalID, l.URL, l.Title, l.Make, l.Model, l.BodyType, l.Year, l.Mileage,
		l.Price, l.Currency, l.Condition, l.Transmission, l.FuelType, l.Color,
		l.Drive, l.Cylinders, l.Steering, l.InteriorColor, l.Doors, l.OnIsland,
		l.Description, pq.Array(l.Images), l.Location, l.SellerName,
	).Scan(&listingID)
	if err != nil {
		return res, fmt.Errorf("postgres: upsert %s: %w", l.ExternalID, err)
	}

	if !res.Inserted && l.Price > 0 && existingPrice != l.Price {
		res.PriceChanged = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO price_history (listing_id, price) VALUES ($1, $2)`, listingID, l.Price,
		); err != nil {
			return res, fmt.Errorf("postgres: price history %s: %w", l.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("postgres: commit %s: %w", l.ExternalID, err)
	}
	return res, nil
}

// FetchListings returns every active listing, most recently seen first.
func (ps *PostgresStore) FetchListings(ctx context.Context) ([]models.Listing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, external_id, url, title, make, model, body_type, year, mileage,
		       price::float8, currency, condition, transmission, fuel_type, color,
		       drive, cylinders, steering, interior_color, doors, on_island,
		       description, images, location, seller_name, is_active,
		       first_seen, last_seen, created_at, updated_at
		FROM listings
		WHERE is_active = TRUE
		ORDER BY COALESCE(first_seen, created_at) DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", err)
	}
	defer rows.Close()

	listings := make([]models.Listing, 0)
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.ExternalID, &l.URL, &l.Title, &l.Make, &l.Model, &l.BodyType, &l.Year, &l.Mileage,
			&l.Price, &l.Currency, &l.Condition, &l.Transmission, &l.FuelType, &l.Color,
			&l.Drive, &l.Cylinders, &l.Steering, &l.InteriorColor, &l.Doors, &l.OnIsland,
			&l.Description, pq.Array(&l.Images), &l.Location, &l.SellerName, &l.IsActive,
			&l.FirstSeen, &l.LastSeen, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: listing rows: %w", err)
	}
	return listings, nil
}

// Aggregate queries. Prices count only when positive and each group's
// ties are broken by its most recently listed member, which matches the
// order FetchListings returns.
const (
	statsSummaryQuery = `
		SELECT
			COUNT(*)::int,
			COALESCE(ROUND(AVG(price) FILTER (WHERE price > 0), 2), 0)::float8,
			COALESCE(ROUND((PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY price) FILTER (WHERE price > 0))::numeric, 2), 0)::float8,
			COUNT(*) FILTER (WHERE COALESCE(first_seen, created_at) BETWEEN NOW() - INTERVAL '7 days' AND NOW())::int,
			COALESCE(ROUND(AVG(mileage) FILTER (WHERE mileage IS NOT NULL), 2), 0)::float8
		FROM listings
		WHERE is_active = TRUE`

	statsBrandsQuery = `
		SELECT make, COUNT(*)::int, COALESCE(ROUND(AVG(price) FILTER (WHERE price > 0), 2), 0)::float8
		FROM listings
		WHERE is_active = TRUE AND make <> ''
		GROUP BY make
		ORDER BY COUNT(*) DESC, MAX(COALESCE(first_seen, created_at)) DESC, make`

	statsBodyTypesQuery = `
		SELECT body_type, COUNT(*)::int, COALESCE(ROUND(AVG(price) FILTER (WHERE price > 0), 2), 0)::float8
		FROM listings
		WHERE is_active = TRUE AND body_type <> ''
		GROUP BY body_type
		ORDER BY COUNT(*) DESC, MAX(COALESCE(first_seen, created_at)) DESC, body_type`

	statsYearsQuery = `
		SELECT year, COUNT(*)::int
		FROM listings
		WHERE is_active = TRUE AND year IS NOT NULL
		GROUP BY year
		ORDER BY COUNT(*) DESC, MAX(COALESCE(first_seen, created_at)) DESC, year`
)

// FetchStats computes the dashboard summary in the database.
func (ps *PostgresStore) FetchStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		TopBrands:        make([]models.BrandStat, 0),
		BodyTypes:        make([]models.BodyTypeStat, 0),
		YearDistribution: make([]models.YearStat, 0),
	}

	if err := ps.db.QueryRowContext(ctx, statsSummaryQuery).Scan(
		&stats.TotalListings, &stats.AvgPrice, &stats.MedianPrice, &stats.NewThisWeek, &stats.AvgMileage,
	); err != nil {
		return nil, fmt.Errorf("postgres: stats summary: %w", err)
	}

	if err := ps.eachRow(ctx, "brands", statsBrandsQuery, func(rows *sql.Rows) error {
		var b models.BrandStat
		if err := rows.Scan(&b.Name, &b.Count, &b.AvgPrice); err != nil {
			return err
		}
		stats.TopBrands = append(stats.TopBrands, b)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := ps.eachRow(ctx, "body types", statsBodyTypesQuery, func(rows *sql.Rows) error {
		var b models.BodyTypeStat
		if err := rows.Scan(&b.Type, &b.Count, &b.AvgPrice); err != nil {
			return err
		}
		stats.BodyTypes = append(stats.BodyTypes, b)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := ps.eachRow(ctx, "years", statsYearsQuery, func(rows *sql.Rows) error {
		var y models.YearStat
		if err := rows.Scan(&y.Year, &y.Count); err != nil {
			return err
		}
		stats.YearDistribution = append(stats.YearDistribution, y)
		return nil
	}); err != nil {
		return nil, err
	}

	return stats, nil
}

func (ps *PostgresStore) eachRow(ctx context.Context, name, query string, scan func(*sql.Rows) error) error {
	rows, err := ps.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: stats %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("postgres: scan %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: %s rows: %w", name, err)
	}
	return nil
}

// DeactivateMissing marks every active listing whose external_id is not in
// seen as inactive and returns how many were affected. An empty seen list
// is a no-op so that a failed scrape cannot empty the table.
func (ps *PostgresStore) DeactivateMissing(ctx context.Context, seen []string) (int64, error) {
	if len(seen) == 0 {
		return 0, nil
	}
	res, err := ps.db.ExecContext(ctx, `
		UPDATE listings
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE AND NOT (external_id = ANY($1))`,
		pq.Array(seen),
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: deactivate: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks the connection.
func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
