package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"station-homes/models"
	"station-homes/utils"
)

// PostgresWriter persists the eligibility-filtered listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		return nil, err
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id             SERIAL PRIMARY KEY,
			identity_key   TEXT          UNIQUE NOT NULL,
			address        TEXT          NOT NULL DEFAULT '',
			city           TEXT          NOT NULL DEFAULT '',
			state          VARCHAR(10)   NOT NULL DEFAULT '',
			zip_code       VARCHAR(10)   NOT NULL DEFAULT '',
			property_type  VARCHAR(50)   NOT NULL DEFAULT '',
			bedrooms       NUMERIC(4,1),
			bathrooms      NUMERIC(4,1),
			square_footage NUMERIC(10,1),
			price          NUMERIC(12,2) NOT NULL DEFAULT 0,
			status         VARCHAR(20)   NOT NULL DEFAULT '',
			listing_url    TEXT          NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_zip_code ON listings(zip_code);
		CREATE INDEX IF NOT EXISTS idx_listings_price    ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_bedrooms ON listings(bedrooms);
	`)
	return err
}

// Clear deletes all existing listings from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts the filtered listing set, clearing old data first.
func (pw *PostgresWriter) Write(records []*models.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.ListingRecord) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			r.IdentityKey(), r.FormattedAddress, r.City, r.State, r.ZipCode,
			r.PropertyType, nullableFloat(r.Bedrooms), nullableFloat(r.Bathrooms),
			nullableFloat(r.SquareFootage), r.Price, r.Status,
			MarketplaceURL(r.FormattedAddress))
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (identity_key, address, city, state, zip_code,
			property_type, bedrooms, bathrooms, square_footage, price, status, listing_url)
		VALUES %s
		ON CONFLICT (identity_key) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
