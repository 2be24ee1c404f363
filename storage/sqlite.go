package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AsmaZgo/fashionWebScrapping/models"
)

// SQLiteSink persists records into a local SQLite database. The upsert keyed
// on product_id gives the idempotency guarantee directly: a stale record
// never overwrites a fresher one.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS products (
			product_id  TEXT NOT NULL PRIMARY KEY,
			website     TEXT NOT NULL,
			url         TEXT NOT NULL,
			scraped_at  TEXT NOT NULL,
			name        TEXT NOT NULL,
			brand       TEXT,
			price       REAL NOT NULL,
			currency    TEXT,
			description TEXT,
			sizes       TEXT,
			colors      TEXT,
			materials   TEXT,
			images      TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS reviews (
			product_id TEXT NOT NULL REFERENCES products(product_id),
			user_id    TEXT,
			rating     REAL,
			title      TEXT,
			comment    TEXT,
			date       TEXT,
			verified   INTEGER DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLiteSink{db: db}, nil
}

// Persist upserts the record. When the stored copy carries a later
// scraped_at, the incoming record is dropped.
func (ss *SQLiteSink) Persist(rec *models.ProductRecord) error {
	tx, err := ss.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var storedAt string
	err = tx.QueryRow(`SELECT scraped_at FROM products WHERE product_id = ?`, rec.ProductID).Scan(&storedAt)
	switch {
	case err == nil:
		existing, parseErr := time.Parse(time.RFC3339Nano, storedAt)
		if parseErr == nil && existing.After(rec.Source.ScrapedAt) {
			return nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("query existing record: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO products
			(product_id, website, url, scraped_at, name, brand, price, currency, description, sizes, colors, materials, images)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			website = excluded.website,
			url = excluded.url,
			scraped_at = excluded.scraped_at,
			name = excluded.name,
			brand = excluded.brand,
			price = excluded.price,
			currency = excluded.currency,
			description = excluded.description,
			sizes = excluded.sizes,
			colors = excluded.colors,
			materials = excluded.materials,
			images = excluded.images`,
		rec.ProductID,
		rec.Source.Website,
		rec.Source.URL,
		rec.Source.ScrapedAt.Format(time.RFC3339Nano),
		rec.Info.Name,
		rec.Info.Brand,
		rec.Info.Price,
		rec.Info.Currency,
		rec.Info.Description,
		rec.Info.Sizes,
		rec.Info.Colors,
		rec.Info.Materials,
		rec.Info.Images,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM reviews WHERE product_id = ?`, rec.ProductID); err != nil {
		return fmt.Errorf("clear reviews: %w", err)
	}
	for _, review := range rec.Reviews {
		_, err := tx.Exec(`
			INSERT INTO reviews (product_id, user_id, rating, title, comment, date, verified)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ProductID, review.UserID, review.Rating, review.Title, review.Comment, review.Date, review.Verified,
		)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the database.
func (ss *SQLiteSink) Close() error {
	return ss.db.Close()
}

// Validate ensures at least one product row exists.
func (ss *SQLiteSink) Validate() error {
	var count int
	if err := ss.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("sqlite sink: no records persisted")
	}
	return nil
}
