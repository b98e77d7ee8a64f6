package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
	log zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer; one connection keeps the check-then-insert
	// transactions serialized.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	var dbLogger zerolog.Logger
	if logger != nil {
		dbLogger = logger.With().Str("component", "database").Logger()
	}
	dbLogger.Info().Str("path", path).Msg("database initialized")

	return &DB{DB: db, log: dbLogger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS listings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            host_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            description TEXT,
            property_type TEXT NOT NULL,
            address TEXT,
            city TEXT,
            state TEXT,
            country TEXT,
            zip_code TEXT,
            latitude REAL,
            longitude REAL,
            max_guests INTEGER NOT NULL,
            bedrooms INTEGER NOT NULL DEFAULT 0,
            beds INTEGER NOT NULL DEFAULT 0,
            bathrooms INTEGER NOT NULL DEFAULT 0,
            wifi BOOLEAN NOT NULL DEFAULT 0,
            kitchen BOOLEAN NOT NULL DEFAULT 0,
            parking BOOLEAN NOT NULL DEFAULT 0,
            pool BOOLEAN NOT NULL DEFAULT 0,
            air_conditioning BOOLEAN NOT NULL DEFAULT 0,
            heating BOOLEAN NOT NULL DEFAULT 0,
            tv BOOLEAN NOT NULL DEFAULT 0,
            base_price_cents INTEGER NOT NULL CHECK (base_price_cents >= 0),
            cleaning_fee_cents INTEGER NOT NULL DEFAULT 0,
            security_deposit_cents INTEGER NOT NULL DEFAULT 0,
            check_in_time TEXT NOT NULL DEFAULT '15:00',
            check_out_time TEXT NOT NULL DEFAULT '11:00',
            minimum_stay INTEGER NOT NULL DEFAULT 1,
            maximum_stay INTEGER NOT NULL DEFAULT 30,
            status TEXT NOT NULL DEFAULT 'active',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            CHECK (minimum_stay <= maximum_stay)
        )`,

		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            listing_id INTEGER NOT NULL REFERENCES listings(id),
            guest_id INTEGER NOT NULL,
            check_in DATETIME NOT NULL,
            check_out DATETIME NOT NULL,
            number_of_guests INTEGER NOT NULL CHECK (number_of_guests >= 1),
            special_requests TEXT,
            total_price_cents INTEGER NOT NULL,
            security_deposit_cents INTEGER NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'pending',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            payment_ref TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            confirmed_at DATETIME,
            cancelled_at DATETIME,
            version INTEGER NOT NULL DEFAULT 1,
            CHECK (check_out > check_in)
        )`,

		`CREATE TABLE IF NOT EXISTS reviews (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            listing_id INTEGER NOT NULL REFERENCES listings(id),
            booking_id INTEGER NOT NULL UNIQUE REFERENCES bookings(id),
            author_id INTEGER NOT NULL,
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            title TEXT NOT NULL,
            comment TEXT,
            host_response TEXT,
            host_response_at DATETIME,
            is_verified BOOLEAN NOT NULL DEFAULT 0,
            is_public BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		// Storage-layer last line of defense: a conflicting insert must fail
		// atomically even if an application-level check raced past.
		`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap_insert
            BEFORE INSERT ON bookings
            WHEN NEW.status IN ('confirmed', 'active')
            BEGIN
                SELECT RAISE(ABORT, 'booking overlap')
                WHERE EXISTS (
                    SELECT 1 FROM bookings
                    WHERE listing_id = NEW.listing_id
                      AND status IN ('confirmed', 'active')
                      AND check_in < NEW.check_out
                      AND check_out > NEW.check_in
                );
            END`,

		`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap_update
            BEFORE UPDATE OF status ON bookings
            WHEN NEW.status IN ('confirmed', 'active') AND OLD.status NOT IN ('confirmed', 'active')
            BEGIN
                SELECT RAISE(ABORT, 'booking overlap')
                WHERE EXISTS (
                    SELECT 1 FROM bookings
                    WHERE listing_id = NEW.listing_id
                      AND id != NEW.id
                      AND status IN ('confirmed', 'active')
                      AND check_in < NEW.check_out
                      AND check_out > NEW.check_in
                );
            END`,

		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city, country)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_host ON listings(host_id)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_listing_dates ON bookings(listing_id, check_in, check_out)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_guest ON bookings(guest_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,

		`CREATE INDEX IF NOT EXISTS idx_reviews_listing ON reviews(listing_id, rating)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_public ON reviews(is_public, is_verified)`,

		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
