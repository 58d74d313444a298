package database

import (
	"database/sql"
	"os"

	"cardlink/config"

	"go.uber.org/zap"
)

// InitDatabase initializes the SQLite database
func InitDatabase(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", cfg.GetDatabasePath()+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database initialized successfully",
		zap.String("path", cfg.GetDatabasePath()),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return db, nil
}

// CreateTables creates profiles, orders, cards and webhook_events tables
func CreateTables(db *sql.DB, logger *zap.Logger) error {
	profilesTable := `
		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT DEFAULT '',
			role TEXT DEFAULT 'customer' CHECK (role IN ('customer', 'admin')),
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`

	ordersTable := `
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT DEFAULT 'pending' CHECK (status IN ('pending', 'processing', 'completed', 'cancelled')),
			card_type TEXT NOT NULL,
			card_color TEXT DEFAULT '',
			card_style TEXT DEFAULT '',
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			total_amount REAL NOT NULL,
			shipping_name TEXT DEFAULT '',
			shipping_line1 TEXT DEFAULT '',
			shipping_line2 TEXT DEFAULT '',
			shipping_city TEXT DEFAULT '',
			shipping_postal_code TEXT DEFAULT '',
			shipping_country TEXT DEFAULT '',
			checkout_session_id TEXT DEFAULT '',
			payment_intent_id TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`

	// The checkout session id is the sole correlation key between a local
	// order and the hosted payment session, so it must stay unique. Empty
	// values (orders that never reached the provider) are excluded.
	ordersSessionIndex := `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_checkout_session
		ON orders(checkout_session_id) WHERE checkout_session_id != '';`

	cardsTable := `
		CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			order_id TEXT DEFAULT '',
			card_type TEXT NOT NULL,
			card_color TEXT DEFAULT '',
			card_style TEXT DEFAULT '',
			nfc_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE SET NULL
		);`

	// Idempotency ledger for webhook deliveries (at-least-once semantics)
	webhookEventsTable := `
		CREATE TABLE IF NOT EXISTS webhook_events (
			event_id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`

	tables := []struct {
		name string
		ddl  string
	}{
		{"profiles", profilesTable},
		{"orders", ordersTable},
		{"orders_session_index", ordersSessionIndex},
		{"cards", cardsTable},
		{"webhook_events", webhookEventsTable},
	}

	for _, t := range tables {
		if _, err := db.Exec(t.ddl); err != nil {
			logger.Error("Failed to create table", zap.String("table", t.name), zap.Error(err))
			return err
		}
	}

	logger.Info("Database tables ready")
	return nil
}
