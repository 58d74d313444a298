package repository

import (
	"database/sql"

	"cardlink/internal/store"

	"go.uber.org/zap"
)

// NewStores bundles the SQL-backed repositories into the capability set
// handlers depend on
func NewStores(db *sql.DB, logger *zap.Logger) store.Stores {
	return store.Stores{
		Profiles: NewProfileRepository(db, logger),
		Orders:   NewOrderRepository(db, logger),
		Cards:    NewCardRepository(db, logger),
		Events:   NewWebhookEventRepository(db, logger),
	}
}
