// Package readdb opens a separate read-only connection for analytics so that
// dashboard queries can run while an ingestion job holds the writer.
package readdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tradeledger/internal/store"

	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB
}

var _ store.AnalyticsReader = (*DB)(nil)

// Open connects to an existing ledger database with query_only set, so any
// write through this handle fails.
func Open(path string, busyTimeoutMS int) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if busyTimeoutMS <= 0 {
		busyTimeoutMS = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=query_only(1)", path, busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open read-only %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func (d *DB) StrategyVolumes(ctx context.Context, portfolioID int64, w store.Window) ([]store.StrategyVolume, error) {
	return store.QueryStrategyVolumes(ctx, d.db.QueryContext, portfolioID, w)
}

func (d *DB) TradeFrequency(ctx context.Context, portfolioID int64, strategyID string) ([]store.TradeFrequency, error) {
	return store.QueryTradeFrequency(ctx, d.db.QueryContext, portfolioID, strategyID)
}

func (d *DB) DailyFunds(ctx context.Context, portfolioID int64, w store.Window) ([]store.DailyFunds, error) {
	return store.QueryDailyFunds(ctx, d.db.QueryContext, portfolioID, w)
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
