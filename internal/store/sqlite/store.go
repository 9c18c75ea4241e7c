package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	BusyTimeoutMS int
	MaxOpenConns  int
}

type SqliteStore struct {
	db *gorm.DB
}

var _ store.Store = (*SqliteStore)(nil)

// NewSqliteStore opens (creating if needed) the ledger database at path.
// Foreign keys are enforced and write transactions start IMMEDIATE so that
// parallel ingestion jobs queue on the busy timeout instead of failing.
func NewSqliteStore(path string, opts Options) (*SqliteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if opts.BusyTimeoutMS <= 0 {
		opts.BusyTimeoutMS = 5000
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=1&_txlock=immediate", path, opts.BusyTimeoutMS)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	s, err := NewSqliteStoreFromDB(db)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		n := opts.MaxOpenConns
		if n <= 0 {
			n = 4
		}
		sqlDB.SetMaxOpenConns(n)
		sqlDB.SetMaxIdleConns(n)
	}
	return s, nil
}

func NewSqliteStoreFromDB(db *gorm.DB) (*SqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	for _, stmt := range model.Schema {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) DB() *gorm.DB { return s.db }

func (s *SqliteStore) Begin(ctx context.Context) (store.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormUnitOfWork{repos: repos{db: tx}}, nil
}

func (s *SqliteStore) InTx(ctx context.Context, fn func(store.UnitOfWork) error) (err error) {
	uow, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
	}()
	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return uow.Commit()
}

// WriteBatch writes b in one transaction; see store.WriteBatch.
func (s *SqliteStore) WriteBatch(ctx context.Context, b store.Batch) (store.BatchResult, error) {
	return store.WriteBatch(ctx, s, b)
}

func (s *SqliteStore) Read() store.Repositories {
	return repos{db: s.db}
}

func (s *SqliteStore) Analytics() store.AnalyticsReader {
	return analyticsReader{db: s.db}
}

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type repos struct {
	db *gorm.DB
}

func (r repos) Portfolios() store.PortfolioRepository { return NewPortfolioRepo(r.db) }
func (r repos) Strategies() store.StrategyRepository  { return NewStrategyRepo(r.db) }
func (r repos) Orders() store.OrderRepository         { return NewOrderRepo(r.db) }
func (r repos) Trades() store.TradeRepository         { return NewTradeRepo(r.db) }
func (r repos) Snapshots() store.SnapshotRepository   { return NewSnapshotRepo(r.db) }
func (r repos) Logs() store.LogRepository             { return NewLogRepo(r.db) }

type gormUnitOfWork struct {
	repos
}

func (u *gormUnitOfWork) Commit() error {
	return u.db.Commit().Error
}

func (u *gormUnitOfWork) Rollback() error {
	return u.db.Rollback().Error
}

type analyticsReader struct {
	db *gorm.DB
}

func (a analyticsReader) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return a.db.WithContext(ctx).Raw(query, args...).Rows()
}

func (a analyticsReader) StrategyVolumes(ctx context.Context, portfolioID int64, w store.Window) ([]store.StrategyVolume, error) {
	return store.QueryStrategyVolumes(ctx, a.query, portfolioID, w)
}

func (a analyticsReader) TradeFrequency(ctx context.Context, portfolioID int64, strategyID string) ([]store.TradeFrequency, error) {
	return store.QueryTradeFrequency(ctx, a.query, portfolioID, strategyID)
}

func (a analyticsReader) DailyFunds(ctx context.Context, portfolioID int64, w store.Window) ([]store.DailyFunds, error) {
	return store.QueryDailyFunds(ctx, a.query, portfolioID, w)
}
