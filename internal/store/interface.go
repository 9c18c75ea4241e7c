package store

import (
	"context"
	"time"

	"tradeledger/internal/store/model"
)

// UnitOfWork defines a transaction scope.
type UnitOfWork interface {
	Repositories
	// Commit commits the transaction.
	Commit() error
	// Rollback rolls back the transaction.
	Rollback() error
}

// Repositories groups the per-table repositories bound to one connection or transaction.
type Repositories interface {
	Portfolios() PortfolioRepository
	Strategies() StrategyRepository
	Orders() OrderRepository
	Trades() TradeRepository
	Snapshots() SnapshotRepository
	Logs() LogRepository
}

// Store is the entry point for database access.
type Store interface {
	// Begin starts a new UnitOfWork (transaction).
	Begin(ctx context.Context) (UnitOfWork, error)
	// InTx runs fn inside a transaction, committing on nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(UnitOfWork) error) error
	// WriteBatch persists one self-contained batch in a single transaction.
	WriteBatch(ctx context.Context, b Batch) (BatchResult, error)
	// Read returns repositories outside any transaction, for listings.
	Read() Repositories
	// Analytics returns the aggregate query side.
	Analytics() AnalyticsReader
	// Close closes the store connection.
	Close() error
}

// Page selects a slice of a listing. Limit <= 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}

// NewPage converts 1-based page numbers into offsets.
func NewPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		return Page{}
	}
	return Page{Offset: (page - 1) * size, Limit: size}
}

// Window bounds a time range as [From, To). Nil ends are open.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Bounds renders the window ends as stored-time text, "" for an open end.
func (w Window) Bounds() (from, to string) {
	if w.From != nil {
		from = model.FormatTime(*w.From)
	}
	if w.To != nil {
		to = model.FormatTime(*w.To)
	}
	return from, to
}

// Insert methods use "do nothing on conflict" on the natural key and return
// the number of rows actually inserted; the rest were already present.

type PortfolioRepository interface {
	Ensure(ctx context.Context, p model.Portfolio) (bool, error)
	Rename(ctx context.Context, portfolioID int64, name string) error
	Get(ctx context.Context, portfolioID int64) (*model.Portfolio, error)
}

type StrategyRepository interface {
	Insert(ctx context.Context, rows []model.Strategy) (int, error)
	List(ctx context.Context, portfolioID int64, page Page) ([]model.Strategy, int64, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, rows []model.Order) (int, error)
	List(ctx context.Context, portfolioID int64, page Page) ([]model.Order, int64, error)
}

type TradeRepository interface {
	Insert(ctx context.Context, rows []model.Trade) (int, error)
	List(ctx context.Context, portfolioID int64, page Page) ([]model.Trade, int64, error)
}

type SnapshotRepository interface {
	Insert(ctx context.Context, rows []model.PortfolioSnapshot) (int, error)
	List(ctx context.Context, portfolioID int64, w Window) ([]model.PortfolioSnapshot, error)
}

type LogRepository interface {
	Insert(ctx context.Context, rows []model.Log) (int, error)
	List(ctx context.Context, portfolioID int64, page Page) ([]model.Log, int64, error)
}
