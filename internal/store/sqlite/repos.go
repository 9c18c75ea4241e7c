package sqlite

import (
	"context"
	"errors"

	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertChunk keeps multi-row inserts below sqlite's bound-variable limit.
const insertChunk = 500

// insertIgnore inserts rows with ON CONFLICT DO NOTHING and reports how many were new.
func insertIgnore[T any](ctx context.Context, db *gorm.DB, rows []T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, insertChunk)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func paginate(q *gorm.DB, page store.Page) *gorm.DB {
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	return q
}

type portfolioRepo struct {
	db *gorm.DB
}

func NewPortfolioRepo(db *gorm.DB) *portfolioRepo {
	return &portfolioRepo{db: db}
}

// Ensure creates the portfolio if missing. An existing name is left untouched.
func (r *portfolioRepo) Ensure(ctx context.Context, p model.Portfolio) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *portfolioRepo) Rename(ctx context.Context, portfolioID int64, name string) error {
	res := r.db.WithContext(ctx).Model(&model.Portfolio{}).
		Where("portfolio_id = ?", portfolioID).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrPortfolioNotFound
	}
	return nil
}

func (r *portfolioRepo) Get(ctx context.Context, portfolioID int64) (*model.Portfolio, error) {
	var p model.Portfolio
	err := r.db.WithContext(ctx).Where("portfolio_id = ?", portfolioID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type strategyRepo struct {
	db *gorm.DB
}

func NewStrategyRepo(db *gorm.DB) *strategyRepo {
	return &strategyRepo{db: db}
}

func (r *strategyRepo) Insert(ctx context.Context, rows []model.Strategy) (int, error) {
	return insertIgnore(ctx, r.db, rows)
}

func (r *strategyRepo) List(ctx context.Context, portfolioID int64, page store.Page) ([]model.Strategy, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Strategy{}).Where("portfolio_id = ?", portfolioID).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []model.Strategy
	if err := paginate(q.Order("strategy_id ASC"), page).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *orderRepo {
	return &orderRepo{db: db}
}

func (r *orderRepo) Insert(ctx context.Context, rows []model.Order) (int, error) {
	return insertIgnore(ctx, r.db, rows)
}

// List returns the portfolio's orders, newest first.
func (r *orderRepo) List(ctx context.Context, portfolioID int64, page store.Page) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Joins("JOIN Strategy ON Strategy.strategy_id = Trade_Order.strategy_id").
		Where("Strategy.portfolio_id = ?", portfolioID).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []model.Order
	err := paginate(q.Select("Trade_Order.*").Order("Trade_Order.time DESC, Trade_Order.order_id ASC"), page).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type tradeRepo struct {
	db *gorm.DB
}

func NewTradeRepo(db *gorm.DB) *tradeRepo {
	return &tradeRepo{db: db}
}

func (r *tradeRepo) Insert(ctx context.Context, rows []model.Trade) (int, error) {
	return insertIgnore(ctx, r.db, rows)
}

// List returns the portfolio's fills, newest first.
func (r *tradeRepo) List(ctx context.Context, portfolioID int64, page store.Page) ([]model.Trade, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Trade{}).
		Joins("JOIN Strategy ON Strategy.strategy_id = Trade.strategy_id").
		Where("Strategy.portfolio_id = ?", portfolioID).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []model.Trade
	err := paginate(q.Select("Trade.*").Order("Trade.time DESC, Trade.trade_id ASC"), page).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type snapshotRepo struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) *snapshotRepo {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Insert(ctx context.Context, rows []model.PortfolioSnapshot) (int, error) {
	return insertIgnore(ctx, r.db, rows)
}

// List returns snapshots in chronological order.
func (r *snapshotRepo) List(ctx context.Context, portfolioID int64, w store.Window) ([]model.PortfolioSnapshot, error) {
	q := r.db.WithContext(ctx).Where("portfolio_id = ?", portfolioID)
	from, to := w.Bounds()
	if from != "" {
		q = q.Where("time >= ?", from)
	}
	if to != "" {
		q = q.Where("time < ?", to)
	}
	var out []model.PortfolioSnapshot
	if err := q.Order("time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type logRepo struct {
	db *gorm.DB
}

func NewLogRepo(db *gorm.DB) *logRepo {
	return &logRepo{db: db}
}

func (r *logRepo) Insert(ctx context.Context, rows []model.Log) (int, error) {
	return insertIgnore(ctx, r.db, rows)
}

func (r *logRepo) List(ctx context.Context, portfolioID int64, page store.Page) ([]model.Log, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Log{}).Where("portfolio_id = ?", portfolioID).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []model.Log
	if err := paginate(q.Order("time DESC, log_id ASC"), page).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
