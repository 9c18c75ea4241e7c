package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const testPortfolio int64 = 1718693033751000

func newTestStore(t *testing.T) (*SqliteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := NewSqliteStore(path, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func sampleBatch() store.Batch {
	ts := at(18, 9, 30)
	return store.Batch{
		Seq:       1,
		Portfolio: &model.Portfolio{PortfolioID: testPortfolio, Name: "main"},
		Strategies: []model.Strategy{
			{StrategyID: "SHORT_ETH_STRAT", Direction: "short", Symbol: "ETHUSDT", PortfolioID: testPortfolio},
		},
		Orders: []model.Order{
			{OrderID: "o1", Time: ts, StrategyID: "SHORT_ETH_STRAT", Price: d("3500.25"), Qty: d("0.5"), Side: "sell", Symbol: "ETHUSDT"},
		},
		Trades: []model.Trade{
			{TradeID: "t1", Time: ts, StrategyID: "SHORT_ETH_STRAT", Price: d("3500.25"), Qty: d("0.5"), Side: "sell", Symbol: "ETHUSDT", Volume: d("1750.125")},
		},
		Logs: []model.Log{
			{LogID: 7, Time: ts, Message: "order o1", PortfolioID: testPortfolio, Payload: datatypes.JSON(`{"orderId":"o1"}`)},
		},
	}
}

func countRows(t *testing.T, s *SqliteStore, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Table(table).Count(&n).Error)
	return n
}

func TestWriteBatchIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.WriteBatch(ctx, sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, store.TableCounts{Strategies: 1, Orders: 1, Trades: 1, Logs: 1}, first.Inserted)
	assert.Zero(t, first.Duplicates().Total())

	second, err := s.WriteBatch(ctx, sampleBatch())
	require.NoError(t, err)
	assert.Zero(t, second.Inserted.Total())
	assert.Equal(t, store.TableCounts{Strategies: 1, Orders: 1, Trades: 1, Logs: 1}, second.Duplicates())

	for _, table := range []string{"Portfolio", "Strategy", "Trade_Order", "Trade", "Log"} {
		assert.Equal(t, int64(1), countRows(t, s, table), table)
	}

	trades, total, err := s.Read().Trades().List(ctx, testPortfolio, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, trades, 1)
	assert.Equal(t, "1750.125", trades[0].Volume.String())
	assert.True(t, at(18, 9, 30).Equal(trades[0].Time))
}

func TestWriteBatchRollsBackOnForeignKeyViolation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	b := sampleBatch()
	b.Seq = 3
	b.Trades = append(b.Trades, model.Trade{
		TradeID: "t2", Time: at(18, 10, 0), StrategyID: "UNKNOWN", Price: d("1"), Qty: d("1"), Side: "buy", Symbol: "X", Volume: d("1"),
	})
	_, err := s.WriteBatch(ctx, b)
	require.Error(t, err)

	var perr *store.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Trade", perr.Table)
	assert.Equal(t, 3, perr.Batch)

	for _, table := range []string{"Portfolio", "Strategy", "Trade_Order", "Trade", "Log"} {
		assert.Zero(t, countRows(t, s, table), table)
	}
}

func TestPortfolioEnsureAndRename(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Read().Portfolios()

	created, err := repo.Ensure(ctx, model.Portfolio{PortfolioID: 1, Name: "first"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Ensure(ctx, model.Portfolio{PortfolioID: 1, Name: "ignored"})
	require.NoError(t, err)
	assert.False(t, created)

	p, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", p.Name)

	require.NoError(t, repo.Rename(ctx, 1, "renamed"))
	p, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.Name)

	assert.ErrorIs(t, repo.Rename(ctx, 2, "x"), store.ErrPortfolioNotFound)
	_, err = repo.Get(ctx, 2)
	assert.ErrorIs(t, err, store.ErrPortfolioNotFound)
}

func TestSnapshotsCollapseOnNaturalKey(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	snap := func(ts time.Time, fund string) model.PortfolioSnapshot {
		return model.PortfolioSnapshot{PortfolioID: testPortfolio, Time: ts, Fund: d(fund), Leverage: d("0"), Position: d("0"), OrderValue: decimal.Zero}
	}
	res, err := s.WriteBatch(ctx, store.Batch{
		Portfolio: &model.Portfolio{PortfolioID: testPortfolio},
		Snapshots: []model.PortfolioSnapshot{snap(at(18, 1, 0), "100"), snap(at(18, 1, 0), "999"), snap(at(18, 2, 0), "101")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted.Snapshots)
	assert.Equal(t, 1, res.Duplicates().Snapshots)

	from := at(18, 1, 30)
	list, err := s.Read().Snapshots().List(ctx, testPortfolio, store.Window{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "100", list[0].Fund.String())

	list, err = s.Read().Snapshots().List(ctx, testPortfolio, store.Window{From: &from})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "101", list[0].Fund.String())
}

func TestListingsPaginate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	b := store.Batch{
		Portfolio: &model.Portfolio{PortfolioID: testPortfolio},
		Strategies: []model.Strategy{
			{StrategyID: "A", Direction: "short", Symbol: "BTCUSDT", PortfolioID: testPortfolio},
		},
	}
	for i := 0; i < 5; i++ {
		b.Orders = append(b.Orders, model.Order{
			OrderID: fmt.Sprintf("o%d", i), Time: at(18, 9, i), StrategyID: "A", Price: d("1"), Qty: d("1"), Side: "buy", Symbol: "BTCUSDT",
		})
		b.Logs = append(b.Logs, model.Log{LogID: int64(i + 1), Time: at(18, 9, i), Message: "m", PortfolioID: testPortfolio})
	}
	_, err := s.WriteBatch(ctx, b)
	require.NoError(t, err)

	orders, total, err := s.Read().Orders().List(ctx, testPortfolio, store.NewPage(2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].OrderID)
	assert.Equal(t, "o1", orders[1].OrderID)

	logs, total, err := s.Read().Logs().List(ctx, testPortfolio, store.NewPage(1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, logs, 3)

	strategies, total, err := s.Read().Strategies().List(ctx, testPortfolio, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "A", strategies[0].StrategyID)

	other, total, err := s.Read().Orders().List(ctx, 99, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, other)
}
