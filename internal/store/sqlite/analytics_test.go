package sqlite

import (
	"context"
	"testing"
	"time"

	"tradeledger/internal/store"
	"tradeledger/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *SqliteStore {
	t.Helper()
	s, _ := newTestStore(t)
	require.NoError(t, storetest.Seed(context.Background(), s))
	return s
}

func TestStrategyVolumes(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	rows, err := s.Analytics().StrategyVolumes(ctx, storetest.PortfolioID, store.Window{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SHORT_ETH_STRAT", rows[0].StrategyID)
	assert.Equal(t, "30", rows[0].TotalVolume.String())
	assert.Equal(t, int64(3), rows[0].TradeCount)
	assert.Equal(t, "LONG_BTC_GRID", rows[1].StrategyID)
	assert.Equal(t, "15", rows[1].TotalVolume.String())
	assert.Equal(t, int64(10), rows[1].TradeCount)
	assert.Equal(t, "long", rows[1].Direction)

	from := time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	rows, err = s.Analytics().StrategyVolumes(ctx, storetest.PortfolioID, store.Window{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "LONG_BTC_GRID", rows[0].StrategyID)
	assert.Equal(t, int64(4), rows[0].TradeCount)

	rows, err = s.Analytics().StrategyVolumes(ctx, 1, store.Window{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTradeFrequency(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	rows, err := s.Analytics().TradeFrequency(ctx, storetest.PortfolioID, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	btc := rows[0]
	assert.Equal(t, "LONG_BTC_GRID", btc.StrategyID)
	assert.Equal(t, int64(10), btc.TotalTrades)
	assert.Equal(t, int64(5), btc.TradingDays)
	assert.Equal(t, "2024-06-10", btc.FirstDay)
	assert.Equal(t, "2024-06-14", btc.LastDay)

	rows, err = s.Analytics().TradeFrequency(ctx, storetest.PortfolioID, "SHORT_ETH_STRAT")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].TradingDays)
	assert.Equal(t, "2024-06-20", rows[0].LastDay)
}

func TestDailyFunds(t *testing.T) {
	s := seededStore(t)

	days, err := s.Analytics().DailyFunds(context.Background(), storetest.PortfolioID, store.Window{})
	require.NoError(t, err)
	require.Len(t, days, 2)

	d18 := days[0]
	assert.Equal(t, "2024-06-18", d18.Day)
	assert.Equal(t, "100", d18.OpenFund.String())
	assert.Equal(t, "110", d18.CloseFund.String())
	assert.Equal(t, "90", d18.MinFund.String())
	assert.Equal(t, "110", d18.MaxFund.String())
	assert.Equal(t, "2", d18.AvgLeverage.String())
	assert.Equal(t, "3", d18.MaxLeverage.String())
	assert.Equal(t, int64(3), d18.Samples)

	d19 := days[1]
	assert.Equal(t, "2024-06-19", d19.Day)
	assert.True(t, d19.OpenFund.IsZero())
	assert.Equal(t, int64(1), d19.Samples)
}
