// Package storetest seeds a ledger with a fixed data set for read-side tests.
package storetest

import (
	"context"
	"fmt"
	"time"

	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"github.com/shopspring/decimal"
)

const PortfolioID int64 = 1718693033751000

func utc(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2024, month, day, hour, minute, 0, 0, time.UTC)
}

// Batch returns the seed data:
//   - LONG_BTC_GRID: 10 trades of volume 1.5, two per day on 2024-06-10..14
//   - SHORT_ETH_STRAT: 3 trades of volume 10 on 2024-06-10, 12, 20
//   - snapshots on 2024-06-18 (three, inserted out of order) and 2024-06-19 (fund 0)
func Batch() store.Batch {
	b := store.Batch{
		Seq:       1,
		Portfolio: &model.Portfolio{PortfolioID: PortfolioID, Name: "seed"},
		Strategies: []model.Strategy{
			{StrategyID: "LONG_BTC_GRID", Direction: "long", Symbol: "BTCUSDT", PortfolioID: PortfolioID},
			{StrategyID: "SHORT_ETH_STRAT", Direction: "short", Symbol: "ETHUSDT", PortfolioID: PortfolioID},
		},
	}
	one5 := decimal.RequireFromString("1.5")
	for i := 0; i < 10; i++ {
		b.Trades = append(b.Trades, model.Trade{
			TradeID:    fmt.Sprintf("btc-%02d", i),
			Time:       utc(time.June, 10+i/2, 8+i%2*10, 15),
			StrategyID: "LONG_BTC_GRID",
			Price:      decimal.NewFromInt(3),
			Qty:        decimal.RequireFromString("0.5"),
			Side:       "buy",
			Symbol:     "BTCUSDT",
			Volume:     one5,
		})
	}
	for i, day := range []int{10, 12, 20} {
		b.Trades = append(b.Trades, model.Trade{
			TradeID:    fmt.Sprintf("eth-%d", i),
			Time:       utc(time.June, day, 23, 59),
			StrategyID: "SHORT_ETH_STRAT",
			Price:      decimal.NewFromInt(5),
			Qty:        decimal.NewFromInt(2),
			Side:       "sell",
			Symbol:     "ETHUSDT",
			Volume:     decimal.NewFromInt(10),
		})
	}
	snap := func(ts time.Time, fund, lev string) model.PortfolioSnapshot {
		return model.PortfolioSnapshot{
			PortfolioID: PortfolioID,
			Time:        ts,
			Fund:        decimal.RequireFromString(fund),
			Leverage:    decimal.RequireFromString(lev),
			Position:    decimal.Zero,
			OrderValue:  decimal.Zero,
		}
	}
	b.Snapshots = []model.PortfolioSnapshot{
		snap(utc(time.June, 18, 12, 0), "90", "3"),
		snap(utc(time.June, 18, 23, 59), "110", "2"),
		snap(utc(time.June, 18, 1, 0), "100", "1"),
		snap(utc(time.June, 19, 6, 0), "0", "0"),
	}
	return b
}

// Seed writes Batch into s.
func Seed(ctx context.Context, s store.Store) error {
	_, err := store.WriteBatch(ctx, s, Batch())
	return err
}
