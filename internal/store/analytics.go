package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AnalyticsReader is the read side consumed by the analytics engine. Both the
// gorm store and the read-only connection implement it with the same SQL.
type AnalyticsReader interface {
	StrategyVolumes(ctx context.Context, portfolioID int64, w Window) ([]StrategyVolume, error)
	TradeFrequency(ctx context.Context, portfolioID int64, strategyID string) ([]TradeFrequency, error)
	DailyFunds(ctx context.Context, portfolioID int64, w Window) ([]DailyFunds, error)
}

type StrategyVolume struct {
	StrategyID  string
	Symbol      string
	Direction   string
	TotalVolume decimal.Decimal
	TradeCount  int64
}

type TradeFrequency struct {
	StrategyID  string
	Symbol      string
	Direction   string
	TotalTrades int64
	TradingDays int64
	// FirstDay and LastDay are YYYY-MM-DD in UTC, "" when unknown.
	FirstDay string
	LastDay  string
}

// DailyFunds aggregates the snapshots of one UTC calendar day.
type DailyFunds struct {
	Day         string
	OpenFund    decimal.Decimal
	CloseFund   decimal.Decimal
	MinFund     decimal.Decimal
	MaxFund     decimal.Decimal
	AvgLeverage decimal.Decimal
	MaxLeverage decimal.Decimal
	Samples     int64
}

// AvgLeveragePlaces is the scale of the average leverage.
const AvgLeveragePlaces = 8

// QueryFunc abstracts *sql.DB and gorm's Raw(...).Rows().
type QueryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

// Volumes are summed in Go because they are stored as decimal text.
const StrategyVolumeSQL = `
SELECT t.strategy_id, s.symbol, s.direction, t.volume
FROM Trade t
JOIN Strategy s ON s.strategy_id = t.strategy_id
WHERE s.portfolio_id = ?
  AND (? = '' OR t.time >= ?)
  AND (? = '' OR t.time < ?)
ORDER BY t.strategy_id, t.trade_id`

const TradeFrequencySQL = `
SELECT t.strategy_id, s.symbol, s.direction,
       COUNT(*) AS total_trades,
       COUNT(DISTINCT DATE(t.time)) AS trading_days,
       MIN(DATE(t.time)) AS first_day,
       MAX(DATE(t.time)) AS last_day
FROM Trade t
JOIN Strategy s ON s.strategy_id = t.strategy_id
WHERE s.portfolio_id = ?
  AND (? = '' OR t.strategy_id = ?)
GROUP BY t.strategy_id, s.symbol, s.direction
ORDER BY t.strategy_id`

// Open and close are picked with ROW_NUMBER over the day partition. The order
// is total: time first, then the rest of the natural key.
const DailyFundsSQL = `
SELECT day, fund, leverage, rn_open, rn_close
FROM (
  SELECT DATE(time) AS day, time, fund, leverage,
         ROW_NUMBER() OVER (PARTITION BY DATE(time) ORDER BY time ASC, portfolio_id ASC) AS rn_open,
         ROW_NUMBER() OVER (PARTITION BY DATE(time) ORDER BY time DESC, portfolio_id DESC) AS rn_close
  FROM Portfolio_Snapshot
  WHERE portfolio_id = ?
    AND (? = '' OR time >= ?)
    AND (? = '' OR time < ?)
)
ORDER BY day ASC, time ASC`

func QueryStrategyVolumes(ctx context.Context, q QueryFunc, portfolioID int64, w Window) ([]StrategyVolume, error) {
	from, to := w.Bounds()
	rows, err := q(ctx, StrategyVolumeSQL, portfolioID, from, from, to, to)
	if err != nil {
		return nil, fmt.Errorf("strategy volumes: %w", err)
	}
	defer rows.Close()

	var out []StrategyVolume
	for rows.Next() {
		var id, symbol, direction string
		var volume decimal.Decimal
		if err := rows.Scan(&id, &symbol, &direction, &volume); err != nil {
			return nil, fmt.Errorf("strategy volumes: scan: %w", err)
		}
		if n := len(out); n > 0 && out[n-1].StrategyID == id {
			out[n-1].TotalVolume = out[n-1].TotalVolume.Add(volume)
			out[n-1].TradeCount++
			continue
		}
		out = append(out, StrategyVolume{StrategyID: id, Symbol: symbol, Direction: direction, TotalVolume: volume, TradeCount: 1})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("strategy volumes: %w", err)
	}
	slices.SortStableFunc(out, func(a, b StrategyVolume) int {
		if c := b.TotalVolume.Cmp(a.TotalVolume); c != 0 {
			return c
		}
		return strings.Compare(a.StrategyID, b.StrategyID)
	})
	return out, nil
}

func QueryTradeFrequency(ctx context.Context, q QueryFunc, portfolioID int64, strategyID string) ([]TradeFrequency, error) {
	rows, err := q(ctx, TradeFrequencySQL, portfolioID, strategyID, strategyID)
	if err != nil {
		return nil, fmt.Errorf("trade frequency: %w", err)
	}
	defer rows.Close()

	var out []TradeFrequency
	for rows.Next() {
		var f TradeFrequency
		var first, last sql.NullString
		if err := rows.Scan(&f.StrategyID, &f.Symbol, &f.Direction, &f.TotalTrades, &f.TradingDays, &first, &last); err != nil {
			return nil, fmt.Errorf("trade frequency: scan: %w", err)
		}
		f.FirstDay, f.LastDay = first.String, last.String
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trade frequency: %w", err)
	}
	return out, nil
}

func QueryDailyFunds(ctx context.Context, q QueryFunc, portfolioID int64, w Window) ([]DailyFunds, error) {
	from, to := w.Bounds()
	rows, err := q(ctx, DailyFundsSQL, portfolioID, from, from, to, to)
	if err != nil {
		return nil, fmt.Errorf("daily funds: %w", err)
	}
	defer rows.Close()

	var out []DailyFunds
	var levSum decimal.Decimal
	flush := func() {
		if n := len(out); n > 0 {
			out[n-1].AvgLeverage = levSum.DivRound(decimal.NewFromInt(out[n-1].Samples), AvgLeveragePlaces)
		}
	}
	for rows.Next() {
		var day sql.NullString
		var fund, leverage decimal.Decimal
		var rnOpen, rnClose int64
		if err := rows.Scan(&day, &fund, &leverage, &rnOpen, &rnClose); err != nil {
			return nil, fmt.Errorf("daily funds: scan: %w", err)
		}
		if !day.Valid {
			continue
		}
		if n := len(out); n == 0 || out[n-1].Day != day.String {
			flush()
			out = append(out, DailyFunds{Day: day.String, MinFund: fund, MaxFund: fund, MaxLeverage: leverage})
			levSum = decimal.Zero
		}
		d := &out[len(out)-1]
		d.Samples++
		levSum = levSum.Add(leverage)
		if rnOpen == 1 {
			d.OpenFund = fund
		}
		if rnClose == 1 {
			d.CloseFund = fund
		}
		if fund.LessThan(d.MinFund) {
			d.MinFund = fund
		}
		if fund.GreaterThan(d.MaxFund) {
			d.MaxFund = fund
		}
		if leverage.GreaterThan(d.MaxLeverage) {
			d.MaxLeverage = leverage
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily funds: %w", err)
	}
	flush()
	return out, nil
}
