// Package analytics derives per-strategy and per-portfolio series from the
// ledger. It only reads.
package analytics

import (
	"context"
	"slices"
	"strings"
	"time"

	"tradeledger/internal/logger"
	"tradeledger/internal/store"
	"tradeledger/internal/trace"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	AvgPlaces    = 2
	ReturnPlaces = 4
)

var hundred = decimal.NewFromInt(100)

type Window = store.Window

type VolumeRow struct {
	StrategyID  string          `json:"strategy_id" yaml:"strategy_id"`
	Symbol      string          `json:"symbol" yaml:"symbol"`
	Direction   string          `json:"direction" yaml:"direction"`
	TotalVolume decimal.Decimal `json:"total_volume" yaml:"total_volume"`
	TradeCount  int64           `json:"trade_count" yaml:"trade_count"`
}

type FrequencyRow struct {
	StrategyID  string `json:"strategy_id" yaml:"strategy_id"`
	Symbol      string `json:"symbol" yaml:"symbol"`
	Direction   string `json:"direction" yaml:"direction"`
	TotalTrades int64  `json:"total_trades" yaml:"total_trades"`
	TradingDays int64  `json:"trading_days" yaml:"trading_days"`
	// AvgTradesPerDay is invalid when there are no trading days.
	AvgTradesPerDay decimal.NullDecimal `json:"avg_trades_per_day" yaml:"avg_trades_per_day"`
	FirstDay        string              `json:"first_day" yaml:"first_day"`
	LastDay         string              `json:"last_day" yaml:"last_day"`
}

type PerformanceRow struct {
	Day         string          `json:"day" yaml:"day"`
	OpenFund    decimal.Decimal `json:"open_fund" yaml:"open_fund"`
	CloseFund   decimal.Decimal `json:"close_fund" yaml:"close_fund"`
	MinFund     decimal.Decimal `json:"min_fund" yaml:"min_fund"`
	MaxFund     decimal.Decimal `json:"max_fund" yaml:"max_fund"`
	AvgLeverage decimal.Decimal `json:"avg_leverage" yaml:"avg_leverage"`
	MaxLeverage decimal.Decimal `json:"max_leverage" yaml:"max_leverage"`
	// DailyReturnPct is invalid when the day opened at zero.
	DailyReturnPct decimal.NullDecimal `json:"daily_return_pct" yaml:"daily_return_pct"`
	Samples        int64               `json:"samples" yaml:"samples"`
}

type Engine struct {
	reader store.AnalyticsReader
}

func NewEngine(reader store.AnalyticsReader) *Engine {
	return &Engine{reader: reader}
}

// StrategyVolumes sums trade volume per strategy, largest first. Strategies
// without trades in the window are absent.
func (e *Engine) StrategyVolumes(ctx context.Context, portfolioID int64, w Window) ([]VolumeRow, error) {
	ctx, span := trace.StartSpan(ctx, "analytics.volume", attribute.Int64("portfolio_id", portfolioID))
	defer span.End()
	start := time.Now()

	rows, err := e.reader.StrategyVolumes(ctx, portfolioID, w)
	if err != nil {
		trace.Fail(span, err)
		return nil, err
	}
	out := make([]VolumeRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, VolumeRow{
			StrategyID:  r.StrategyID,
			Symbol:      r.Symbol,
			Direction:   r.Direction,
			TotalVolume: r.TotalVolume,
			TradeCount:  r.TradeCount,
		})
	}
	slices.SortStableFunc(out, func(a, b VolumeRow) int {
		if c := b.TotalVolume.Cmp(a.TotalVolume); c != 0 {
			return c
		}
		return strings.Compare(a.StrategyID, b.StrategyID)
	})
	logger.Debugf("analytics volume portfolio=%d rows=%d took=%s", portfolioID, len(out), time.Since(start))
	return out, nil
}

// TradeFrequency reports trades per distinct trading day for each strategy,
// optionally narrowed to one strategy. Highest average first.
func (e *Engine) TradeFrequency(ctx context.Context, portfolioID int64, strategyID string) ([]FrequencyRow, error) {
	ctx, span := trace.StartSpan(ctx, "analytics.frequency",
		attribute.Int64("portfolio_id", portfolioID), attribute.String("strategy_id", strategyID))
	defer span.End()

	rows, err := e.reader.TradeFrequency(ctx, portfolioID, strings.TrimSpace(strategyID))
	if err != nil {
		trace.Fail(span, err)
		return nil, err
	}
	out := make([]FrequencyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, FrequencyRow{
			StrategyID:      r.StrategyID,
			Symbol:          r.Symbol,
			Direction:       r.Direction,
			TotalTrades:     r.TotalTrades,
			TradingDays:     r.TradingDays,
			AvgTradesPerDay: AvgPerDay(r.TotalTrades, r.TradingDays),
			FirstDay:        r.FirstDay,
			LastDay:         r.LastDay,
		})
	}
	slices.SortStableFunc(out, func(a, b FrequencyRow) int {
		// undefined averages sort last
		switch {
		case a.AvgTradesPerDay.Valid && !b.AvgTradesPerDay.Valid:
			return -1
		case !a.AvgTradesPerDay.Valid && b.AvgTradesPerDay.Valid:
			return 1
		}
		if c := b.AvgTradesPerDay.Decimal.Cmp(a.AvgTradesPerDay.Decimal); c != 0 {
			return c
		}
		return strings.Compare(a.StrategyID, b.StrategyID)
	})
	return out, nil
}

// DailyPerformance returns one row per UTC calendar day with snapshots, in order.
func (e *Engine) DailyPerformance(ctx context.Context, portfolioID int64, w Window) ([]PerformanceRow, error) {
	ctx, span := trace.StartSpan(ctx, "analytics.performance", attribute.Int64("portfolio_id", portfolioID))
	defer span.End()

	days, err := e.reader.DailyFunds(ctx, portfolioID, w)
	if err != nil {
		trace.Fail(span, err)
		return nil, err
	}
	out := make([]PerformanceRow, 0, len(days))
	for _, d := range days {
		out = append(out, PerformanceRow{
			Day:            d.Day,
			OpenFund:       d.OpenFund,
			CloseFund:      d.CloseFund,
			MinFund:        d.MinFund,
			MaxFund:        d.MaxFund,
			AvgLeverage:    d.AvgLeverage,
			MaxLeverage:    d.MaxLeverage,
			DailyReturnPct: ReturnPct(d.OpenFund, d.CloseFund),
			Samples:        d.Samples,
		})
	}
	slices.SortStableFunc(out, func(a, b PerformanceRow) int { return strings.Compare(a.Day, b.Day) })
	return out, nil
}

// AvgPerDay is total/days rounded to two places; undefined for zero days.
func AvgPerDay(total, days int64) decimal.NullDecimal {
	if days <= 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromInt(total).DivRound(decimal.NewFromInt(days), AvgPlaces))
}

// ReturnPct is (close-open)/open*100 rounded to four places; undefined when open is zero.
func ReturnPct(open, closeFund decimal.Decimal) decimal.NullDecimal {
	if open.IsZero() {
		return decimal.NullDecimal{}
	}
	pct := closeFund.Sub(open).Mul(hundred).DivRound(open, ReturnPlaces)
	return decimal.NewNullDecimal(pct)
}
