package report

import (
	"strconv"

	"tradeledger/internal/analytics"

	"github.com/shopspring/decimal"
)

const na = "n/a"

// fixed renders d with exactly places decimals; nil when d is invalid.
func fixed(d decimal.NullDecimal, places int32) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(places)
	return &s
}

func orNA(s *string) string {
	if s == nil {
		return na
	}
	return *s
}

func (r *Renderer) Volumes(rows []analytics.VolumeRow) error {
	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		grid = append(grid, []string{
			row.StrategyID, row.Symbol, row.Direction,
			row.TotalVolume.String(), strconv.FormatInt(row.TradeCount, 10),
		})
	}
	return r.render(rows, []string{"STRATEGY", "SYMBOL", "DIRECTION", "TOTAL VOLUME", "TRADES"}, grid)
}

// frequencyView carries the average at its report scale (10/5 is "2.00").
type frequencyView struct {
	StrategyID      string  `json:"strategy_id" yaml:"strategy_id"`
	Symbol          string  `json:"symbol" yaml:"symbol"`
	Direction       string  `json:"direction" yaml:"direction"`
	TotalTrades     int64   `json:"total_trades" yaml:"total_trades"`
	TradingDays     int64   `json:"trading_days" yaml:"trading_days"`
	AvgTradesPerDay *string `json:"avg_trades_per_day" yaml:"avg_trades_per_day"`
	FirstDay        string  `json:"first_day" yaml:"first_day"`
	LastDay         string  `json:"last_day" yaml:"last_day"`
}

func (r *Renderer) Frequency(rows []analytics.FrequencyRow) error {
	views := make([]frequencyView, 0, len(rows))
	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		v := frequencyView{
			StrategyID:      row.StrategyID,
			Symbol:          row.Symbol,
			Direction:       row.Direction,
			TotalTrades:     row.TotalTrades,
			TradingDays:     row.TradingDays,
			AvgTradesPerDay: fixed(row.AvgTradesPerDay, analytics.AvgPlaces),
			FirstDay:        row.FirstDay,
			LastDay:         row.LastDay,
		}
		views = append(views, v)
		grid = append(grid, []string{
			v.StrategyID, v.Symbol, v.Direction,
			strconv.FormatInt(v.TotalTrades, 10),
			strconv.FormatInt(v.TradingDays, 10),
			orNA(v.AvgTradesPerDay),
			v.FirstDay, v.LastDay,
		})
	}
	return r.render(views, []string{"STRATEGY", "SYMBOL", "DIRECTION", "TRADES", "DAYS", "AVG/DAY", "FIRST", "LAST"}, grid)
}

type performanceView struct {
	Day            string          `json:"day" yaml:"day"`
	OpenFund       decimal.Decimal `json:"open_fund" yaml:"open_fund"`
	CloseFund      decimal.Decimal `json:"close_fund" yaml:"close_fund"`
	MinFund        decimal.Decimal `json:"min_fund" yaml:"min_fund"`
	MaxFund        decimal.Decimal `json:"max_fund" yaml:"max_fund"`
	AvgLeverage    decimal.Decimal `json:"avg_leverage" yaml:"avg_leverage"`
	MaxLeverage    decimal.Decimal `json:"max_leverage" yaml:"max_leverage"`
	DailyReturnPct *string         `json:"daily_return_pct" yaml:"daily_return_pct"`
	Samples        int64           `json:"samples" yaml:"samples"`
}

func (r *Renderer) Performance(rows []analytics.PerformanceRow) error {
	views := make([]performanceView, 0, len(rows))
	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		v := performanceView{
			Day:            row.Day,
			OpenFund:       row.OpenFund,
			CloseFund:      row.CloseFund,
			MinFund:        row.MinFund,
			MaxFund:        row.MaxFund,
			AvgLeverage:    row.AvgLeverage,
			MaxLeverage:    row.MaxLeverage,
			DailyReturnPct: fixed(row.DailyReturnPct, analytics.ReturnPlaces),
			Samples:        row.Samples,
		}
		views = append(views, v)
		ret := na
		if v.DailyReturnPct != nil {
			ret = *v.DailyReturnPct + "%"
		}
		grid = append(grid, []string{
			v.Day,
			v.OpenFund.String(), v.CloseFund.String(),
			v.MinFund.String(), v.MaxFund.String(),
			v.AvgLeverage.String(), v.MaxLeverage.String(),
			ret, strconv.FormatInt(v.Samples, 10),
		})
	}
	return r.render(views, []string{"DAY", "OPEN", "CLOSE", "MIN", "MAX", "AVG LEV", "MAX LEV", "RETURN", "SAMPLES"}, grid)
}
