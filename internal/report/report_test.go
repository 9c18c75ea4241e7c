package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tradeledger/internal/analytics"
	"tradeledger/internal/ingest"
	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"TABLE", FormatTable, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func volumeRows() []analytics.VolumeRow {
	return []analytics.VolumeRow{
		{StrategyID: "SHORT_ETH_STRAT", Symbol: "ETHUSDT", Direction: "short", TotalVolume: decimal.RequireFromString("30"), TradeCount: 3},
		{StrategyID: "LONG_BTC_GRID", Symbol: "BTCUSDT", Direction: "long", TotalVolume: decimal.RequireFromString("15.000000001"), TradeCount: 10},
	}
}

func TestVolumesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable).Volumes(volumeRows()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STRATEGY"))
	assert.Contains(t, lines[1], "SHORT_ETH_STRAT")
	assert.Contains(t, lines[2], "15.000000001")
	// columns are aligned
	assert.Equal(t, strings.Index(lines[0], "SYMBOL"), strings.Index(lines[1], "ETHUSDT"))
}

func TestVolumesJSONKeepsExactDecimals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).Volumes(volumeRows()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "15.000000001", got[1]["total_volume"])
	assert.Equal(t, "LONG_BTC_GRID", got[1]["strategy_id"])
}

func TestFrequencyInvalidAverage(t *testing.T) {
	rows := []analytics.FrequencyRow{
		{StrategyID: "A", TotalTrades: 10, TradingDays: 5, AvgTradesPerDay: decimal.NewNullDecimal(decimal.RequireFromString("2.00"))},
		{StrategyID: "B"},
	}

	var table bytes.Buffer
	require.NoError(t, New(&table, FormatTable).Frequency(rows))
	assert.Contains(t, table.String(), "2.00")
	assert.Contains(t, table.String(), na)

	var js bytes.Buffer
	require.NoError(t, New(&js, FormatJSON).Frequency(rows))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Nil(t, got[1]["avg_trades_per_day"])
}

func TestPerformanceYAML(t *testing.T) {
	rows := []analytics.PerformanceRow{{
		Day:            "2024-06-18",
		OpenFund:       decimal.NewFromInt(100),
		CloseFund:      decimal.NewFromInt(110),
		DailyReturnPct: decimal.NewNullDecimal(decimal.RequireFromString("10")),
		Samples:        3,
	}}
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatYAML).Performance(rows))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2024-06-18", got[0]["day"])
	assert.EqualValues(t, 3, got[0]["samples"])
	assert.Contains(t, buf.String(), "open_fund")
}

func TestPerformanceTableReturnPercent(t *testing.T) {
	rows := []analytics.PerformanceRow{
		{Day: "2024-06-18", OpenFund: decimal.NewFromInt(100), DailyReturnPct: decimal.NewNullDecimal(decimal.NewFromInt(10))},
		{Day: "2024-06-19"},
	}
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable).Performance(rows))
	assert.Contains(t, buf.String(), "10.0000%")
	assert.Contains(t, buf.String(), na)
}

func TestListingFooterAndEmpty(t *testing.T) {
	ts := time.Date(2024, 6, 18, 12, 0, 0, 0, time.UTC)
	l := Listing[model.Trade]{
		Table: "Trade", Total: 12, Page: 2, Limit: 1,
		Items: []model.Trade{{TradeID: "t1", Time: ts, StrategyID: "S", Price: decimal.NewFromInt(1), Qty: decimal.NewFromInt(2), Volume: decimal.NewFromInt(2)}},
	}
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable).Trades(l))
	assert.Contains(t, buf.String(), "2024-06-18 12:00:00.000")
	assert.Contains(t, buf.String(), "page 2, 1 of 12 rows")

	buf.Reset()
	require.NoError(t, New(&buf, FormatTable).Logs(Listing[model.Log]{Table: "Log"}))
	assert.Contains(t, buf.String(), "(no rows)")
}

func TestListingJSONEnvelope(t *testing.T) {
	l := Listing[model.Strategy]{
		Table: "Strategy", Total: 1, Page: 1, Limit: 50,
		Items: []model.Strategy{{StrategyID: "LONG_BTC_GRID", Direction: "long", Symbol: "BTCUSDT", PortfolioID: 7}},
	}
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).Strategies(l))

	var got struct {
		Table string           `json:"table"`
		Total int64            `json:"total"`
		Items []model.Strategy `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Strategy", got.Table)
	assert.EqualValues(t, 1, got.Total)
	assert.Equal(t, l.Items, got.Items)
}

func TestIngestReports(t *testing.T) {
	start := time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC)
	reps := []ingest.Report{{
		Kind: ingest.KindOrders, Source: "orders.log", Lines: 3, Parsed: 3, Accepted: 1, Skipped: 2,
		Inserted: store.TableCounts{Strategies: 1, Orders: 1, Logs: 1},
		Batches:  1, Started: start, Finished: start.Add(1500 * time.Millisecond),
	}}
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable).Ingest(reps))
	out := buf.String()
	assert.Contains(t, out, "orders.log")
	assert.Contains(t, out, "1.5s")

	buf.Reset()
	require.NoError(t, New(&buf, FormatYAML).Ingest(reps))
	assert.Contains(t, buf.String(), "kind: orders")
	assert.Contains(t, buf.String(), "orders: 1")
}

func TestLogsTableTruncatesMessages(t *testing.T) {
	long := "trade T1 SHORT_ETH_STRAT " + strings.Repeat("x", 200)
	l := Listing[model.Log]{Table: "Log", Total: 1, Items: []model.Log{{LogID: 9, Message: long}}}

	var table bytes.Buffer
	require.NoError(t, New(&table, FormatTable).Logs(l))
	assert.NotContains(t, table.String(), long)
	assert.Contains(t, table.String(), "...")

	var js bytes.Buffer
	require.NoError(t, New(&js, FormatJSON).Logs(l))
	assert.Contains(t, js.String(), long)
}

func TestFrequencyAverageKeepsTwoPlaces(t *testing.T) {
	rows := []analytics.FrequencyRow{{
		StrategyID: "LONG_BTC_GRID", TotalTrades: 10, TradingDays: 5,
		AvgTradesPerDay: decimal.NewNullDecimal(decimal.NewFromInt(10).DivRound(decimal.NewFromInt(5), analytics.AvgPlaces)),
	}}

	var table bytes.Buffer
	require.NoError(t, New(&table, FormatTable).Frequency(rows))
	assert.Contains(t, table.String(), "2.00")

	var js bytes.Buffer
	require.NoError(t, New(&js, FormatJSON).Frequency(rows))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, "2.00", got[0]["avg_trades_per_day"])

	var ym bytes.Buffer
	require.NoError(t, New(&ym, FormatYAML).Frequency(rows))
	assert.Contains(t, ym.String(), `avg_trades_per_day: "2.00"`)
}

func TestPerformanceReturnKeepsFourPlaces(t *testing.T) {
	rows := []analytics.PerformanceRow{
		{Day: "2024-06-18", DailyReturnPct: decimal.NewNullDecimal(decimal.NewFromInt(10))},
		{Day: "2024-06-19"},
	}
	var js bytes.Buffer
	require.NoError(t, New(&js, FormatJSON).Performance(rows))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, "10.0000", got[0]["daily_return_pct"])
	assert.Nil(t, got[1]["daily_return_pct"])
}
