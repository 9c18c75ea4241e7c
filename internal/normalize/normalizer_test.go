package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var fixedNow = time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return New(Options{Now: func() time.Time { return fixedNow }})
}

func TestNormalizerOrderAdmission(t *testing.T) {
	n := newTestNormalizer()

	t.Run("filled order is filtered", func(t *testing.T) {
		res, err := n.Order(gjson.Parse(`{"orderId":"1","clientOrderId":"LONG_BTC_STRAT12345678901","orderState":"FILLED","side":"BUY","symbol":"BTCUSDT","price":"65000","qty":"0.01"}`), NewScope())
		require.NoError(t, err)
		assert.Nil(t, res.Order)
		assert.False(t, res.Accepted())
		assert.Equal(t, SkipStateFiltered, res.Skip)
	})

	t.Run("new order is admitted once", func(t *testing.T) {
		scope := NewScope()
		data := gjson.Parse(`{"orderId":"2","clientOrderId":"LONG_BTC_STRAT12345678901","orderState":"NEW","side":"BUY","symbol":"BTCUSDT","price":"65000.5","qty":"0.01","timestamp":1718693033751}`)
		res, err := n.Order(data, scope)
		require.NoError(t, err)
		require.NotNil(t, res.Order)
		assert.Equal(t, "2", res.Order.OrderID)
		assert.Equal(t, "LONG_BTC_STRAT", res.Order.StrategyID)
		assert.Equal(t, SideBuy, res.Order.Side)
		assert.Equal(t, time.UnixMilli(1718693033751).UTC(), res.Order.Time)
		assert.True(t, decimal.RequireFromString("65000.5").Equal(res.Order.Price))
		assert.Equal(t, StrategyObservation{StrategyID: "LONG_BTC_STRAT", Direction: DirectionLong, Symbol: "BTCUSDT"}, res.Strategy)
		assert.Equal(t, LogID("order", "2"), res.Log.LogID)
		assert.JSONEq(t, data.Raw, string(res.Log.Payload))
		assert.False(t, res.TimeFallback)

		again, err := n.Order(data, scope)
		require.NoError(t, err)
		assert.Nil(t, again.Order)
		assert.Equal(t, SkipDuplicate, again.Skip)

		open, err := n.Order(gjson.Parse(`{"orderId":"2","orderState":"OPEN","side":"buy","symbol":"BTCUSDT","price":1,"qty":1}`), scope)
		require.NoError(t, err)
		assert.Equal(t, SkipDuplicate, open.Skip)
	})

	t.Run("open state and quantity alias", func(t *testing.T) {
		res, err := n.Order(gjson.Parse(`{"orderId":3,"orderState":"open","side":"Sell","symbol":"ETHUSDT","price":3000,"quantity":2}`), nil)
		require.NoError(t, err)
		require.NotNil(t, res.Order)
		assert.Equal(t, "3", res.Order.OrderID)
		assert.Equal(t, SideSell, res.Order.Side)
		assert.True(t, decimal.NewFromInt(2).Equal(res.Order.Qty))
		assert.Equal(t, "", res.Order.StrategyID)
		assert.Equal(t, DirectionShort, res.Strategy.Direction)
	})

	t.Run("missing timestamp falls back to ingestion time", func(t *testing.T) {
		res, err := n.Order(gjson.Parse(`{"orderId":"4","orderState":"NEW","side":"sell","symbol":"ETHUSDT","price":"0","qty":"1"}`), nil)
		require.NoError(t, err)
		require.NotNil(t, res.Order)
		assert.Equal(t, fixedNow, res.Order.Time)
		assert.True(t, res.TimeFallback)
	})

	t.Run("non-positive timestamp falls back to ingestion time", func(t *testing.T) {
		for _, ts := range []string{"0", "-1"} {
			res, err := n.Order(gjson.Parse(`{"orderId":"5","orderState":"NEW","side":"buy","symbol":"ETHUSDT","price":"1","qty":"1","timestamp":`+ts+`}`), nil)
			require.NoError(t, err)
			require.NotNil(t, res.Order)
			assert.Equal(t, fixedNow, res.Order.Time, ts)
			assert.Equal(t, fixedNow, res.Log.Time, ts)
			assert.True(t, res.TimeFallback, ts)
		}
	})
}

func TestNormalizerTradeZeroTimestamp(t *testing.T) {
	n := newTestNormalizer()
	res, err := n.Trade(gjson.Parse(`{"tradeId":"t9","side":"sell","symbol":"BTCUSDT","price":"2","qty":"3","timestamp":0}`), nil)
	require.NoError(t, err)
	require.NotNil(t, res.Trade)
	assert.Equal(t, fixedNow, res.Trade.Time)
	assert.True(t, res.TimeFallback)
}

func TestNormalizerMalformed(t *testing.T) {
	n := newTestNormalizer()
	orders := map[string]string{
		"missing price":   `{"orderId":"1","orderState":"NEW","side":"buy","symbol":"BTCUSDT","qty":"1"}`,
		"missing qty":     `{"orderId":"1","orderState":"NEW","side":"buy","symbol":"BTCUSDT","price":"1"}`,
		"missing symbol":  `{"orderId":"1","orderState":"NEW","side":"buy","price":"1","qty":"1"}`,
		"empty symbol":    `{"orderId":"1","orderState":"NEW","side":"buy","symbol":"","price":"1","qty":"1"}`,
		"missing orderId": `{"orderState":"NEW","side":"buy","symbol":"BTCUSDT","price":"1","qty":"1"}`,
		"text price":      `{"orderId":"1","orderState":"NEW","side":"buy","symbol":"BTCUSDT","price":"abc","qty":"1"}`,
		"bool qty":        `{"orderId":"1","orderState":"NEW","side":"buy","symbol":"BTCUSDT","price":"1","qty":true}`,
		"zero qty":        `{"orderId":"1","orderState":"NEW","side":"buy","symbol":"BTCUSDT","price":"1","qty":"0"}`,
		"unknown side":    `{"orderId":"1","orderState":"NEW","side":"bid","symbol":"BTCUSDT","price":"1","qty":"1"}`,
		"blank orderId":   `{"orderId":"  ","orderState":"NEW","side":"buy","symbol":"BTCUSDT","price":"1","qty":"1"}`,
		"blank symbol":    `{"orderId":"1","orderState":"NEW","side":"buy","symbol":" ","price":"1","qty":"1"}`,
	}
	for name, raw := range orders {
		t.Run("order "+name, func(t *testing.T) {
			res, err := n.Order(gjson.Parse(raw), NewScope())
			assert.ErrorIs(t, err, ErrMalformedRecord)
			assert.False(t, res.Accepted())
		})
	}

	trades := map[string]string{
		"missing trade id": `{"side":"buy","symbol":"BTCUSDT","price":"1","qty":"1"}`,
		"missing price":    `{"tradeId":"t1","side":"buy","symbol":"BTCUSDT","qty":"1"}`,
		"zero price":       `{"tradeId":"t1","side":"buy","symbol":"BTCUSDT","price":"0","qty":"1"}`,
		"missing qty":      `{"tradeId":"t1","side":"buy","symbol":"BTCUSDT","price":"1"}`,
		"missing symbol":   `{"tradeId":"t1","side":"buy","price":"1","qty":"1"}`,
		"blank trade id":   `{"tradeId":"  ","side":"buy","symbol":"BTCUSDT","price":"1","qty":"1"}`,
		"blank symbol":     `{"tradeId":"t1","side":"buy","symbol":"\t","price":"1","qty":"1"}`,
	}
	for name, raw := range trades {
		t.Run("trade "+name, func(t *testing.T) {
			res, err := n.Trade(gjson.Parse(raw), NewScope())
			assert.ErrorIs(t, err, ErrMalformedRecord)
			assert.False(t, res.Accepted())
		})
	}
}

func TestNormalizerTradeVolume(t *testing.T) {
	n := newTestNormalizer()
	tests := []struct {
		name  string
		raw   string
		price string
		qty   string
	}{
		{"string fields", `{"tradeId":"t1","clientOrderId":"SHORT_ETH_STRATabcdefghijk","side":"SELL","symbol":"ETHUSDT","price":"3512.37","qty":"0.125","timestamp":1718693033751}`, "3512.37", "0.125"},
		{"number fields keep precision", `{"tradeId":"t2","side":"buy","symbol":"BTCUSDT","price":123456789.123456789,"qty":0.000000123}`, "123456789.123456789", "0.000000123"},
		{"exec aliases", `{"execId":"t3","side":"buy","symbol":"SOLUSDT","execPrice":"150.1","execQty":"3","execTime":"1718693033751"}`, "150.1", "3"},
		{"signed quantity", `{"tradeId":"t4","side":"sell","symbol":"SOLUSDT","price":"150","qty":"-2"}`, "150", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := n.Trade(gjson.Parse(tt.raw), NewScope())
			require.NoError(t, err)
			require.NotNil(t, res.Trade)
			price := decimal.RequireFromString(tt.price)
			qty := decimal.RequireFromString(tt.qty)
			assert.True(t, price.Equal(res.Trade.Price))
			assert.True(t, qty.Equal(res.Trade.Qty))
			assert.True(t, price.Mul(qty).Equal(res.Trade.Volume), "volume %s", res.Trade.Volume)
			assert.True(t, res.Trade.Volume.IsPositive())
		})
	}
}

func TestNormalizerTradeDedup(t *testing.T) {
	n := newTestNormalizer()
	scope := NewScope()
	data := gjson.Parse(`{"tradeId":"t1","clientOrderId":"SHORT_ETH_STRATabcdefghijk","side":"sell","symbol":"ETHUSDT","price":"1","qty":"1"}`)

	first, err := n.Trade(data, scope)
	require.NoError(t, err)
	require.NotNil(t, first.Trade)
	assert.Equal(t, "SHORT_ETH_STRAT", first.Trade.StrategyID)
	assert.Equal(t, DirectionShort, first.Strategy.Direction)

	second, err := n.Trade(data, scope)
	require.NoError(t, err)
	assert.Nil(t, second.Trade)
	assert.Equal(t, SkipDuplicate, second.Skip)

	fresh, err := n.Trade(data, NewScope())
	require.NoError(t, err)
	assert.NotNil(t, fresh.Trade)
}

func TestLogIDStable(t *testing.T) {
	a := LogID("trade", "t1")
	assert.Equal(t, a, LogID("trade", "t1"))
	assert.NotEqual(t, a, LogID("order", "t1"))
	assert.NotEqual(t, a, LogID("trade", "t2"))
	assert.GreaterOrEqual(t, a, int64(0))
}
