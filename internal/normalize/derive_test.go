package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStrategyID(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		suffixLen int
		want      string
	}{
		{"long strategy tag", "LONG_BTC_STRAT12345678901", 11, "LONG_BTC_STRAT"},
		{"short strategy tag", "SHORT_ETH_STRATabcdefghijk", 11, "SHORT_ETH_STRAT"},
		{"exactly suffix length", "12345678901", 11, ""},
		{"shorter than suffix", "abc", 11, ""},
		{"empty", "", 11, ""},
		{"one char prefix", "X12345678901", 11, "X"},
		{"zero suffix uses default", "LONG_BTC_STRAT12345678901", 0, "LONG_BTC_STRAT"},
		{"custom suffix", "GRID_SOL_0001", 5, "GRID_SOL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStrategyID(tt.id, tt.suffixLen))
		})
	}
}

func TestClassifyDirection(t *testing.T) {
	assert.Equal(t, DirectionLong, ClassifyDirection("LONG_BTC_STRAT"))
	assert.Equal(t, DirectionLong, ClassifyDirection("GRID_LONG"))
	assert.Equal(t, DirectionShort, ClassifyDirection("SHORT_ETH_STRAT"))
	assert.Equal(t, DirectionShort, ClassifyDirection("long_lowercase"))
	assert.Equal(t, DirectionShort, ClassifyDirection("GRID_SOL"))
	assert.Equal(t, DirectionShort, ClassifyDirection(""))
}

func TestNormalizeSide(t *testing.T) {
	for raw, want := range map[string]Side{"BUY": SideBuy, "buy": SideBuy, " Sell ": SideSell, "SELL": SideSell} {
		got, ok := NormalizeSide(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := NormalizeSide("BID")
	assert.False(t, ok)
	_, ok = NormalizeSide("")
	assert.False(t, ok)
}

func TestEventTime(t *testing.T) {
	fixed := time.Date(2024, 6, 18, 9, 30, 0, 123456789, time.UTC)
	now := func() time.Time { return fixed }

	got := EventTime(1718693033751, true, now)
	assert.Equal(t, time.UnixMilli(1718693033751).UTC(), got)
	assert.Equal(t, time.UTC, got.Location())

	assert.Equal(t, fixed.Truncate(time.Millisecond), EventTime(0, false, now))
	assert.Equal(t, fixed.Truncate(time.Millisecond), EventTime(0, true, now))
	assert.Equal(t, fixed.Truncate(time.Millisecond), EventTime(-5, true, now))
}
