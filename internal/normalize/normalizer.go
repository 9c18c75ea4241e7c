package normalize

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/zeebo/blake3"
)

var ErrMalformedRecord = errors.New("malformed record")

type SkipReason string

const (
	SkipStateFiltered SkipReason = "state_filtered"
	SkipDuplicate     SkipReason = "duplicate_in_pass"
)

// admittedStates are the order states that create an order row.
var admittedStates = []string{"NEW", "OPEN"}

type StrategyObservation struct {
	StrategyID string
	Direction  Direction
	Symbol     string
}

type OrderRecord struct {
	OrderID    string
	Time       time.Time
	StrategyID string
	Price      decimal.Decimal
	Qty        decimal.Decimal
	Side       Side
	Symbol     string
}

type TradeRecord struct {
	TradeID    string
	Time       time.Time
	StrategyID string
	Price      decimal.Decimal
	Qty        decimal.Decimal
	Side       Side
	Symbol     string
	Volume     decimal.Decimal
}

// LogEntry is the audit row written alongside every accepted event.
type LogEntry struct {
	LogID   int64
	Time    time.Time
	Message string
	Payload []byte
}

// Result holds what one payload produced. A skipped payload has Skip set and
// nothing else; an accepted one has exactly one of Order or Trade.
type Result struct {
	Strategy StrategyObservation
	Order    *OrderRecord
	Trade    *TradeRecord
	Log      LogEntry
	Skip     SkipReason
	// TimeFallback reports that the payload had no timestamp and ingestion time was used.
	TimeFallback bool
}

func (r Result) Accepted() bool {
	return r.Order != nil || r.Trade != nil
}

// Scope is the first-observation set for one parse pass. It is owned by the
// caller and must not be shared between concurrent passes.
type Scope struct {
	orders map[string]struct{}
	trades map[string]struct{}
}

func NewScope() *Scope {
	return &Scope{
		orders: make(map[string]struct{}),
		trades: make(map[string]struct{}),
	}
}

// SeenOrder records id and reports whether it had been recorded before.
func (s *Scope) SeenOrder(id string) bool {
	return seen(s.orders, id)
}

// SeenTrade records id and reports whether it had been recorded before.
func (s *Scope) SeenTrade(id string) bool {
	return seen(s.trades, id)
}

func seen(set map[string]struct{}, id string) bool {
	if _, ok := set[id]; ok {
		return true
	}
	set[id] = struct{}{}
	return false
}

type Options struct {
	SuffixLen int
	Now       func() time.Time
}

type Normalizer struct {
	suffixLen int
	now       func() time.Time
}

func New(opts Options) *Normalizer {
	if opts.SuffixLen <= 0 {
		opts.SuffixLen = DefaultSuffixLen
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Normalizer{suffixLen: opts.SuffixLen, now: opts.Now}
}

// Order turns an order payload into an OrderRecord. Only the first NEW/OPEN
// observation of an order id within scope is admitted.
func (n *Normalizer) Order(data gjson.Result, scope *Scope) (Result, error) {
	if scope == nil {
		scope = NewScope()
	}
	if err := validatePayload(orderSchema, data.Raw); err != nil {
		return Result{}, err
	}
	p, err := ParseOrderPayload(data)
	if err != nil {
		return Result{}, err
	}
	side, ok := NormalizeSide(p.Side)
	if !ok {
		return Result{}, fmt.Errorf("%w: order %s has side %q", ErrMalformedRecord, p.OrderID, p.Side)
	}
	if p.Price.IsNegative() || !p.Qty.IsPositive() {
		return Result{}, fmt.Errorf("%w: order %s price=%s qty=%s", ErrMalformedRecord, p.OrderID, p.Price, p.Qty)
	}
	if !admitState(p.State) {
		return Result{Skip: SkipStateFiltered}, nil
	}
	if scope.SeenOrder(p.OrderID) {
		return Result{Skip: SkipDuplicate}, nil
	}

	strategyID := DeriveStrategyID(p.ClientOrderID, n.suffixLen)
	ms, stamped := stampedMillis(p.TimestampMS)
	ts := EventTime(ms, stamped, n.now)
	rec := &OrderRecord{
		OrderID:    p.OrderID,
		Time:       ts,
		StrategyID: strategyID,
		Price:      p.Price,
		Qty:        p.Qty,
		Side:       side,
		Symbol:     p.Symbol,
	}
	return Result{
		Strategy: observe(strategyID, p.Symbol),
		Order:    rec,
		Log: LogEntry{
			LogID:   LogID("order", p.OrderID),
			Time:    ts,
			Message: fmt.Sprintf("order %s %s %s %s@%s strategy=%s", p.OrderID, side, p.Symbol, p.Qty, p.Price, strategyID),
			Payload: []byte(data.Raw),
		},
		TimeFallback: !stamped,
	}, nil
}

// Trade turns a fill payload into a TradeRecord with volume = |price × qty|.
func (n *Normalizer) Trade(data gjson.Result, scope *Scope) (Result, error) {
	if scope == nil {
		scope = NewScope()
	}
	if err := validatePayload(tradeSchema, data.Raw); err != nil {
		return Result{}, err
	}
	p, err := ParseTradePayload(data)
	if err != nil {
		return Result{}, err
	}
	side, ok := NormalizeSide(p.Side)
	if !ok {
		return Result{}, fmt.Errorf("%w: trade %s has side %q", ErrMalformedRecord, p.TradeID, p.Side)
	}
	// some venues sign the fill quantity by side
	qty := p.Qty.Abs()
	if !p.Price.IsPositive() || !qty.IsPositive() {
		return Result{}, fmt.Errorf("%w: trade %s price=%s qty=%s", ErrMalformedRecord, p.TradeID, p.Price, p.Qty)
	}
	if scope.SeenTrade(p.TradeID) {
		return Result{Skip: SkipDuplicate}, nil
	}

	strategyID := DeriveStrategyID(p.ClientOrderID, n.suffixLen)
	ms, stamped := stampedMillis(p.TimestampMS)
	ts := EventTime(ms, stamped, n.now)
	volume := p.Price.Mul(qty).Abs()
	rec := &TradeRecord{
		TradeID:    p.TradeID,
		Time:       ts,
		StrategyID: strategyID,
		Price:      p.Price,
		Qty:        qty,
		Side:       side,
		Symbol:     p.Symbol,
		Volume:     volume,
	}
	return Result{
		Strategy: observe(strategyID, p.Symbol),
		Trade:    rec,
		Log: LogEntry{
			LogID:   LogID("trade", p.TradeID),
			Time:    ts,
			Message: fmt.Sprintf("trade %s %s %s %s@%s volume=%s strategy=%s", p.TradeID, side, p.Symbol, qty, p.Price, volume, strategyID),
			Payload: []byte(data.Raw),
		},
		TimeFallback: !stamped,
	}, nil
}

// LogID hashes kind and natural key into a stable positive int64, so replaying
// the same event maps onto the same audit row.
func LogID(kind, key string) int64 {
	sum := blake3.Sum256([]byte(kind + "\x00" + key))
	return int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
}

func observe(strategyID, symbol string) StrategyObservation {
	return StrategyObservation{
		StrategyID: strategyID,
		Direction:  ClassifyDirection(strategyID),
		Symbol:     symbol,
	}
}

func admitState(state string) bool {
	state = strings.TrimSpace(state)
	for _, s := range admittedStates {
		if strings.EqualFold(state, s) {
			return true
		}
	}
	return false
}

// stampedMillis reports whether the payload carried a usable epoch; absent,
// zero and negative values all fall back to the ingest clock.
func stampedMillis(p *int64) (int64, bool) {
	if p == nil || *p <= 0 {
		return 0, false
	}
	return *p, true
}
