package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// OrderPayload is the typed view of an order event.
//
//	orderId        required
//	clientOrderId  default ""
//	orderState     default ""
//	side           required, buy|sell in any case
//	symbol         required
//	price          required, number or numeric string
//	qty            required, alias quantity
//	timestamp      ms epoch, aliases updateTime, createTime; absent -> ingestion time
type OrderPayload struct {
	OrderID       string
	ClientOrderID string
	State         string
	Side          string
	Symbol        string
	Price         decimal.Decimal
	Qty           decimal.Decimal
	TimestampMS   *int64
}

// TradePayload is the typed view of a fill event.
//
//	tradeId        required, alias execId
//	orderId        default ""
//	clientOrderId  default ""
//	side           required
//	symbol         required
//	price          required, alias execPrice
//	qty            required, alias execQty
//	timestamp      ms epoch, alias execTime; absent -> ingestion time
type TradePayload struct {
	TradeID       string
	OrderID       string
	ClientOrderID string
	Side          string
	Symbol        string
	Price         decimal.Decimal
	Qty           decimal.Decimal
	TimestampMS   *int64
}

var (
	keysOrderID   = []string{"orderId"}
	keysClientID  = []string{"clientOrderId"}
	keysState     = []string{"orderState"}
	keysSide      = []string{"side"}
	keysSymbol    = []string{"symbol"}
	keysOrderQty  = []string{"qty", "quantity"}
	keysOrderTime = []string{"timestamp", "updateTime", "createTime"}

	keysTradeID    = []string{"tradeId", "execId"}
	keysTradePrice = []string{"price", "execPrice"}
	keysTradeQty   = []string{"qty", "execQty"}
	keysTradeTime  = []string{"timestamp", "execTime"}
)

func ParseOrderPayload(data gjson.Result) (OrderPayload, error) {
	var p OrderPayload
	var err error
	p.OrderID = lookupString(data, keysOrderID...)
	p.ClientOrderID = lookupString(data, keysClientID...)
	p.State = lookupString(data, keysState...)
	p.Side = lookupString(data, keysSide...)
	p.Symbol = lookupString(data, keysSymbol...)
	if p.Price, err = lookupDecimal(data, "price"); err != nil {
		return OrderPayload{}, err
	}
	if p.Qty, err = lookupDecimal(data, keysOrderQty...); err != nil {
		return OrderPayload{}, err
	}
	if p.TimestampMS, err = lookupMillis(data, keysOrderTime...); err != nil {
		return OrderPayload{}, err
	}
	if p.OrderID == "" || p.Symbol == "" {
		return OrderPayload{}, fmt.Errorf("%w: order id=%q symbol=%q", ErrMalformedRecord, p.OrderID, p.Symbol)
	}
	return p, nil
}

func ParseTradePayload(data gjson.Result) (TradePayload, error) {
	var p TradePayload
	var err error
	p.TradeID = lookupString(data, keysTradeID...)
	p.OrderID = lookupString(data, keysOrderID...)
	p.ClientOrderID = lookupString(data, keysClientID...)
	p.Side = lookupString(data, keysSide...)
	p.Symbol = lookupString(data, keysSymbol...)
	if p.Price, err = lookupDecimal(data, keysTradePrice...); err != nil {
		return TradePayload{}, err
	}
	if p.Qty, err = lookupDecimal(data, keysTradeQty...); err != nil {
		return TradePayload{}, err
	}
	if p.TimestampMS, err = lookupMillis(data, keysTradeTime...); err != nil {
		return TradePayload{}, err
	}
	if p.TradeID == "" || p.Symbol == "" {
		return TradePayload{}, fmt.Errorf("%w: trade id=%q symbol=%q", ErrMalformedRecord, p.TradeID, p.Symbol)
	}
	return p, nil
}

func lookup(data gjson.Result, keys ...string) (gjson.Result, string) {
	for _, k := range keys {
		if v := data.Get(gjson.Escape(k)); v.Exists() && v.Type != gjson.Null {
			return v, k
		}
	}
	return gjson.Result{}, ""
}

func lookupString(data gjson.Result, keys ...string) string {
	v, _ := lookup(data, keys...)
	if !v.Exists() {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// lookupDecimal parses from the raw JSON text so no float64 rounding is involved.
func lookupDecimal(data gjson.Result, keys ...string) (decimal.Decimal, error) {
	v, key := lookup(data, keys...)
	var text string
	switch v.Type {
	case gjson.Number:
		text = v.Raw
	case gjson.String:
		text = strings.TrimSpace(v.Str)
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: missing %s", ErrMalformedRecord, keys[0])
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s=%q is not numeric", ErrMalformedRecord, key, text)
	}
	return d, nil
}

func lookupMillis(data gjson.Result, keys ...string) (*int64, error) {
	v, key := lookup(data, keys...)
	var ms int64
	switch v.Type {
	case gjson.Number:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%s is not an integer epoch", ErrMalformedRecord, key, v.Raw)
		}
		ms = n
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not an integer epoch", ErrMalformedRecord, key, s)
		}
		ms = n
	default:
		return nil, nil
	}
	return &ms, nil
}
