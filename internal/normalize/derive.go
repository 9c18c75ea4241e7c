package normalize

import (
	"strings"
	"time"
)

// DefaultSuffixLen is the width of the timestamp suffix appended to client order ids.
const DefaultSuffixLen = 11

type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// DeriveStrategyID strips the trailing suffixLen characters from a client order id.
// Ids that are not longer than the suffix yield "".
func DeriveStrategyID(clientOrderID string, suffixLen int) string {
	if suffixLen <= 0 {
		suffixLen = DefaultSuffixLen
	}
	if len(clientOrderID) <= suffixLen {
		return ""
	}
	return clientOrderID[:len(clientOrderID)-suffixLen]
}

// ClassifyDirection marks a strategy long when its id contains "LONG"; everything else is short.
func ClassifyDirection(strategyID string) Direction {
	if strings.Contains(strategyID, "LONG") {
		return DirectionLong
	}
	return DirectionShort
}

func NormalizeSide(raw string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SideBuy):
		return SideBuy, true
	case string(SideSell):
		return SideSell, true
	default:
		return "", false
	}
}

// EventTime converts a millisecond epoch into UTC. When the payload carried no usable
// timestamp (ok false or ms <= 0) the ingestion wall clock is used instead.
func EventTime(ms int64, ok bool, now func() time.Time) time.Time {
	if ok && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	if now == nil {
		now = time.Now
	}
	return now().UTC().Truncate(time.Millisecond)
}
