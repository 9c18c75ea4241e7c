package ingest

import (
	"fmt"
	"time"

	"tradeledger/internal/store"
)

type Kind string

const (
	KindOrders    Kind = "orders"
	KindTrades    Kind = "trades"
	KindSnapshots Kind = "snapshots"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindOrders, KindTrades, KindSnapshots:
		return k, nil
	default:
		return "", fmt.Errorf("unknown ingest kind %q", s)
	}
}

// Report summarizes one pass over one source.
//
// Parsed counts decoded payloads (CSV: data rows). Rejected is ParseFailures +
// Malformed. Skipped is StateFiltered + DuplicateInPass.
type Report struct {
	RunID  string `json:"run_id" yaml:"run_id"`
	Source string `json:"source" yaml:"source"`
	Kind   Kind   `json:"kind" yaml:"kind"`

	Lines    int `json:"lines" yaml:"lines"`
	Parsed   int `json:"parsed" yaml:"parsed"`
	Accepted int `json:"accepted" yaml:"accepted"`
	Rejected int `json:"rejected" yaml:"rejected"`
	Skipped  int `json:"skipped" yaml:"skipped"`

	ParseFailures   int `json:"parse_failures" yaml:"parse_failures"`
	Malformed       int `json:"malformed" yaml:"malformed"`
	StateFiltered   int `json:"state_filtered" yaml:"state_filtered"`
	DuplicateInPass int `json:"duplicate_in_pass" yaml:"duplicate_in_pass"`
	TimeFallbacks   int `json:"time_fallbacks" yaml:"time_fallbacks"`

	Inserted   store.TableCounts `json:"inserted" yaml:"inserted"`
	Duplicates store.TableCounts `json:"duplicates" yaml:"duplicates"`

	Batches       int `json:"batches" yaml:"batches"`
	FailedBatches int `json:"failed_batches" yaml:"failed_batches"`

	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
}

func (r *Report) addBatch(res store.BatchResult) {
	r.Batches++
	r.Inserted = r.Inserted.Add(res.Inserted)
	r.Duplicates = r.Duplicates.Add(res.Duplicates())
}

func (r Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

func (r Report) String() string {
	return fmt.Sprintf("%s %s: lines=%d parsed=%d accepted=%d rejected=%d skipped=%d inserted=%d duplicates=%d batches=%d failed=%d",
		r.Kind, r.Source, r.Lines, r.Parsed, r.Accepted, r.Rejected, r.Skipped,
		r.Inserted.Total(), r.Duplicates.Total(), r.Batches, r.FailedBatches)
}
