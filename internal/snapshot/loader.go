// Package snapshot reads equity/position CSV exports into portfolio snapshots.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"tradeledger/internal/logger"

	"github.com/shopspring/decimal"
)

const (
	DefaultBatchSize = 1000
	// LeveragePlaces is the scale leverage is rounded to.
	LeveragePlaces = 8
	minColumns     = 3
)

var ErrBadRow = errors.New("bad snapshot row")

type Snapshot struct {
	PortfolioID int64
	Time        time.Time
	Fund        decimal.Decimal
	Leverage    decimal.Decimal
	Position    decimal.Decimal
	// OrderValue is always zero for CSV rows; the export has no order-value column.
	OrderValue decimal.Decimal
}

type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result counts what a pass over one CSV saw. Snapshots is filled by Load only;
// streaming readers hand rows out in batches instead.
type Result struct {
	Source    string
	Rows      int
	Accepted  int
	Snapshots []Snapshot
	Rejected  []RowError
}

type Loader struct {
	PortfolioID int64
	BatchSize   int
}

// Leverage is position/equity, or zero when equity is not positive.
func Leverage(position, equity decimal.Decimal) decimal.Decimal {
	if !equity.IsPositive() {
		return decimal.Zero
	}
	return position.DivRound(equity, LeveragePlaces)
}

func (l Loader) batchSize() int {
	if l.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return l.BatchSize
}

// Reader streams one CSV. At most one batch of accepted rows is held at a time.
type Reader struct {
	loader Loader
	src    io.Reader
	res    Result
	err    error
}

func (l Loader) NewReader(r io.Reader, source string) *Reader {
	return &Reader{loader: l, src: r, res: Result{Source: source}}
}

// Batches yields accepted snapshots in chunks of BatchSize. The first row is a
// header and is always skipped. Bad rows are recorded in Result().Rejected;
// a read error stops the sequence and is reported by Err.
func (sr *Reader) Batches() iter.Seq[[]Snapshot] {
	return func(yield func([]Snapshot) bool) {
		l := sr.loader
		size := l.batchSize()
		cr := csv.NewReader(sr.src)
		cr.FieldsPerRecord = -1
		cr.ReuseRecord = true
		cr.TrimLeadingSpace = true

		batch := make([]Snapshot, 0, size)
		line := 0
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			line++
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				if line > 1 {
					sr.res.Rows++
					l.reject(&sr.res, perr.Line, fmt.Errorf("%w: %v", ErrBadRow, perr.Err), "")
				}
				continue
			}
			if err != nil {
				sr.err = fmt.Errorf("read %s: %w", sr.res.Source, err)
				return
			}
			if line == 1 {
				continue
			}
			sr.res.Rows++
			lineNo, _ := cr.FieldPos(0)
			snap, err := l.parseRow(rec)
			if err != nil {
				l.reject(&sr.res, lineNo, err, strings.Join(rec, ","))
				continue
			}
			sr.res.Accepted++
			batch = append(batch, snap)
			if len(batch) == size {
				if !yield(batch) {
					return
				}
				batch = make([]Snapshot, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch)
		}
	}
}

// Result reports the counts gathered so far.
func (sr *Reader) Result() Result { return sr.res }

func (sr *Reader) Err() error { return sr.err }

// Load reads the whole CSV into Result.Snapshots. Use NewReader for large files.
func (l Loader) Load(r io.Reader, source string) (Result, error) {
	sr := l.NewReader(r, source)
	var all []Snapshot
	for batch := range sr.Batches() {
		all = append(all, batch...)
	}
	res := sr.Result()
	res.Snapshots = all
	return res, sr.Err()
}

func (l Loader) reject(res *Result, line int, err error, text string) {
	res.Rejected = append(res.Rejected, RowError{Line: line, Err: err})
	logger.Warnf("snapshot %s:%d skipped: %v", res.Source, line, err)
	logger.LogReject("snapshot", res.Source, line, err.Error(), text)
}

func (l Loader) parseRow(rec []string) (Snapshot, error) {
	if len(rec) < minColumns {
		return Snapshot{}, fmt.Errorf("%w: %d columns, want at least %d", ErrBadRow, len(rec), minColumns)
	}
	ts, err := parseMillis(rec[0])
	if err != nil {
		return Snapshot{}, err
	}
	equity, err := parseDecimal("equity", rec[1])
	if err != nil {
		return Snapshot{}, err
	}
	position, err := parseDecimal("position", rec[2])
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		PortfolioID: l.PortfolioID,
		Time:        ts,
		Fund:        equity,
		Leverage:    Leverage(position, equity),
		Position:    position,
		OrderValue:  decimal.Zero,
	}, nil
}

// parseMillis accepts "1718693033751" and integral forms such as "1718693033751.0".
func parseMillis(raw string) (time.Time, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.Equal(d.Truncate(0)) || !d.IsPositive() || !d.BigInt().IsInt64() {
		return time.Time{}, fmt.Errorf("%w: timestamp %q is not a millisecond epoch", ErrBadRow, raw)
	}
	return time.UnixMilli(d.IntPart()).UTC(), nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q is not numeric", ErrBadRow, field, raw)
	}
	return d, nil
}
