// Package logparse pulls the JSON payloads that the execution engine embeds in its
// text logs ("Received data: {...}") and hands them out one by one.
package logparse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"tradeledger/internal/logger"
	"tradeledger/internal/pkg/jsonutil"

	"github.com/tidwall/gjson"
)

// DefaultMarker precedes every payload the engine logs.
const DefaultMarker = "Received data:"

const maxLineSize = 4 << 20

// ErrParseFailure marks a line that carried the marker but no usable payload.
var ErrParseFailure = errors.New("parse failure")

type Options struct {
	Marker string
}

// RawEvent is one decoded payload plus where it came from.
type RawEvent struct {
	Source string
	Line   int
	// Index is the position inside a "data" array, 0 for object payloads.
	Index    int
	Text     string
	Envelope gjson.Result
	Data     gjson.Result
}

// Ref renders source:line for diagnostics.
func (e RawEvent) Ref() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s:%d#%d", e.Source, e.Line, e.Index)
	}
	return fmt.Sprintf("%s:%d", e.Source, e.Line)
}

type Stats struct {
	Lines         int
	Matched       int
	Events        int
	ParseFailures int
}

// Extractor is single-use per input stream; Stats and Err describe the last pass.
type Extractor struct {
	marker string
	stats  Stats
	err    error
}

func NewExtractor(opts Options) *Extractor {
	marker := strings.TrimSpace(opts.Marker)
	if marker == "" {
		marker = DefaultMarker
	}
	return &Extractor{marker: marker}
}

func (e *Extractor) Stats() Stats { return e.stats }

// Err returns the read error that ended the last pass early, if any.
func (e *Extractor) Err() error { return e.err }

// Events lazily yields the payloads found in r. Lines without the marker are noise and
// are skipped silently; marked lines that fail to decode are counted and logged.
func (e *Extractor) Events(r io.Reader, source string) iter.Seq[RawEvent] {
	return func(yield func(RawEvent) bool) {
		e.stats = Stats{}
		e.err = nil
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			e.stats.Lines++
			text := sc.Text()
			if !strings.Contains(text, e.marker) {
				continue
			}
			e.stats.Matched++
			events, err := Decode(source, lineNo, text, e.marker)
			if err != nil {
				e.stats.ParseFailures++
				logger.Warnf("skip %s:%d: %v", source, lineNo, err)
				logger.LogReject("parse", source, lineNo, err.Error(), text)
				continue
			}
			for _, ev := range events {
				e.stats.Events++
				if !yield(ev) {
					return
				}
			}
		}
		if err := sc.Err(); err != nil {
			e.err = fmt.Errorf("read %s: %w", source, err)
		}
	}
}

// Decode extracts the payload after marker in a single line. A "data" object yields one
// event; a "data" array yields one event per object element.
func Decode(source string, line int, text, marker string) ([]RawEvent, error) {
	raw, _, ok := jsonutil.ExtractAfter(text, marker)
	if !ok {
		return nil, fmt.Errorf("%w: no json object after marker", ErrParseFailure)
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrParseFailure)
	}
	env := gjson.Parse(raw)
	data := env.Get("data")
	switch {
	case !data.Exists():
		return nil, fmt.Errorf("%w: payload has no data member", ErrParseFailure)
	case data.IsObject():
		return []RawEvent{{Source: source, Line: line, Text: text, Envelope: env, Data: data}}, nil
	case data.IsArray():
		var out []RawEvent
		idx := 0
		var elemErr error
		data.ForEach(func(_, item gjson.Result) bool {
			idx++
			if !item.IsObject() {
				elemErr = fmt.Errorf("%w: data[%d] is not an object", ErrParseFailure, idx-1)
				return false
			}
			out = append(out, RawEvent{Source: source, Line: line, Index: idx, Text: text, Envelope: env, Data: item})
			return true
		})
		if elemErr != nil {
			return nil, elemErr
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: data array is empty", ErrParseFailure)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: data must be an object", ErrParseFailure)
	}
}
