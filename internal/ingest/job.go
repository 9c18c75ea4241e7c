// Package ingest runs the extractor, normalizer and snapshot loader over input
// files and hands the results to the persistence gateway in batches.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tradeledger/internal/logger"
	"tradeledger/internal/logparse"
	"tradeledger/internal/normalize"
	"tradeledger/internal/snapshot"
	"tradeledger/internal/store"
	"tradeledger/internal/store/model"
	"tradeledger/internal/trace"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// BatchWriter is the persistence side of a job.
type BatchWriter interface {
	WriteBatch(ctx context.Context, b store.Batch) (store.BatchResult, error)
}

type Options struct {
	PortfolioID   int64
	PortfolioName string
	BatchSize     int
	SuffixLen     int
	Marker        string
	// OnBatchError decides what a failed batch does to the rest of the file.
	OnBatchError string
	Now          func() time.Time
}

type Job struct {
	writer BatchWriter
	opts   Options
}

func NewJob(w BatchWriter, opts Options) *Job {
	if opts.BatchSize <= 0 {
		opts.BatchSize = snapshot.DefaultBatchSize
	}
	if opts.SuffixLen <= 0 {
		opts.SuffixLen = normalize.DefaultSuffixLen
	}
	if strings.TrimSpace(opts.Marker) == "" {
		opts.Marker = logparse.DefaultMarker
	}
	if opts.OnBatchError == "" {
		opts.OnBatchError = PolicyAbort
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Job{writer: w, opts: opts}
}

func (j *Job) IngestOrders(ctx context.Context, path string) (Report, error) {
	return j.IngestFile(ctx, KindOrders, path)
}

func (j *Job) IngestTrades(ctx context.Context, path string) (Report, error) {
	return j.IngestFile(ctx, KindTrades, path)
}

func (j *Job) IngestSnapshots(ctx context.Context, path string) (Report, error) {
	return j.IngestFile(ctx, KindSnapshots, path)
}

// IngestFile runs one full pass over path. Replaying a file is safe: every row
// is keyed on its natural key and duplicates are ignored by the gateway.
func (j *Job) IngestFile(ctx context.Context, kind Kind, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{RunID: uuid.NewString(), Source: path, Kind: kind}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return j.Ingest(ctx, kind, f, path)
}

func (j *Job) Ingest(ctx context.Context, kind Kind, r io.Reader, source string) (Report, error) {
	rep := Report{
		RunID:   uuid.NewString(),
		Source:  source,
		Kind:    kind,
		Started: j.opts.Now(),
	}
	ctx, span := trace.StartSpan(ctx, "ingest.run",
		attribute.String("run_id", rep.RunID),
		attribute.String("kind", string(kind)),
		attribute.String("source", source))
	defer span.End()
	log := logger.With("run_id", rep.RunID, "kind", string(kind), "source", source)

	var err error
	switch kind {
	case KindOrders, KindTrades:
		err = j.ingestLog(ctx, kind, r, source, &rep)
	case KindSnapshots:
		err = j.ingestSnapshots(ctx, r, source, &rep)
	default:
		err = fmt.Errorf("unknown ingest kind %q", kind)
	}
	rep.Finished = j.opts.Now()
	if err != nil {
		trace.Fail(span, err)
		log.Errorw("ingest failed", "error", err, "batches", rep.Batches, "failed_batches", rep.FailedBatches)
		return rep, err
	}
	log.Infow("ingest finished",
		"lines", rep.Lines, "parsed", rep.Parsed, "accepted", rep.Accepted,
		"rejected", rep.Rejected, "skipped", rep.Skipped,
		"inserted", rep.Inserted.Total(), "duplicates", rep.Duplicates.Total(),
		"failed_batches", rep.FailedBatches, "took", rep.Duration())
	return rep, nil
}

func (j *Job) portfolio() model.Portfolio {
	return model.Portfolio{PortfolioID: j.opts.PortfolioID, Name: j.opts.PortfolioName}
}

func (j *Job) ingestLog(ctx context.Context, kind Kind, r io.Reader, source string, rep *Report) error {
	ex := logparse.NewExtractor(logparse.Options{Marker: j.opts.Marker})
	norm := normalize.New(normalize.Options{SuffixLen: j.opts.SuffixLen, Now: j.opts.Now})
	scope := normalize.NewScope()
	builder := newBatchBuilder(j.portfolio())

	for ev := range ex.Events(r, source) {
		var res normalize.Result
		var err error
		if kind == KindOrders {
			res, err = norm.Order(ev.Data, scope)
		} else {
			res, err = norm.Trade(ev.Data, scope)
		}
		if err != nil {
			rep.Malformed++
			logger.Warnf("%s: %v", ev.Ref(), err)
			logger.LogReject("normalize", ev.Source, ev.Line, err.Error(), ev.Text)
			continue
		}
		switch res.Skip {
		case normalize.SkipStateFiltered:
			rep.StateFiltered++
			continue
		case normalize.SkipDuplicate:
			rep.DuplicateInPass++
			continue
		}
		if res.TimeFallback {
			rep.TimeFallbacks++
			logger.Debugf("%s: no timestamp, using ingestion time", ev.Ref())
		}
		rep.Accepted++
		builder.add(res)
		if builder.records >= j.opts.BatchSize {
			if err := j.flush(ctx, builder.take(), rep); err != nil {
				j.collectStats(ex, rep)
				return err
			}
		}
	}
	j.collectStats(ex, rep)
	if err := ex.Err(); err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}
	if builder.records > 0 {
		return j.flush(ctx, builder.take(), rep)
	}
	return nil
}

func (j *Job) collectStats(ex *logparse.Extractor, rep *Report) {
	st := ex.Stats()
	rep.Lines = st.Lines
	rep.Parsed = st.Events
	rep.ParseFailures = st.ParseFailures
	rep.Rejected = rep.ParseFailures + rep.Malformed
	rep.Skipped = rep.StateFiltered + rep.DuplicateInPass
}

func (j *Job) ingestSnapshots(ctx context.Context, r io.Reader, source string, rep *Report) error {
	loader := snapshot.Loader{PortfolioID: j.opts.PortfolioID, BatchSize: j.opts.BatchSize}
	sr := loader.NewReader(r, source)
	defer func() {
		res := sr.Result()
		rep.Lines = res.Rows + 1
		rep.Parsed = res.Rows
		rep.Accepted = res.Accepted
		rep.ParseFailures = len(res.Rejected)
		rep.Rejected = rep.ParseFailures
	}()

	seq := 0
	for rows := range sr.Batches() {
		seq++
		p := j.portfolio()
		b := store.Batch{Seq: seq, Portfolio: &p, Snapshots: snapshotModels(rows)}
		if err := j.flush(ctx, b, rep); err != nil {
			return err
		}
	}
	return sr.Err()
}

// flush writes one batch. Under the skip policy a failed batch is counted and
// the run continues; under abort the error ends the run. Committed batches stay.
func (j *Job) flush(ctx context.Context, b store.Batch, rep *Report) error {
	ctx, span := trace.StartSpan(ctx, "ingest.batch",
		attribute.Int("seq", b.Seq),
		attribute.Int("orders", len(b.Orders)),
		attribute.Int("trades", len(b.Trades)),
		attribute.Int("snapshots", len(b.Snapshots)))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := j.writer.WriteBatch(ctx, b)
	if err != nil {
		trace.Fail(span, err)
		rep.FailedBatches++
		var perr *store.PersistenceError
		if !errors.As(err, &perr) {
			err = &store.PersistenceError{Batch: b.Seq, Err: err}
		}
		if j.opts.OnBatchError == PolicySkip {
			logger.Errorf("%s batch %d rolled back, continuing: %v", rep.Source, b.Seq, err)
			return nil
		}
		return err
	}
	rep.addBatch(res)
	logger.Debugf("%s batch %d committed: inserted=%d duplicates=%d", rep.Source, b.Seq, res.Inserted.Total(), res.Duplicates().Total())
	return nil
}
