package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tradeledger/internal/analytics"
	"tradeledger/internal/config"
	"tradeledger/internal/logger"
	"tradeledger/internal/store"
	"tradeledger/internal/store/readdb"
	"tradeledger/internal/store/sqlite"
	"tradeledger/internal/trace"
)

// Version is stamped into trace resources.
var Version = "dev"

type AppBuilder struct {
	cfg *config.Config

	storeFn  func(config.DatabaseConfig) (store.Store, io.Closer, error)
	readerFn func(config.DatabaseConfig) (store.AnalyticsReader, io.Closer, error)
	logOut   io.Writer

	storeOverride store.Store
}

type AppBuilderOption func(*AppBuilder)

// WithStore injects an already opened store; the app will not close it.
func WithStore(s store.Store) AppBuilderOption {
	return func(b *AppBuilder) { b.storeOverride = s }
}

// WithLogOutput replaces stderr as the console log destination.
func WithLogOutput(w io.Writer) AppBuilderOption {
	return func(b *AppBuilder) { b.logOut = w }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:      cfg,
		storeFn:  openStore,
		readerFn: openReader,
		logOut:   os.Stderr,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	a := &App{cfg: cfg}

	fail := func(err error) (*App, error) {
		_ = a.Close(ctx)
		return nil, err
	}

	if err := b.setupLogging(a); err != nil {
		return fail(err)
	}
	if err := trace.Init(trace.Options{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     Version,
		Pretty:      cfg.Tracing.Pretty,
	}); err != nil {
		return fail(fmt.Errorf("init tracing: %w", err))
	}

	if b.storeOverride != nil {
		a.store = b.storeOverride
	} else {
		st, closer, err := b.storeFn(cfg.Database)
		if err != nil {
			return fail(err)
		}
		a.store = st
		a.closers = append(a.closers, closer)
	}

	a.reader = a.store.Analytics()
	if cfg.Database.ReadOnlyAnalytics && b.storeOverride == nil {
		reader, closer, err := b.readerFn(cfg.Database)
		if err != nil {
			return fail(err)
		}
		a.reader = reader
		a.closers = append(a.closers, closer)
	}
	a.engine = analytics.NewEngine(a.reader)
	a.Summary = newStartupSummary(cfg)
	logger.Debugf("app ready: db=%s portfolio=%d", cfg.Database.Path, cfg.Portfolio.ID)
	return a, nil
}

func (b *AppBuilder) setupLogging(a *App) error {
	cfg := b.cfg.App
	logger.SetLevel(cfg.LogLevel)

	out := b.logOut
	if path := strings.TrimSpace(cfg.LogPath); path != "" {
		f, err := openAppend(path)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		out = io.MultiWriter(out, f)
	}
	logger.SetOutput(out)

	logger.SetRejectWriter(nil)
	logger.EnableRejectText(cfg.RejectLogLines)
	if path := strings.TrimSpace(cfg.RejectLogPath); path != "" {
		f, err := openAppend(path)
		if err != nil {
			return fmt.Errorf("open reject log: %w", err)
		}
		a.closers = append(a.closers, closerFunc(func() error {
			logger.SetRejectWriter(nil)
			return f.Close()
		}))
		logger.SetRejectWriter(f)
	}
	return nil
}

func openStore(cfg config.DatabaseConfig) (store.Store, io.Closer, error) {
	st, err := sqlite.NewSqliteStore(cfg.Path, sqlite.Options{
		BusyTimeoutMS: cfg.BusyTimeoutMS,
		MaxOpenConns:  cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger %s: %w", cfg.Path, err)
	}
	return st, st, nil
}

func openReader(cfg config.DatabaseConfig) (store.AnalyticsReader, io.Closer, error) {
	db, err := readdb.Open(cfg.Path, cfg.BusyTimeoutMS)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

func openAppend(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
