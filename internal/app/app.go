package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"tradeledger/internal/analytics"
	"tradeledger/internal/config"
	"tradeledger/internal/ingest"
	"tradeledger/internal/logger"
	"tradeledger/internal/store"
	"tradeledger/internal/trace"
	"tradeledger/internal/watch"
)

// App 持有一次命令执行所需的全部依赖：账本存储、分析引擎、摄取任务工厂。
type App struct {
	cfg     *config.Config
	store   store.Store
	reader  store.AnalyticsReader
	engine  *analytics.Engine
	closers []io.Closer
	Summary *StartupSummary
}

// NewApp 根据配置构建应用对象
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return buildAppWithWire(ctx, cfg)
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Store() store.Store { return a.store }

func (a *App) Engine() *analytics.Engine { return a.engine }

// Job returns an ingestion job for portfolioID; zero selects the configured portfolio.
func (a *App) Job(portfolioID int64) *ingest.Job {
	name := a.cfg.Portfolio.Name
	if portfolioID == 0 {
		portfolioID = a.cfg.Portfolio.ID
	} else if portfolioID != a.cfg.Portfolio.ID {
		name = ""
	}
	return ingest.NewJob(a.store, ingest.Options{
		PortfolioID:   portfolioID,
		PortfolioName: name,
		BatchSize:     a.cfg.Ingest.BatchSize,
		SuffixLen:     a.cfg.Ingest.SuffixLen,
		Marker:        a.cfg.Ingest.Marker,
		OnBatchError:  a.cfg.Ingest.OnBatchError,
	})
}

// Watcher 按配置的防抖与最小间隔创建文件监听器。
func (a *App) Watcher() *watch.Watcher {
	return watch.New(watch.Options{
		Debounce:    time.Duration(a.cfg.Watch.DebounceMS) * time.Millisecond,
		MinInterval: time.Duration(a.cfg.Watch.MinIntervalMS) * time.Millisecond,
	})
}

// Close flushes spans and releases the database handles and log files.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := trace.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trace shutdown: %w", err))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	logger.Sync()
	return errors.Join(errs...)
}
