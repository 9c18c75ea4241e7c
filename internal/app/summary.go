package app

import (
	"fmt"
	"strings"

	"tradeledger/internal/config"
)

// StartupSummary 汇总本次运行生效的关键配置，在摄取开始前打印一次。
type StartupSummary struct {
	Env       string
	Database  DatabaseSummary
	Portfolio PortfolioSummary
	Ingest    IngestSummary
	Watch     config.WatchConfig
	Tracing   bool
}

type DatabaseSummary struct {
	Path              string
	BusyTimeoutMS     int
	ReadOnlyAnalytics bool
}

type PortfolioSummary struct {
	ID   int64
	Name string
}

type IngestSummary struct {
	Marker       string
	BatchSize    int
	SuffixLen    int
	Parallel     bool
	OnBatchError string
}

func newStartupSummary(cfg *config.Config) *StartupSummary {
	return &StartupSummary{
		Env: cfg.App.Env,
		Database: DatabaseSummary{
			Path:              cfg.Database.Path,
			BusyTimeoutMS:     cfg.Database.BusyTimeoutMS,
			ReadOnlyAnalytics: cfg.Database.ReadOnlyAnalytics,
		},
		Portfolio: PortfolioSummary{ID: cfg.Portfolio.ID, Name: cfg.Portfolio.Name},
		Ingest: IngestSummary{
			Marker:       cfg.Ingest.Marker,
			BatchSize:    cfg.Ingest.BatchSize,
			SuffixLen:    cfg.Ingest.SuffixLen,
			Parallel:     cfg.Ingest.Parallel,
			OnBatchError: cfg.Ingest.OnBatchError,
		},
		Watch:   cfg.Watch,
		Tracing: cfg.Tracing.Enabled,
	}
}

func (s *StartupSummary) String() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "tradeledger (env=%s)\n", valueOrDash(s.Env))
	b.WriteString("[database]\n")
	fmt.Fprintf(&b, "  path: %s\n", s.Database.Path)
	fmt.Fprintf(&b, "  busy timeout: %dms\n", s.Database.BusyTimeoutMS)
	fmt.Fprintf(&b, "  read-only analytics: %t\n", s.Database.ReadOnlyAnalytics)
	b.WriteString("[portfolio]\n")
	fmt.Fprintf(&b, "  id: %d\n", s.Portfolio.ID)
	fmt.Fprintf(&b, "  name: %s\n", valueOrDash(s.Portfolio.Name))
	b.WriteString("[ingest]\n")
	fmt.Fprintf(&b, "  marker: %q\n", s.Ingest.Marker)
	fmt.Fprintf(&b, "  batch size: %d\n", s.Ingest.BatchSize)
	fmt.Fprintf(&b, "  strategy suffix: %d\n", s.Ingest.SuffixLen)
	fmt.Fprintf(&b, "  parallel: %t\n", s.Ingest.Parallel)
	fmt.Fprintf(&b, "  on batch error: %s\n", s.Ingest.OnBatchError)
	fmt.Fprintf(&b, "[watch] debounce=%dms min_interval=%dms\n", s.Watch.DebounceMS, s.Watch.MinIntervalMS)
	fmt.Fprintf(&b, "[tracing] enabled=%t\n", s.Tracing)
	b.WriteString(strings.Repeat("=", 60))
	return b.String()
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
