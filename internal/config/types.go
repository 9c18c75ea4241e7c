package config

import "strings"

// Config is the full tradeledger configuration.
type Config struct {
	App       AppConfig       `toml:"app"`
	Database  DatabaseConfig  `toml:"database"`
	Portfolio PortfolioConfig `toml:"portfolio"`
	Ingest    IngestConfig    `toml:"ingest"`
	Watch     WatchConfig     `toml:"watch"`
	Tracing   TracingConfig   `toml:"tracing"`
	Report    ReportConfig    `toml:"report"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	// LogPath empty means stderr.
	LogPath string `toml:"log_path"`
	// RejectLogPath receives every skipped input line; empty disables the dump.
	RejectLogPath  string `toml:"reject_log_path"`
	RejectLogLines bool   `toml:"reject_log_lines"`
}

type DatabaseConfig struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	MaxOpenConns  int    `toml:"max_open_conns"`
	// ReadOnlyAnalytics serves reports from a separate query_only connection.
	ReadOnlyAnalytics bool `toml:"read_only_analytics"`
}

type PortfolioConfig struct {
	ID   int64  `toml:"id"`
	Name string `toml:"name"`
}

type IngestConfig struct {
	Marker    string `toml:"marker"`
	BatchSize int    `toml:"batch_size"`
	SuffixLen int    `toml:"suffix_len"`
	Parallel  bool   `toml:"parallel"`
	// OnBatchError is "abort" or "skip".
	OnBatchError string `toml:"on_batch_error"`
}

const (
	OnBatchErrorAbort = "abort"
	OnBatchErrorSkip  = "skip"
)

type WatchConfig struct {
	DebounceMS    int `toml:"debounce_ms"`
	MinIntervalMS int `toml:"min_interval_ms"`
}

type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Pretty      bool   `toml:"pretty"`
}

type ReportConfig struct {
	Format string `toml:"format"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
