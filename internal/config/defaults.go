package config

import "strings"

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultDatabasePath    = "data/tradeledger.db"
	defaultBusyTimeoutMS   = 5000
	defaultMaxOpenConns    = 4
	DefaultPortfolioID     = int64(1718693033751000)
	defaultPortfolioName   = "default"
	defaultIngestMarker    = "Received data:"
	defaultIngestBatchSize = 1000
	defaultIngestSuffixLen = 11
	defaultWatchDebounceMS = 500
	defaultWatchIntervalMS = 2000
	defaultTracingService  = "tradeledger"
	defaultReportFormat    = "table"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.Portfolio.applyDefaults(keys)
	c.Ingest.applyDefaults(keys)
	c.Watch.applyDefaults(keys)
	c.Tracing.applyDefaults(keys)
	c.Report.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("database.path", &d.Path, defaultDatabasePath),
		intFieldDefault("database.busy_timeout_ms", &d.BusyTimeoutMS, defaultBusyTimeoutMS),
		intFieldDefault("database.max_open_conns", &d.MaxOpenConns, defaultMaxOpenConns),
	)
}

func (p *PortfolioConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "portfolio.id",
			need:  func() bool { return p.ID <= 0 },
			apply: func() { p.ID = DefaultPortfolioID },
		},
		stringFieldDefault("portfolio.name", &p.Name, defaultPortfolioName),
	)
}

func (i *IngestConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("ingest.marker", &i.Marker, defaultIngestMarker),
		intFieldDefault("ingest.batch_size", &i.BatchSize, defaultIngestBatchSize),
		intFieldDefault("ingest.suffix_len", &i.SuffixLen, defaultIngestSuffixLen),
		boolFieldDefault("ingest.parallel", &i.Parallel, true),
		stringFieldDefault("ingest.on_batch_error", &i.OnBatchError, OnBatchErrorAbort),
	)
	i.OnBatchError = strings.ToLower(strings.TrimSpace(i.OnBatchError))
}

func (w *WatchConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("watch.debounce_ms", &w.DebounceMS, defaultWatchDebounceMS),
		intFieldDefault("watch.min_interval_ms", &w.MinIntervalMS, defaultWatchIntervalMS),
	)
}

func (t *TracingConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("tracing.service_name", &t.ServiceName, defaultTracingService),
	)
}

func (r *ReportConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("report.format", &r.Format, defaultReportFormat),
	)
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
