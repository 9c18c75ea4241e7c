package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if c.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("database.busy_timeout_ms must be >= 0")
	}
	if c.Portfolio.ID <= 0 {
		return fmt.Errorf("portfolio.id must be > 0")
	}
	if err := c.Ingest.validate(); err != nil {
		return err
	}
	if c.Watch.DebounceMS < 0 || c.Watch.MinIntervalMS < 0 {
		return fmt.Errorf("watch intervals must be >= 0")
	}
	switch c.Report.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("report.format must be table, json or yaml (got %q)", c.Report.Format)
	}
	return nil
}

func (i *IngestConfig) validate() error {
	if strings.TrimSpace(i.Marker) == "" {
		return fmt.Errorf("ingest.marker cannot be empty")
	}
	if i.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be > 0")
	}
	if i.SuffixLen <= 0 {
		return fmt.Errorf("ingest.suffix_len must be > 0")
	}
	switch i.OnBatchError {
	case OnBatchErrorAbort, OnBatchErrorSkip:
	default:
		return fmt.Errorf("ingest.on_batch_error must be %s or %s (got %q)", OnBatchErrorAbort, OnBatchErrorSkip, i.OnBatchError)
	}
	return nil
}
