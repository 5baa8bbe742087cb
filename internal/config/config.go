package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"diskgauge/gauge"
)

type Config struct {
	LogLevel  string `env:"DISKGAUGE_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"DISKGAUGE_LOG_FORMAT" envDefault:"console"`

	SnapshotEvery   int64 `env:"DISKGAUGE_SNAPSHOT_EVERY"    envDefault:"512"`
	BurnReportEvery int64 `env:"DISKGAUGE_BURN_REPORT_EVERY" envDefault:"1000"`
	BurnMaxCycles   int64 `env:"DISKGAUGE_BURN_MAX_CYCLES"   envDefault:"9223372036854775807"`
	ProbeCount      int   `env:"DISKGAUGE_PROBE_COUNT"       envDefault:"16"`
}

func Parse() (Config, error) {
	return env.ParseAs[Config]()
}

func (c Config) Validate() error {
	var errs []error
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q: want console or json", c.LogFormat))
	}
	if c.SnapshotEvery <= 0 {
		errs = append(errs, fmt.Errorf("snapshot interval must be positive, got %d", c.SnapshotEvery))
	}
	if c.BurnReportEvery <= 0 {
		errs = append(errs, fmt.Errorf("burn report interval must be positive, got %d", c.BurnReportEvery))
	}
	if c.BurnMaxCycles <= 0 {
		errs = append(errs, fmt.Errorf("burn cycle limit must be positive, got %d", c.BurnMaxCycles))
	}
	if c.ProbeCount <= 0 {
		errs = append(errs, fmt.Errorf("probe count must be positive, got %d", c.ProbeCount))
	}
	return errors.Join(errs...)
}

// Engine projects the cadence settings onto the engine configuration.
func (c Config) Engine() gauge.Config {
	cfg := gauge.DefaultConfig()
	cfg.SnapshotEvery = c.SnapshotEvery
	cfg.BurnReportEvery = c.BurnReportEvery
	cfg.BurnMaxCycles = c.BurnMaxCycles
	cfg.ProbeCount = c.ProbeCount
	return cfg
}
