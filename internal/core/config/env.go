package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: COALESCE_[SECTION]_[KEY] (e.g., COALESCE_OBSERVABILITY_PORT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.PHPVersion, "COALESCE_PHP_VERSION")
	setEnvList(&cfg.Paths, "COALESCE_PATHS")
	setEnvString(&cfg.State.ProjectRoot, "COALESCE_STATE_PROJECT_ROOT")
	setEnvString(&cfg.State.Dir, "COALESCE_STATE_DIR")

	// Inspections
	ins := &cfg.Inspections.NullCoalescing
	setEnvBoolPtr(&ins.Enabled, "COALESCE_INSPECTIONS_ENABLED")
	setEnvBoolPtr(&ins.SimplifyTernaries, "COALESCE_INSPECTIONS_SIMPLIFY_TERNARIES")
	setEnvBoolPtr(&ins.SimplifyIfs, "COALESCE_INSPECTIONS_SIMPLIFY_IFS")
	setEnvBoolPtr(&ins.LooseComparisons, "COALESCE_INSPECTIONS_LOOSE_COMPARISONS")

	// Scan / watch
	setEnvInt(&cfg.Scan.Workers, "COALESCE_SCAN_WORKERS")
	setEnvDuration(&cfg.Watch.Debounce, "COALESCE_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RescanRate, "COALESCE_WATCH_RESCAN_RATE")

	// History
	setEnvBool(&cfg.History.Enabled, "COALESCE_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "COALESCE_HISTORY_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "COALESCE_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "COALESCE_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "COALESCE_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "COALESCE_OBSERVABILITY_ENABLE_TRACING")
}

func logOverride(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = strings.Split(val, string(os.PathListSeparator))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			logOverride(key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key, val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key, val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			logOverride(key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			logOverride(key, val)
			*target = d
		}
	}
}
