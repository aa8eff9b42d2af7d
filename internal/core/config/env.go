package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: IMPACTGRAPH_[SECTION]_[KEY] (e.g., IMPACTGRAPH_ANALYSIS_DEPTH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Project.Root, "IMPACTGRAPH_PROJECT_ROOT")
	setEnvString(&cfg.Project.Key, "IMPACTGRAPH_PROJECT_KEY")

	setEnvInt(&cfg.Analysis.Depth, "IMPACTGRAPH_ANALYSIS_DEPTH")
	setEnvInt(&cfg.Analysis.MaxAffectedFiles, "IMPACTGRAPH_ANALYSIS_MAX_AFFECTED_FILES")
	setEnvInt(&cfg.Analysis.MaxCriticalPaths, "IMPACTGRAPH_ANALYSIS_MAX_CRITICAL_PATHS")
	setEnvInt(&cfg.Analysis.MaxWarnings, "IMPACTGRAPH_ANALYSIS_MAX_WARNINGS")
	setEnvFloat64(&cfg.Analysis.CriticalityFactor, "IMPACTGRAPH_ANALYSIS_CRITICALITY_FACTOR")
	setEnvFloat64(&cfg.Analysis.BaseWeight, "IMPACTGRAPH_ANALYSIS_BASE_WEIGHT")
	setEnvList(&cfg.Analysis.Significant, "IMPACTGRAPH_ANALYSIS_SIGNIFICANT")

	setEnvInt(&cfg.Cache.Capacity, "IMPACTGRAPH_CACHE_CAPACITY")
	setEnvInt(&cfg.Workers.PoolSize, "IMPACTGRAPH_WORKERS_POOL_SIZE")
	setEnvList(&cfg.IgnorePatterns, "IMPACTGRAPH_IGNORE_PATTERNS")

	setEnvBool(&cfg.Store.Enabled, "IMPACTGRAPH_STORE_ENABLED")
	setEnvString(&cfg.Store.Path, "IMPACTGRAPH_STORE_PATH")
	setEnvInt(&cfg.Store.Keep, "IMPACTGRAPH_STORE_KEEP")
	setEnvDuration(&cfg.Store.BusyTimeout, "IMPACTGRAPH_STORE_BUSY_TIMEOUT")

	setEnvDuration(&cfg.Watch.Debounce, "IMPACTGRAPH_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RateLimit, "IMPACTGRAPH_WATCH_RATE_LIMIT")
	setEnvInt(&cfg.Watch.Burst, "IMPACTGRAPH_WATCH_BURST")

	setEnvString(&cfg.Observability.MetricsAddr, "IMPACTGRAPH_OBSERVABILITY_METRICS_ADDR")
	setEnvBool(&cfg.Observability.EnableTracing, "IMPACTGRAPH_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "IMPACTGRAPH_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "IMPACTGRAPH_OBSERVABILITY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value; empty items are dropped.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		items := make([]string, 0)
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = items
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}
