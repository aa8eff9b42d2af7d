package config

import (
	"runtime"
	"time"
)

// Config is the on-disk configuration of an impactgraph project. TOML is the
// primary format; YAML files are accepted with the same keys.
type Config struct {
	Version        int            `toml:"version" yaml:"version" validate:"gte=1,lte=1"`
	Project        Project        `toml:"project" yaml:"project"`
	Analysis       Analysis       `toml:"analysis" yaml:"analysis"`
	Cache          Cache          `toml:"cache" yaml:"cache"`
	Workers        Workers        `toml:"workers" yaml:"workers"`
	IgnorePatterns []string       `toml:"ignore_patterns" yaml:"ignore_patterns"`
	Resolve        Resolve        `toml:"resolve" yaml:"resolve"`
	Classification Classification `toml:"classification" yaml:"classification"`
	Store          Store          `toml:"store" yaml:"store"`
	Watch          Watch          `toml:"watch" yaml:"watch"`
	Observability  Observability  `toml:"observability" yaml:"observability"`
}

type Project struct {
	Root string `toml:"root" yaml:"root"`
	// Key namespaces persisted snapshots; defaults to the root's base name.
	Key string `toml:"key" yaml:"key"`
}

type Analysis struct {
	Depth             int      `toml:"depth" yaml:"depth" validate:"gte=1"`
	MaxAffectedFiles  int      `toml:"max_affected_files" yaml:"max_affected_files" validate:"gt=0"`
	MaxCriticalPaths  int      `toml:"max_critical_paths" yaml:"max_critical_paths" validate:"gt=0"`
	MaxWarnings       int      `toml:"max_warnings" yaml:"max_warnings" validate:"gt=0"`
	CriticalityFactor float64  `toml:"criticality_factor" yaml:"criticality_factor" validate:"gte=1"`
	BaseWeight        float64  `toml:"base_weight" yaml:"base_weight" validate:"gt=0"`
	Significant       []string `toml:"significant" yaml:"significant" validate:"dive,classification"`
}

type Cache struct {
	Capacity int `toml:"capacity" yaml:"capacity" validate:"gt=0"`
}

type Workers struct {
	PoolSize int `toml:"pool_size" yaml:"pool_size" validate:"gt=0"`
}

type Resolve struct {
	Extensions []string `toml:"extensions" yaml:"extensions" validate:"dive,startswith=."`
	IndexFiles []string `toml:"index_files" yaml:"index_files" validate:"dive,required"`
	// Roots are directories searched for bare specifiers. "" is the project root.
	Roots   []string `toml:"roots" yaml:"roots"`
	Aliases []Alias  `toml:"aliases" yaml:"aliases" validate:"dive"`
}

type Alias struct {
	Prefix string `toml:"prefix" yaml:"prefix" validate:"required"`
	Target string `toml:"target" yaml:"target"`
}

type Classification struct {
	Rules []ClassificationRule `toml:"rules" yaml:"rules" validate:"dive"`
}

type ClassificationRule struct {
	Pattern string `toml:"pattern" yaml:"pattern" validate:"required"`
	Tag     string `toml:"tag" yaml:"tag" validate:"required,classification"`
}

type Store struct {
	Enabled     bool          `toml:"enabled" yaml:"enabled"`
	Path        string        `toml:"path" yaml:"path" validate:"required_if=Enabled true"`
	Keep        int           `toml:"keep" yaml:"keep" validate:"gte=0"`
	BusyTimeout time.Duration `toml:"busy_timeout" yaml:"busy_timeout" validate:"gte=0"`
}

type Watch struct {
	Debounce  time.Duration `toml:"debounce" yaml:"debounce" validate:"gte=0"`
	RateLimit float64       `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst     int           `toml:"burst" yaml:"burst" validate:"gte=0"`
}

type Observability struct {
	MetricsAddr   string `toml:"metrics_addr" yaml:"metrics_addr"`
	EnableTracing bool   `toml:"enable_tracing" yaml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint" yaml:"otlp_endpoint" validate:"required_if=EnableTracing true"`
	ServiceName   string `toml:"service_name" yaml:"service_name"`
}

// Classifications lists the tags understood by the classifier and aggregator.
var Classifications = []string{"page", "component", "utility", "config", "style", "unclassified"}

// DefaultIgnorePatterns are the exclusions applied when none are configured.
var DefaultIgnorePatterns = []string{
	"node_modules/", "dist/", "build/", "venv/", ".venv/", "__pycache__/",
	".git/", ".idea/", ".vscode/",
	"*.test.js", "*.spec.js", "*.test.ts", "*.spec.ts", "*.test.tsx", "*.spec.tsx",
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}

	if cfg.Analysis.Depth == 0 {
		cfg.Analysis.Depth = 3
	}
	if cfg.Analysis.MaxAffectedFiles == 0 {
		cfg.Analysis.MaxAffectedFiles = 50
	}
	if cfg.Analysis.MaxCriticalPaths == 0 {
		cfg.Analysis.MaxCriticalPaths = 5
	}
	if cfg.Analysis.MaxWarnings == 0 {
		cfg.Analysis.MaxWarnings = 100
	}
	if cfg.Analysis.CriticalityFactor == 0 {
		cfg.Analysis.CriticalityFactor = 2
	}
	if cfg.Analysis.BaseWeight == 0 {
		cfg.Analysis.BaseWeight = 1
	}
	if cfg.Analysis.Significant == nil {
		cfg.Analysis.Significant = []string{"page"}
	}

	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 4096
	}
	if cfg.Workers.PoolSize == 0 {
		cfg.Workers.PoolSize = runtime.NumCPU()
	}
	if cfg.IgnorePatterns == nil {
		cfg.IgnorePatterns = append([]string(nil), DefaultIgnorePatterns...)
	}

	if cfg.Resolve.Extensions == nil {
		cfg.Resolve.Extensions = []string{".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs", ".vue", ".json", ".css", ".scss", ".less"}
	}
	if cfg.Resolve.IndexFiles == nil {
		cfg.Resolve.IndexFiles = []string{"index"}
	}
	if cfg.Resolve.Roots == nil {
		cfg.Resolve.Roots = []string{"", "src"}
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = ".impactgraph/snapshots.db"
	}
	if cfg.Store.Keep == 0 {
		cfg.Store.Keep = 10
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = 2 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 4
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "impactgraph"
	}
}
