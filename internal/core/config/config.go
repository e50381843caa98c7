package config

import (
	"time"

	"coalesce/internal/engine/inspect"
)

const DefaultFile = "coalesce.toml"

type Config struct {
	Version       int           `toml:"version"`
	PHPVersion    string        `toml:"php_version"`
	Paths         []string      `toml:"paths"`
	Extensions    []string      `toml:"extensions"`
	State         State         `toml:"state"`
	Exclude       Exclude       `toml:"exclude"`
	Inspections   Inspections   `toml:"inspections"`
	Scan          Scan          `toml:"scan"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type State struct {
	ProjectRoot string `toml:"project_root"`
	Dir         string `toml:"dir"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Inspections struct {
	NullCoalescing NullCoalescing `toml:"null_coalescing"`
}

// NullCoalescing switches default to on; pointers distinguish "unset" from false.
type NullCoalescing struct {
	Enabled           *bool `toml:"enabled"`
	SimplifyTernaries *bool `toml:"simplify_ternaries"`
	SimplifyIfs       *bool `toml:"simplify_ifs"`
	LooseComparisons  *bool `toml:"loose_comparisons"`
}

type Scan struct {
	Workers     int   `toml:"workers"`
	MaxFileSize int64 `toml:"max_file_size"`
}

type Watch struct {
	Debounce   time.Duration `toml:"debounce"`
	RescanRate float64       `toml:"rescan_rate"`
	Burst      int           `toml:"burst"`
}

type Output struct {
	SARIF    string `toml:"sarif"`
	Markdown string `toml:"markdown"`
	TSV      string `toml:"tsv"`
	Root     string `toml:"root"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	Keep        int           `toml:"keep"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	ServiceName   string `toml:"service_name"`
}

func enabled(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

func (n NullCoalescing) IsEnabled() bool { return enabled(n.Enabled) }

// Options maps the inspection section onto analyzer switches. A disabled
// inspection turns both analyzers off.
func (n NullCoalescing) Options() inspect.Options {
	if !n.IsEnabled() {
		return inspect.Options{}
	}
	return inspect.Options{
		SimplifyTernaries: enabled(n.SimplifyTernaries),
		SimplifyIfs:       enabled(n.SimplifyIfs),
		LooseComparisons:  enabled(n.LooseComparisons),
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
