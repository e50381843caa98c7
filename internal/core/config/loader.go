package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"coalesce/internal/engine/syntax"
)

// Load reads, defaults, overrides from the environment and validates a config
// file. A missing file at the default location yields DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultFile {
			cfg := DefaultConfig()
			ApplyEnvOverrides(cfg)
			return cfg, Validate(cfg)
		}
		return nil, err
	}
	return Parse(string(data))
}

func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateVersion,
		validatePHPVersion,
		validatePaths,
		validateExclude,
		validateScan,
		validateWatch,
		validateOutput,
		validateHistory,
		validateObservability,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.PHPVersion) == "" {
		cfg.PHPVersion = syntax.DefaultLevel.String()
	}
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".php", ".phtml", ".inc"}
	}
	if strings.TrimSpace(cfg.State.Dir) == "" {
		cfg.State.Dir = "data/state"
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "vendor", "node_modules"}
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Scan.MaxFileSize <= 0 {
		cfg.Scan.MaxFileSize = 4 << 20
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RescanRate <= 0 {
		cfg.Watch.RescanRate = 5
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 10
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}
	if cfg.History.Keep <= 0 {
		cfg.History.Keep = 200
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "coalesce"
	}
}

func normalize(cfg *Config) {
	cfg.PHPVersion = strings.TrimSpace(cfg.PHPVersion)
	cfg.Paths = trimAll(cfg.Paths)
	cfg.Exclude.Dirs = trimAll(cfg.Exclude.Dirs)
	cfg.Exclude.Files = trimAll(cfg.Exclude.Files)
	exts := make([]string, 0, len(cfg.Extensions))
	for _, ext := range trimAll(cfg.Extensions) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Extensions = exts
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
