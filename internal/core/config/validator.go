package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"coalesce/internal/engine/syntax"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validatePHPVersion(cfg *Config) error {
	if _, err := syntax.ParseLevel(cfg.PHPVersion); err != nil {
		return fmt.Errorf("php_version: %w", err)
	}
	return nil
}

func validatePaths(cfg *Config) error {
	if len(cfg.Paths) == 0 {
		return fmt.Errorf("paths must list at least one directory")
	}
	for i, p := range cfg.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("paths[%d] must not be empty", i)
		}
	}
	for i, ext := range cfg.Extensions {
		if strings.TrimSpace(ext) == "" || strings.TrimSpace(ext) == "." {
			return fmt.Errorf("extensions[%d] must not be empty", i)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	_, err := NewExcludeMatcher(cfg.Exclude)
	return err
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.MaxFileSize < 1 {
		return fmt.Errorf("scan.max_file_size must be positive")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.RescanRate <= 0 {
		return fmt.Errorf("watch.rescan_rate must be positive")
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	seen := make(map[string]string)
	targets := []struct {
		key  string
		path string
	}{
		{"output.sarif", cfg.Output.SARIF},
		{"output.markdown", cfg.Output.Markdown},
		{"output.tsv", cfg.Output.TSV},
	}
	for _, target := range targets {
		path := strings.TrimSpace(target.path)
		if path == "" {
			continue
		}
		path = filepath.Clean(path)
		if other, ok := seen[path]; ok {
			return fmt.Errorf("%s and %s both write to %q", other, target.key, path)
		}
		seen[path] = target.key
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	if cfg.History.Keep < 1 {
		return fmt.Errorf("history.keep must be >= 1")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be between 1 and 65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when enable_tracing=true")
	}
	return nil
}

// ExcludeMatcher decides whether a directory or file is skipped during
// discovery and watching.
type ExcludeMatcher struct {
	dirs  map[string]bool
	globs []glob.Glob
}

func NewExcludeMatcher(ex Exclude) (*ExcludeMatcher, error) {
	m := &ExcludeMatcher{dirs: make(map[string]bool, len(ex.Dirs))}
	for _, dir := range ex.Dirs {
		m.dirs[filepath.Clean(dir)] = true
	}
	for i, pattern := range ex.Files {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude.files[%d] %q: %w", i, pattern, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// SkipDir matches directory base names.
func (m *ExcludeMatcher) SkipDir(name string) bool {
	if m == nil {
		return false
	}
	return m.dirs[name]
}

// SkipFile matches exclude.files globs against the base name and the
// slash-separated path.
func (m *ExcludeMatcher) SkipFile(path string) bool {
	if m == nil {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range m.globs {
		if g.Match(base) || g.Match(slashed) {
			return true
		}
	}
	return false
}

// SkipPath reports whether any directory element of path is excluded.
func (m *ExcludeMatcher) SkipPath(path string) bool {
	if m == nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if m.dirs[part] {
			return true
		}
	}
	return m.SkipFile(path)
}
