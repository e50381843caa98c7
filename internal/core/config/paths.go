package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	StateDir    string
	HistoryPath string
	OutputRoot  string
}

func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.State.ProjectRoot)
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		candidates := make([]string, 0, len(cfg.Paths)+1)
		for _, p := range cfg.Paths {
			candidates = append(candidates, ResolveRelative(cwd, p))
		}
		root, err := DetectProjectRoot(append(candidates, cwd))
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	stateDir := ResolveRelative(projectRoot, cfg.State.Dir)
	historyPath := strings.TrimSpace(cfg.History.Path)
	if filepath.IsAbs(historyPath) {
		historyPath = filepath.Clean(historyPath)
	} else {
		historyPath = filepath.Join(stateDir, historyPath)
	}

	outputRoot := strings.TrimSpace(cfg.Output.Root)
	if outputRoot == "" {
		outputRoot = projectRoot
	} else {
		outputRoot = ResolveRelative(projectRoot, outputRoot)
	}

	return ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		StateDir:    filepath.Clean(stateDir),
		HistoryPath: filepath.Clean(historyPath),
		OutputRoot:  filepath.Clean(outputRoot),
	}, nil
}

// Output resolves an output target against the output root; empty stays empty.
func (p ResolvedPaths) Output(target string) string {
	if strings.TrimSpace(target) == "" {
		return ""
	}
	return ResolveRelative(p.OutputRoot, target)
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate looking for a PHP project marker.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFile,
		"composer.json",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
