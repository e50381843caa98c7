package app

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"coalesce/internal/core/app/helpers"
	"coalesce/internal/core/errors"
)

// ScanDirectories expands roots into the sorted list of PHP source files to
// analyze. Roots may be files or directories.
func (a *App) ScanDirectories(roots []string) ([]string, error) {
	_, _, excludes := a.snapshot()
	seen := make(map[string]bool)
	var files []string

	for _, root := range helpers.UniqueScanRoots(roots) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "scan root"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			if a.loader.IsSupportedPath(root) && !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != root && excludes.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if !a.loader.IsSupportedPath(path) {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if excludes.SkipFile(rel) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxOperation, "scan_directories")
		}
	}

	sort.Strings(files)
	return files, nil
}
