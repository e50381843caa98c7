package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"coalesce/internal/core/app/helpers"
	"coalesce/internal/core/config"
	"coalesce/internal/core/ports"
	"coalesce/internal/core/watcher"
	"coalesce/internal/data/history"
	"coalesce/internal/shared/observability"
	"coalesce/internal/shared/util"

	"github.com/cespare/xxhash/v2"
)

const (
	// limiterTTL is how long an idle file keeps its rescan budget.
	limiterTTL = 10 * time.Minute
	// digestCacheSize bounds the per-file content digests kept while watching.
	digestCacheSize = 4096
)

// Watch re-analyzes changed PHP files until ctx is done. Each file is
// throttled on its own so one hot file cannot starve the rest.
func (s *analysisService) Watch(ctx context.Context, paths []string, handler func(ports.WatchUpdate)) error {
	a := s.app
	roots := helpers.UniqueScanRoots(a.roots(paths))

	cfg := a.Config().Watch

	limiter := util.NewKeyedLimiter(cfg.RescanRate, cfg.Burst, limiterTTL)
	digests := util.NewLRU[string, fileDigest](digestCacheSize)
	writer := a.newHistoryWriter()
	defer writer.Close()

	w, err := watcher.NewWatcher(cfg.Debounce, liveExcludes{a}, a.loader.SupportedExtensions(), func(changed []string) {
		update := a.rescan(ctx, changed, limiter, digests)
		if len(update.Files) > 0 {
			level, _, _ := a.snapshot()
			res := ports.ScanResult{Files: update.Files}
			writer.Submit(history.Run{
				Kind:       history.KindWatch,
				PHPVersion: level.String(),
				FileCount:  len(update.Files),
				Findings:   findingRecords(res),
			})
		}
		if handler != nil && (len(update.Files) > 0 || len(update.Throttled) > 0) {
			handler(update)
		}
	})
	if err != nil {
		return err
	}
	stop := a.onReload(func(next *config.Config) { w.SetDebounce(next.Watch.Debounce) })
	defer stop()
	if err := w.Watch(roots); err != nil {
		_ = w.Close()
		return err
	}

	<-ctx.Done()
	return w.Close()
}

// liveExcludes resolves excludes on every check so a reload applies to
// directories and files seen afterwards.
type liveExcludes struct{ app *App }

func (l liveExcludes) SkipDir(name string) bool {
	_, _, m := l.app.snapshot()
	return m.SkipDir(name)
}

func (l liveExcludes) SkipFile(path string) bool {
	_, _, m := l.app.snapshot()
	return m.SkipFile(path)
}

// fileDigest identifies what a file's last analysis saw. A config reload
// bumps the generation so every file is analyzed again.
type fileDigest struct {
	sum        uint64
	generation uint64
}

// rescan re-analyzes changed files. Files whose content is identical to the
// last analysis (touch, save without edits) are skipped.
func (a *App) rescan(ctx context.Context, changed []string, limiter *util.KeyedLimiter, digests *util.LRU[string, fileDigest]) ports.WatchUpdate {
	var update ports.WatchUpdate
	for _, path := range changed {
		if ctx.Err() != nil {
			break
		}
		if _, err := os.Stat(path); err != nil {
			// Removed or renamed away.
			digests.Remove(path)
			continue
		}
		if !limiter.Allow(path) {
			observability.WatcherThrottledTotal.Inc()
			update.Throttled = append(update.Throttled, path)
			continue
		}

		report := ports.FileReport{Path: path}
		src, skipped, err := a.readSource(path)
		switch {
		case err != nil:
			report.Err = err
		case skipped:
			continue
		default:
			digest := fileDigest{sum: xxhash.Sum64(src), generation: a.generation()}
			if prev, ok := digests.Swap(path, digest); ok && prev == digest {
				slog.Debug("content unchanged, skipping", "path", path)
				continue
			}
			report = a.analyzeSource(report, src)
		}
		update.Files = append(update.Files, report)
	}
	return update
}
