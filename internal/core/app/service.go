package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coalesce/internal/core/app/helpers"
	"coalesce/internal/core/errors"
	"coalesce/internal/core/ports"
	"coalesce/internal/data/history"
	"coalesce/internal/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

func (s *analysisService) Scan(ctx context.Context, req ports.ScanRequest) (ports.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Scan", trace.WithAttributes())
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.ScanResult{}, err
	}
	if s.app == nil || s.app.Config() == nil {
		return ports.ScanResult{}, fmt.Errorf("app is required")
	}

	start := time.Now()
	files, err := s.app.ScanDirectories(s.app.roots(req.Paths))
	if err != nil {
		return ports.ScanResult{}, err
	}
	reports, err := s.app.Analyze(ctx, files)
	if err != nil {
		return ports.ScanResult{}, errors.AddContext(err, errors.CtxOperation, "analyze")
	}

	level, _, _ := s.app.snapshot()
	res := ports.ScanResult{
		PHPVersion: level.String(),
		Files:      reports,
		Duration:   time.Since(start),
	}
	span.SetAttributes(attribute.Int("files", len(files)), attribute.Int("findings", res.FindingCount()))

	res.RunID = s.app.recordRun(ctx, history.Run{
		Kind:       history.KindScan,
		PHPVersion: res.PHPVersion,
		FileCount:  len(reports),
		Findings:   findingRecords(res),
	})
	return res, nil
}

func (s *analysisService) Fix(ctx context.Context, req ports.FixRequest) (ports.FixResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Fix", trace.WithAttributes(attribute.Bool("dry_run", req.DryRun)))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.FixResult{}, err
	}
	start := time.Now()
	files, err := s.app.ScanDirectories(s.app.roots(req.Paths))
	if err != nil {
		return ports.FixResult{}, err
	}

	// Files are rewritten one at a time so a failure leaves the rest untouched.
	res := ports.FixResult{Files: make([]ports.FileFix, 0, len(files))}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Files = append(res.Files, s.app.FixFile(ctx, path, req.DryRun))
	}
	res.Duration = time.Since(start)

	if !req.DryRun {
		stale := 0
		for _, f := range res.Files {
			stale += f.Stale
		}
		level, _, _ := s.app.snapshot()
		s.app.recordRun(ctx, history.Run{
			Kind:         history.KindFix,
			PHPVersion:   level.String(),
			FileCount:    len(files),
			FindingCount: res.Applied() + stale,
			FixedCount:   res.Applied(),
		})
	}
	return res, nil
}

// roots falls back to the configured paths when none are requested.
func (a *App) roots(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return helpers.ResolveAgainst(a.Paths.ProjectRoot, a.Config().Paths)
}

func (a *App) projectKey() string {
	return a.Paths.ProjectRoot
}

// recordRun stores a run when history is enabled; failures are logged, not fatal.
func (a *App) recordRun(ctx context.Context, run history.Run) uuid.UUID {
	if a.history == nil {
		return uuid.Nil
	}
	run.ProjectKey = a.projectKey()
	saved, err := a.history.SaveRun(ctx, run)
	if err != nil {
		slog.Warn("failed to save history run", "error", err)
		return uuid.Nil
	}
	if keep := a.Config().History.Keep; keep > 0 {
		if n, err := a.history.Prune(ctx, run.ProjectKey, keep); err != nil {
			slog.Warn("failed to prune history", "error", err)
		} else if n > 0 {
			slog.Debug("pruned history runs", "count", n)
		}
	}
	if n, err := a.history.Count(ctx, run.ProjectKey); err == nil {
		observability.HistoryRunsStored.Set(float64(n))
	}
	return saved.ID
}

func findingRecords(res ports.ScanResult) []history.FindingRecord {
	records := make([]history.FindingRecord, 0, res.FindingCount())
	for _, f := range res.Findings() {
		records = append(records, history.FindingRecord{
			Path:        f.Path,
			Line:        f.Position.Line,
			Column:      f.Position.Column,
			Pattern:     f.Pattern,
			Message:     f.Message,
			Replacement: f.Replacement,
		})
	}
	return records
}
