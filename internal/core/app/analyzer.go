package app

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"coalesce/internal/core/errors"
	"coalesce/internal/core/ports"
	"coalesce/internal/engine/fix"
	"coalesce/internal/engine/inspect"
	"coalesce/internal/engine/syntax"
	"coalesce/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// AnalyzeFile reads, parses and inspects one file. Failures are reported on
// the FileReport rather than returned so a scan can carry on.
func (a *App) AnalyzeFile(ctx context.Context, path string) ports.FileReport {
	_, span := observability.Tracer.Start(ctx, "app.AnalyzeFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	report := ports.FileReport{Path: path}
	if err := ctx.Err(); err != nil {
		report.Err = err
		return report
	}

	src, skipped, err := a.readSource(path)
	if err != nil {
		report.Err = err
		observability.FilesAnalyzedTotal.WithLabelValues("error").Inc()
		return report
	}
	if skipped {
		report.Skipped = true
		observability.FilesAnalyzedTotal.WithLabelValues("skipped").Inc()
		return report
	}

	report = a.analyzeSource(report, src)
	span.SetAttributes(attribute.Int("findings", len(report.Findings)))
	return report
}

// analyzeSource parses and inspects src already read from report.Path.
func (a *App) analyzeSource(report ports.FileReport, src []byte) ports.FileReport {
	level, inspector, _ := a.snapshot()
	u, err := a.parse(report.Path, src, level)
	if err != nil {
		report.Err = err
		observability.FilesAnalyzedTotal.WithLabelValues("error").Inc()
		return report
	}
	defer u.Close()

	report.Findings, report.Edits = a.inspectUnit(u, inspector)
	observability.FilesAnalyzedTotal.WithLabelValues("ok").Inc()
	return report
}

// Analyze inspects files in parallel, bounded by scan.workers. Each file is
// its own unit so results never depend on scheduling; they come back in the
// order of files.
func (a *App) Analyze(ctx context.Context, files []string) ([]ports.FileReport, error) {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	}()

	workers := a.Config().Scan.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	reports := make([]ports.FileReport, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			reports[i] = a.AnalyzeFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return reports, err
	}
	return reports, nil
}

func (a *App) readSource(path string) ([]byte, bool, error) {
	if !a.loader.IsSupportedPath(path) {
		return nil, false, errors.AddContext(errors.New(errors.CodeNotSupported, "not a configured php extension"), errors.CtxPath, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "stat source"), errors.CtxPath, path)
	}
	if limit := a.Config().Scan.MaxFileSize; limit > 0 && info.Size() > limit {
		slog.Debug("skipping oversized file", "path", path, "size", info.Size(), "max", limit)
		return nil, true, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read source"), errors.CtxPath, path)
	}
	return src, false, nil
}

func (a *App) parse(path string, src []byte, level syntax.Level) (*syntax.Unit, error) {
	start := time.Now()
	u, err := a.loader.Parse(path, src, level)
	observability.ParsingDuration.WithLabelValues(level.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeParse, "parse source"), errors.CtxPath, path)
	}
	if u.HasErrors() {
		slog.Debug("source has syntax errors, affected regions are skipped", "path", path)
	}
	return u, nil
}

// inspectUnit collects findings in source order and plans each quick-fix edit.
func (a *App) inspectUnit(u *syntax.Unit, inspector *inspect.Inspector) ([]inspect.Finding, map[int]fix.Edit) {
	var c inspect.Collector
	inspector.Run(u, &c)
	findings := c.Sorted()

	edits := make(map[int]fix.Edit, len(findings))
	for i, f := range findings {
		observability.FindingsTotal.WithLabelValues(f.Pattern).Inc()
		edit, ok, err := a.applicator.Plan(u, f.Fix)
		if err != nil {
			slog.Debug("quick-fix rejected", "path", u.Path, "line", f.Position.Line, "error", err)
			continue
		}
		if ok {
			edits[i] = edit
		}
	}
	return findings, edits
}
