package app

import (
	"context"
	"errors"
	"log/slog"

	coreerrors "coalesce/internal/core/errors"
	"coalesce/internal/core/ports"
	"coalesce/internal/engine/fix"
	"coalesce/internal/engine/inspect"
	"coalesce/internal/shared/observability"
	"coalesce/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxFixPasses bounds re-inspection when one fix uncovers another, as with
// nested ternaries whose outer rewrite makes the inner one reachable.
const maxFixPasses = 4

// FixFile applies every available quick-fix to path. Running it again on
// its own output changes nothing.
func (a *App) FixFile(ctx context.Context, path string, dryRun bool) ports.FileFix {
	ctx, span := observability.Tracer.Start(ctx, "app.FixFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	result := ports.FileFix{Path: path}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	src, skipped, err := a.readSource(path)
	if err != nil || skipped {
		result.Err = err
		return result
	}
	result.Before = string(src)
	result.After = result.Before

	level, inspector, _ := a.snapshot()
	u, err := a.parse(path, src, level)
	if err != nil {
		result.Err = err
		return result
	}
	defer u.Close()

	var rejected []error
	for pass := 0; pass < maxFixPasses; pass++ {
		findings := inspector.Inspect(u)
		result.Stale = 0
		if len(findings) == 0 {
			break
		}
		res, err := a.applicator.ApplyAll(u, findings)
		if err != nil {
			rejected = append(rejected, err)
		}
		result.Applied += res.Applied
		result.Stale = res.Stale
		if res.Applied == 0 {
			break
		}
	}
	observability.FixesTotal.WithLabelValues(fix.Applied.String()).Add(float64(result.Applied))
	observability.FixesTotal.WithLabelValues(fix.Stale.String()).Add(float64(result.Stale))

	if len(rejected) > 0 {
		err := coreerrors.AddContext(coreerrors.Wrap(errors.Join(rejected...), coreerrors.CodeFixRejected, "quick-fix rejected"), coreerrors.CtxRule, inspect.RuleID)
		slog.Warn("some quick-fixes were rejected", "path", path, "error", err)
	}

	result.After = string(u.Source())
	if !dryRun && result.Changed() {
		if err := util.WriteFileAtomic(path, u.Source()); err != nil {
			result.Err = coreerrors.AddContext(coreerrors.Wrap(err, coreerrors.CodeInternal, "write fixed source"), coreerrors.CtxPath, path)
		}
	}
	span.SetAttributes(attribute.Int("applied", result.Applied))
	return result
}
