package ports

import (
	"context"
	"time"

	"coalesce/internal/data/history"
	"coalesce/internal/engine/fix"
	"coalesce/internal/engine/inspect"

	"github.com/google/uuid"
)

// SourceParser abstracts PHP parsing and the source-file support checks.
type SourceParser interface {
	IsSupportedPath(filePath string) bool
	SupportedExtensions() []string
}

// FindingSink receives findings as they are produced.
type FindingSink = inspect.Sink

// HistoryStore abstracts run persistence for the history command.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) (history.Run, error)
	ListRuns(ctx context.Context, projectKey string, limit int) ([]history.Run, error)
	LoadRun(ctx context.Context, id uuid.UUID) (history.Run, error)
	Prune(ctx context.Context, projectKey string, keep int) (int, error)
	Count(ctx context.Context, projectKey string) (int, error)
	Close() error
}

// FileReport is the analysis outcome of one source unit. Edits holds the
// planned quick-fix edit for each finding index that has a valid one.
type FileReport struct {
	Path     string
	Findings []inspect.Finding
	Edits    map[int]fix.Edit
	Skipped  bool
	Err      error
}

// ScanRequest defines a scan operation request for driving adapters.
type ScanRequest struct {
	Paths []string
}

// ScanResult summarizes a completed scan operation.
type ScanResult struct {
	RunID      uuid.UUID
	PHPVersion string
	Files      []FileReport
	Duration   time.Duration
}

func (r ScanResult) FindingCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Findings)
	}
	return n
}

// Findings flattens every file's findings in file order.
func (r ScanResult) Findings() []inspect.Finding {
	out := make([]inspect.Finding, 0, r.FindingCount())
	for _, f := range r.Files {
		out = append(out, f.Findings...)
	}
	return out
}

// Errors lists the files that failed to analyze.
func (r ScanResult) Errors() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// FixRequest defines a fix operation. DryRun computes the rewrite without writing it.
type FixRequest struct {
	Paths  []string
	DryRun bool
}

// FileFix is the fix outcome of one source unit.
type FileFix struct {
	Path    string
	Applied int
	Stale   int
	Before  string
	After   string
	Err     error
}

func (f FileFix) Changed() bool { return f.Before != f.After }

// FixResult summarizes a completed fix operation.
type FixResult struct {
	Files    []FileFix
	Duration time.Duration
}

func (r FixResult) Applied() int {
	n := 0
	for _, f := range r.Files {
		n += f.Applied
	}
	return n
}

// WatchUpdate is emitted after each debounced re-analysis in watch mode.
type WatchUpdate struct {
	Files     []FileReport
	Throttled []string
}

// AnalysisService defines the driving-port surface over scan/fix/watch use cases.
type AnalysisService interface {
	Scan(ctx context.Context, req ScanRequest) (ScanResult, error)
	Fix(ctx context.Context, req FixRequest) (FixResult, error)
	Watch(ctx context.Context, paths []string, handler func(WatchUpdate)) error
}
