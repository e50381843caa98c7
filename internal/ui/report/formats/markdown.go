package formats

import (
	"fmt"
	"strings"
	"time"

	"coalesce/internal/core/ports"
	"coalesce/internal/engine/inspect"
	"coalesce/internal/shared/util"
)

type MarkdownReportOptions struct {
	ProjectName         string
	ProjectRoot         string
	Version             string
	PHPVersion          string
	GeneratedAt         time.Time
	Verbosity           string
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

var patternOrder = []string{
	inspect.PatternIsset,
	inspect.PatternNullComparison,
	inspect.PatternArrayKeyExists,
	inspect.PatternIfPreceding,
	inspect.PatternIfFollowing,
	inspect.PatternIfElse,
}

func (m *MarkdownGenerator) Generate(files []ports.FileReport, opts MarkdownReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	verbosity := normalizeReportVerbosity(opts.Verbosity)
	files = sortedFiles(files)

	counts := make(map[string]int)
	total, failed := 0, 0
	for _, file := range files {
		if file.Err != nil {
			failed++
		}
		for _, f := range file.Findings {
			counts[f.Pattern]++
			total++
		}
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Null Coalescing Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("php_version: " + nonEmpty(opts.PHPVersion, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Null Coalescing Report\n\n")
	b.WriteString("## Executive Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Files Analyzed | %d |\n", len(files)))
	b.WriteString(fmt.Sprintf("| Findings | %d |\n", total))
	b.WriteString(fmt.Sprintf("| Files With Errors | %d |\n", failed))
	for _, pattern := range patternOrder {
		if counts[pattern] > 0 {
			b.WriteString(fmt.Sprintf("| `%s` | %d |\n", pattern, counts[pattern]))
		}
	}
	b.WriteString("\n")

	m.writeFindings(&b, files, opts.ProjectRoot, opts.CollapsibleSections, verbosity, total)
	m.writeErrors(&b, files, opts.ProjectRoot, failed)
	return b.String(), nil
}

func (m *MarkdownGenerator) writeFindings(b *strings.Builder, files []ports.FileReport, projectRoot string, collapsible bool, verbosity string, total int) {
	b.WriteString("## Findings\n")
	if total == 0 {
		b.WriteString("No null coalescing opportunities detected.\n\n")
		return
	}
	if verbosity == "summary" {
		rows := make([]string, 0, len(files))
		for _, file := range files {
			if len(file.Findings) > 0 {
				rows = append(rows, fmt.Sprintf("| `%s` | %d |\n", util.RelPath(projectRoot, file.Path), len(file.Findings)))
			}
		}
		m.writeTableWithCollapse(b, "Files", collapsible, len(rows) > 15,
			[]string{"| File | Findings |\n", "| --- | --- |\n"}, rows)
		return
	}

	rows := make([]string, 0, total)
	for _, file := range files {
		for _, f := range file.Findings {
			location := fmt.Sprintf("%s:%d:%d", util.RelPath(projectRoot, file.Path), f.Position.Line, f.Position.Column)
			rows = append(rows, fmt.Sprintf("| `%s` | `%s` | `%s` |\n", location, f.Pattern, escapeCell(f.Replacement)))
		}
	}
	m.writeTableWithCollapse(b, "Finding details", collapsible, len(rows) > 15,
		[]string{"| Location | Pattern | Suggested Code |\n", "| --- | --- | --- |\n"}, rows)
}

func (m *MarkdownGenerator) writeErrors(b *strings.Builder, files []ports.FileReport, projectRoot string, failed int) {
	if failed == 0 {
		return
	}
	b.WriteString("## Errors\n")
	for _, file := range files {
		if file.Err != nil {
			b.WriteString(fmt.Sprintf("- `%s`: %s\n", util.RelPath(projectRoot, file.Path), escapeCell(file.Err.Error())))
		}
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

// escapeCell keeps table cells on one line and out of the column syntax.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "`", "'")
	return strings.Join(strings.Fields(s), " ")
}

func normalizeReportVerbosity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "summary":
		return "summary"
	case "detailed":
		return "detailed"
	default:
		return "standard"
	}
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
