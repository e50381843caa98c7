// # internal/ui/report/summary.go
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"coalesce/internal/core/ports"
	"coalesce/internal/data/history"
	"coalesce/internal/shared/util"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const defaultWidth = 100

type styles struct {
	title    lipgloss.Style
	location lipgloss.Style
	pattern  lipgloss.Style
	code     lipgloss.Style
	err      lipgloss.Style
	success  lipgloss.Style
	status   lipgloss.Style
}

// Printer renders human-readable summaries. Colors are used only when out
// is a terminal.
type Printer struct {
	out   io.Writer
	root  string
	width int
	st    styles
}

func NewPrinter(out io.Writer, projectRoot string) *Printer {
	width := defaultWidth
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = w
		}
	}
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:   out,
		root:  projectRoot,
		width: width,
		st: styles{
			title:    r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
			location: r.NewStyle().Foreground(lipgloss.Color("#64748B")),
			pattern:  r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
			code:     r.NewStyle().Foreground(lipgloss.Color("#10B981")),
			err:      r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
			success:  r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
			status:   r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
		},
	}
}

// Findings prints one line per finding followed by a per-pattern tally.
func (p *Printer) Findings(res ports.ScanResult) {
	files := append([]ports.FileReport(nil), res.Files...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	counts := make(map[string]int)
	for _, file := range files {
		p.fileLines(file, counts)
	}

	total := res.FindingCount()
	fmt.Fprintln(p.out)
	if total == 0 {
		fmt.Fprintf(p.out, "%s %s\n", p.st.success.Render("No null coalescing opportunities."), p.st.status.Render(p.tail(len(files), res.Duration)))
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.st.title.Render(fmt.Sprintf("%d finding(s)", total)), p.st.status.Render(p.tail(len(files), res.Duration)))
	for _, pattern := range util.SortedStringKeys(counts) {
		fmt.Fprintf(p.out, "  %-24s %d\n", pattern, counts[pattern])
	}
}

// Fixes prints what a fix run changed.
func (p *Printer) Fixes(res ports.FixResult, dryRun bool) {
	verb := "fixed"
	if dryRun {
		verb = "would fix"
	}
	changed := 0
	for _, file := range res.Files {
		rel := util.RelPath(p.root, file.Path)
		switch {
		case file.Err != nil:
			fmt.Fprintf(p.out, "%s %s: %s\n", p.st.err.Render("error"), rel, file.Err)
		case file.Changed():
			changed++
			line := fmt.Sprintf("%s %d site(s)", verb, file.Applied)
			if file.Stale > 0 {
				line += fmt.Sprintf(", %d skipped", file.Stale)
			}
			fmt.Fprintf(p.out, "%s %s\n", p.st.location.Render(rel), p.st.code.Render(line))
		}
	}
	fmt.Fprintln(p.out)
	summary := fmt.Sprintf("%d file(s) %s, %d site(s)", changed, verb, res.Applied())
	fmt.Fprintf(p.out, "%s %s\n", p.st.success.Render(summary), p.st.status.Render("in "+res.Duration.Round(time.Millisecond).String()))
}

// Diff prints the changed lines of a fix as a unified-style hunk.
func (p *Printer) Diff(file ports.FileFix) {
	if !file.Changed() {
		return
	}
	before := strings.Split(file.Before, "\n")
	after := strings.Split(file.After, "\n")

	// Trim the common prefix and suffix; what remains is the hunk.
	head := 0
	for head < len(before) && head < len(after) && before[head] == after[head] {
		head++
	}
	tb, ta := len(before), len(after)
	for tb > head && ta > head && before[tb-1] == after[ta-1] {
		tb--
		ta--
	}

	rel := util.RelPath(p.root, file.Path)
	fmt.Fprintln(p.out, p.st.title.Render("--- "+rel))
	fmt.Fprintln(p.out, p.st.title.Render("+++ "+rel))
	fmt.Fprintln(p.out, p.st.status.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", head+1, tb-head, head+1, ta-head)))
	for _, line := range before[head:tb] {
		fmt.Fprintln(p.out, p.st.err.Render("-"+line))
	}
	for _, line := range after[head:ta] {
		fmt.Fprintln(p.out, p.st.code.Render("+"+line))
	}
}

// Runs prints stored history runs, newest first.
func (p *Printer) Runs(runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.out, p.st.status.Render("No runs recorded."))
		return
	}
	fmt.Fprintln(p.out, p.st.title.Render(fmt.Sprintf("%-36s  %-5s  %-19s  %5s  %8s  %5s", "RUN", "KIND", "TIME", "FILES", "FINDINGS", "FIXED")))
	for _, run := range runs {
		fmt.Fprintf(p.out, "%-36s  %-5s  %-19s  %5d  %8d  %5d\n",
			run.ID, run.Kind, run.Timestamp.Local().Format("2006-01-02 15:04:05"), run.FileCount, run.FindingCount, run.FixedCount)
	}
}

// RunDetail prints one stored run with its findings.
func (p *Printer) RunDetail(run history.Run) {
	fmt.Fprintf(p.out, "%s %s\n", p.st.title.Render("Run"), run.ID)
	fmt.Fprintf(p.out, "  kind        %s\n", run.Kind)
	fmt.Fprintf(p.out, "  time        %s\n", run.Timestamp.Local().Format(time.RFC3339))
	fmt.Fprintf(p.out, "  php         %s\n", run.PHPVersion)
	fmt.Fprintf(p.out, "  files       %d\n", run.FileCount)
	fmt.Fprintf(p.out, "  findings    %d\n", run.FindingCount)
	if run.FixedCount > 0 {
		fmt.Fprintf(p.out, "  fixed       %d\n", run.FixedCount)
	}
	if len(run.Findings) == 0 {
		return
	}
	fmt.Fprintln(p.out)
	for _, f := range run.Findings {
		loc := fmt.Sprintf("%s:%d:%d", util.RelPath(p.root, f.Path), f.Line, f.Column)
		tag := "[" + f.Pattern + "]"
		room := p.width - runewidth.StringWidth(loc) - runewidth.StringWidth(tag) - 2
		fmt.Fprintf(p.out, "%s %s %s\n",
			p.st.location.Render(loc),
			p.st.pattern.Render(tag),
			p.st.code.Render(truncate(f.Replacement, room)),
		)
	}
}

// Watch prints a one-line update per watch-mode re-analysis.
func (p *Printer) Watch(update ports.WatchUpdate) {
	res := ports.ScanResult{Files: update.Files}
	stamp := p.st.status.Render(time.Now().Format("15:04:05"))
	fmt.Fprintf(p.out, "%s re-analyzed %d file(s), %d finding(s)\n", stamp, len(update.Files), res.FindingCount())
	if len(update.Throttled) > 0 {
		fmt.Fprintf(p.out, "%s throttled: %s\n", stamp, strings.Join(update.Throttled, ", "))
	}
	for _, file := range update.Files {
		p.fileLines(file, nil)
	}
}

func (p *Printer) fileLines(file ports.FileReport, counts map[string]int) {
	rel := util.RelPath(p.root, file.Path)
	if file.Err != nil {
		fmt.Fprintf(p.out, "%s %s: %s\n", p.st.err.Render("error"), rel, file.Err)
		return
	}
	for _, f := range file.Findings {
		if counts != nil {
			counts[f.Pattern]++
		}
		loc := fmt.Sprintf("%s:%d:%d", rel, f.Position.Line, f.Position.Column)
		tag := "[" + f.Pattern + "]"
		room := p.width - runewidth.StringWidth(loc) - runewidth.StringWidth(tag) - 2
		fmt.Fprintf(p.out, "%s %s %s\n",
			p.st.location.Render(loc),
			p.st.pattern.Render(tag),
			p.st.code.Render(truncate(f.Replacement, room)),
		)
	}
}

func (p *Printer) tail(files int, d time.Duration) string {
	return fmt.Sprintf("(%d file(s) in %s)", files, d.Round(time.Millisecond))
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
