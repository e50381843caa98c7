// # internal/engine/inspect/inspector.go
package inspect

import (
	"sort"

	"coalesce/internal/engine/syntax"
)

// Options toggles the analyzers. The zero value disables everything; use
// DefaultOptions for the usual configuration.
type Options struct {
	SimplifyTernaries bool
	SimplifyIfs       bool
	LooseComparisons  bool
}

func DefaultOptions() Options {
	return Options{SimplifyTernaries: true, SimplifyIfs: true, LooseComparisons: true}
}

// Sink receives findings in traversal order.
type Sink interface {
	Report(f Finding)
}

// Collector is a Sink that keeps everything it is given.
type Collector struct {
	Findings []Finding
}

func (c *Collector) Report(f Finding) { c.Findings = append(c.Findings, f) }

// Sorted returns the findings ordered by position.
func (c *Collector) Sorted() []Finding {
	out := append([]Finding(nil), c.Findings...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position.Line != out[j].Position.Line {
			return out[i].Position.Line < out[j].Position.Line
		}
		return out[i].Position.Column < out[j].Position.Column
	})
	return out
}

// Inspector detects null checks that can be written with `??`. It holds no
// per-unit state, so one Inspector may serve many goroutines.
type Inspector struct {
	opts       Options
	strategies []Strategy
}

func New(opts Options) *Inspector {
	return &Inspector{opts: opts, strategies: Strategies}
}

func (in *Inspector) Options() Options { return in.opts }

// Run walks the unit and reports every finding to sink. Nothing is reported
// when the unit's language level has no `??` operator. Run never edits the unit.
func (in *Inspector) Run(u *syntax.Unit, sink Sink) {
	if !u.Supports(syntax.FeatureCoalesce) {
		return
	}

	w := syntax.NewWalker()
	if in.opts.SimplifyTernaries {
		w.On(syntax.KindTernary, func(n syntax.Node) bool {
			if !n.HasError() {
				in.visitTernary(u, n, sink)
			}
			return false
		})
	}
	if in.opts.SimplifyIfs {
		w.On(syntax.KindIf, func(n syntax.Node) bool {
			if !n.HasError() {
				in.visitIf(u, n, sink)
			}
			return false
		})
	}
	w.Walk(u.Root())
}

// Inspect is a convenience wrapper returning the findings of one unit.
func (in *Inspector) Inspect(u *syntax.Unit) []Finding {
	var c Collector
	in.Run(u, &c)
	return c.Findings
}

func (in *Inspector) visitTernary(u *syntax.Unit, n syntax.Node, sink Sink) {
	shape, ok := ternaryShape(n)
	if !ok {
		return
	}
	for _, strategy := range in.strategies {
		replacement := strategy.Match(shape, in.opts)
		if replacement == "" {
			continue
		}
		fix := SingleReplace{Target: u.RefOf(n), Text: replacement}
		sink.Report(newFinding(u, strategy.Name, n, replacement, fix))
		return
	}
}
