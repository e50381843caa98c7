// # internal/engine/fix/applicator.go
package fix

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"coalesce/internal/engine/inspect"
	"coalesce/internal/engine/syntax"
)

var (
	ErrMalformedReplacement = errors.New("fix: replacement does not parse")
	ErrUnsupportedFix       = errors.New("fix: unsupported fix type")
)

// Outcome says what Apply did.
type Outcome int

const (
	// Stale means the fix no longer matches the unit and nothing was changed.
	Stale Outcome = iota
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "stale"
}

// SnippetChecker validates synthesized code in the unit's grammar.
type SnippetChecker interface {
	CheckStatements(text string) error
	CheckExpression(text string) error
}

// Applicator performs fix edits. Each Apply is a single splice of the unit,
// so a rejected fix leaves the unit untouched. Callers must hold exclusive
// access to the unit.
type Applicator struct {
	checker SnippetChecker
}

func NewApplicator(checker SnippetChecker) *Applicator {
	return &Applicator{checker: checker}
}

// Edit is a planned byte-range substitution.
type Edit struct {
	Start uint
	End   uint
	Text  string
}

func (a *Applicator) Apply(u *syntax.Unit, f inspect.Fix) (Outcome, error) {
	edit, ok, err := a.Plan(u, f)
	if err != nil || !ok {
		return Stale, err
	}
	if err := u.Replace(edit.Start, edit.End, edit.Text); err != nil {
		return Stale, err
	}
	return Applied, nil
}

// Plan computes the edit f would make without touching the unit. ok is false
// when the fix is stale.
func (a *Applicator) Plan(u *syntax.Unit, f inspect.Fix) (Edit, bool, error) {
	switch f := f.(type) {
	case inspect.SingleReplace:
		return a.single(u, f)
	case *inspect.SingleReplace:
		return a.single(u, *f)
	case inspect.RangeReplace:
		return a.rng(u, f)
	case *inspect.RangeReplace:
		return a.rng(u, *f)
	case nil:
		return Edit{}, false, nil
	}
	return Edit{}, false, fmt.Errorf("%w: %T", ErrUnsupportedFix, f)
}

func (a *Applicator) single(u *syntax.Unit, f inspect.SingleReplace) (Edit, bool, error) {
	target, ok := u.Resolve(f.Target)
	if !ok {
		return Edit{}, false, nil
	}

	text := f.Text
	var err error
	if f.Statement {
		if target.Kind() == syntax.KindIf && target.Parent().Kind() == syntax.KindElse {
			text = "{ " + f.Text + "; }"
		} else {
			text = f.Text + ";"
		}
		err = a.checker.CheckStatements(text)
	} else {
		err = a.checker.CheckExpression(text)
	}
	if err != nil {
		return Edit{}, false, fmt.Errorf("%w: %q", ErrMalformedReplacement, text)
	}

	start, end := target.Span()
	return Edit{Start: start, End: end, Text: text}, true, nil
}

func (a *Applicator) rng(u *syntax.Unit, f inspect.RangeReplace) (Edit, bool, error) {
	first, ok := u.Resolve(f.Start)
	if !ok {
		return Edit{}, false, nil
	}
	last, ok := u.Resolve(f.End)
	if !ok {
		return Edit{}, false, nil
	}
	if !f.Anchor.IsZero() {
		if _, ok := u.Resolve(f.Anchor); !ok {
			return Edit{}, false, nil
		}
	}
	if !sameScope(first, last) {
		return Edit{}, false, nil
	}

	statements := []string{f.Text + ";"}
	// A chained assignment such as `$a = $b = 1;` keeps its inner write.
	if outer, ok := inspect.AsAssignment(inspect.StatementExpression(first)); ok {
		if inspect.IsAssignment(outer.Value) {
			statements = append(statements, outer.Value.Text()+";")
		}
	}
	for _, stmt := range statements {
		if err := a.checker.CheckStatements(stmt); err != nil {
			return Edit{}, false, fmt.Errorf("%w: %q", ErrMalformedReplacement, stmt)
		}
	}

	start, _ := first.Span()
	_, end := last.Span()
	text := strings.Join(statements, "\n"+indentOf(u.Source(), start))
	return Edit{Start: start, End: end, Text: text}, true, nil
}

// sameScope reports whether first and last are siblings with first not after last.
func sameScope(first, last syntax.Node) bool {
	fs, _ := first.Span()
	ls, _ := last.Span()
	if fs > ls {
		return false
	}
	p, q := first.Parent(), last.Parent()
	ps, pe := p.Span()
	qs, qe := q.Span()
	return p.Kind() == q.Kind() && ps == qs && pe == qe
}

// indentOf returns the whitespace that precedes offset on its line.
func indentOf(src []byte, offset uint) string {
	lineStart := int(offset)
	for lineStart > 0 && src[lineStart-1] != '\n' {
		lineStart--
	}
	end := lineStart
	for end < int(offset) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[lineStart:end])
}

// Result summarizes ApplyAll.
type Result struct {
	Applied int
	Stale   int
}

// ApplyAll applies the fixes of findings in source order, re-resolving each
// against the unit as it stands after the previous ones. A fix made stale by
// an earlier one is skipped. Malformed replacements are collected and do not
// stop the remaining fixes.
func (a *Applicator) ApplyAll(u *syntax.Unit, findings []inspect.Finding) (Result, error) {
	ordered := append([]inspect.Finding(nil), findings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Anchor.Start < ordered[j].Anchor.Start
	})

	var res Result
	var errs []error
	for _, finding := range ordered {
		if finding.Fix == nil {
			continue
		}
		outcome, err := a.Apply(u, finding.Fix)
		if err != nil {
			errs = append(errs, err)
		}
		if outcome == Applied {
			res.Applied++
		} else {
			res.Stale++
		}
	}
	return res, errors.Join(errs...)
}
