// # internal/engine/inspect/finding.go
package inspect

import (
	"fmt"

	"coalesce/internal/engine/syntax"
)

const (
	RuleID = "NCO001"

	messagePattern = "'%s' can be used instead (reduces cognitive load)."

	LabelSingle   = "Use null coalescing operator instead"
	LabelMultiple = "Replace with null coalescing operator"
)

// Patterns name the idiom a finding was produced from.
const (
	PatternIsset          = "isset"
	PatternNullComparison = "null_comparison"
	PatternArrayKeyExists = "array_key_exists"
	PatternIfPreceding    = "if_preceding_assignment"
	PatternIfFollowing    = "if_following_return"
	PatternIfElse         = "if_else"
)

// Finding is one detected site. It holds refs rather than nodes so that it
// stays usable after the unit has been edited.
type Finding struct {
	Rule        string
	Pattern     string
	Path        string
	Anchor      syntax.Ref
	Position    syntax.Position
	Message     string
	Replacement string
	Fix         Fix
}

func newFinding(u *syntax.Unit, pattern string, anchor syntax.Node, replacement string, fix Fix) Finding {
	return Finding{
		Rule:        RuleID,
		Pattern:     pattern,
		Path:        u.Path,
		Anchor:      u.RefOf(anchor),
		Position:    anchor.Position(),
		Message:     fmt.Sprintf(messagePattern, replacement),
		Replacement: replacement,
		Fix:         fix,
	}
}

// Fix is either a SingleReplace or a RangeReplace.
type Fix interface {
	Label() string
	isFix()
}

// SingleReplace substitutes one node. Statement targets receive `Text;`,
// expression targets the bare text.
type SingleReplace struct {
	Target    syntax.Ref
	Text      string
	Statement bool
}

func (f SingleReplace) Label() string {
	if f.Statement {
		return LabelMultiple
	}
	return LabelSingle
}

func (SingleReplace) isFix() {}

// RangeReplace replaces the sibling statements Start through End with one
// statement built from Text. Anchor is the `if` the finding was reported on.
type RangeReplace struct {
	Anchor syntax.Ref
	Start  syntax.Ref
	End    syntax.Ref
	Text   string
}

func (RangeReplace) Label() string { return LabelMultiple }

func (RangeReplace) isFix() {}
