package inspect

import (
	"strings"

	"coalesce/internal/engine/syntax"
)

// TernaryShape is a full `cond ? body : alternative` expression.
type TernaryShape struct {
	Node        syntax.Node
	Condition   syntax.Node
	Body        syntax.Node
	Alternative syntax.Node
}

// ternaryShape returns false for short ternaries (`a ?: b`).
func ternaryShape(n syntax.Node) (TernaryShape, bool) {
	if n.Kind() != syntax.KindTernary {
		return TernaryShape{}, false
	}
	shape := TernaryShape{
		Node:        n,
		Condition:   n.Field("condition"),
		Body:        n.Field("body"),
		Alternative: n.Field("alternative"),
	}
	if shape.Condition.IsZero() || shape.Body.IsZero() || shape.Alternative.IsZero() {
		return TernaryShape{}, false
	}
	return shape, true
}

// branches orders the ternary's branches as (value when set, fallback).
func (s TernaryShape) branches(inverted bool) (positive, negative syntax.Node) {
	if inverted {
		return s.Alternative, s.Body
	}
	return s.Body, s.Alternative
}

// Strategy recognizes one ternary idiom and returns its replacement, or ""
// when the shape does not match. Strategies never touch the tree.
type Strategy struct {
	Name  string
	Match func(s TernaryShape, opts Options) string
}

// Strategies are tried in order; the first non-empty replacement wins.
var Strategies = []Strategy{
	{Name: PatternIsset, Match: fromIsset},
	{Name: PatternNullComparison, Match: fromNullComparison},
	{Name: PatternArrayKeyExists, Match: fromArrayKeyExists},
}

// fromIsset handles `isset(X) ? X : Y` and `!isset(X) ? Y : X`.
func fromIsset(s TernaryShape, _ Options) string {
	cond, inverted := negated(s.Condition)
	args, ok := issetArguments(cond)
	if !ok || len(args) != 1 {
		return ""
	}
	positive, negative := s.branches(inverted)
	if !syntax.Equal(args[0], positive.Unparen()) {
		return ""
	}
	return coalesce(positive, negative)
}

// fromNullComparison handles `X !== null ? X : Y`, the loose `!=` form, null
// on the left, and the `===`/`==` forms with swapped branches.
func fromNullComparison(s TernaryShape, opts Options) string {
	cond, inverted := negated(s.Condition)
	if cond.Kind() != syntax.KindBinary {
		return ""
	}

	switch lowerOperator(cond) {
	case "!==":
	case "===":
		inverted = !inverted
	case "!=", "<>":
		if !opts.LooseComparisons {
			return ""
		}
	case "==":
		if !opts.LooseComparisons {
			return ""
		}
		inverted = !inverted
	default:
		return ""
	}

	left, right := cond.Field("left").Unparen(), cond.Field("right").Unparen()
	var subject syntax.Node
	switch {
	case isNull(right) && !isNull(left):
		subject = left
	case isNull(left) && !isNull(right):
		subject = right
	default:
		return ""
	}

	positive, negative := s.branches(inverted)
	if !syntax.Equal(subject, positive.Unparen()) {
		return ""
	}
	return coalesce(positive, negative)
}

// fromArrayKeyExists handles `array_key_exists(K, A) ? A[K] : null`. Any
// other fallback would differ from `??` for keys holding null.
func fromArrayKeyExists(s TernaryShape, _ Options) string {
	cond, inverted := negated(s.Condition)
	if functionName(cond) != "array_key_exists" {
		return ""
	}
	args, ok := callArguments(cond)
	if !ok || len(args) != 2 {
		return ""
	}
	positive, negative := s.branches(inverted)
	if !isNull(negative) {
		return ""
	}

	access := positive.Unparen()
	if access.Kind() != syntax.KindSubscript {
		return ""
	}
	named := access.NamedChildren()
	if len(named) != 2 {
		return ""
	}
	if !syntax.Equal(named[0], args[1]) || !syntax.Equal(named[1], args[0]) {
		return ""
	}
	return coalesce(positive, negative)
}

func lowerOperator(n syntax.Node) string {
	return strings.ToLower(n.Field("operator").Kind())
}
