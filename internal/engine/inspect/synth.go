package inspect

import (
	"fmt"

	"coalesce/internal/engine/syntax"
)

// lowerThanCoalesce lists expression kinds that bind looser than `??` and
// need parentheses when used as one of its operands.
var lowerThanCoalesce = map[string]bool{
	syntax.KindTernary:             true,
	syntax.KindAssignment:          true,
	syntax.KindReferenceAssignment: true,
	syntax.KindAugmentedAssignment: true,
	"yield_expression":             true,
	"print_intrinsic":              true,
	"throw_expression":             true,
	"include_expression":           true,
	"include_once_expression":      true,
	"require_expression":           true,
	"require_once_expression":      true,
}

var looseLogical = map[string]bool{"and": true, "or": true, "xor": true}

// operand renders n for use on either side of `??`.
func operand(n syntax.Node) string {
	n = n.Unparen()
	wrap := lowerThanCoalesce[n.Kind()]
	if n.Kind() == syntax.KindBinary && looseLogical[lowerOperator(n)] {
		wrap = true
	}
	if wrap {
		return "(" + n.Text() + ")"
	}
	return n.Text()
}

func coalesce(positive, negative syntax.Node) string {
	return fmt.Sprintf("%s ?? %s", operand(positive), operand(negative))
}

// SynthesizeAssignments builds `T = X ?? Y` from the guarded argument X, the
// assignment made when X is set and the fallback assignment. It returns ""
// when the pair cannot be merged without changing behavior.
func SynthesizeAssignments(argument syntax.Node, positive, negative Assignment) string {
	if positive.Target.IsZero() || positive.Value.IsZero() || negative.Target.IsZero() || negative.Value.IsZero() {
		return ""
	}
	if !syntax.Equal(positive.Target, negative.Target) || !syntax.Equal(argument, positive.Value) {
		return ""
	}
	// `$a[] = ...` appends, so the two writes are not interchangeable.
	if hasOpenIndex(positive.Target) {
		return ""
	}
	if positive.ByRef || negative.ByRef {
		return ""
	}

	fallback := negative.Value
	for {
		inner, ok := AsAssignment(fallback)
		if !ok {
			break
		}
		fallback = inner.Value
	}
	if fallback.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s = %s", positive.Target.Text(), coalesce(positive.Value, fallback))
}

// SynthesizeReturns builds `return X ?? Y` or returns "".
func SynthesizeReturns(argument syntax.Node, positive, negative Return) string {
	if positive.Value.IsZero() || negative.Value.IsZero() {
		return ""
	}
	if !syntax.Equal(argument, positive.Value) {
		return ""
	}
	if IsAssignment(positive.Value) || IsAssignment(negative.Value) {
		return ""
	}
	return "return " + coalesce(positive.Value, negative.Value)
}
