package inspect

import (
	"coalesce/internal/engine/syntax"
)

// IfShape is an `if (isset(X)) { ... }` statement with a single guarded
// argument and a single statement in its block.
type IfShape struct {
	Node     syntax.Node
	Argument syntax.Node
	Inner    syntax.Node
	Else     syntax.Node
	HasElse  bool
}

func ifShape(n syntax.Node) (IfShape, bool) {
	if n.Kind() != syntax.KindIf {
		return IfShape{}, false
	}
	args, ok := issetArguments(n.Field("condition").Unparen())
	if !ok || len(args) != 1 {
		return IfShape{}, false
	}
	inner, ok := soleStatement(n.Field("body"))
	if !ok {
		return IfShape{}, false
	}

	shape := IfShape{Node: n, Argument: args[0], Inner: inner}
	for _, child := range n.NamedChildren() {
		switch child.Kind() {
		case syntax.KindElseIf:
			return IfShape{}, false
		case syntax.KindElse:
			shape.HasElse = true
			shape.Else = child
		}
	}
	return shape, true
}

func (in *Inspector) visitIf(u *syntax.Unit, n syntax.Node, sink Sink) {
	shape, ok := ifShape(n)
	if !ok {
		return
	}
	if shape.HasElse {
		in.ifElse(u, shape, sink)
		return
	}
	in.ifPreceding(u, shape, sink)
	in.ifFollowing(u, shape, sink)
}

// ifPreceding merges `T = Y; if (isset(X)) { T = X; }`.
func (in *Inspector) ifPreceding(u *syntax.Unit, s IfShape, sink Sink) {
	previous := s.Node.PrevStatement()
	negative, ok := assignmentStatement(previous)
	if !ok {
		return
	}
	positive, ok := assignmentStatement(s.Inner)
	if !ok {
		return
	}
	replacement := SynthesizeAssignments(s.Argument, positive, negative)
	if replacement == "" {
		return
	}
	fix := RangeReplace{
		Anchor: u.RefOf(s.Node),
		Start:  u.RefOf(previous),
		End:    u.RefOf(s.Node),
		Text:   replacement,
	}
	sink.Report(newFinding(u, PatternIfPreceding, s.Node.FirstChild(), replacement, fix))
}

// ifFollowing merges `if (isset(X)) { return X; } return Y;`.
func (in *Inspector) ifFollowing(u *syntax.Unit, s IfShape, sink Sink) {
	next := s.Node.NextStatement()
	negative, ok := AsReturn(next)
	if !ok {
		return
	}
	positive, ok := AsReturn(s.Inner)
	if !ok {
		return
	}
	replacement := SynthesizeReturns(s.Argument, positive, negative)
	if replacement == "" {
		return
	}
	fix := RangeReplace{
		Anchor: u.RefOf(s.Node),
		Start:  u.RefOf(s.Node),
		End:    u.RefOf(next),
		Text:   replacement,
	}
	sink.Report(newFinding(u, PatternIfFollowing, s.Node.FirstChild(), replacement, fix))
}

// ifElse merges both branches of `if (isset(X)) { ... } else { ... }` when
// they are two returns or two assignments to the same target.
func (in *Inspector) ifElse(u *syntax.Unit, s IfShape, sink Sink) {
	other, ok := soleStatement(s.Else.Field("body"))
	if !ok {
		return
	}

	var replacement string
	positiveReturn, okPositive := AsReturn(s.Inner)
	negativeReturn, okNegative := AsReturn(other)
	if okPositive && okNegative {
		replacement = SynthesizeReturns(s.Argument, positiveReturn, negativeReturn)
	} else {
		positive, okPositive := assignmentStatement(s.Inner)
		negative, okNegative := assignmentStatement(other)
		if !okPositive || !okNegative {
			return
		}
		replacement = SynthesizeAssignments(s.Argument, positive, negative)
	}
	if replacement == "" {
		return
	}
	fix := SingleReplace{Target: u.RefOf(s.Node), Text: replacement, Statement: true}
	sink.Report(newFinding(u, PatternIfElse, s.Node.FirstChild(), replacement, fix))
}
