// # internal/engine/inspect/classify.go
package inspect

import (
	"strings"

	"coalesce/internal/engine/syntax"
)

// Assignment is a plain or by-reference assignment. Compound assignments
// (`+=`, `??=` and friends) are not assignments for this purpose.
type Assignment struct {
	Node   syntax.Node
	Target syntax.Node
	Value  syntax.Node
	ByRef  bool
}

// Return is a return statement; Value is absent for a bare `return;`.
type Return struct {
	Node  syntax.Node
	Value syntax.Node
}

func AsAssignment(n syntax.Node) (Assignment, bool) {
	switch n.Kind() {
	case syntax.KindAssignment:
		return Assignment{Node: n, Target: n.Field("left"), Value: n.Field("right")}, true
	case syntax.KindReferenceAssignment:
		return Assignment{Node: n, Target: n.Field("left"), Value: n.Field("right"), ByRef: true}, true
	}
	return Assignment{}, false
}

func AsReturn(n syntax.Node) (Return, bool) {
	if n.Kind() != syntax.KindReturn {
		return Return{}, false
	}
	return Return{Node: n, Value: n.FirstNamed()}, true
}

func IsAssignment(n syntax.Node) bool {
	_, ok := AsAssignment(n)
	return ok
}

// StatementExpression returns the expression carried by an expression
// statement, or the zero Node for any other statement.
func StatementExpression(stmt syntax.Node) syntax.Node {
	if stmt.Kind() != syntax.KindExpressionStatement {
		return syntax.Node{}
	}
	return stmt.FirstNamed()
}

// assignmentStatement unwraps `T = V;` into its assignment.
func assignmentStatement(stmt syntax.Node) (Assignment, bool) {
	return AsAssignment(StatementExpression(stmt))
}

func functionName(call syntax.Node) string {
	if call.Kind() != syntax.KindFunctionCall {
		return ""
	}
	fn := call.Field("function")
	if !fn.Is(syntax.KindName, syntax.KindQualifiedName) {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(fn.Text(), `\`))
}

// callArguments returns the argument expressions of a call. Named arguments,
// spreads and by-reference modifiers make the call unusable here, so ok is
// false for them.
func callArguments(call syntax.Node) (args []syntax.Node, ok bool) {
	for _, arg := range call.Field("arguments").NamedChildren() {
		if arg.Kind() != syntax.KindArgument {
			return nil, false
		}
		named := arg.NamedChildren()
		if len(named) != 1 || named[0].Is("variadic_unpacking", "reference_modifier") {
			return nil, false
		}
		args = append(args, named[0])
	}
	return args, true
}

// issetArguments returns the arguments of an isset() call.
func issetArguments(n syntax.Node) ([]syntax.Node, bool) {
	if functionName(n) != "isset" {
		return nil, false
	}
	return callArguments(n)
}

func isNull(n syntax.Node) bool {
	n = n.Unparen()
	switch n.Kind() {
	case syntax.KindNull:
		return true
	case syntax.KindName, syntax.KindQualifiedName:
		return strings.EqualFold(strings.TrimPrefix(n.Text(), `\`), "null")
	}
	return false
}

// negated strips a logical not, reporting whether one was present.
func negated(n syntax.Node) (syntax.Node, bool) {
	n = n.Unparen()
	if n.Kind() == syntax.KindUnary && n.Field("operator").Kind() == "!" {
		return n.Field("argument").Unparen(), true
	}
	return n, false
}

// hasOpenIndex reports whether n contains an append access such as `$a[]`.
func hasOpenIndex(n syntax.Node) bool {
	for _, sub := range n.Find(syntax.KindSubscript) {
		children := sub.Children()
		for i := 0; i+1 < len(children); i++ {
			if children[i].Kind() == "[" && children[i+1].Kind() == "]" {
				return true
			}
		}
	}
	return false
}

// soleStatement returns the only statement of a braced block.
func soleStatement(block syntax.Node) (syntax.Node, bool) {
	if block.Kind() != syntax.KindBlock {
		return syntax.Node{}, false
	}
	stmts := block.NamedChildren()
	if len(stmts) != 1 {
		return syntax.Node{}, false
	}
	return stmts[0], true
}
