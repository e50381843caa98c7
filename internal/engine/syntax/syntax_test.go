package syntax

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Unit {
	t.Helper()
	u, err := NewGrammarLoader(nil).Parse("test.php", []byte(src), DefaultLevel)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	t.Cleanup(u.Close)
	return u
}

// firstOf returns the first node of kind whose text equals text (any text when empty).
func firstOf(t *testing.T, u *Unit, kind, text string) Node {
	t.Helper()
	for _, n := range u.Root().Find(kind) {
		if text == "" || n.Text() == text {
			return n
		}
	}
	t.Fatalf("no %s node with text %q", kind, text)
	return Node{}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		raw      string
		coalesce bool
		assign   bool
	}{
		{"5.6", false, false},
		{"7.0", true, false},
		{"7.4", true, true},
		{"v8.2", true, true},
	}
	for _, tt := range tests {
		l, err := ParseLevel(tt.raw)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.raw, err)
		}
		if got := l.Supports(FeatureCoalesce); got != tt.coalesce {
			t.Errorf("%s coalesce = %v, want %v", tt.raw, got, tt.coalesce)
		}
		if got := l.Supports(FeatureCoalesceAssign); got != tt.assign {
			t.Errorf("%s coalesce assign = %v, want %v", tt.raw, got, tt.assign)
		}
	}

	if _, err := ParseLevel("seven"); err == nil {
		t.Error("expected error for non-numeric version")
	}
	if (Level{}).Supports(FeatureCoalesce) {
		t.Error("zero level must not support anything")
	}
	if got := MustLevel("8.1.3").String(); got != "8.1" {
		t.Errorf("String() = %q, want 8.1", got)
	}
}

func TestNodeNavigation(t *testing.T) {
	u := mustParse(t, "<?php\n$a = 1;\n// note\nif (isset($b)) { $a = $b; }\nreturn $a;\n")

	ifNode := firstOf(t, u, KindIf, "")
	prev := ifNode.PrevStatement()
	if prev.Kind() != KindExpressionStatement || prev.Text() != "$a = 1;" {
		t.Errorf("PrevStatement = %s %q", prev.Kind(), prev.Text())
	}
	next := ifNode.NextStatement()
	if next.Kind() != KindReturn {
		t.Errorf("NextStatement kind = %s, want %s", next.Kind(), KindReturn)
	}
	if ifNode.Parent().Kind() != KindProgram {
		t.Errorf("Parent kind = %s", ifNode.Parent().Kind())
	}
	cond := ifNode.Field("condition")
	if cond.Kind() != KindParenthesized || cond.Unparen().Text() != "isset($b)" {
		t.Errorf("condition = %s %q", cond.Kind(), cond.Unparen().Text())
	}
	pos := ifNode.Position()
	if pos.Line != 4 || pos.Column != 1 {
		t.Errorf("Position = %+v, want 4:1", pos)
	}
	if ifNode.FirstChild().Text() != "if" {
		t.Errorf("FirstChild = %q", ifNode.FirstChild().Text())
	}
}

func TestEqual(t *testing.T) {
	u := mustParse(t, `<?php
$x = [$a['k'], $a[ 'k' ], $a['j'], $a /* c */ ['k'], $b['k'], foo($a), foo( $a )];
`)
	var elems []Node
	for _, n := range u.Root().Find("array_element_initializer") {
		elems = append(elems, n.FirstNamed())
	}
	if len(elems) != 7 {
		t.Fatalf("expected 7 elements, got %d", len(elems))
	}

	tests := []struct {
		name string
		a, b int
		want bool
	}{
		{"whitespace ignored", 0, 1, true},
		{"different key", 0, 2, false},
		{"comment ignored", 0, 3, true},
		{"different container", 0, 4, false},
		{"calls", 5, 6, true},
		{"call vs subscript", 0, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(elems[tt.a], elems[tt.b]); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", elems[tt.a].Text(), elems[tt.b].Text(), got, tt.want)
			}
		})
	}

	if !Equal(Node{}, Node{}) {
		t.Error("absent nodes must be equal")
	}
	if Equal(elems[0], Node{}) {
		t.Error("present and absent nodes must differ")
	}
}

func TestRefSurvivesEditsBeforeIt(t *testing.T) {
	u := mustParse(t, "<?php\n$a = 1;\n$b = isset($c) ? $c : 2;\n")
	ternary := firstOf(t, u, KindTernary, "")
	ref := u.RefOf(ternary)

	first := firstOf(t, u, KindExpressionStatement, "$a = 1;")
	start, end := first.Span()
	if err := u.Replace(start, end, "$alpha = 100;"); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, ok := u.Resolve(ref)
	if !ok {
		t.Fatal("expected ref to resolve after an unrelated edit")
	}
	if got.Text() != "isset($c) ? $c : 2" {
		t.Errorf("resolved text = %q", got.Text())
	}
	if u.Version() != 1 {
		t.Errorf("Version = %d, want 1", u.Version())
	}
}

func TestRefStaleAfterOverlappingEdit(t *testing.T) {
	u := mustParse(t, "<?php\n$b = isset($c) ? $c : 2;\n")
	ternary := firstOf(t, u, KindTernary, "")
	ref := u.RefOf(ternary)

	start, end := ternary.Span()
	if err := u.Replace(start, end, "$c ?? 2"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, ok := u.Resolve(ref); ok {
		t.Error("expected ref to be stale after an overlapping edit")
	}
}

func TestRefFromAnotherUnit(t *testing.T) {
	src := "<?php\n$b = isset($c) ? $c : 2;\n"
	u1 := mustParse(t, src)
	u2 := mustParse(t, src)
	ref := u1.RefOf(firstOf(t, u1, KindTernary, ""))
	if _, ok := u2.Resolve(ref); ok {
		t.Error("a ref must only resolve in the unit it was taken from")
	}
	if _, ok := u1.Resolve(ref); !ok {
		t.Error("expected ref to resolve in its own unit")
	}
}

func TestReplaceRejectsBadSpan(t *testing.T) {
	u := mustParse(t, "<?php\n$a = 1;\n")
	if err := u.Replace(4, 2, "x"); err != ErrInvalidSpan {
		t.Errorf("expected ErrInvalidSpan, got %v", err)
	}
	if err := u.Replace(0, uint(len(u.Source())+1), "x"); err != ErrInvalidSpan {
		t.Errorf("expected ErrInvalidSpan, got %v", err)
	}
}

func TestSnippetChecks(t *testing.T) {
	gl := NewGrammarLoader(nil)

	if err := gl.CheckStatements("$a = $b ?? 1;"); err != nil {
		t.Errorf("valid statement rejected: %v", err)
	}
	if err := gl.CheckStatements("{ return $a ?? null; }"); err != nil {
		t.Errorf("valid block rejected: %v", err)
	}
	if err := gl.CheckStatements("$a = ?? ;"); err == nil {
		t.Error("expected malformed statement to be rejected")
	}
	if err := gl.CheckExpression("$a['k'] ?? 'd'"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := gl.CheckExpression("return $a"); err == nil {
		t.Error("a return statement is not an expression")
	}
	if err := gl.CheckExpression("   "); err == nil {
		t.Error("expected blank expression to be rejected")
	}
}

func TestWalkerDispatch(t *testing.T) {
	u := mustParse(t, "<?php\n$a = isset($b) ? $b : (isset($c) ? $c : 1);\n")
	w := NewWalker()
	var seen []string
	w.On(KindTernary, func(n Node) bool {
		seen = append(seen, n.Text())
		return false
	})
	w.Walk(u.Root())
	if len(seen) != 2 {
		t.Fatalf("expected 2 ternaries, got %d: %v", len(seen), seen)
	}
	if !strings.HasPrefix(seen[0], "isset($b)") {
		t.Errorf("expected outer ternary first, got %q", seen[0])
	}

	stopping := NewWalker()
	count := 0
	stopping.On(KindTernary, func(n Node) bool {
		count++
		return true
	})
	stopping.Walk(u.Root())
	if count != 1 {
		t.Errorf("expected walker to skip children when handler stops, got %d", count)
	}
}

func TestGrammarLoaderExtensions(t *testing.T) {
	gl := NewGrammarLoader([]string{"php", ".INC", " "})
	if !gl.IsSupportedPath("src/A.PHP") {
		t.Error("expected .php to be supported")
	}
	if !gl.IsSupportedPath("lib/x.inc") {
		t.Error("expected .inc to be supported")
	}
	if gl.IsSupportedPath("main.go") {
		t.Error("did not expect .go to be supported")
	}
	if got := strings.Join(gl.SupportedExtensions(), ","); got != ".inc,.php" {
		t.Errorf("SupportedExtensions = %s", got)
	}
}
