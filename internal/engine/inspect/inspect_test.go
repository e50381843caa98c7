package inspect

import (
	"testing"

	"coalesce/internal/engine/syntax"
)

func parseUnit(t *testing.T, src string, level syntax.Level) *syntax.Unit {
	t.Helper()
	u, err := syntax.NewGrammarLoader(nil).Parse("test.php", []byte(src), level)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	t.Cleanup(u.Close)
	return u
}

func inspectSource(t *testing.T, src string, opts Options) []Finding {
	t.Helper()
	return New(opts).Inspect(parseUnit(t, src, syntax.DefaultLevel))
}

func TestTernaryStrategies(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    string
		pattern string
	}{
		{"isset", `isset($a['k']) ? $a['k'] : 'd'`, `$a['k'] ?? 'd'`, PatternIsset},
		{"isset inverted", `!isset($a) ? 'd' : $a`, `$a ?? 'd'`, PatternIsset},
		{"isset parenthesized branch", `isset($a->b) ? ($a->b) : 1`, `$a->b ?? 1`, PatternIsset},
		{"isset parenthesized condition", `(isset($a)) ? $a : []`, `$a ?? []`, PatternIsset},
		{"isset ternary fallback", `isset($a) ? $a : ($b ? 1 : 2)`, `$a ?? ($b ? 1 : 2)`, PatternIsset},
		{"isset bitwise fallback", `isset($a) ? $a : $x | 2`, `$a ?? $x | 2`, PatternIsset},
		{"isset low-precedence or fallback", `isset($a) ? $a : ($b or $c)`, `$a ?? ($b or $c)`, PatternIsset},
		{"not identical null", `$a !== null ? $a : 1`, `$a ?? 1`, PatternNullComparison},
		{"null on the left", `null !== $a ? $a : 1`, `$a ?? 1`, PatternNullComparison},
		{"identical null swapped", `$a === null ? 1 : $a`, `$a ?? 1`, PatternNullComparison},
		{"loose not equal", `$a != NULL ? $a : 1`, `$a ?? 1`, PatternNullComparison},
		{"loose equal swapped", `$a == null ? 1 : $a`, `$a ?? 1`, PatternNullComparison},
		{"array_key_exists", `array_key_exists('k', $a) ? $a['k'] : null`, `$a['k'] ?? null`, PatternArrayKeyExists},
		{"array_key_exists inverted", `!array_key_exists($k, $a) ? null : $a[$k]`, `$a[$k] ?? null`, PatternArrayKeyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := inspectSource(t, "<?php\n$r = "+tt.expr+";\n", DefaultOptions())
			if len(findings) != 1 {
				t.Fatalf("expected 1 finding, got %d", len(findings))
			}
			f := findings[0]
			if f.Replacement != tt.want {
				t.Errorf("replacement = %q, want %q", f.Replacement, tt.want)
			}
			if f.Pattern != tt.pattern {
				t.Errorf("pattern = %q, want %q", f.Pattern, tt.pattern)
			}
			wantMsg := "'" + tt.want + "' can be used instead (reduces cognitive load)."
			if f.Message != wantMsg {
				t.Errorf("message = %q, want %q", f.Message, wantMsg)
			}
			fix, ok := f.Fix.(SingleReplace)
			if !ok {
				t.Fatalf("expected SingleReplace, got %T", f.Fix)
			}
			if fix.Statement || fix.Label() != LabelSingle {
				t.Errorf("unexpected fix %+v label %q", fix, fix.Label())
			}
			if f.Position.Line != 2 || f.Position.Column != 6 {
				t.Errorf("position = %+v, want 2:6", f.Position)
			}
			if f.Rule != RuleID {
				t.Errorf("rule = %q", f.Rule)
			}
		})
	}
}

func TestTernaryNoFinding(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"different branch", `isset($a) ? $b : 1`},
		{"two isset arguments", `isset($a, $b) ? $a : 1`},
		{"short ternary", `$a ?: 1`},
		{"array_key_exists non-null fallback", `array_key_exists('k', $a) ? $a['k'] : 0`},
		{"array_key_exists other key", `array_key_exists('k', $a) ? $a['j'] : null`},
		{"ordering comparison", `$a > null ? $a : 1`},
		{"null against null", `null !== null ? null : 1`},
		{"is_null call", `is_null($a) ? 1 : $a`},
		{"already coalesced", `$a ?? 1`},
		{"identical null unswapped", `$a === null ? $a : 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := inspectSource(t, "<?php\n$r = "+tt.expr+";\n", DefaultOptions())
			if len(findings) != 0 {
				t.Errorf("expected no findings, got %q", findings[0].Replacement)
			}
		})
	}
}

func TestLooseComparisonsToggle(t *testing.T) {
	opts := DefaultOptions()
	opts.LooseComparisons = false

	if got := inspectSource(t, "<?php\n$r = $a != null ? $a : 1;\n", opts); len(got) != 0 {
		t.Errorf("expected loose comparison to be ignored, got %d findings", len(got))
	}
	if got := inspectSource(t, "<?php\n$r = $a !== null ? $a : 1;\n", opts); len(got) != 1 {
		t.Errorf("expected strict comparison to be reported, got %d findings", len(got))
	}
}

func TestNestedTernaries(t *testing.T) {
	findings := inspectSource(t, "<?php\n$r = isset($a) ? $a : (isset($b) ? $b : 1);\n", DefaultOptions())
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if findings[0].Replacement != "$a ?? (isset($b) ? $b : 1)" {
		t.Errorf("outer replacement = %q", findings[0].Replacement)
	}
	if findings[1].Replacement != "$b ?? 1" {
		t.Errorf("inner replacement = %q", findings[1].Replacement)
	}
}

func TestIfPrecedingAssignment(t *testing.T) {
	src := `<?php
function f($x) {
    $a = 'd';
    if (isset($x['k'])) {
        $a = $x['k'];
    }
    return $a;
}
`
	findings := inspectSource(t, src, DefaultOptions())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Replacement != "$a = $x['k'] ?? 'd'" {
		t.Errorf("replacement = %q", f.Replacement)
	}
	if f.Pattern != PatternIfPreceding {
		t.Errorf("pattern = %q", f.Pattern)
	}
	if f.Position.Line != 4 || f.Position.Column != 5 {
		t.Errorf("position = %+v, want 4:5", f.Position)
	}
	fix, ok := f.Fix.(RangeReplace)
	if !ok {
		t.Fatalf("expected RangeReplace, got %T", f.Fix)
	}
	if fix.Label() != LabelMultiple {
		t.Errorf("label = %q", fix.Label())
	}
	if fix.Start.Kind != syntax.KindExpressionStatement || fix.End.Kind != syntax.KindIf {
		t.Errorf("range = %s..%s", fix.Start.Kind, fix.End.Kind)
	}
}

func TestIfFollowingReturn(t *testing.T) {
	src := `<?php
function g($x) {
    if (isset($x)) {
        return $x;
    }
    return 'd';
}
`
	findings := inspectSource(t, src, DefaultOptions())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Replacement != "return $x ?? 'd'" {
		t.Errorf("replacement = %q", findings[0].Replacement)
	}
	fix, ok := findings[0].Fix.(RangeReplace)
	if !ok {
		t.Fatalf("expected RangeReplace, got %T", findings[0].Fix)
	}
	if fix.Start.Kind != syntax.KindIf || fix.End.Kind != syntax.KindReturn {
		t.Errorf("range = %s..%s", fix.Start.Kind, fix.End.Kind)
	}
}

func TestIfElse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"returns", "if (isset($x)) { return $x; } else { return 1; }", "return $x ?? 1"},
		{"assignments", "if (isset($x->y)) { $a = $x->y; } else { $a = [1]; }", "$a = $x->y ?? [1]"},
		{"chained fallback", "if (isset($x)) { $a = $x; } else { $a = $b = 2; }", "$a = $x ?? 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := inspectSource(t, "<?php\nfunction h($x) {\n    "+tt.body+"\n}\n", DefaultOptions())
			if len(findings) != 1 {
				t.Fatalf("expected 1 finding, got %d", len(findings))
			}
			f := findings[0]
			if f.Replacement != tt.want {
				t.Errorf("replacement = %q, want %q", f.Replacement, tt.want)
			}
			fix, ok := f.Fix.(SingleReplace)
			if !ok {
				t.Fatalf("expected SingleReplace, got %T", f.Fix)
			}
			if !fix.Statement || fix.Label() != LabelMultiple {
				t.Errorf("unexpected fix %+v", fix)
			}
		})
	}
}

func TestIfNoFinding(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"array push", "$arr[] = 1;\n    if (isset($x)) { $arr[] = $x; }"},
		{"nested array push", "$m['k'][] = 1;\n    if (isset($x)) { $m['k'][] = $x; }"},
		{"by reference positive", "$a = 1;\n    if (isset($x)) { $a = &$x; }"},
		{"by reference negative", "$a = &$y;\n    if (isset($x)) { $a = $x; }"},
		{"different targets", "$a = 1;\n    if (isset($x)) { $b = $x; }"},
		{"different value", "$a = 1;\n    if (isset($x)) { $a = $y; }"},
		{"compound assignment", "$a = 1;\n    if (isset($x)) { $a .= $x; }"},
		{"two isset arguments", "$a = 1;\n    if (isset($x, $y)) { $a = $x; }"},
		{"two statements", "$a = 1;\n    if (isset($x)) { $a = $x; $c = 2; }"},
		{"no braces", "$a = 1;\n    if (isset($x)) $a = $x;"},
		{"elseif branch", "if (isset($x)) { return $x; } elseif ($y) { return 2; } else { return 1; }"},
		{"return assigns", "if (isset($x)) { return $x; }\n    return $y = 1;"},
		{"bare return", "if (isset($x)) { return $x; }\n    return;"},
		{"negated isset", "$a = 1;\n    if (!isset($x)) { $a = $x; }"},
		{"else with two statements", "if (isset($x)) { return $x; } else { $c = 1; return 1; }"},
		{"mixed else", "if (isset($x)) { return $x; } else { $a = 1; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := inspectSource(t, "<?php\nfunction h($x, $y) {\n    "+tt.body+"\n}\n", DefaultOptions())
			if len(findings) != 0 {
				t.Errorf("expected no findings, got %q", findings[0].Replacement)
			}
		})
	}
}

func TestSwitchesAreIndependent(t *testing.T) {
	src := `<?php
$r = isset($a) ? $a : 1;
$b = 2;
if (isset($c)) {
    $b = $c;
}
`
	all := inspectSource(t, src, DefaultOptions())
	if len(all) != 2 {
		t.Fatalf("expected 2 findings with both analyzers on, got %d", len(all))
	}

	ternariesOnly := inspectSource(t, src, Options{SimplifyTernaries: true, LooseComparisons: true})
	if len(ternariesOnly) != 1 || ternariesOnly[0].Pattern != PatternIsset {
		t.Errorf("ternaries only: got %+v", ternariesOnly)
	}

	ifsOnly := inspectSource(t, src, Options{SimplifyIfs: true, LooseComparisons: true})
	if len(ifsOnly) != 1 || ifsOnly[0].Pattern != PatternIfPreceding {
		t.Errorf("ifs only: got %+v", ifsOnly)
	}

	if none := inspectSource(t, src, Options{}); len(none) != 0 {
		t.Errorf("expected nothing with both analyzers off, got %d", len(none))
	}
}

func TestLanguageLevelGate(t *testing.T) {
	src := "<?php\n$r = isset($a) ? $a : 1;\nif (isset($x)) { return $x; }\nreturn 1;\n"
	old := parseUnit(t, src, syntax.MustLevel("5.6"))
	if got := New(DefaultOptions()).Inspect(old); len(got) != 0 {
		t.Errorf("expected no findings below 7.0, got %d", len(got))
	}
	php7 := parseUnit(t, src, syntax.MustLevel("7.0"))
	if got := New(DefaultOptions()).Inspect(php7); len(got) != 2 {
		t.Errorf("expected 2 findings on 7.0, got %d", len(got))
	}
}

func TestSynthesizeAssignmentsUnwrapsChains(t *testing.T) {
	u := parseUnit(t, "<?php\n$a = $b = $c = 3;\n$a = $x;\n", syntax.DefaultLevel)
	stmts := u.Root().Find(syntax.KindExpressionStatement)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	negative, ok := AsAssignment(StatementExpression(stmts[0]))
	if !ok {
		t.Fatal("expected first statement to be an assignment")
	}
	positive, ok := AsAssignment(StatementExpression(stmts[1]))
	if !ok {
		t.Fatal("expected second statement to be an assignment")
	}
	got := SynthesizeAssignments(positive.Value, positive, negative)
	if got != "$a = $x ?? 3" {
		t.Errorf("got %q", got)
	}
}

func TestCollectorSorted(t *testing.T) {
	var c Collector
	c.Report(Finding{Position: syntax.Position{Line: 3, Column: 1}})
	c.Report(Finding{Position: syntax.Position{Line: 1, Column: 9}})
	c.Report(Finding{Position: syntax.Position{Line: 1, Column: 2}})

	sorted := c.Sorted()
	if sorted[0].Position.Column != 2 || sorted[1].Position.Column != 9 || sorted[2].Position.Line != 3 {
		t.Errorf("unexpected order: %+v", sorted)
	}
	if c.Findings[0].Position.Line != 3 {
		t.Error("Sorted must not reorder the collector")
	}
}
