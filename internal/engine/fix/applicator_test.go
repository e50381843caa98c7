package fix

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"coalesce/internal/engine/inspect"
	"coalesce/internal/engine/syntax"
)

type fixture struct {
	loader *syntax.GrammarLoader
	unit   *syntax.Unit
	app    *Applicator
	insp   *inspect.Inspector
}

func newFixture(t *testing.T, src string) *fixture {
	t.Helper()
	loader := syntax.NewGrammarLoader(nil)
	u, err := loader.Parse("test.php", []byte(src), syntax.DefaultLevel)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	t.Cleanup(u.Close)
	return &fixture{
		loader: loader,
		unit:   u,
		app:    NewApplicator(loader),
		insp:   inspect.New(inspect.DefaultOptions()),
	}
}

// applyOnly inspects the unit, expects exactly one finding and applies it.
func (fx *fixture) applyOnly(t *testing.T) inspect.Finding {
	t.Helper()
	findings := fx.insp.Inspect(fx.unit)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	outcome, err := fx.app.Apply(fx.unit, findings[0].Fix)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome != Applied {
		t.Fatalf("outcome = %s, want applied", outcome)
	}
	return findings[0]
}

func (fx *fixture) assertSource(t *testing.T, want string) {
	t.Helper()
	if diff := cmp.Diff(want, string(fx.unit.Source())); diff != "" {
		t.Errorf("source mismatch (-want +got):\n%s", diff)
	}
	if fx.unit.HasErrors() {
		t.Error("rewritten source has syntax errors")
	}
}

func (fx *fixture) assertIdempotent(t *testing.T) {
	t.Helper()
	if again := fx.insp.Inspect(fx.unit); len(again) != 0 {
		t.Errorf("expected no findings after fix, got %q", again[0].Replacement)
	}
}

func TestApplyTernary(t *testing.T) {
	fx := newFixture(t, "<?php\n$r = isset($a['k']) ? $a['k'] : 'd';\necho $r;\n")
	fx.applyOnly(t)
	fx.assertSource(t, "<?php\n$r = $a['k'] ?? 'd';\necho $r;\n")
	fx.assertIdempotent(t)
}

func TestApplyPrecedingAssignment(t *testing.T) {
	fx := newFixture(t, `<?php
function f($x) {
    $a = 'd';
    if (isset($x['k'])) {
        $a = $x['k'];
    }
    return $a;
}
`)
	fx.applyOnly(t)
	fx.assertSource(t, `<?php
function f($x) {
    $a = $x['k'] ?? 'd';
    return $a;
}
`)
	fx.assertIdempotent(t)
}

func TestApplyKeepsChainedAssignment(t *testing.T) {
	fx := newFixture(t, `<?php
function f($x) {
    $a = $b = 1;
    if (isset($x)) {
        $a = $x;
    }
}
`)
	f := fx.applyOnly(t)
	if f.Replacement != "$a = $x ?? 1" {
		t.Errorf("replacement = %q", f.Replacement)
	}
	fx.assertSource(t, `<?php
function f($x) {
    $a = $x ?? 1;
    $b = 1;
}
`)
}

func TestApplyFollowingReturn(t *testing.T) {
	fx := newFixture(t, `<?php
function g($x) {
    if (isset($x)) {
        return $x;
    }
    return 'd';
}
`)
	fx.applyOnly(t)
	fx.assertSource(t, `<?php
function g($x) {
    return $x ?? 'd';
}
`)
	fx.assertIdempotent(t)
}

func TestApplyIfElse(t *testing.T) {
	fx := newFixture(t, `<?php
function h($x) {
    if (isset($x)) {
        return $x;
    } else {
        return 1;
    }
}
`)
	fx.applyOnly(t)
	fx.assertSource(t, `<?php
function h($x) {
    return $x ?? 1;
}
`)
	fx.assertIdempotent(t)
}

func TestApplyWrapsElseBody(t *testing.T) {
	fx := newFixture(t, `<?php
function k($c, $x) {
    if ($c) {
        $a = 0;
    } else if (isset($x)) {
        $a = $x;
    } else {
        $a = 1;
    }
    return $a;
}
`)
	fx.applyOnly(t)
	fx.assertSource(t, `<?php
function k($c, $x) {
    if ($c) {
        $a = 0;
    } else { $a = $x ?? 1; }
    return $a;
}
`)
	fx.assertIdempotent(t)
}

func TestStaleAfterOverlappingEdit(t *testing.T) {
	fx := newFixture(t, "<?php\n$r = isset($a) ? $a : 1;\n")
	findings := fx.insp.Inspect(fx.unit)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}

	// Someone else rewrites the statement before the fix is accepted.
	stmt := fx.unit.Root().Find(syntax.KindExpressionStatement)[0]
	start, end := stmt.Span()
	if err := fx.unit.Replace(start, end, "$r = 2;"); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	outcome, err := fx.app.Apply(fx.unit, findings[0].Fix)
	if err != nil {
		t.Fatalf("stale fix must not error, got %v", err)
	}
	if outcome != Stale {
		t.Errorf("outcome = %s, want stale", outcome)
	}
	fx.assertSource(t, "<?php\n$r = 2;\n")
}

func TestFixSurvivesEarlierEdit(t *testing.T) {
	fx := newFixture(t, "<?php\n$z = 1;\n$r = isset($a) ? $a : 1;\n")
	findings := fx.insp.Inspect(fx.unit)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}

	stmt := fx.unit.Root().Find(syntax.KindExpressionStatement)[0]
	start, end := stmt.Span()
	if err := fx.unit.Replace(start, end, "$zeta = 100;"); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	outcome, err := fx.app.Apply(fx.unit, findings[0].Fix)
	if err != nil || outcome != Applied {
		t.Fatalf("Apply = %s, %v", outcome, err)
	}
	fx.assertSource(t, "<?php\n$zeta = 100;\n$r = $a ?? 1;\n")
}

func TestMalformedReplacementLeavesSourceUntouched(t *testing.T) {
	src := "<?php\n$r = isset($a) ? $a : 1;\n"
	fx := newFixture(t, src)
	findings := fx.insp.Inspect(fx.unit)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	broken := findings[0].Fix.(inspect.SingleReplace)
	broken.Text = "$a ??"

	outcome, err := fx.app.Apply(fx.unit, broken)
	if !errors.Is(err, ErrMalformedReplacement) {
		t.Errorf("expected ErrMalformedReplacement, got %v", err)
	}
	if outcome != Stale {
		t.Errorf("outcome = %s, want stale", outcome)
	}
	fx.assertSource(t, src)
	if fx.unit.Version() != 0 {
		t.Errorf("unit version = %d, want 0", fx.unit.Version())
	}
}

func TestApplyAll(t *testing.T) {
	fx := newFixture(t, `<?php
$r = isset($a) ? $a : (isset($b) ? $b : 1);
$s = $c !== null ? $c : 2;
function g($x) {
    if (isset($x)) {
        return $x;
    }
    return 'd';
}
`)
	findings := fx.insp.Inspect(fx.unit)
	if len(findings) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(findings))
	}

	res, err := fx.app.ApplyAll(fx.unit, findings)
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	want := Result{Applied: 3, Stale: 1}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	fx.assertSource(t, `<?php
$r = $a ?? (isset($b) ? $b : 1);
$s = $c ?? 2;
function g($x) {
    return $x ?? 'd';
}
`)
}

func TestApplyNilFix(t *testing.T) {
	fx := newFixture(t, "<?php\n")
	outcome, err := fx.app.Apply(fx.unit, nil)
	if err != nil || outcome != Stale {
		t.Errorf("Apply(nil) = %s, %v", outcome, err)
	}
}

func TestIndentOf(t *testing.T) {
	src := []byte("a\n\t  b")
	if got := indentOf(src, 5); got != "\t  " {
		t.Errorf("indentOf = %q", got)
	}
	if got := indentOf(src, 0); got != "" {
		t.Errorf("indentOf at start = %q", got)
	}
}

func TestPlanDoesNotEdit(t *testing.T) {
	src := "<?php\n$r = isset($a) ? $a : 0;\n"
	fx := newFixture(t, src)
	findings := fx.insp.Inspect(fx.unit)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	edit, ok, err := fx.app.Plan(fx.unit, findings[0].Fix)
	if err != nil || !ok {
		t.Fatalf("Plan = %v, %v", ok, err)
	}
	if edit.Text != "$a ?? 0" {
		t.Errorf("edit text = %q", edit.Text)
	}
	if got := src[edit.Start:edit.End]; got != "isset($a) ? $a : 0" {
		t.Errorf("edit span covers %q", got)
	}
	fx.assertSource(t, src)
}
