package helpers

import (
	"path/filepath"
	"testing"
)

func TestUniqueScanRoots(t *testing.T) {
	base := t.TempDir()
	got := UniqueScanRoots([]string{
		filepath.Join(base, "b"),
		filepath.Join(base, "a"),
		filepath.Join(base, "a", "..", "b"),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 roots, got %v", got)
	}
	if got[0] != filepath.Join(base, "a") || got[1] != filepath.Join(base, "b") {
		t.Fatalf("unexpected roots %v", got)
	}
}

func TestResolveAgainst(t *testing.T) {
	got := ResolveAgainst("/base", []string{"src", "/abs/x", "./lib/../vendor"})
	want := []string{"/base/src", "/abs/x", "/base/vendor"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ResolveAgainst[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
