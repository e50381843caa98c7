package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./src/Foo.php  ", expected: "src/Foo.php"},
		{name: "Relative", input: "src/../lib/A.php", expected: "lib/A.php"},
		{name: "Backslashes", input: `src\Http\Kernel.php`, expected: "src/Http/Kernel.php"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePatternPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestRelPath(t *testing.T) {
	t.Parallel()

	root := filepath.Join("/", "project")
	if got := RelPath(root, filepath.Join(root, "src", "A.php")); got != "src/A.php" {
		t.Fatalf("expected src/A.php, got %q", got)
	}
	if got := RelPath(root, filepath.Join("/", "elsewhere", "B.php")); got != "/elsewhere/B.php" {
		t.Fatalf("expected absolute fallback, got %q", got)
	}
	if got := RelPath("", "./C.php"); got != "C.php" {
		t.Fatalf("expected C.php, got %q", got)
	}
}

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"b": 2, "a": 1, "c": 3}
	keys := SortedStringKeys(m)
	expected := []string{"a", "b", "c"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.sarif")
	content := []byte("{}")

	if err := WriteFileWithDirs(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", string(content), string(got))
	}
}

func TestWriteFileAtomicKeepsMode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.php")
	if err := os.WriteFile(path, []byte("<?php\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("<?php\n$a = $b ?? 1;\n")); err != nil {
		t.Fatalf("atomic write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<?php\n$a = $b ?? 1;\n" {
		t.Fatalf("unexpected content %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be gone, found %d entries", len(entries))
	}
}
