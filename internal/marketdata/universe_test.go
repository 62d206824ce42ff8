package marketdata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultUniverse(t *testing.T) {
	u := DefaultUniverse()
	if u.Len() == 0 {
		t.Fatal("default universe should not be empty")
	}
	if !u.Contains("AAPL") {
		t.Fatal("default universe should contain AAPL")
	}
	if u.Contains("NOPE") {
		t.Fatal("default universe should not contain NOPE")
	}
}

func TestLoadUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.txt")
	content := `# large caps
AAPL,Technology
msft , Technology

JNJ,Healthcare
AAPL,Technology
XOM
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write universe file: %v", err)
	}

	u, err := LoadUniverse(path)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if u.Len() != 4 {
		t.Fatalf("symbol count mismatch! should be 4 but got %d: %v", u.Len(), u.Symbols())
	}
	if !u.Contains("MSFT") {
		t.Fatal("lowercase symbols should be upper-cased")
	}

	sector, ok := u.Sector("jnj")
	if !ok || sector != "Healthcare" {
		t.Fatalf("sector mismatch! should be Healthcare but got %q (%v)", sector, ok)
	}
	if _, ok := u.Sector("XOM"); ok {
		t.Fatal("XOM has no sector in the file")
	}
}

func TestLoadUniverseEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.txt")
	if err := os.WriteFile(path, []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatalf("write universe file: %v", err)
	}
	if _, err := LoadUniverse(path); err == nil {
		t.Fatal("empty universe file should fail")
	}
}

func TestLoadUniverseMissing(t *testing.T) {
	if _, err := LoadUniverse(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("missing universe file should fail")
	}
}
