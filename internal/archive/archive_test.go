package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// writeZip creates a zip fixture at path. Names ending in "/" become
// directory entries.
func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, data := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.zip")
	writeZip(t, path, map[string][]byte{
		"root/":          nil,
		"root/a.txt":     []byte("hello, mount"),
		"root/sub/b.txt": []byte("nested file"),
	})
	return path
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.zip")); err == nil {
		t.Error("expected error opening a missing archive")
	}
}

func TestOpenDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error opening a directory as an archive")
	}
}

func TestOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.zip")
	if err := os.WriteFile(path, []byte("this is not a zip"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error opening a corrupt archive")
	}
}

func TestEntries(t *testing.T) {
	a, err := Open(fixture(t))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	entries := a.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Name] = e
	}

	root, ok := byName["root"]
	if !ok || !root.IsDir {
		t.Errorf("expected directory entry 'root', got %+v", root)
	}
	file, ok := byName["root/a.txt"]
	if !ok || file.IsDir {
		t.Fatalf("expected file entry 'root/a.txt', got %+v", file)
	}
	if file.Size != int64(len("hello, mount")) {
		t.Errorf("expected size %d, got %d", len("hello, mount"), file.Size)
	}
}

func TestEntryLookup(t *testing.T) {
	a, err := Open(fixture(t))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	// Directory entries resolve with and without the slash suffix.
	if _, ok := a.Entry("root"); !ok {
		t.Error("Entry(\"root\") should resolve")
	}
	if _, ok := a.Entry("root/"); !ok {
		t.Error("Entry(\"root/\") should resolve")
	}
	if !a.HasEntry("root/sub/b.txt") {
		t.Error("HasEntry should find root/sub/b.txt")
	}
	if a.HasEntry("root/missing.txt") {
		t.Error("HasEntry should not find root/missing.txt")
	}
}

func TestOpenEntry(t *testing.T) {
	a, err := Open(fixture(t))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	stream, err := a.OpenEntry("root/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello, mount" {
		t.Errorf("expected %q, got %q", "hello, mount", data)
	}

	if a.Decompressions() != 1 {
		t.Errorf("expected 1 decompression, got %d", a.Decompressions())
	}

	if _, err := a.OpenEntry("root/missing.txt"); err == nil {
		t.Error("expected error for missing entry")
	}
	if a.Decompressions() != 1 {
		t.Errorf("failed opens must not count as decompressions, got %d", a.Decompressions())
	}
}

func TestCloseIdempotent(t *testing.T) {
	a, err := Open(fixture(t))
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second close should be a no-op, got: %v", err)
	}
}
