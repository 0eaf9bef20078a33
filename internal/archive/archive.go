package archive

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zip"
)

// Entry describes one archive member. Name never carries the trailing slash
// zip uses to mark directories; the IsDir flag does that instead.
type Entry struct {
	Name     string
	Size     int64
	IsDir    bool
	Modified time.Time
}

// Archive wraps an open zip container and resolves member names to entries
// and decompressing read streams. It is safe for concurrent reads: the
// underlying zip reader serves each stream from its own section reader.
type Archive struct {
	file   *os.File
	reader *zip.Reader
	byName map[string]*zip.File

	decompressions atomic.Int64
	closed         atomic.Bool
}

// Open opens the zip container at path and indexes its members.
func Open(path string) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot find %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot find %s: is a directory", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening archive: %w", err)
	}

	reader, err := zip.NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error loading zip file: %w", err)
	}

	byName := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		byName[strings.TrimSuffix(f.Name, "/")] = f
	}

	return &Archive{
		file:   file,
		reader: reader,
		byName: byName,
	}, nil
}

// Entries returns the metadata of every member, in archive order.
func (a *Archive) Entries() []Entry {
	entries := make([]Entry, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		entries = append(entries, toEntry(f))
	}
	return entries
}

// Entry looks up a member by name, tolerating the presence or absence of the
// directory slash suffix.
func (a *Archive) Entry(name string) (Entry, bool) {
	f, ok := a.byName[strings.TrimSuffix(name, "/")]
	if !ok {
		return Entry{}, false
	}
	return toEntry(f), true
}

// HasEntry reports whether the archive contains a member with the given name.
func (a *Archive) HasEntry(name string) bool {
	_, ok := a.byName[strings.TrimSuffix(name, "/")]
	return ok
}

// OpenEntry opens a decompressing read stream over the named member and
// counts the decompression. The caller owns closing the stream.
func (a *Archive) OpenEntry(name string) (io.ReadCloser, error) {
	f, ok := a.byName[strings.TrimSuffix(name, "/")]
	if !ok {
		return nil, fmt.Errorf("no entry %q in archive", name)
	}

	stream, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening entry %q: %w", name, err)
	}

	a.decompressions.Add(1)
	return stream, nil
}

// Decompressions returns how many entry streams have been opened. Used to
// verify cache behavior.
func (a *Archive) Decompressions() int64 {
	return a.decompressions.Load()
}

// Close releases the underlying file handle. Safe to call more than once.
func (a *Archive) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	return a.file.Close()
}

func toEntry(f *zip.File) Entry {
	isDir := strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
	size := int64(f.UncompressedSize64)
	if isDir {
		size = 0
	}
	return Entry{
		Name:     strings.TrimSuffix(f.Name, "/"),
		Size:     size,
		IsDir:    isDir,
		Modified: f.Modified,
	}
}
