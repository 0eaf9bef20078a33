package mount

import (
	"bytes"
	"io"

	"github.com/archivefs/archivefs/pkg/errors"
)

// memorySource is a random-access byte source over a cached buffer. The
// buffer is shared with the content cache and must not be modified.
type memorySource struct {
	*bytes.Reader
}

func newMemorySource(data []byte) *memorySource {
	return &memorySource{Reader: bytes.NewReader(data)}
}

func (s *memorySource) Close() error {
	return nil
}

// streamSource is a forward-only byte source decompressing straight out of
// the archive. Used for files above the cache ceiling, trading seek support
// for bounded memory use.
type streamSource struct {
	rc io.ReadCloser
}

func (s *streamSource) Read(p []byte) (int, error) {
	return s.rc.Read(p)
}

func (s *streamSource) Seek(offset int64, whence int) (int64, error) {
	return 0, errors.SeekUnsupported()
}

func (s *streamSource) Close() error {
	return s.rc.Close()
}
