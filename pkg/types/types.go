package types

import (
	"io"
	"time"
)

// Mount is the read-only virtual filesystem contract exposed to consumers.
// Paths are /-separated, rooted at the mount's configured subpath, and are
// expected to be pre-normalized by the caller (no "." or ".." handling here).
// The interface deliberately has no close or dispose operation; implementations
// must reclaim their backing resources some other way.
type Mount interface {
	// Exists reports whether path resolves to a file or directory.
	Exists(path string) bool

	// IsDirectory reports whether path resolves to a directory.
	IsDirectory(path string) bool

	// List returns the child names of the directory at path, in no
	// particular order. Fails with NOT_DIRECTORY when path is absent or
	// resolves to a file.
	List(path string) ([]string, error)

	// Size returns the declared byte length of the file at path.
	// Directories report 0. Fails with FILE_NOT_FOUND when path is absent.
	Size(path string) (int64, error)

	// OpenForRead returns the content of the file at path. The returned
	// source is seekable when the content was served from the cache and
	// forward-only when streamed. Fails with FILE_NOT_FOUND when path is
	// absent or resolves to a directory.
	OpenForRead(path string) (ByteSource, error)

	// Attributes returns the metadata of the entry at path. Every field is
	// always populated; timestamps the archive does not record fall back to
	// the Unix epoch. Fails with FILE_NOT_FOUND when path is absent.
	Attributes(path string) (FileAttributes, error)
}

// ByteSource is a readable stream of file content. Sources backed by a cached
// buffer support Seek; sources streaming straight out of the archive do not
// and return an error from Seek instead.
type ByteSource interface {
	io.Reader
	io.Seeker
	io.Closer
}

// FileAttributes represents the metadata of one mounted file or directory.
type FileAttributes struct {
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Accessed    time.Time `json:"accessed"`
	Size        int64     `json:"size"`
	IsDirectory bool      `json:"is_directory"`
	IsSymlink   bool      `json:"is_symlink"`
	IsOther     bool      `json:"is_other"`
}

// CacheStats represents content cache performance statistics.
type CacheStats struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
	Entries     int     `json:"entries"`
	Size        int64   `json:"size"`
	Capacity    int64   `json:"capacity"`
	HitRate     float64 `json:"hit_rate"`
	Utilization float64 `json:"utilization"`
}

// MountStats tracks per-mount read path statistics.
type MountStats struct {
	CacheHits      int64 `json:"cache_hits"`
	CacheMisses    int64 `json:"cache_misses"`
	Decompressions int64 `json:"decompressions"`
	StreamedReads  int64 `json:"streamed_reads"`
	BytesRead      int64 `json:"bytes_read"`
}
