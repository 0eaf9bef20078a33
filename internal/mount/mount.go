package mount

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/archivefs/archivefs/internal/archive"
	"github.com/archivefs/archivefs/internal/cache"
	"github.com/archivefs/archivefs/internal/config"
	"github.com/archivefs/archivefs/internal/metrics"
	"github.com/archivefs/archivefs/internal/tree"
	"github.com/archivefs/archivefs/pkg/errors"
	"github.com/archivefs/archivefs/pkg/types"
	"github.com/archivefs/archivefs/pkg/utils"
)

// epoch is the timestamp fallback for metadata the archive does not record.
var epoch = time.Unix(0, 0).UTC()

var (
	sharedCacheOnce sync.Once
	sharedCache     *cache.ContentCache
)

// sharedContentCache returns the process-wide content cache, created on
// first use with the default bounds. All mounts share it unless given their
// own via WithCache.
func sharedContentCache() *cache.ContentCache {
	sharedCacheOnce.Do(func() {
		defaults := config.NewDefault()
		sharedCache = cache.New(&cache.Config{
			Capacity: defaults.MaxTotalBytes(),
			TTL:      defaults.Cache.TTL,
		})
	})
	return sharedCache
}

// Option customizes a mount under construction.
type Option func(*options)

type options struct {
	cache       *cache.ContentCache
	maxFileSize int64
	metrics     *metrics.Collector
	logger      *utils.Logger
}

// WithCache substitutes the shared content cache. Mainly for tests and for
// embedders that want separate cache budgets.
func WithCache(c *cache.ContentCache) Option {
	return func(o *options) { o.cache = c }
}

// WithMaxCachedFileSize overrides the per-file cache ceiling.
func WithMaxCachedFileSize(n int64) Option {
	return func(o *options) { o.maxFileSize = n }
}

// WithMetrics wires a metrics collector into the mount.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithLogger sets the mount's logger.
func WithLogger(l *utils.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ArchiveMount is a read-only virtual filesystem over a subpath of a zip
// archive. It is immutable after construction and safe for concurrent use
// from any number of goroutines.
type ArchiveMount struct {
	archive     *archive.Archive
	tree        *tree.Tree
	cache       *cache.ContentCache
	maxFileSize int64
	metrics     *metrics.Collector
	logger      *utils.Logger

	token  uint64
	closed atomic.Bool

	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	streamedReads atomic.Int64
	bytesRead     atomic.Int64
}

var _ types.Mount = (*ArchiveMount)(nil)

// New constructs a mount over the subPath inside the archive at archivePath.
// An empty subPath mounts the whole archive. Construction first sweeps the
// watch list for previously abandoned mounts, then scans the archive's entry
// listing once to build the in-memory tree.
//
// Fails with MOUNT_UNAVAILABLE when the archive cannot be opened or subPath
// is not an entry in it; no mount is returned in that case.
func New(archivePath, subPath string, opts ...Option) (*ArchiveMount, error) {
	// Clean up after any mounts dropped since the last construction.
	registry.sweep()

	o := &options{
		maxFileSize: config.NewDefault().MaxFileBytes(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.cache == nil {
		o.cache = sharedContentCache()
	}

	arch, err := archive.Open(archivePath)
	if err != nil {
		return nil, errors.MountUnavailable("error loading archive", err)
	}

	if subPath != "" && !arch.HasEntry(subPath) {
		arch.Close()
		return nil, errors.MountUnavailable("archive does not contain path", nil)
	}

	m := &ArchiveMount{
		archive:     arch,
		tree:        tree.Build(arch.Entries(), subPath),
		cache:       o.cache,
		maxFileSize: o.maxFileSize,
		metrics:     o.metrics,
		logger:      o.logger,
	}

	m.token = registry.register(m)
	m.metrics.MountOpened()
	if m.logger != nil {
		m.logger.Debug("mounted %s at subpath %q", archivePath, subPath)
	}
	return m, nil
}

// Exists reports whether path resolves to a file or directory.
func (m *ArchiveMount) Exists(path string) bool {
	found := m.tree.Resolve(path) != nil
	m.metrics.RecordOperation("exists", nil)
	return found
}

// IsDirectory reports whether path resolves to a directory.
func (m *ArchiveMount) IsDirectory(path string) bool {
	node := m.tree.Resolve(path)
	m.metrics.RecordOperation("is_directory", nil)
	return node != nil && node.IsDir()
}

// List returns the child names of the directory at path, in no particular
// order.
func (m *ArchiveMount) List(path string) ([]string, error) {
	node := m.tree.Resolve(path)
	if node == nil || !node.IsDir() {
		err := errors.NotADirectory(path)
		m.metrics.RecordOperation("list", err)
		return nil, err
	}

	m.metrics.RecordOperation("list", nil)
	return node.ChildNames(), nil
}

// Size returns the declared byte length of the entry at path.
func (m *ArchiveMount) Size(path string) (int64, error) {
	node := m.tree.Resolve(path)
	if node == nil {
		err := errors.NotFound(path)
		m.metrics.RecordOperation("size", err)
		return 0, err
	}

	m.metrics.RecordOperation("size", nil)
	return node.Size(), nil
}

// OpenForRead returns the content of the file at path. Small files are
// materialized through the shared content cache and come back seekable;
// files above the cache ceiling are streamed forward-only straight from the
// archive so one huge file cannot blow the process's memory.
//
// Any I/O failure while locating or decompressing the entry is reported as
// FILE_NOT_FOUND: the mount's error surface does not distinguish missing
// from unreadable.
func (m *ArchiveMount) OpenForRead(path string) (types.ByteSource, error) {
	src, err := m.openForRead(path)
	m.metrics.RecordOperation("open_for_read", err)
	return src, err
}

func (m *ArchiveMount) openForRead(path string) (types.ByteSource, error) {
	node := m.tree.Resolve(path)
	if node == nil || node.IsDir() {
		return nil, errors.NotFound(path)
	}

	if data := m.cache.Get(node.ID()); data != nil {
		m.cacheHits.Add(1)
		m.metrics.RecordCacheHit()
		return newMemorySource(data), nil
	}
	m.cacheMisses.Add(1)
	m.metrics.RecordCacheMiss()

	entry, ok := m.archive.Entry(node.ArchivePath())
	if !ok {
		return nil, errors.NotFound(path)
	}

	stream, err := m.archive.OpenEntry(entry.Name)
	if err != nil {
		return nil, errors.NotFound(path).WithCause(err)
	}
	m.metrics.RecordDecompression()

	if entry.Size > m.maxFileSize {
		m.streamedReads.Add(1)
		m.metrics.RecordStreamedRead()
		return &streamSource{rc: stream}, nil
	}

	data, err := io.ReadAll(stream)
	stream.Close()
	if err != nil {
		// Treat decompression errors as non-existence of the file.
		return nil, errors.NotFound(path).WithCause(err)
	}

	m.bytesRead.Add(int64(len(data)))
	m.cache.Put(node.ID(), data)
	m.metrics.SetCacheSize(m.cache.Size())
	return newMemorySource(data), nil
}

// Attributes returns the metadata of the entry at path. Timestamps the
// archive does not record fall back to the epoch so callers always see fully
// populated metadata.
func (m *ArchiveMount) Attributes(path string) (types.FileAttributes, error) {
	node := m.tree.Resolve(path)
	if node == nil {
		err := errors.NotFound(path)
		m.metrics.RecordOperation("attributes", err)
		return types.FileAttributes{}, err
	}

	attrs := types.FileAttributes{
		Created:     epoch,
		Modified:    epoch,
		Accessed:    epoch,
		Size:        node.Size(),
		IsDirectory: node.IsDir(),
	}

	// Directories synthesized from deeper file paths have no archive entry
	// of their own; they report epoch metadata.
	if entry, ok := m.archive.Entry(node.ArchivePath()); ok && node.ArchivePath() != "" {
		if !entry.Modified.IsZero() {
			attrs.Modified = entry.Modified
			attrs.Created = entry.Modified
		}
		attrs.Size = entry.Size
	}

	m.metrics.RecordOperation("attributes", nil)
	return attrs, nil
}

// Close releases the mount's archive handle and cache entries eagerly, for
// callers that can manage the mount's lifetime themselves. It is not part of
// the Mount contract; mounts that are simply dropped are reclaimed by the
// construction-time sweep instead. Safe to call more than once.
func (m *ArchiveMount) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	registry.unregister(m.token)
	m.cache.Remove(m.tree.NodeIDs()...)
	m.metrics.MountClosed()
	return m.archive.Close()
}

// Stats returns the mount's read path statistics.
func (m *ArchiveMount) Stats() types.MountStats {
	return types.MountStats{
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
		Decompressions: m.archive.Decompressions(),
		StreamedReads:  m.streamedReads.Load(),
		BytesRead:      m.bytesRead.Load(),
	}
}

// CacheStats returns statistics of the content cache backing this mount.
func (m *ArchiveMount) CacheStats() types.CacheStats {
	return m.cache.Stats()
}
