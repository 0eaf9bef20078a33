package fuse

import (
	"context"
	"io"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/archivefs/archivefs/pkg/types"
)

const (
	fileMode = 0o444 // read-only filesystem
	dirMode  = 0o555
)

// Options configures the FUSE mount.
type Options struct {
	// AllowOther permits access by users other than the mounting one.
	AllowOther bool `yaml:"allow_other"`

	// Debug enables FUSE protocol logging.
	Debug bool `yaml:"debug"`
}

// Server is a running FUSE mount over a types.Mount.
type Server struct {
	server *fuse.Server
}

// Mount exposes m read-only at mountpoint and returns the running server.
func Mount(mountpoint string, m types.Mount, opts *Options) (*Server, error) {
	if opts == nil {
		opts = &Options{}
	}

	root := &node{mount: m, path: ""}
	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:     "archivefs",
			Name:       "archivefs",
			AllowOther: opts.AllowOther,
			Debug:      opts.Debug,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Server{server: server}, nil
}

// Wait blocks until the mount is unmounted.
func (s *Server) Wait() {
	s.server.Wait()
}

// Unmount detaches the filesystem.
func (s *Server) Unmount() error {
	return s.server.Unmount()
}

// node bridges one virtual path of the mount into the kernel's view.
type node struct {
	fs.Inode

	mount types.Mount
	path  string
}

var (
	_ = (fs.NodeLookuper)((*node)(nil))
	_ = (fs.NodeReaddirer)((*node)(nil))
	_ = (fs.NodeGetattrer)((*node)(nil))
	_ = (fs.NodeOpener)((*node)(nil))
)

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := join(n.path, name)

	attrs, err := n.mount.Attributes(childPath)
	if err != nil {
		return nil, syscall.ENOENT
	}

	mode := uint32(fuse.S_IFREG)
	if attrs.IsDirectory {
		mode = fuse.S_IFDIR
	}

	child := n.NewInode(ctx, &node{mount: n.mount, path: childPath}, fs.StableAttr{Mode: mode})
	fillAttr(&out.Attr, attrs)
	return child, 0
}

func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.mount.List(n.path)
	if err != nil {
		return nil, syscall.ENOTDIR
	}

	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		mode := uint32(fuse.S_IFREG)
		if n.mount.IsDirectory(join(n.path, name)) {
			mode = fuse.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attrs, err := n.mount.Attributes(n.path)
	if err != nil {
		return syscall.ENOENT
	}
	fillAttr(&out.Attr, attrs)
	return 0
}

func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	src, err := n.mount.OpenForRead(n.path)
	if err != nil {
		return nil, 0, syscall.ENOENT
	}

	// Content never changes under the kernel; let it keep page cache.
	return &fileHandle{src: src}, fuse.FOPEN_KEEP_CACHE, 0
}

// fileHandle serves kernel reads from a ByteSource. Cached sources seek to
// whatever offset the kernel asks for; forward-only streams tolerate only
// sequential reads.
type fileHandle struct {
	mu     sync.Mutex
	src    types.ByteSource
	offset int64
}

var (
	_ = (fs.FileReader)((*fileHandle)(nil))
	_ = (fs.FileReleaser)((*fileHandle)(nil))
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if off != h.offset {
		if _, err := h.src.Seek(off, io.SeekStart); err != nil {
			return nil, syscall.ESPIPE
		}
		h.offset = off
	}

	read := 0
	for read < len(dest) {
		n, err := h.src.Read(dest[read:])
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, syscall.EIO
		}
		// A reader returning (0, nil) would otherwise loop forever.
		if n == 0 {
			break
		}
	}

	h.offset += int64(read)
	return fuse.ReadResultData(dest[:read]), 0
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.src.Close(); err != nil {
		return syscall.EIO
	}
	return 0
}

func fillAttr(out *fuse.Attr, attrs types.FileAttributes) {
	if attrs.IsDirectory {
		out.Mode = fuse.S_IFDIR | dirMode
	} else {
		out.Mode = fuse.S_IFREG | fileMode
	}
	out.Size = uint64(attrs.Size)
	modified := attrs.Modified
	accessed := attrs.Accessed
	created := attrs.Created
	out.SetTimes(&accessed, &modified, &created)
}

func join(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}
