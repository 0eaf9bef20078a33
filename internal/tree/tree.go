package tree

import (
	"strings"
	"sync/atomic"

	"github.com/archivefs/archivefs/internal/archive"
)

// Kind is the resolution state of a node. Intermediate nodes synthesized
// while walking an entry path start as KindPlaceholder and are promoted to
// KindDirectory or KindFile when archive metadata is attached. After Build
// returns, remaining placeholders are implied directories.
type Kind uint8

const (
	KindPlaceholder Kind = iota
	KindFile
	KindDirectory
)

// nodeID hands out process-unique node identifiers. The content cache keys on
// these instead of node pointers so that cached buffers never keep a node, and
// through it a mount, alive.
var nodeID atomic.Uint64

// Node represents one file or directory in the mounted tree. Nodes are
// immutable once Build returns; a non-nil children map is what makes a node a
// directory.
type Node struct {
	id          uint64
	kind        Kind
	archivePath string
	size        int64
	children    map[string]*Node
}

func newNode(kind Kind) *Node {
	n := &Node{id: nodeID.Add(1), kind: kind}
	if kind == KindDirectory {
		n.children = make(map[string]*Node)
	}
	return n
}

// ID returns the node's process-unique identifier.
func (n *Node) ID() uint64 { return n.id }

// Kind returns the node's resolution state.
func (n *Node) Kind() Kind { return n.kind }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.children != nil }

// Size returns the declared byte length; 0 for directories and placeholders.
func (n *Node) Size() int64 { return n.size }

// ArchivePath returns the node's full entry path inside the archive. Empty
// for directories that were only implied by deeper entries.
func (n *Node) ArchivePath() string { return n.archivePath }

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	if n.children == nil {
		return nil
	}
	return n.children[name]
}

// putChild adds a child, creating the children map on first use. Growing a
// children map is also what turns a node into a directory.
func (n *Node) putChild(name string, child *Node) {
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	n.children[name] = child
}

// ChildNames returns the names of the node's children, in no particular order.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	return names
}

// Tree is the in-memory directory tree built once at mount construction.
type Tree struct {
	root *Node
}

// Build materializes the tree for every archive entry under subPath. Entries
// are applied in archive order; when two entries collide on one path the last
// one processed wins. Directories never explicitly listed in the archive are
// synthesized as placeholders while walking file paths.
//
// The root of a whole-archive mount is always a directory. The root of a
// subpath mount starts as a placeholder and takes whatever shape the
// subpath's own entry declares, so mounting a file subpath exposes that
// file's content at the empty path.
func Build(entries []archive.Entry, subPath string) *Tree {
	rootKind := KindPlaceholder
	if subPath == "" {
		rootKind = KindDirectory
	}
	root := newNode(rootKind)
	t := &Tree{root: root}

	for _, entry := range entries {
		local, ok := toLocal(entry.Name, subPath)
		if !ok {
			continue
		}
		t.attach(entry, local)
	}

	return t
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Resolve walks path segment by segment from the root. It returns nil when
// any segment is missing or descent hits a file before the path is exhausted;
// resolution has no failure mode beyond "not found". The empty path resolves
// to the root.
func (t *Tree) Resolve(path string) *Node {
	node := t.root
	for len(path) > 0 && node != nil {
		segment := path
		if i := strings.IndexByte(path, '/'); i >= 0 {
			segment, path = path[:i], path[i+1:]
		} else {
			path = ""
		}
		node = node.Child(segment)
	}
	return node
}

// NodeIDs returns the identifiers of every node in the tree. Used to
// invalidate the shared content cache when a mount goes away.
func (t *Tree) NodeIDs() []uint64 {
	var ids []uint64
	var walk func(*Node)
	walk = func(n *Node) {
		ids = append(ids, n.id)
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(t.root)
	return ids
}

// attach walks localPath from the root, synthesizing placeholder directories
// for intermediate segments, and applies the entry's metadata to the terminal
// node. An intermediate segment occupied by a file is replaced by a fresh
// placeholder: the file loses that path slot to the directory that needs it.
func (t *Tree) attach(entry archive.Entry, localPath string) {
	node := t.root

	for len(localPath) > 0 {
		segment := localPath
		if i := strings.IndexByte(localPath, '/'); i >= 0 {
			segment, localPath = localPath[:i], localPath[i+1:]
		} else {
			localPath = ""
		}

		if localPath == "" {
			node = t.terminal(node, segment, entry)
			return
		}

		child := node.Child(segment)
		if child == nil || !child.IsDir() {
			child = newNode(KindPlaceholder)
			node.putChild(segment, child)
		}
		node = child
	}

	// Empty local path: the entry describes the mount root itself.
	node.resolve(entry)
}

// terminal applies entry metadata at the final path segment. A directory
// entry reuses an existing directory node (placeholders it may have been
// built under stay intact); a file entry replaces whatever file node held the
// slot before, but keeps a node that already became a directory.
func (t *Tree) terminal(parent *Node, segment string, entry archive.Entry) *Node {
	child := parent.Child(segment)
	if child == nil || (!child.IsDir() && entry.IsDir) {
		kind := KindFile
		if entry.IsDir {
			kind = KindDirectory
		}
		child = newNode(kind)
		parent.putChild(segment, child)
	}
	child.resolve(entry)
	return child
}

// resolve attaches archive metadata, promoting a placeholder to its final
// kind. A file entry landing on a node that already has children leaves it a
// directory; the metadata is recorded but the children win.
func (n *Node) resolve(entry archive.Entry) {
	n.archivePath = entry.Name
	n.size = entry.Size
	if entry.IsDir {
		n.kind = KindDirectory
		if n.children == nil {
			n.children = make(map[string]*Node)
		}
	} else if n.children == nil {
		n.kind = KindFile
	}
}

// toLocal strips the subPath prefix from an entry name. It reports false for
// entries outside the subPath. Matching is segment-aligned: subPath "root"
// covers "root" and "root/...", not "root2/...".
func toLocal(name, subPath string) (string, bool) {
	if subPath == "" {
		return name, true
	}
	if name == subPath {
		return "", true
	}
	if strings.HasPrefix(name, subPath+"/") {
		return name[len(subPath)+1:], true
	}
	return "", false
}
