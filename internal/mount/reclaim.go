package mount

import (
	"io"
	"sync"
	"weak"

	"github.com/archivefs/archivefs/internal/cache"
	"github.com/archivefs/archivefs/internal/metrics"
	"github.com/archivefs/archivefs/pkg/utils"
)

// The Mount contract has no close or dispose operation, so the archive
// handle behind a mount must be reclaimed once the mount itself becomes
// unreachable. Every constructed mount is entered into a process-wide watch
// list pairing a weak reference to the mount with the resources to release.
// Each new construction sweeps the list and closes the handles of mounts the
// garbage collector has since let go.
//
// The sweep only runs when some mount is constructed: a process that stops
// creating mounts keeps its last dropped handle open until exit. That is the
// accepted trade-off of construction-time sweeping; callers that can manage
// lifetimes explicitly should use Close instead.

// registration holds everything needed to clean up after one mount.
type registration struct {
	// alive reports whether the owning mount is still reachable. Backed by
	// a weak pointer so the watch list never keeps a mount alive itself.
	alive   func() bool
	handle  io.Closer
	nodeIDs []uint64
	cache   *cache.ContentCache
	metrics *metrics.Collector
	logger  *utils.Logger
}

// release closes the registration's archive handle, discarding any close
// failure, and drops its nodes' content from the shared cache.
func (r *registration) release() {
	_ = r.handle.Close()
	if r.cache != nil {
		r.cache.Remove(r.nodeIDs...)
	}
}

// watchList is the process-wide registry of live mounts.
type watchList struct {
	mu   sync.Mutex
	next uint64
	regs map[uint64]*registration
}

var registry = &watchList{regs: make(map[uint64]*registration)}

// register enters a mount into the watch list and returns its token.
func (w *watchList) register(m *ArchiveMount) uint64 {
	ref := weak.Make(m)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.next++
	token := w.next
	w.regs[token] = &registration{
		alive:   func() bool { return ref.Value() != nil },
		handle:  m.archive,
		nodeIDs: m.tree.NodeIDs(),
		cache:   m.cache,
		metrics: m.metrics,
		logger:  m.logger,
	}
	return token
}

// unregister removes a mount that is being closed explicitly. The caller
// releases the resources itself.
func (w *watchList) unregister(token uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.regs, token)
}

// sweep releases the resources of every registered mount that has become
// unreachable. Runs synchronously at the start of each construction; there
// is no background thread.
func (w *watchList) sweep() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for token, reg := range w.regs {
		if reg.alive() {
			continue
		}
		reg.release()
		delete(w.regs, token)
		reg.metrics.RecordReclaimedHandle()
		if reg.logger != nil {
			reg.logger.Debug("reclaimed archive handle of unreachable mount")
		}
	}
}

// len returns the number of watched mounts.
func (w *watchList) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.regs)
}
