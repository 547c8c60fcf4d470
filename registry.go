package filewatch

import "sync"

// registry is the bidirectional table between watch handles and the paths
// they were registered for. Both directions are mutated together under one
// lock, so at any point every live handle has exactly one path and vice
// versa. The drain goroutine only ever calls resolve; add and remove run on
// whichever goroutine invoked the corresponding Watcher operation.
type registry struct {
	mu    sync.RWMutex
	wds   map[string]int32
	paths map[int32]string
}

func newRegistry() *registry {
	return &registry{
		wds:   make(map[string]int32),
		paths: make(map[int32]string),
	}
}

// add inserts both directional entries for a fresh registration.
func (r *registry) add(path string, wd int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wds[path]; ok {
		return ErrAlreadyWatched
	}
	r.wds[path] = wd
	r.paths[wd] = path
	return nil
}

// remove deletes both directions and gives back the handle that was
// registered for path.
func (r *registry) remove(path string) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wd, ok := r.wds[path]
	if !ok {
		return 0, ErrNotWatched
	}
	delete(r.wds, path)
	delete(r.paths, wd)
	return wd, nil
}

// wd looks up the handle registered for path.
func (r *registry) wd(path string) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wd, ok := r.wds[path]
	return wd, ok
}

// resolve maps a handle back to its path. A miss is not an error: the
// kernel can still have records in flight for a watch that was just
// removed, and such events are delivered with an empty path rather than
// dropped.
func (r *registry) resolve(wd int32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.paths[wd]
	return path, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wds)
}
