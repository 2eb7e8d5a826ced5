package registry

import (
	"sync"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/mykube-run/krefresh/pkg/types"
)

// Registry holds the watched config metas and the set of their data ids.
// Registration is append-only, both sets are always updated together.
type Registry struct {
	mu         sync.RWMutex
	metas      *hashset.Set // types.ConfigMeta
	watchedIds *hashset.Set // string
	ordered    []types.ConfigMeta
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		metas:      hashset.New(),
		watchedIds: hashset.New(),
	}
}

// Register adds meta if it was not registered before
func (r *Registry) Register(meta types.ConfigMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.metas.Contains(meta) {
		r.metas.Add(meta)
		r.ordered = append(r.ordered, meta)
	}
	r.watchedIds.Add(meta.DataID)
}

// Snapshot returns a copy of registered metas in registration order
func (r *Registry) Snapshot() []types.ConfigMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ConfigMeta, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// IsWatched reports whether any registered meta has given data id
func (r *Registry) IsWatched(dataId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.watchedIds.Contains(dataId)
}

// Len returns the number of registered metas
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metas.Size()
}

// Empty reports whether nothing was registered yet
func (r *Registry) Empty() bool {
	return r.Len() == 0
}
