package registry

import "sync"

// Registry is a concurrent map with typed keys and values.
// The zero value is not usable; construct with New.
type Registry[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New returns an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{m: make(map[K]V)}
}

// Put stores value under key, replacing any previous entry.
func (r *Registry[K, V]) Put(key K, value V) {
	r.mu.Lock()
	r.m[key] = value
	r.mu.Unlock()
}

// Get returns the entry for key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	v, ok := r.m[key]
	r.mu.RUnlock()
	return v, ok
}

// GetOrCreate returns the entry for key, calling build to create it
// when absent. build runs at most once per key, even with concurrent
// callers racing on the same key.
func (r *Registry[K, V]) GetOrCreate(key K, build func() V) V {
	r.mu.RLock()
	v, ok := r.m[key]
	r.mu.RUnlock()
	if ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.m[key]; ok {
		return v
	}
	v = build()
	r.m[key] = v
	return v
}

// Remove deletes the entry for key, if any.
func (r *Registry[K, V]) Remove(key K) {
	r.mu.Lock()
	delete(r.m, key)
	r.mu.Unlock()
}

// Len reports the number of entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

// Snapshot returns a copy of the current entries. Mutating the returned
// map does not touch the registry, so callers may iterate it while
// others keep writing.
func (r *Registry[K, V]) Snapshot() map[K]V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[K]V, len(r.m))
	for k, v := range r.m {
		out[k] = v
	}
	return out
}
