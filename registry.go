package bran

import (
	"fmt"
	"sync"
)

// Entry is a single key/value pair snapshotted from a Registry.
type Entry[K, V comparable] struct {
	Key   K
	Value V
}

// Registry is a mirrored key/value store. Every pair added through Add or
// Put is stored in both directions, so a value can be resolved back to its
// key. An optional generator produces values for keys seen for the first
// time when autoregistration is requested.
//
// Keys preserve insertion order, which callers rely on for deterministic
// wire layouts. All operations are safe for concurrent use; a reader never
// observes one direction of a mirrored pair without the other.
type Registry[K, V comparable] struct {
	mu        sync.Mutex
	generator func(K) V
	forward   map[K]V
	reverse   map[V]K
	order     []K
}

// NewRegistry creates a Registry. The generator may be nil, in which case
// autoregistration and Add without an explicit value fail.
func NewRegistry[K, V comparable](generator func(K) V) *Registry[K, V] {
	return &Registry[K, V]{
		generator: generator,
		forward:   make(map[K]V),
		reverse:   make(map[V]K),
	}
}

// Get returns the value stored for key. When the key is absent and
// autoregister is true, the generator produces a value which is stored in
// both directions and returned; otherwise the lookup fails with
// ErrNotRegistered.
func (r *Registry[K, V]) Get(key K, autoregister bool) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.forward[key]; ok {
		return v, nil
	}
	if !autoregister || r.generator == nil {
		var zero V
		return zero, fmt.Errorf("%w: %v", ErrNotRegistered, key)
	}
	v := r.generator(key)
	r.put(key, v)
	return v, nil
}

// Key resolves a value back to the key it was registered under.
func (r *Registry[K, V]) Key(value V) (K, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k, ok := r.reverse[value]; ok {
		return k, nil
	}
	var zero K
	return zero, fmt.Errorf("%w: %v", ErrNotRegistered, value)
}

// Add inserts an entry for key with a generated value. It is idempotent:
// a key that is already present is left untouched.
func (r *Registry[K, V]) Add(key K) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.forward[key]; ok {
		return nil
	}
	if r.generator == nil {
		return fmt.Errorf("%w: %v (no generator)", ErrNotRegistered, key)
	}
	r.put(key, r.generator(key))
	return nil
}

// Put inserts an explicit mirrored pair. Like Add it is idempotent for
// keys that are already present.
func (r *Registry[K, V]) Put(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.forward[key]; ok {
		return
	}
	r.put(key, value)
}

// put stores both directions. Callers hold r.mu.
func (r *Registry[K, V]) put(key K, value V) {
	r.forward[key] = value
	r.reverse[value] = key
	r.order = append(r.order, key)
}

// Set stores a forward-only entry, overwriting any previous value for key.
// The reverse direction is not touched; tables that map many keys to the
// same value (such as a field table) use Set instead of Put.
func (r *Registry[K, V]) Set(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.forward[key]; !ok {
		r.order = append(r.order, key)
	}
	r.forward[key] = value
}

// Remove pops the forward entry for key and returns it. The reverse
// mapping is deliberately left in place, matching the historical behavior
// that older streams can still resolve a retired value.
func (r *Registry[K, V]) Remove(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.forward[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(r.forward, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return v, true
}

// Clear removes every entry in both directions.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.forward)
	clear(r.reverse)
	r.order = r.order[:0]
}

// Contains reports whether key has a forward entry.
func (r *Registry[K, V]) Contains(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.forward[key]
	return ok
}

// ContainsValue reports whether value has a reverse entry.
func (r *Registry[K, V]) ContainsValue(value V) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.reverse[value]
	return ok
}

// Keys returns the registered keys in insertion order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]K, len(r.order))
	copy(keys, r.order)
	return keys
}

// Values returns the registered values in key insertion order.
func (r *Registry[K, V]) Values() []V {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]V, 0, len(r.order))
	for _, k := range r.order {
		values = append(values, r.forward[k])
	}
	return values
}

// Items returns a snapshot of all entries in key insertion order. The
// snapshot stays valid after the registry changes.
func (r *Registry[K, V]) Items() []Entry[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]Entry[K, V], 0, len(r.order))
	for _, k := range r.order {
		items = append(items, Entry[K, V]{Key: k, Value: r.forward[k]})
	}
	return items
}

// Len returns the number of forward entries.
func (r *Registry[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forward)
}
