// Package lock provides a keyed mutex used to serialize all availability
// mutations per resource. Operations on different resources proceed
// independently; there is no global lock.
package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed hands out one mutex per key. Entries are dropped once the last
// holder releases, so the map does not grow with the catalog.
type Keyed struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[int64]*entry)}
}

func (k *Keyed) Lock(key int64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *Keyed) Unlock(key int64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("lock: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
