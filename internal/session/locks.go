package session

import "sync"

// KeyedMutex serializes operations per session id. Entries stay in the map
// after use and are reclaimed by Prune.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[uint]*lockEntry)}
}

// Lock blocks until the key is free and returns the matching unlock func.
func (k *KeyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		k.mu.Unlock()
	}
}

// Prune drops entries nobody holds or waits on and returns how many were
// removed.
func (k *KeyedMutex) Prune() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	for key, e := range k.entries {
		if e.refs == 0 {
			delete(k.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
