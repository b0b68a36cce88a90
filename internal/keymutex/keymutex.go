// Package keymutex provides in-process mutual exclusion keyed by string.
//
// Mutexes are created on first use and dropped once no goroutine holds or
// waits on them, so the number of tracked keys stays bounded by the number of
// keys currently in use.
package keymutex

import "sync"

type entry struct {
	mu    sync.Mutex
	count int
}

type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyMutex {
	return &KeyMutex{
		entries: make(map[string]*entry),
	}
}

func (m *KeyMutex) Lock(key string) {
	m.getEntryForLock(key).mu.Lock()
}

func (m *KeyMutex) Unlock(key string) {
	m.getEntryForUnlock(key).mu.Unlock()
}

// Len returns the number of keys currently held or waited on.
func (m *KeyMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *KeyMutex) getEntryForLock(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.count++

	return e
}

func (m *KeyMutex) getEntryForUnlock(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		panic("keymutex: unlock of unlocked key: " + key)
	}

	e.count--
	if e.count == 0 {
		delete(m.entries, key)
	}

	return e
}
