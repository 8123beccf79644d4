package services

import (
	"slices"
	"sync"
)

// keyedMutex serializes work per key while leaving different keys independent.
// Entries are reference counted and removed once no goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedMutex) unlock(key string) {
	k.mu.Lock()
	e := k.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// lockAll takes every distinct non-empty key in sorted order and returns the
// matching release function. Sorted acquisition keeps two callers with
// overlapping key sets from deadlocking.
func (k *keyedMutex) lockAll(keys ...string) func() {
	sorted := make([]string, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			sorted = append(sorted, key)
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, key := range sorted {
		k.lock(key)
	}
	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			k.unlock(sorted[i])
		}
	}
}

// size reports how many keys currently have holders or waiters
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
