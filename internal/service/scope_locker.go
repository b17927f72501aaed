package service

import (
	"sort"
	"sync"
)

// ScopeLocker serializes writers of the same position sequence inside this process.
// Keys are locked in sorted order so multi-scope moves cannot deadlock.
type ScopeLocker struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	mu   sync.Mutex
	refs int
}

// NewScopeLocker creates an empty locker. One instance is shared by all board services.
func NewScopeLocker() *ScopeLocker {
	return &ScopeLocker{locks: make(map[string]*scopeLock)}
}

// Lock acquires every key and returns the function releasing them
func (l *ScopeLocker) Lock(keys ...string) func() {
	sorted := uniqueSorted(keys)
	held := make([]*scopeLock, 0, len(sorted))

	for _, key := range sorted {
		l.mu.Lock()
		lock, ok := l.locks[key]
		if !ok {
			lock = &scopeLock{}
			l.locks[key] = lock
		}
		lock.refs++
		l.mu.Unlock()

		lock.mu.Lock()
		held = append(held, lock)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
		l.mu.Lock()
		for i, key := range sorted {
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, key)
			}
		}
		l.mu.Unlock()
	}
}

// size returns the number of live lock entries
func (l *ScopeLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
