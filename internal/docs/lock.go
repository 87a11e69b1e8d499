package docs

import "sync"

// docLocks provides per-document mutual exclusion so ingest and delete of
// the same doc_id never interleave. Lock granularity is the doc_id string;
// operations on different documents proceed concurrently.
type docLocks struct {
	// mu protects the locks map itself.
	mu sync.Mutex
	// locks maps doc_id to its entry. Entries are reference-counted and
	// removed once the last holder unlocks, bounding memory.
	locks map[string]*docLock
}

// docLock is one per-document lock entry.
type docLock struct {
	mu sync.Mutex
	// refs counts current holders and waiters, guarded by docLocks.mu.
	refs int
}

// newDocLocks constructs an empty lock table.
func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*docLock)}
}

// lock acquires the mutex for docID, creating the entry on first use.
// The returned function releases the lock and drops the entry when no other
// goroutine is holding or waiting on it.
func (d *docLocks) lock(docID string) (unlock func()) {
	d.mu.Lock()
	entry, ok := d.locks[docID]
	if !ok {
		entry = &docLock{}
		d.locks[docID] = entry
	}
	entry.refs++
	d.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		d.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(d.locks, docID)
		}
		d.mu.Unlock()
	}
}
