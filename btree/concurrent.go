package btree

import "sync"

// ConcurrentLongBtree guards a LongBtree with a readers/writer lock. Readers
// are mutually compatible; writers are serialized and exclude readers. The
// range iterator locks per step (see ConcurrentLongIterator), so mutations
// interleaved with iteration may skip or re-see entries; values present for
// the entirety of an iteration are emitted exactly once.
type ConcurrentLongBtree[TV any] struct {
	rwLock sync.RWMutex
	tree   *LongBtree[TV]
}

// NewConcurrentLong creates a thread-safe LongBtree of the given order.
func NewConcurrentLong[TV any](order int) (*ConcurrentLongBtree[TV], error) {
	t, err := NewLong[TV](order)
	if err != nil {
		return nil, err
	}
	return &ConcurrentLongBtree[TV]{tree: t}, nil
}

// Get returns the value associated with the given key and whether the key is present.
func (t *ConcurrentLongBtree[TV]) Get(key int64) (TV, bool) {
	t.rwLock.RLock()
	defer t.rwLock.RUnlock()
	return t.tree.Get(key)
}

// Put stores value under key; see LongBtree.Put.
func (t *ConcurrentLongBtree[TV]) Put(key int64, value TV) (TV, bool, error) {
	t.rwLock.Lock()
	defer t.rwLock.Unlock()
	return t.tree.Put(key, value)
}

// ComputeIfAbsent inserts the supplied value when key is absent; see
// LongBtree.ComputeIfAbsent. The supplier runs under the write lock.
func (t *ConcurrentLongBtree[TV]) ComputeIfAbsent(key int64, supplier func() TV) (TV, error) {
	t.rwLock.Lock()
	defer t.rwLock.Unlock()
	return t.tree.ComputeIfAbsent(key, supplier)
}

// Remove deletes the value associated with the given key; see LongBtree.Remove.
func (t *ConcurrentLongBtree[TV]) Remove(key int64) (TV, bool) {
	t.rwLock.Lock()
	defer t.rwLock.Unlock()
	return t.tree.Remove(key)
}

// Clear removes all elements from the tree.
func (t *ConcurrentLongBtree[TV]) Clear() {
	t.rwLock.Lock()
	defer t.rwLock.Unlock()
	t.tree.Clear()
}

// GetAll returns all values in key order.
func (t *ConcurrentLongBtree[TV]) GetAll() []TV {
	t.rwLock.RLock()
	defer t.rwLock.RUnlock()
	return t.tree.GetAll()
}

// IsEmpty returns true if the tree holds no elements.
func (t *ConcurrentLongBtree[TV]) IsEmpty() bool {
	t.rwLock.RLock()
	defer t.rwLock.RUnlock()
	return t.tree.IsEmpty()
}

// Size returns the number of elements inside the tree.
func (t *ConcurrentLongBtree[TV]) Size() int {
	t.rwLock.RLock()
	defer t.rwLock.RUnlock()
	return t.tree.Size()
}

// Height returns the height of the root above the leaves.
func (t *ConcurrentLongBtree[TV]) Height() int {
	t.rwLock.RLock()
	defer t.rwLock.RUnlock()
	return t.tree.Height()
}

// Range positions a cursor over [start, end] under the write lock and returns
// an iterator that re-acquires the read lock on every step. The lock is not
// held between steps; writers can run in between, so the iteration is only
// weakly consistent.
func (t *ConcurrentLongBtree[TV]) Range(start, end int64) (*ConcurrentLongIterator[TV], error) {
	t.rwLock.Lock()
	defer t.rwLock.Unlock()
	it, err := t.tree.Range(start, end)
	if err != nil {
		return nil, err
	}
	return &ConcurrentLongIterator[TV]{tree: t, it: it}, nil
}

// ConcurrentLongIterator is a lock-per-step cursor over a ConcurrentLongBtree.
type ConcurrentLongIterator[TV any] struct {
	tree *ConcurrentLongBtree[TV]
	it   *LongIterator[TV]
}

// Next returns the next value in key order, or false when the range is exhausted.
func (it *ConcurrentLongIterator[TV]) Next() (TV, bool) {
	it.tree.rwLock.RLock()
	defer it.tree.rwLock.RUnlock()
	return it.it.Next()
}
