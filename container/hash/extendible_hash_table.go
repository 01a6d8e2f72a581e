// Package hash provides a generic extendible hash table: a directory of
// fixed-capacity buckets indexed by a growing prefix of the key's hash.
//
// It is the associative structure the BufferPool uses internally to map
// PageIDs to frame indices, but it is not specific to paging in any way --
// any comparable key and any value can be stored.
package hash

import "sync"

// Table is a thread-safe extendible hash table mapping keys of type K to
// values of type V. The zero value is not usable; construct with New.
type Table[K comparable, V any] struct {
	mu         sync.Mutex
	hashFn     func(K) uint64
	bucketSize int
	globalDepth int
	dir        []*bucket[K, V]
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

type bucket[K comparable, V any] struct {
	localDepth int
	items      []entry[K, V]
}

func newBucket[K comparable, V any](localDepth, size int) *bucket[K, V] {
	return &bucket[K, V]{
		localDepth: localDepth,
		items:      make([]entry[K, V], 0, size),
	}
}

func (b *bucket[K, V]) isFull(capacity int) bool {
	return len(b.items) >= capacity
}

// find looks up key in the bucket. On a hit, it copies the stored value out
// into the return and leaves the bucket untouched.
func (b *bucket[K, V]) find(key K) (V, bool) {
	for i := range b.items {
		if b.items[i].key == key {
			return b.items[i].value, true
		}
	}
	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i := range b.items {
		if b.items[i].key == key {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// insert updates the value in place if key is already present. Otherwise it
// appends if there is room. Returns false if the bucket is full and key is
// not already present, signaling the caller must split.
func (b *bucket[K, V]) insert(key K, value V, capacity int) bool {
	for i := range b.items {
		if b.items[i].key == key {
			b.items[i].value = value
			return true
		}
	}
	if b.isFull(capacity) {
		return false
	}
	b.items = append(b.items, entry[K, V]{key: key, value: value})
	return true
}

// New creates an empty table with a single bucket at global depth 0.
// hashFn must be a pure, deterministic hash over K.
func New[K comparable, V any](bucketSize int, hashFn func(K) uint64) *Table[K, V] {
	t := &Table[K, V]{
		hashFn:     hashFn,
		bucketSize: bucketSize,
		dir:        make([]*bucket[K, V], 1),
	}
	t.dir[0] = newBucket[K, V](0, bucketSize)
	return t
}

// indexOf computes the directory slot for key using the low globalDepth
// bits of its hash. Caller must hold mu.
func (t *Table[K, V]) indexOf(key K) int {
	mask := uint64(1)<<uint(t.globalDepth) - 1
	return int(t.hashFn(key) & mask)
}

// Find returns the value bound to key, if any.
func (t *Table[K, V]) Find(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir[t.indexOf(key)].find(key)
}

// Remove deletes the entry for key, if present. Returns whether anything was
// removed.
func (t *Table[K, V]) Remove(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir[t.indexOf(key)].remove(key)
}

// Insert binds key to value, growing the directory and/or splitting buckets
// as needed to make room.
func (t *Table[K, V]) Insert(key K, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		idx := t.indexOf(key)
		b := t.dir[idx]
		if b.insert(key, value, t.bucketSize) {
			return
		}

		if b.localDepth < t.globalDepth {
			t.redistributeBucket(b)
		} else {
			t.globalDepth++
			// Double the directory by duplicating each existing slot's
			// bucket reference; the newly duplicated slots get pointed at
			// the split-off bucket by redistributeBucket on the next pass.
			t.dir = append(t.dir, t.dir...)
		}
	}
}

// redistributeBucket splits an overflowing bucket whose local depth is
// already below the global depth: split the bucket in place, route its
// entries between it and a freshly created sibling, and repoint every
// directory slot that should now see the sibling.
func (t *Table[K, V]) redistributeBucket(b *bucket[K, V]) {
	b.localDepth++
	depth := b.localDepth
	sibling := newBucket[K, V](depth, t.bucketSize)

	splitMask := uint64(1)<<uint(depth-1) - 1
	prefix := t.hashFn(b.items[0].key) & splitMask
	newBit := uint64(1) << uint(depth-1)

	kept := b.items[:0:0]
	for _, e := range b.items {
		if t.hashFn(e.key)&newBit != 0 {
			sibling.items = append(sibling.items, e)
		} else {
			kept = append(kept, e)
		}
	}
	b.items = kept

	for i := range t.dir {
		if uint64(i)&splitMask == prefix && uint64(i)&newBit != 0 {
			t.dir[i] = sibling
		}
	}
}
