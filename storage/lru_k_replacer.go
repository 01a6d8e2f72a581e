package storage

import (
	"sync"

	"github.com/dsglabs/godb/common"
)

// FrameID identifies a slot in the BufferPool's fixed frame array.
type FrameID int32

// lruKHistory tracks the last (up to) K access timestamps for one frame,
// oldest first.
type lruKHistory struct {
	timestamps []uint64
	evictable  bool
}

// LRUKReplacer selects a victim frame using the LRU-K policy: frames with
// fewer than K recorded accesses are preferred for eviction over frames
// that have reached K, and ties within each group are broken by the oldest
// retained timestamp. This approximates "backward k-distance": a frame
// accessed many times recently is much less likely to be evicted than one
// that has only been touched once or twice.
type LRUKReplacer struct {
	mu               sync.Mutex
	k                int
	capacity         int
	currentTimestamp uint64
	evictableCount   int
	history          map[FrameID]*lruKHistory
}

// NewLRUKReplacer creates a replacer able to track up to numFrames distinct
// frames, each retaining at most k access timestamps.
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	return &LRUKReplacer{
		k:        k,
		capacity: numFrames,
		history:  make(map[FrameID]*lruKHistory),
	}
}

// RecordAccess appends the next logical timestamp to frameID's history,
// evicting the oldest entry first if the history is already full. If
// frameID is not yet tracked and the replacer has already reached capacity,
// the access is silently ignored.
func (r *LRUKReplacer) RecordAccess(frameID FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.history[frameID]
	if !ok {
		if len(r.history) >= r.capacity {
			return
		}
		h = &lruKHistory{}
		r.history[frameID] = h
	}

	if len(h.timestamps) == r.k {
		h.timestamps = h.timestamps[1:]
	}
	h.timestamps = append(h.timestamps, r.currentTimestamp)
	r.currentTimestamp++
}

// SetEvictable toggles whether frameID is a candidate for eviction. It is a
// no-op for an unknown frame. Size() is adjusted only on an actual
// true<->false transition.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.history[frameID]
	if !ok {
		return
	}
	if h.evictable == evictable {
		return
	}
	h.evictable = evictable
	if evictable {
		r.evictableCount++
	} else {
		r.evictableCount--
	}
}

// Evict selects the current victim frame under the LRU-K policy, drops all
// tracked state for it, and returns its id. The second return is false if
// no frame is currently evictable.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var victim FrameID
	var victimHist *lruKHistory
	found := false

	for frameID, h := range r.history {
		if !h.evictable {
			continue
		}
		if !found || r.beats(h, victimHist) {
			victim, victimHist = frameID, h
			found = true
		}
	}
	if !found {
		return 0, false
	}

	delete(r.history, victim)
	r.evictableCount--
	return victim, true
}

// beats reports whether candidate s is a better eviction target than the
// current best t, per the spec's victim comparison.
func (r *LRUKReplacer) beats(s, t *lruKHistory) bool {
	sBelowK := len(s.timestamps) < r.k
	tBelowK := len(t.timestamps) < r.k
	if sBelowK && !tBelowK {
		return true
	}
	if !sBelowK && tBelowK {
		return false
	}
	return s.timestamps[0] < t.timestamps[0]
}

// Remove drops all tracked state for frameID. It is a no-op if frameID is
// unknown, and panics if frameID is known but not currently evictable --
// callers must SetEvictable(frameID, true) (typically via UnpinPage) first.
func (r *LRUKReplacer) Remove(frameID FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.history[frameID]
	if !ok {
		return
	}
	common.Assert(h.evictable, "cannot remove a non-evictable frame from the replacer")
	delete(r.history, frameID)
	r.evictableCount--
}

// Size returns the number of frames currently marked evictable.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableCount
}
