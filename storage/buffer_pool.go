package storage

import (
	"sync"

	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/container/hash"
)

// defaultReplacerK is the K used by the LRU-K replacer backing every BufferPool. Lower values
// approach plain LRU; the buffer pool does not need this tunable exposed at construction time.
const defaultReplacerK = 2

// pageIDHash adapts common.PageID's on-disk encoding to the generic hash.Table's hash function
// requirement, reusing the FNV-1a implementation the rest of the codebase already hashes with.
func pageIDHash(id common.PageID) uint64 {
	var buf [common.PageIDSize]byte
	id.WriteTo(buf[:])
	return common.Hash(buf[:])
}

// directoryBucketSize is the extendible hash directory's per-bucket capacity. It only bounds how
// often a bucket splits, not how many pages the pool can hold.
const directoryBucketSize = 4

// BufferPool manages the reading and writing of database pages between the DiskFileManager and
// memory. It keeps a fixed number of frames, uses an LRU-K replacer to pick eviction victims among
// unpinned frames, and tracks the page->frame mapping in an extendible hash directory. All
// bookkeeping is guarded by a single pool-wide mutex; callers coordinate access to a frame's
// contents with the frame's own PageLatch.
type BufferPool struct {
	mu             sync.Mutex
	storageManager DBFileManager
	frames         []PageFrame
	freeList       []FrameID
	pageTable      *hash.Table[common.PageID, FrameID]
	replacer       *LRUKReplacer
}

// NewBufferPool creates a new BufferPool with a fixed capacity defined by numPages. It requires a
// storageManager to handle the underlying disk I/O operations.
func NewBufferPool(numPages int, storageManager DBFileManager) *BufferPool {
	bp := &BufferPool{
		storageManager: storageManager,
		frames:         make([]PageFrame, numPages),
		freeList:       make([]FrameID, numPages),
		pageTable:      hash.New[common.PageID, FrameID](directoryBucketSize, pageIDHash),
		replacer:       NewLRUKReplacer(numPages, defaultReplacerK),
	}
	for i := range bp.frames {
		bp.frames[i].id = FrameID(i)
		bp.freeList[i] = FrameID(i)
	}
	return bp
}

// StorageManager returns the underlying disk manager.
func (bp *BufferPool) StorageManager() DBFileManager {
	return bp.storageManager
}

// acquireFrame returns a frame ready to be repurposed: either a free frame, or the least valuable
// unpinned frame per the LRU-K replacer, flushed to disk first if dirty. Callers must hold bp.mu.
func (bp *BufferPool) acquireFrame() (*PageFrame, error) {
	if len(bp.freeList) > 0 {
		id := bp.freeList[0]
		bp.freeList = bp.freeList[1:]
		return &bp.frames[id], nil
	}

	victimID, ok := bp.replacer.Evict()
	if !ok {
		return nil, common.GoDBError{Code: common.PoolExhaustedError, ErrString: "buffer pool exhausted: no unpinned frame available for eviction"}
	}
	victim := &bp.frames[victimID]
	if victim.dirty {
		if err := bp.flushFrameLocked(victim); err != nil {
			return nil, err
		}
	}
	bp.pageTable.Remove(victim.pageID)
	return victim, nil
}

// NewPage allocates a fresh page in the object identified by oid, pins it in a frame, and returns
// the (zeroed) frame. The page's on-disk slot is reserved via the storage manager's own
// monotonically increasing page allocator, so no separate page-id counter is kept here.
func (bp *BufferPool) NewPage(oid common.ObjectID) (*PageFrame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	file, err := bp.storageManager.GetDBFile(oid)
	if err != nil {
		return nil, err
	}
	pageNum, err := file.AllocatePage(1)
	if err != nil {
		return nil, err
	}

	frame, err := bp.acquireFrame()
	if err != nil {
		return nil, err
	}

	pageID := common.PageID{Oid: oid, PageNum: int32(pageNum)}
	for i := range frame.Bytes {
		frame.Bytes[i] = 0
	}
	frame.pageID = pageID
	frame.pinCount = 1
	frame.dirty = false

	bp.pageTable.Insert(pageID, frame.id)
	bp.replacer.RecordAccess(frame.id)
	bp.replacer.SetEvictable(frame.id, false)
	return frame, nil
}

// FetchPage retrieves a page from the buffer pool, ensuring it is pinned (i.e. prevented from
// eviction until unpinned) and ready for use. If the page is already resident, the cached frame is
// returned directly. Otherwise a frame is acquired (evicting a victim if the pool is full) and the
// page is read in from disk. An invalid page id (nil ObjectID or negative page number) trips an
// assertion.
func (bp *BufferPool) FetchPage(pageID common.PageID) (*PageFrame, error) {
	common.Assert(!pageID.IsNil() && pageID.PageNum >= 0, "FetchPage: invalid page id")
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if frameID, ok := bp.pageTable.Find(pageID); ok {
		frame := &bp.frames[frameID]
		frame.pinCount++
		bp.replacer.RecordAccess(frameID)
		bp.replacer.SetEvictable(frameID, false)
		return frame, nil
	}

	file, err := bp.storageManager.GetDBFile(pageID.Oid)
	if err != nil {
		return nil, err
	}

	frame, err := bp.acquireFrame()
	if err != nil {
		return nil, err
	}

	if err := file.ReadPage(int(pageID.PageNum), frame.Bytes[:]); err != nil {
		bp.freeList = append(bp.freeList, frame.id)
		return nil, err
	}

	frame.pageID = pageID
	frame.pinCount = 1
	frame.dirty = false

	bp.pageTable.Insert(pageID, frame.id)
	bp.replacer.RecordAccess(frame.id)
	bp.replacer.SetEvictable(frame.id, false)
	return frame, nil
}

// UnpinPage indicates that the caller is done using a page. It decrements the pin count, and once
// the count reaches zero the frame becomes a candidate for eviction. If setDirty is true, the page
// is marked as modified, ensuring it will be written back to disk before eviction or on the next
// flush.
func (bp *BufferPool) UnpinPage(frame *PageFrame, setDirty bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	common.Assert(frame.pinCount > 0, "attempting to unpin a page that is not pinned")
	frame.pinCount--
	if setDirty {
		frame.dirty = true
	}
	if frame.pinCount == 0 {
		bp.replacer.SetEvictable(frame.id, true)
	}
}

// flushFrameLocked writes frame's contents to disk unconditionally and clears its dirty flag.
// Callers must hold bp.mu.
func (bp *BufferPool) flushFrameLocked(frame *PageFrame) error {
	file, err := bp.storageManager.GetDBFile(frame.pageID.Oid)
	if err != nil {
		return err
	}
	if err := file.WritePage(int(frame.pageID.PageNum), frame.Bytes[:]); err != nil {
		return err
	}
	frame.dirty = false
	return nil
}

// FlushPage writes pageID's frame to disk unconditionally, regardless of pin count or dirty status,
// and clears that page's own dirty flag. It is a no-op if pageID is not currently resident.
func (bp *BufferPool) FlushPage(pageID common.PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameID, ok := bp.pageTable.Find(pageID)
	if !ok {
		return nil
	}
	return bp.flushFrameLocked(&bp.frames[frameID])
}

// FlushAllPages writes every resident page to disk, dirty or not and regardless of pins, and clears
// each one's dirty flag. This is typically called during a checkpoint or shutdown to ensure
// durability.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for i := range bp.frames {
		frame := &bp.frames[i]
		if frame.pageID.IsNil() {
			continue
		}
		if err := bp.flushFrameLocked(frame); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes pageID from the pool, flushing it first if dirty, and returns its frame to the
// free list. It refuses to delete a page that is still pinned. Deleting a page that is not currently
// resident in the pool is a no-op that returns nil. The page is not deallocated in its DBFile: the
// file keeps it, and AllocatePage never hands its page number out again.
func (bp *BufferPool) DeletePage(pageID common.PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameID, ok := bp.pageTable.Find(pageID)
	if !ok {
		return nil
	}

	frame := &bp.frames[frameID]
	if frame.pinCount > 0 {
		return common.GoDBError{Code: common.PagePinnedError, ErrString: "cannot delete a pinned page: " + pageID.String()}
	}

	if frame.dirty {
		if err := bp.flushFrameLocked(frame); err != nil {
			return err
		}
	}

	bp.pageTable.Remove(pageID)
	bp.replacer.Remove(frameID)
	frame.pageID = common.PageID{}
	frame.dirty = false
	bp.freeList = append(bp.freeList, frameID)
	return nil
}
