package indexing

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
	"github.com/dsglabs/godb/transaction"
)

// offsetRootPageNum is where the header page (always page 0 of an index's object file) records the
// current root's page number, right after the page's own LSN field.
const offsetRootPageNum = 8

// DiskBTreeIndex is a disk-resident B+Tree index backed by a BufferPool. Every page of the index
// lives in the index's own ObjectID; page 0 is a header page holding the current root page number, so the
// tree survives restarts without any separate catalog bookkeeping.
//
// Structural changes (inserts and deletes that split or merge pages) are serialized by a single
// index-wide mutex rather than by crabbing latches down the tree page by page. This mirrors the
// buffer pool's own single-mutex simplification: correctness over fine-grained concurrency.
type DiskBTreeIndex struct {
	mu       sync.RWMutex
	bp       *storage.BufferPool
	oid      common.ObjectID
	metadata *IndexMetadata
}

// NewDiskBTreeIndex opens the B+Tree index stored in oid's object file, creating and initializing
// its header page if the file is brand new.
func NewDiskBTreeIndex(bp *storage.BufferPool, oid common.ObjectID, schema *storage.RawTupleDesc, projectionList []int) (*DiskBTreeIndex, error) {
	idx := &DiskBTreeIndex{
		bp:  bp,
		oid: oid,
		metadata: &IndexMetadata{
			KeySchema:      schema,
			ProjectionList: projectionList,
		},
	}

	file, err := bp.StorageManager().GetDBFile(oid)
	if err != nil {
		return nil, err
	}
	numPages, err := file.NumPages()
	if err != nil {
		return nil, err
	}
	if numPages == 0 {
		frame, err := bp.NewPage(oid)
		if err != nil {
			return nil, err
		}
		common.Assert(frame.PageID().PageNum == 0, "btree header page must be the first page allocated")
		invalidRoot := invalidPageNum
		binary.LittleEndian.PutUint32(frame.Bytes[offsetRootPageNum:], uint32(invalidRoot))
		bp.UnpinPage(frame, true)
	}
	return idx, nil
}

func (idx *DiskBTreeIndex) Metadata() *IndexMetadata {
	return idx.metadata
}

func (idx *DiskBTreeIndex) headerPageID() common.PageID {
	return common.PageID{Oid: idx.oid, PageNum: 0}
}

func (idx *DiskBTreeIndex) rootPageNum() (int32, error) {
	frame, err := idx.bp.FetchPage(idx.headerPageID())
	if err != nil {
		return invalidPageNum, err
	}
	root := int32(binary.LittleEndian.Uint32(frame.Bytes[offsetRootPageNum:]))
	idx.bp.UnpinPage(frame, false)
	return root, nil
}

func (idx *DiskBTreeIndex) setRootPageNum(n int32) error {
	frame, err := idx.bp.FetchPage(idx.headerPageID())
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(frame.Bytes[offsetRootPageNum:], uint32(n))
	idx.bp.UnpinPage(frame, true)
	return nil
}

func (idx *DiskBTreeIndex) pageID(pageNum int32) common.PageID {
	return common.PageID{Oid: idx.oid, PageNum: pageNum}
}

func frameHeader(frame *storage.PageFrame) btreePageHeader {
	return btreePageHeader{frame: frame}
}

// findLeaf descends from the root to the leaf that should contain key, leaving it pinned. It
// returns a nil frame if the tree is empty. Callers must hold idx.mu.
func (idx *DiskBTreeIndex) findLeaf(key Key) (*storage.PageFrame, *leafPage, error) {
	root, err := idx.rootPageNum()
	if err != nil {
		return nil, nil, err
	}
	if root == invalidPageNum {
		return nil, nil, nil
	}
	pageNum := root
	for {
		frame, err := idx.bp.FetchPage(idx.pageID(pageNum))
		if err != nil {
			return nil, nil, err
		}
		if frameHeader(frame).pageType() == btreePageTypeLeaf {
			return frame, asLeafPage(frame, idx.metadata), nil
		}
		internal := asInternalPage(frame, idx.metadata)
		next := internal.ChildFor(key)
		idx.bp.UnpinPage(frame, false)
		pageNum = next
	}
}

func (idx *DiskBTreeIndex) leftmostLeafFrom(pageNum int32) (*storage.PageFrame, error) {
	for {
		frame, err := idx.bp.FetchPage(idx.pageID(pageNum))
		if err != nil {
			return nil, err
		}
		if frameHeader(frame).pageType() == btreePageTypeLeaf {
			return frame, nil
		}
		next := asInternalPage(frame, idx.metadata).ChildAt(0)
		idx.bp.UnpinPage(frame, false)
		pageNum = next
	}
}

func (idx *DiskBTreeIndex) rightmostLeafFrom(pageNum int32) (*storage.PageFrame, error) {
	for {
		frame, err := idx.bp.FetchPage(idx.pageID(pageNum))
		if err != nil {
			return nil, err
		}
		if frameHeader(frame).pageType() == btreePageTypeLeaf {
			return frame, nil
		}
		internal := asInternalPage(frame, idx.metadata)
		next := internal.ChildAt(internal.size() - 1)
		idx.bp.UnpinPage(frame, false)
		pageNum = next
	}
}

// prevLeafOf finds the leaf immediately to the left of the one resident in frame, by walking up to
// the first ancestor where frame's subtree isn't the leftmost child, then descending into the
// rightmost leaf of the sibling subtree just to its left. Returns a nil frame if there is none. The
// leaf chain only links forward, so backward scans rely on this instead of a reverse pointer.
func (idx *DiskBTreeIndex) prevLeafOf(frame *storage.PageFrame) (*storage.PageFrame, error) {
	pageNum := frame.PageID().PageNum
	parentNum := frameHeader(frame).parentPageNum()
	for parentNum != invalidPageNum {
		parentFrame, err := idx.bp.FetchPage(idx.pageID(parentNum))
		if err != nil {
			return nil, err
		}
		parent := asInternalPage(parentFrame, idx.metadata)
		childIdx := parent.indexOfChild(pageNum)
		if childIdx > 0 {
			leftSibling := parent.ChildAt(childIdx - 1)
			idx.bp.UnpinPage(parentFrame, false)
			return idx.rightmostLeafFrom(leftSibling)
		}
		pageNum = parentNum
		parentNum = parent.parentPageNum()
		idx.bp.UnpinPage(parentFrame, false)
	}
	return nil, nil
}

func (idx *DiskBTreeIndex) reparentOne(childPageNum int32, newParentPageNum int32) error {
	childFrame, err := idx.bp.FetchPage(idx.pageID(childPageNum))
	if err != nil {
		return err
	}
	frameHeader(childFrame).setParentPageNum(newParentPageNum)
	idx.bp.UnpinPage(childFrame, true)
	return nil
}

func (idx *DiskBTreeIndex) reparentChildren(parent *internalPage, newParentPageNum int32) error {
	for i := 0; i < parent.size(); i++ {
		if err := idx.reparentOne(parent.ChildAt(i), newParentPageNum); err != nil {
			return err
		}
	}
	return nil
}

// insertIntoParent links rightFrame into the tree as the new sibling immediately after leftFrame,
// separated by sepKey, splitting ancestors as needed. leftFrame and rightFrame must already be
// pinned by the caller, which retains ownership of unpinning them; insertIntoParent only
// pins/unpins the ancestor frames it fetches itself.
func (idx *DiskBTreeIndex) insertIntoParent(leftFrame *storage.PageFrame, sepKey Key, rightFrame *storage.PageFrame) error {
	leftPageNum := leftFrame.PageID().PageNum
	rightPageNum := rightFrame.PageID().PageNum
	parentNum := frameHeader(leftFrame).parentPageNum()

	if parentNum == invalidPageNum {
		newRootFrame, err := idx.bp.NewPage(idx.oid)
		if err != nil {
			return err
		}
		newRoot := initInternalPage(newRootFrame, idx.metadata, invalidPageNum)
		newRoot.InitRoot(leftPageNum, rightPageNum, sepKey)
		newRootPageNum := newRootFrame.PageID().PageNum
		frameHeader(leftFrame).setParentPageNum(newRootPageNum)
		frameHeader(rightFrame).setParentPageNum(newRootPageNum)
		if err := idx.setRootPageNum(newRootPageNum); err != nil {
			idx.bp.UnpinPage(newRootFrame, true)
			return err
		}
		idx.bp.UnpinPage(newRootFrame, true)
		return nil
	}

	parentFrame, err := idx.bp.FetchPage(idx.pageID(parentNum))
	if err != nil {
		return err
	}
	parent := asInternalPage(parentFrame, idx.metadata)
	childIdx := parent.indexOfChild(leftPageNum)

	if !parent.isFull() {
		parent.InsertAfter(childIdx, sepKey, rightPageNum)
		frameHeader(rightFrame).setParentPageNum(parentNum)
		idx.bp.UnpinPage(parentFrame, true)
		return nil
	}

	siblingFrame, err := idx.bp.NewPage(idx.oid)
	if err != nil {
		idx.bp.UnpinPage(parentFrame, false)
		return err
	}
	sibling := initInternalPage(siblingFrame, idx.metadata, parent.parentPageNum())
	upKey := parent.InsertAfterWithSplit(childIdx, sepKey, rightPageNum, sibling)

	if err := idx.reparentChildren(sibling, siblingFrame.PageID().PageNum); err != nil {
		idx.bp.UnpinPage(parentFrame, true)
		idx.bp.UnpinPage(siblingFrame, true)
		return err
	}

	err = idx.insertIntoParent(parentFrame, upKey, siblingFrame)
	idx.bp.UnpinPage(parentFrame, true)
	idx.bp.UnpinPage(siblingFrame, true)
	return err
}

func (idx *DiskBTreeIndex) InsertEntry(key Key, rid common.RecordID, txn *transaction.Transaction) error {
	common.Assert(key.schema == idx.metadata.KeySchema, "Key schema mismatch")
	idx.mu.Lock()
	defer idx.mu.Unlock()

	root, err := idx.rootPageNum()
	if err != nil {
		return err
	}

	if root == invalidPageNum {
		frame, err := idx.bp.NewPage(idx.oid)
		if err != nil {
			return err
		}
		leaf := initLeafPage(frame, idx.metadata, invalidPageNum)
		leaf.Insert(key, rid)
		pageNum := frame.PageID().PageNum
		idx.bp.UnpinPage(frame, true)
		return idx.setRootPageNum(pageNum)
	}

	leafFrame, leaf, err := idx.findLeaf(key)
	if err != nil {
		return err
	}

	if !leaf.isFull() {
		leaf.Insert(key, rid)
		idx.bp.UnpinPage(leafFrame, true)
		return nil
	}

	siblingFrame, err := idx.bp.NewPage(idx.oid)
	if err != nil {
		idx.bp.UnpinPage(leafFrame, true)
		return err
	}
	sibling := initLeafPage(siblingFrame, idx.metadata, leaf.parentPageNum())
	sepKey := leaf.SplitWithInsert(key, rid, sibling)
	leaf.setNextLeafPageNum(siblingFrame.PageID().PageNum)

	err = idx.insertIntoParent(leafFrame, sepKey, siblingFrame)
	idx.bp.UnpinPage(leafFrame, true)
	idx.bp.UnpinPage(siblingFrame, true)
	return err
}

func (idx *DiskBTreeIndex) DeleteEntry(key Key, rid common.RecordID, txn *transaction.Transaction) error {
	common.Assert(key.schema == idx.metadata.KeySchema, "Key schema mismatch")
	idx.mu.Lock()
	defer idx.mu.Unlock()

	root, err := idx.rootPageNum()
	if err != nil {
		return err
	}
	if root == invalidPageNum {
		return nil
	}

	leafFrame, leaf, err := idx.findLeaf(key)
	if err != nil {
		return err
	}

	if !leaf.Delete(key, rid) {
		idx.bp.UnpinPage(leafFrame, false)
		return nil
	}

	return idx.handleUnderflow(leafFrame)
}

// handleUnderflow restores minimum-occupancy by borrowing from or merging with a sibling, cascading
// up the tree as far as needed. It always takes ownership of unpinning frame (and, when it recurses,
// the parent frame it fetched) before returning.
func (idx *DiskBTreeIndex) handleUnderflow(frame *storage.PageFrame) error {
	header := frameHeader(frame)
	pageNum := frame.PageID().PageNum
	parentNum := header.parentPageNum()

	if parentNum == invalidPageNum {
		if header.pageType() == btreePageTypeInternal {
			internal := asInternalPage(frame, idx.metadata)
			if internal.size() == 1 {
				onlyChild := internal.ChildAt(0)
				idx.bp.UnpinPage(frame, true)
				if err := idx.setRootPageNum(onlyChild); err != nil {
					return err
				}
				if err := idx.bp.DeletePage(idx.pageID(pageNum)); err != nil {
					return err
				}
				return idx.reparentOne(onlyChild, invalidPageNum)
			}
		} else {
			leaf := asLeafPage(frame, idx.metadata)
			if leaf.size() == 0 {
				idx.bp.UnpinPage(frame, true)
				if err := idx.setRootPageNum(invalidPageNum); err != nil {
					return err
				}
				return idx.bp.DeletePage(idx.pageID(pageNum))
			}
		}
		idx.bp.UnpinPage(frame, true)
		return nil
	}

	if header.size() >= header.minSize() {
		idx.bp.UnpinPage(frame, true)
		return nil
	}

	parentFrame, err := idx.bp.FetchPage(idx.pageID(parentNum))
	if err != nil {
		idx.bp.UnpinPage(frame, true)
		return err
	}
	parent := asInternalPage(parentFrame, idx.metadata)
	childIdx := parent.indexOfChild(pageNum)

	var leftSibFrame, rightSibFrame *storage.PageFrame
	if childIdx > 0 {
		leftSibFrame, err = idx.bp.FetchPage(idx.pageID(parent.ChildAt(childIdx - 1)))
		if err != nil {
			idx.bp.UnpinPage(frame, true)
			idx.bp.UnpinPage(parentFrame, false)
			return err
		}
	}
	if childIdx < parent.size()-1 {
		rightSibFrame, err = idx.bp.FetchPage(idx.pageID(parent.ChildAt(childIdx + 1)))
		if err != nil {
			idx.bp.UnpinPage(frame, true)
			idx.bp.UnpinPage(parentFrame, false)
			if leftSibFrame != nil {
				idx.bp.UnpinPage(leftSibFrame, false)
			}
			return err
		}
	}

	isLeaf := header.pageType() == btreePageTypeLeaf

	switch {
	case leftSibFrame != nil && frameHeader(leftSibFrame).size() > frameHeader(leftSibFrame).minSize():
		var newSep Key
		if isLeaf {
			newSep = asLeafPage(frame, idx.metadata).BorrowFromLeft(asLeafPage(leftSibFrame, idx.metadata))
		} else {
			oldSep := parent.KeyAt(childIdx - 1)
			frameInternal := asInternalPage(frame, idx.metadata)
			newSep = frameInternal.BorrowFromLeft(asInternalPage(leftSibFrame, idx.metadata), oldSep)
			if err := idx.reparentOne(frameInternal.ChildAt(0), pageNum); err != nil {
				idx.bp.UnpinPage(frame, true)
				idx.bp.UnpinPage(leftSibFrame, true)
				idx.bp.UnpinPage(parentFrame, false)
				if rightSibFrame != nil {
					idx.bp.UnpinPage(rightSibFrame, false)
				}
				return err
			}
		}
		parent.setKeyAt(childIdx-1, newSep)
		idx.bp.UnpinPage(leftSibFrame, true)
		if rightSibFrame != nil {
			idx.bp.UnpinPage(rightSibFrame, false)
		}
		idx.bp.UnpinPage(frame, true)
		idx.bp.UnpinPage(parentFrame, true)
		return nil

	case rightSibFrame != nil && frameHeader(rightSibFrame).size() > frameHeader(rightSibFrame).minSize():
		var newSep Key
		if isLeaf {
			newSep = asLeafPage(frame, idx.metadata).BorrowFromRight(asLeafPage(rightSibFrame, idx.metadata))
		} else {
			oldSep := parent.KeyAt(childIdx)
			rightInternal := asInternalPage(rightSibFrame, idx.metadata)
			newSep = asInternalPage(frame, idx.metadata).BorrowFromRight(rightInternal, oldSep)
			movedChild := asInternalPage(frame, idx.metadata).ChildAt(asInternalPage(frame, idx.metadata).size() - 1)
			if err := idx.reparentOne(movedChild, pageNum); err != nil {
				idx.bp.UnpinPage(frame, true)
				idx.bp.UnpinPage(rightSibFrame, true)
				idx.bp.UnpinPage(parentFrame, false)
				if leftSibFrame != nil {
					idx.bp.UnpinPage(leftSibFrame, false)
				}
				return err
			}
		}
		parent.setKeyAt(childIdx, newSep)
		idx.bp.UnpinPage(rightSibFrame, true)
		if leftSibFrame != nil {
			idx.bp.UnpinPage(leftSibFrame, false)
		}
		idx.bp.UnpinPage(frame, true)
		idx.bp.UnpinPage(parentFrame, true)
		return nil

	case leftSibFrame != nil:
		if isLeaf {
			asLeafPage(leftSibFrame, idx.metadata).Merge(asLeafPage(frame, idx.metadata))
		} else {
			parentSep := parent.KeyAt(childIdx - 1)
			leftInternal := asInternalPage(leftSibFrame, idx.metadata)
			leftInternal.Merge(asInternalPage(frame, idx.metadata), parentSep)
			if err := idx.reparentChildren(leftInternal, leftSibFrame.PageID().PageNum); err != nil {
				idx.bp.UnpinPage(frame, true)
				idx.bp.UnpinPage(leftSibFrame, true)
				idx.bp.UnpinPage(parentFrame, false)
				if rightSibFrame != nil {
					idx.bp.UnpinPage(rightSibFrame, false)
				}
				return err
			}
		}
		parent.DeleteChildAt(childIdx)
		if rightSibFrame != nil {
			idx.bp.UnpinPage(rightSibFrame, false)
		}
		idx.bp.UnpinPage(leftSibFrame, true)
		idx.bp.UnpinPage(frame, true)
		if err := idx.bp.DeletePage(idx.pageID(pageNum)); err != nil {
			idx.bp.UnpinPage(parentFrame, true)
			return err
		}
		return idx.handleUnderflow(parentFrame)

	default:
		if isLeaf {
			asLeafPage(frame, idx.metadata).Merge(asLeafPage(rightSibFrame, idx.metadata))
		} else {
			parentSep := parent.KeyAt(childIdx)
			frameInternal := asInternalPage(frame, idx.metadata)
			frameInternal.Merge(asInternalPage(rightSibFrame, idx.metadata), parentSep)
			if err := idx.reparentChildren(frameInternal, pageNum); err != nil {
				idx.bp.UnpinPage(frame, true)
				idx.bp.UnpinPage(rightSibFrame, true)
				idx.bp.UnpinPage(parentFrame, false)
				return err
			}
		}
		rightPageNum := rightSibFrame.PageID().PageNum
		parent.DeleteChildAt(childIdx + 1)
		idx.bp.UnpinPage(rightSibFrame, true)
		idx.bp.UnpinPage(frame, true)
		if err := idx.bp.DeletePage(idx.pageID(rightPageNum)); err != nil {
			idx.bp.UnpinPage(parentFrame, true)
			return err
		}
		return idx.handleUnderflow(parentFrame)
	}
}

// ScanKey collects every RecordID stored under key. B+Tree keys are not required to be unique, so
// matching entries are contiguous within a leaf and may spill into the next leaf in the chain.
func (idx *DiskBTreeIndex) ScanKey(key Key, output []common.RecordID, txn *transaction.Transaction) ([]common.RecordID, error) {
	common.Assert(key.schema == idx.metadata.KeySchema, "Key schema mismatch")
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	frame, leaf, err := idx.findLeaf(key)
	if err != nil {
		return output, err
	}
	if frame == nil {
		return output, nil
	}

	for {
		i := leaf.findIndex(key)
		ranOffEnd := true
		for ; i < leaf.size(); i++ {
			if leaf.KeyAt(i).Compare(key) != 0 {
				ranOffEnd = false
				break
			}
			output = append(output, leaf.ValueAt(i))
		}
		nextNum := leaf.nextLeafPageNum()
		idx.bp.UnpinPage(frame, false)
		if !ranOffEnd || nextNum == invalidPageNum {
			return output, nil
		}
		frame, err = idx.bp.FetchPage(idx.pageID(nextNum))
		if err != nil {
			return output, err
		}
		leaf = asLeafPage(frame, idx.metadata)
	}
}

// Scan returns an iterator over the leaf chain starting at start (or an end, for a NilKey start).
// The returned iterator holds the index's read lock until Close is called: concurrent structural
// changes are blocked for the life of an open scan, trading concurrency for simplicity.
func (idx *DiskBTreeIndex) Scan(start Key, direction ScanDirection, txn *transaction.Transaction) (ScanIterator, error) {
	common.Assert(start.IsNil() || start.schema == idx.metadata.KeySchema, "Key schema mismatch")
	idx.mu.RLock()

	it := &DiskBTreeIndexIterator{idx: idx, direction: direction}

	root, err := idx.rootPageNum()
	if err != nil {
		idx.mu.RUnlock()
		return nil, err
	}
	if root == invalidPageNum {
		return it, nil
	}

	if direction == ScanDirectionForward {
		if start.IsNil() {
			frame, err := idx.leftmostLeafFrom(root)
			if err != nil {
				idx.mu.RUnlock()
				return nil, err
			}
			it.frame, it.leaf, it.i = frame, asLeafPage(frame, idx.metadata), 0
		} else {
			frame, leaf, err := idx.findLeaf(start)
			if err != nil {
				idx.mu.RUnlock()
				return nil, err
			}
			it.frame, it.leaf, it.i = frame, leaf, leaf.findIndex(start)
		}
	} else {
		if start.IsNil() {
			frame, err := idx.rightmostLeafFrom(root)
			if err != nil {
				idx.mu.RUnlock()
				return nil, err
			}
			leaf := asLeafPage(frame, idx.metadata)
			it.frame, it.leaf, it.i = frame, leaf, leaf.size()-1
		} else {
			frame, leaf, err := idx.findLeaf(start)
			if err != nil {
				idx.mu.RUnlock()
				return nil, err
			}
			// i is just past the last entry <= start, so a run of keys equal to start is
			// entered at its end.
			i := sort.Search(leaf.size(), func(j int) bool { return leaf.KeyAt(j).Compare(start) > 0 })
			if i > 0 {
				it.frame, it.leaf, it.i = frame, leaf, i-1
			} else {
				prevFrame, err := idx.prevLeafOf(frame)
				idx.bp.UnpinPage(frame, false)
				if err != nil {
					idx.mu.RUnlock()
					return nil, err
				}
				if prevFrame != nil {
					prevLeaf := asLeafPage(prevFrame, idx.metadata)
					it.frame, it.leaf, it.i = prevFrame, prevLeaf, prevLeaf.size()-1
				}
			}
		}
	}
	return it, nil
}

// DiskBTreeIndexIterator walks the leaf chain of a DiskBTreeIndex in either direction.
type DiskBTreeIndexIterator struct {
	idx       *DiskBTreeIndex
	frame     *storage.PageFrame
	leaf      *leafPage
	i         int
	direction ScanDirection
	started   bool
	closed    bool
	err       error
}

func (it *DiskBTreeIndexIterator) Next() bool {
	if it.err != nil || it.frame == nil {
		return false
	}
	if !it.started {
		it.started = true
		if it.direction == ScanDirectionBackward || it.i < it.leaf.size() {
			return it.i >= 0 && it.i < it.leaf.size()
		}
		// A forward start past the last key of its leaf continues in the next leaf.
		it.i = it.leaf.size() - 1
	}

	if it.direction == ScanDirectionForward {
		it.i++
		if it.i < it.leaf.size() {
			return true
		}
		nextNum := it.leaf.nextLeafPageNum()
		it.idx.bp.UnpinPage(it.frame, false)
		if nextNum == invalidPageNum {
			it.frame = nil
			return false
		}
		frame, err := it.idx.bp.FetchPage(it.idx.pageID(nextNum))
		if err != nil {
			it.err = err
			it.frame = nil
			return false
		}
		it.frame = frame
		it.leaf = asLeafPage(frame, it.idx.metadata)
		it.i = 0
		return it.leaf.size() > 0
	}

	it.i--
	if it.i >= 0 {
		return true
	}
	prevFrame, err := it.idx.prevLeafOf(it.frame)
	it.idx.bp.UnpinPage(it.frame, false)
	if err != nil {
		it.err = err
		it.frame = nil
		return false
	}
	if prevFrame == nil {
		it.frame = nil
		return false
	}
	it.frame = prevFrame
	it.leaf = asLeafPage(prevFrame, it.idx.metadata)
	it.i = it.leaf.size() - 1
	return it.i >= 0
}

func (it *DiskBTreeIndexIterator) Key() Key {
	return it.leaf.KeyAt(it.i)
}

func (it *DiskBTreeIndexIterator) Value() common.RecordID {
	return it.leaf.ValueAt(it.i)
}

func (it *DiskBTreeIndexIterator) Error() error {
	return it.err
}

func (it *DiskBTreeIndexIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if it.frame != nil {
		it.idx.bp.UnpinPage(it.frame, false)
		it.frame = nil
	}
	it.idx.mu.RUnlock()
	return nil
}
