package indexing

import (
	"encoding/binary"
	"sort"

	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
)

// internalPage is a disk-resident B+Tree internal node: `size` child page numbers separated by
// `size`-1 keys. Child i holds every key less than keys[i] (for i < size-1) or every key >=
// keys[size-2] (for the last child).
type internalPage struct {
	btreePageHeader
	md *IndexMetadata
}

// internalMaxSize returns the largest number of children a single page can hold.
func internalMaxSize(md *IndexMetadata) int {
	keySize := keyBytesFor(md)
	avail := common.PageSize - btreePageHeaderSize
	// order*4 + (order-1)*keySize <= avail
	order := (avail + keySize) / (4 + keySize)
	if order < 2 {
		order = 2
	}
	return order
}

func initInternalPage(frame *storage.PageFrame, md *IndexMetadata, parentPageNum int32) *internalPage {
	p := &internalPage{btreePageHeader: btreePageHeader{frame: frame}, md: md}
	p.setPageType(btreePageTypeInternal)
	p.setSize(0)
	p.setMaxSize(internalMaxSize(md))
	p.setParentPageNum(parentPageNum)
	return p
}

func asInternalPage(frame *storage.PageFrame, md *IndexMetadata) *internalPage {
	p := &internalPage{btreePageHeader: btreePageHeader{frame: frame}, md: md}
	common.Assert(p.pageType() == btreePageTypeInternal, "frame is not an internal page")
	return p
}

func (p *internalPage) childOffset(i int) int {
	return btreePageHeaderSize + i*4
}

func (p *internalPage) keysOffset() int {
	return btreePageHeaderSize + p.maxSize()*4
}

func (p *internalPage) keyOffset(i int) int {
	return p.keysOffset() + i*keyBytesFor(p.md)
}

// numKeys is the number of separator keys currently in use: one fewer than the child count.
func (p *internalPage) numKeys() int {
	if p.size() == 0 {
		return 0
	}
	return p.size() - 1
}

func (p *internalPage) ChildAt(i int) int32 {
	off := p.childOffset(i)
	return int32(binary.LittleEndian.Uint32(p.frame.Bytes[off:]))
}

func (p *internalPage) setChildAt(i int, pageNum int32) {
	off := p.childOffset(i)
	binary.LittleEndian.PutUint32(p.frame.Bytes[off:], uint32(pageNum))
}

func (p *internalPage) KeyAt(i int) Key {
	off := p.keyOffset(i)
	raw := p.frame.Bytes[off : off+p.md.KeySize()]
	return Key{RawTuple: storage.RawTuple(raw), schema: p.md.KeySchema}
}

func (p *internalPage) setKeyAt(i int, key Key) {
	off := p.keyOffset(i)
	copy(p.frame.Bytes[off:off+p.md.KeySize()], key.RawTuple)
}

// InitRoot sets up a brand new root with exactly two children and one separator key, used the
// first time the tree's root splits.
func (p *internalPage) InitRoot(leftChild, rightChild int32, sep Key) {
	p.setChildAt(0, leftChild)
	p.setChildAt(1, rightChild)
	p.setKeyAt(0, sep)
	p.setSize(2)
}

// Lookup returns the index of the child that should contain key.
func (p *internalPage) Lookup(key Key) int {
	n := p.numKeys()
	idx := sort.Search(n, func(i int) bool {
		return p.KeyAt(i).Compare(key) > 0
	})
	return idx
}

// ChildFor returns the page number of the child that should contain key.
func (p *internalPage) ChildFor(key Key) int32 {
	return p.ChildAt(p.Lookup(key))
}

// indexOfChild returns the slot index of the given child page number.
func (p *internalPage) indexOfChild(childPageNum int32) int {
	for i := 0; i < p.size(); i++ {
		if p.ChildAt(i) == childPageNum {
			return i
		}
	}
	common.Assert(false, "child page not found in parent")
	return -1
}

func (p *internalPage) shiftChildrenRight(from int) {
	for i := p.size(); i > from; i-- {
		p.setChildAt(i, p.ChildAt(i-1))
	}
}

func (p *internalPage) shiftKeysRight(from int) {
	for i := p.numKeys(); i > from; i-- {
		p.setKeyAt(i, p.KeyAt(i-1))
	}
}

// InsertAfter inserts a new (sep, rightChild) pair immediately after the child at childIdx,
// pushing every later key and child up by one slot. Caller must ensure there is room.
func (p *internalPage) InsertAfter(childIdx int, sep Key, rightChild int32) {
	p.shiftChildrenRight(childIdx + 1)
	p.setChildAt(childIdx+1, rightChild)
	p.shiftKeysRight(childIdx)
	p.setKeyAt(childIdx, sep)
	p.setSize(p.size() + 1)
}

// DeleteChildAt removes the child at index idx and the separator key that routes to it (the key
// at idx-1 if idx > 0, else the key at 0).
func (p *internalPage) DeleteChildAt(idx int) {
	keyIdx := idx
	if keyIdx > 0 {
		keyIdx = idx - 1
	}
	for i := idx; i < p.size()-1; i++ {
		p.setChildAt(i, p.ChildAt(i+1))
	}
	for i := keyIdx; i < p.numKeys()-1; i++ {
		p.setKeyAt(i, p.KeyAt(i+1))
	}
	p.setSize(p.size() - 1)
}

// InsertAfterWithSplit inserts a new (sep, rightChild) pair after childIdx into a parent that is
// already at capacity. It builds an overflow buffer one entry larger than the page can physically
// hold, then writes the lower half back into p and the upper half into sibling (a freshly
// initialized empty internal page). The separator key that moves up into the grandparent -- removed
// from both p and sibling -- is returned.
func (p *internalPage) InsertAfterWithSplit(childIdx int, sep Key, rightChild int32, sibling *internalPage) Key {
	n := p.size()

	children := make([]int32, n, n+1)
	for i := 0; i < n; i++ {
		children[i] = p.ChildAt(i)
	}
	children = append(children, 0)
	copy(children[childIdx+2:], children[childIdx+1:n+1])
	children[childIdx+1] = rightChild

	keys := make([]Key, n-1, n)
	for i := 0; i < n-1; i++ {
		keys[i] = p.KeyAt(i).DeepCopy()
	}
	keys = append(keys, Key{})
	copy(keys[childIdx+1:], keys[childIdx:n-1])
	keys[childIdx] = sep

	total := len(children)
	mid := total / 2
	upKey := keys[mid-1]

	for i := 0; i < mid; i++ {
		p.setChildAt(i, children[i])
	}
	for i := 0; i < mid-1; i++ {
		p.setKeyAt(i, keys[i])
	}
	p.setSize(mid)

	for i := mid; i < total; i++ {
		sibling.setChildAt(i-mid, children[i])
	}
	for i := mid; i < len(keys); i++ {
		sibling.setKeyAt(i-mid, keys[i])
	}
	sibling.setSize(total - mid)

	return upKey
}

// Merge appends right's children and keys onto p, with parentSepKey becoming the new separator
// between p's old last child and right's first child. right is left empty.
func (p *internalPage) Merge(right *internalPage, parentSepKey Key) {
	base := p.size()
	p.setKeyAt(base-1, parentSepKey)
	for i := 0; i < right.size(); i++ {
		p.setChildAt(base+i, right.ChildAt(i))
	}
	for i := 0; i < right.numKeys(); i++ {
		p.setKeyAt(base+i, right.KeyAt(i))
	}
	p.setSize(base + right.size())
}

// BorrowFromLeft moves left's last child onto the front of p. parentSepKey is the key in the
// parent that currently separates left from p; it becomes p's first key, and the key that moves up
// to replace it in the parent (left's last key) is returned.
func (p *internalPage) BorrowFromLeft(left *internalPage, parentSepKey Key) Key {
	lastChildIdx := left.size() - 1
	borrowedChild := left.ChildAt(lastChildIdx)
	newParentSep := left.KeyAt(lastChildIdx - 1)
	left.setSize(lastChildIdx)

	p.shiftChildrenRight(0)
	p.setChildAt(0, borrowedChild)
	p.shiftKeysRight(0)
	p.setKeyAt(0, parentSepKey)
	p.setSize(p.size() + 1)
	return newParentSep
}

// BorrowFromRight moves right's first child onto the end of p. parentSepKey becomes p's new last
// key, and right's old first key (the new parent separator) is returned.
func (p *internalPage) BorrowFromRight(right *internalPage, parentSepKey Key) Key {
	borrowedChild := right.ChildAt(0)
	newParentSep := right.KeyAt(0).DeepCopy()

	p.setChildAt(p.size(), borrowedChild)
	p.setKeyAt(p.size()-1, parentSepKey)
	p.setSize(p.size() + 1)

	for i := 0; i < right.size()-1; i++ {
		right.setChildAt(i, right.ChildAt(i+1))
	}
	for i := 0; i < right.numKeys()-1; i++ {
		right.setKeyAt(i, right.KeyAt(i+1))
	}
	right.setSize(right.size() - 1)
	return newParentSep
}
