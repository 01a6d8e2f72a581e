package indexing

import (
	"encoding/binary"
	"sort"

	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
)

// leafPage is a disk-resident B+Tree leaf: a sorted array of (key, RecordID) entries plus a
// pointer to the next leaf, chaining every leaf together left to right for range scans.
type leafPage struct {
	btreePageHeader
	md *IndexMetadata
}

func leafMaxSize(md *IndexMetadata) int {
	entrySize := keyBytesFor(md) + common.RecordIDSize
	return (common.PageSize - btreePageHeaderSize) / entrySize
}

// initLeafPage formats frame as a brand new, empty leaf page.
func initLeafPage(frame *storage.PageFrame, md *IndexMetadata, parentPageNum int32) *leafPage {
	l := &leafPage{btreePageHeader: btreePageHeader{frame: frame}, md: md}
	l.setPageType(btreePageTypeLeaf)
	l.setSize(0)
	l.setMaxSize(leafMaxSize(md))
	l.setParentPageNum(parentPageNum)
	l.setNextLeafPageNum(invalidPageNum)
	return l
}

// asLeafPage views an already-initialized frame as a leaf page.
func asLeafPage(frame *storage.PageFrame, md *IndexMetadata) *leafPage {
	l := &leafPage{btreePageHeader: btreePageHeader{frame: frame}, md: md}
	common.Assert(l.pageType() == btreePageTypeLeaf, "frame is not a leaf page")
	return l
}

func (l *leafPage) nextLeafPageNum() int32 {
	return int32(binary.LittleEndian.Uint32(l.frame.Bytes[offsetNextLeafPage:]))
}

func (l *leafPage) setNextLeafPageNum(n int32) {
	binary.LittleEndian.PutUint32(l.frame.Bytes[offsetNextLeafPage:], uint32(n))
}

func (l *leafPage) keyOffset(i int) int {
	return btreePageHeaderSize + i*keyBytesFor(l.md)
}

func (l *leafPage) valuesOffset() int {
	return btreePageHeaderSize + l.maxSize()*keyBytesFor(l.md)
}

func (l *leafPage) valueOffset(i int) int {
	return l.valuesOffset() + i*common.RecordIDSize
}

func (l *leafPage) KeyAt(i int) Key {
	off := l.keyOffset(i)
	raw := l.frame.Bytes[off : off+l.md.KeySize()]
	return Key{RawTuple: storage.RawTuple(raw), schema: l.md.KeySchema}
}

func (l *leafPage) setKeyAt(i int, key Key) {
	off := l.keyOffset(i)
	copy(l.frame.Bytes[off:off+l.md.KeySize()], key.RawTuple)
}

func (l *leafPage) ValueAt(i int) common.RecordID {
	off := l.valueOffset(i)
	var rid common.RecordID
	rid.LoadFrom(l.frame.Bytes[off : off+common.RecordIDSize])
	return rid
}

func (l *leafPage) setValueAt(i int, rid common.RecordID) {
	off := l.valueOffset(i)
	rid.WriteTo(l.frame.Bytes[off : off+common.RecordIDSize])
}

// shiftRight moves entries [from, size) one slot to the right, making room at `from`.
func (l *leafPage) shiftRight(from int) {
	for i := l.size(); i > from; i-- {
		l.setKeyAt(i, l.KeyAt(i-1))
		l.setValueAt(i, l.ValueAt(i-1))
	}
}

// shiftLeft moves entries [from+1, size) one slot to the left, overwriting `from`.
func (l *leafPage) shiftLeft(from int) {
	for i := from; i < l.size()-1; i++ {
		l.setKeyAt(i, l.KeyAt(i+1))
		l.setValueAt(i, l.ValueAt(i+1))
	}
}

// findIndex returns the index of the first entry whose key is >= key, using binary search.
func (l *leafPage) findIndex(key Key) int {
	n := l.size()
	return sort.Search(n, func(i int) bool {
		return l.KeyAt(i).Compare(key) >= 0
	})
}

// Lookup returns the RecordID stored under key, if present.
func (l *leafPage) Lookup(key Key) (common.RecordID, bool) {
	i := l.findIndex(key)
	if i < l.size() && l.KeyAt(i).Compare(key) == 0 {
		return l.ValueAt(i), true
	}
	return common.RecordID{}, false
}

// Insert adds key/rid in sorted position, after any entries with an equal key, so duplicates keep
// insertion order. Caller must ensure there is room (size() < maxSize()).
func (l *leafPage) Insert(key Key, rid common.RecordID) {
	i := sort.Search(l.size(), func(j int) bool { return l.KeyAt(j).Compare(key) > 0 })
	l.shiftRight(i)
	l.setKeyAt(i, key)
	l.setValueAt(i, rid)
	l.setSize(l.size() + 1)
}

// Delete removes the entry matching both key and rid, if present. Keys are not required to be
// unique, so it scans every entry sharing key looking for the matching rid. Returns whether
// anything was removed.
func (l *leafPage) Delete(key Key, rid common.RecordID) bool {
	for i := l.findIndex(key); i < l.size() && l.KeyAt(i).Compare(key) == 0; i++ {
		if l.ValueAt(i) == rid {
			l.shiftLeft(i)
			l.setSize(l.size() - 1)
			return true
		}
	}
	return false
}

type leafEntry struct {
	key Key
	rid common.RecordID
}

// SplitWithInsert inserts key/rid into a leaf that is already at capacity: it builds a sorted
// overflow buffer one entry larger than the page can physically hold, then writes the lower half
// back into l and the upper half into sibling (a freshly initialized empty leaf). It returns
// sibling's first key, the new separator for the parent.
func (l *leafPage) SplitWithInsert(key Key, rid common.RecordID, sibling *leafPage) Key {
	n := l.size()
	buf := make([]leafEntry, 0, n+1)
	for i := 0; i < n; i++ {
		buf = append(buf, leafEntry{l.KeyAt(i).DeepCopy(), l.ValueAt(i)})
	}
	pos := sort.Search(len(buf), func(i int) bool { return buf[i].key.Compare(key) > 0 })
	buf = append(buf, leafEntry{})
	copy(buf[pos+1:], buf[pos:])
	buf[pos] = leafEntry{key, rid}

	mid := len(buf) / 2
	for i := 0; i < mid; i++ {
		l.setKeyAt(i, buf[i].key)
		l.setValueAt(i, buf[i].rid)
	}
	l.setSize(mid)
	for i := mid; i < len(buf); i++ {
		sibling.setKeyAt(i-mid, buf[i].key)
		sibling.setValueAt(i-mid, buf[i].rid)
	}
	sibling.setSize(len(buf) - mid)
	sibling.setNextLeafPageNum(l.nextLeafPageNum())
	return sibling.KeyAt(0)
}

// Merge appends all of right's entries onto l and adopts right's next-leaf pointer. right is left
// empty (its page should be deleted by the caller).
func (l *leafPage) Merge(right *leafPage) {
	base := l.size()
	for i := 0; i < right.size(); i++ {
		l.setKeyAt(base+i, right.KeyAt(i))
		l.setValueAt(base+i, right.ValueAt(i))
	}
	l.setSize(base + right.size())
	l.setNextLeafPageNum(right.nextLeafPageNum())
}

// BorrowFromLeft moves the last entry of left onto the front of l, updating the parent separator
// key (returned) in place of the caller's responsibility to write it back into the parent.
func (l *leafPage) BorrowFromLeft(left *leafPage) Key {
	lastIdx := left.size() - 1
	borrowedKey := left.KeyAt(lastIdx)
	borrowedVal := left.ValueAt(lastIdx)
	left.setSize(lastIdx)

	l.shiftRight(0)
	l.setKeyAt(0, borrowedKey)
	l.setValueAt(0, borrowedVal)
	l.setSize(l.size() + 1)
	return l.KeyAt(0)
}

// BorrowFromRight moves the first entry of right onto the end of l, returning right's new first
// key (the new parent separator).
func (l *leafPage) BorrowFromRight(right *leafPage) Key {
	l.setKeyAt(l.size(), right.KeyAt(0))
	l.setValueAt(l.size(), right.ValueAt(0))
	l.setSize(l.size() + 1)

	right.shiftLeft(0)
	right.setSize(right.size() - 1)
	return right.KeyAt(0)
}
