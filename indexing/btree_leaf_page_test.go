package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
)

func newTestLeaf(t *testing.T, maxSize int) *leafPage {
	t.Helper()
	frame := &storage.PageFrame{}
	leaf := initLeafPage(frame, intKeyMetadata(), invalidPageNum)
	leaf.setMaxSize(maxSize)
	return leaf
}

func rid(slot int32) common.RecordID {
	return common.RecordID{PageID: common.PageID{Oid: 1, PageNum: 1}, Slot: slot}
}

func TestLeafPageInsertAndLookup(t *testing.T) {
	leaf := newTestLeaf(t, 10)

	leaf.Insert(intKey(5), rid(5))
	leaf.Insert(intKey(1), rid(1))
	leaf.Insert(intKey(3), rid(3))

	assert.Equal(t, 3, leaf.size())
	assert.Equal(t, int64(1), keyInt(leaf.KeyAt(0)))
	assert.Equal(t, int64(3), keyInt(leaf.KeyAt(1)))
	assert.Equal(t, int64(5), keyInt(leaf.KeyAt(2)))

	v, ok := leaf.Lookup(intKey(3))
	assert.True(t, ok)
	assert.Equal(t, rid(3), v)

	_, ok = leaf.Lookup(intKey(4))
	assert.False(t, ok)
}

func TestLeafPageDeleteRequiresMatchingRID(t *testing.T) {
	leaf := newTestLeaf(t, 10)
	leaf.Insert(intKey(1), rid(1))
	leaf.Insert(intKey(1), rid(2))

	assert.False(t, leaf.Delete(intKey(1), rid(99)))
	assert.True(t, leaf.Delete(intKey(1), rid(1)))
	assert.Equal(t, 1, leaf.size())
	v, ok := leaf.Lookup(intKey(1))
	assert.True(t, ok)
	assert.Equal(t, rid(2), v)
}

func TestLeafPageSplitWithInsert(t *testing.T) {
	leaf := newTestLeaf(t, 4)
	for i := int64(1); i <= 4; i++ {
		leaf.Insert(intKey(i), rid(int32(i)))
	}
	assert.True(t, leaf.isFull())

	siblingFrame := &storage.PageFrame{}
	sibling := initLeafPage(siblingFrame, intKeyMetadata(), leaf.parentPageNum())
	sibling.setMaxSize(4)

	sep := leaf.SplitWithInsert(intKey(0), rid(0), sibling)

	assert.Equal(t, 2, leaf.size())
	assert.Equal(t, 3, sibling.size())
	assert.Equal(t, int64(0), keyInt(leaf.KeyAt(0)))
	assert.Equal(t, int64(1), keyInt(leaf.KeyAt(1)))
	assert.Equal(t, int64(2), keyInt(sibling.KeyAt(0)))
	assert.Equal(t, sep, sibling.KeyAt(0))
}

func TestLeafPageMergeAdoptsNextPointer(t *testing.T) {
	left := newTestLeaf(t, 10)
	left.Insert(intKey(1), rid(1))
	right := newTestLeaf(t, 10)
	right.Insert(intKey(2), rid(2))
	right.setNextLeafPageNum(99)

	left.Merge(right)

	assert.Equal(t, 2, left.size())
	assert.Equal(t, int64(2), keyInt(left.KeyAt(1)))
	assert.Equal(t, int32(99), left.nextLeafPageNum())
}

func TestLeafPageBorrowFromLeftAndRight(t *testing.T) {
	left := newTestLeaf(t, 10)
	left.Insert(intKey(1), rid(1))
	left.Insert(intKey(2), rid(2))

	mid := newTestLeaf(t, 10)
	mid.Insert(intKey(5), rid(5))

	newSep := mid.BorrowFromLeft(left)
	assert.Equal(t, 1, left.size())
	assert.Equal(t, 2, mid.size())
	assert.Equal(t, int64(2), keyInt(mid.KeyAt(0)))
	assert.Equal(t, newSep, mid.KeyAt(0))

	right := newTestLeaf(t, 10)
	right.Insert(intKey(9), rid(9))
	right.Insert(intKey(10), rid(10))

	newSep = mid.BorrowFromRight(right)
	assert.Equal(t, 1, right.size())
	assert.Equal(t, 3, mid.size())
	assert.Equal(t, int64(9), keyInt(mid.KeyAt(2)))
	assert.Equal(t, int64(10), keyInt(right.KeyAt(0)))
	assert.Equal(t, newSep, right.KeyAt(0))
}
