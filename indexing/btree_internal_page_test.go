package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/dsglabs/godb/storage"
)

func newTestInternal(t *testing.T, maxSize int, parent int32) *internalPage {
	t.Helper()
	frame := &storage.PageFrame{}
	p := initInternalPage(frame, intKeyMetadata(), parent)
	p.setMaxSize(maxSize)
	return p
}

func TestInternalPageInitRootAndLookup(t *testing.T) {
	root := newTestInternal(t, 10, invalidPageNum)
	root.InitRoot(10, 20, intKey(5))

	assert.Equal(t, 2, root.size())
	assert.Equal(t, int32(10), root.ChildFor(intKey(1)))
	assert.Equal(t, int32(20), root.ChildFor(intKey(5)))
	assert.Equal(t, int32(20), root.ChildFor(intKey(9)))
}

func TestInternalPageInsertAfter(t *testing.T) {
	root := newTestInternal(t, 10, invalidPageNum)
	root.InitRoot(10, 20, intKey(5))

	childIdx := root.indexOfChild(20)
	root.InsertAfter(childIdx, intKey(15), 30)

	assert.Equal(t, 3, root.size())
	assert.Equal(t, int32(10), root.ChildFor(intKey(1)))
	assert.Equal(t, int32(20), root.ChildFor(intKey(10)))
	assert.Equal(t, int32(30), root.ChildFor(intKey(20)))
}

func TestInternalPageInsertAfterWithSplit(t *testing.T) {
	p := newTestInternal(t, 4, invalidPageNum)
	p.InitRoot(10, 20, intKey(5))
	p.InsertAfter(p.indexOfChild(20), intKey(10), 30)
	p.InsertAfter(p.indexOfChild(30), intKey(15), 40)
	assert.True(t, p.isFull())

	siblingFrame := &storage.PageFrame{}
	sibling := initInternalPage(siblingFrame, intKeyMetadata(), p.parentPageNum())
	sibling.setMaxSize(4)

	upKey := p.InsertAfterWithSplit(p.indexOfChild(40), intKey(20), 50, sibling)

	total := p.size() + sibling.size()
	assert.Equal(t, 5, total)
	assert.Contains(t, []int64{10, 15, 20}, keyInt(upKey))
	// every child that existed is still reachable from one of the two halves
	all := map[int32]bool{}
	for i := 0; i < p.size(); i++ {
		all[p.ChildAt(i)] = true
	}
	for i := 0; i < sibling.size(); i++ {
		all[sibling.ChildAt(i)] = true
	}
	for _, want := range []int32{10, 20, 30, 40, 50} {
		assert.True(t, all[want], "child %d missing after split", want)
	}
}

func TestInternalPageDeleteChildAt(t *testing.T) {
	p := newTestInternal(t, 10, invalidPageNum)
	p.InitRoot(10, 20, intKey(5))
	p.InsertAfter(p.indexOfChild(20), intKey(10), 30)

	p.DeleteChildAt(1)

	assert.Equal(t, 2, p.size())
	assert.Equal(t, int32(10), p.ChildAt(0))
	assert.Equal(t, int32(30), p.ChildAt(1))
}

func TestInternalPageMerge(t *testing.T) {
	left := newTestInternal(t, 10, invalidPageNum)
	left.InitRoot(1, 2, intKey(5))

	right := newTestInternal(t, 10, invalidPageNum)
	right.InitRoot(3, 4, intKey(15))

	left.Merge(right, intKey(10))

	assert.Equal(t, 4, left.size())
	assert.Equal(t, []int32{1, 2, 3, 4}, []int32{left.ChildAt(0), left.ChildAt(1), left.ChildAt(2), left.ChildAt(3)})
	assert.Equal(t, int64(10), keyInt(left.KeyAt(1)))
	assert.Equal(t, int64(15), keyInt(left.KeyAt(2)))
}

func TestInternalPageBorrowFromLeftAndRight(t *testing.T) {
	left := newTestInternal(t, 10, invalidPageNum)
	left.InitRoot(1, 2, intKey(5))
	left.InsertAfter(left.indexOfChild(2), intKey(8), 3)

	mid := newTestInternal(t, 10, invalidPageNum)
	mid.InitRoot(10, 11, intKey(55))

	newSep := mid.BorrowFromLeft(left, intKey(50))
	assert.Equal(t, 2, left.size())
	assert.Equal(t, 3, mid.size())
	assert.Equal(t, int32(3), mid.ChildAt(0))
	assert.Equal(t, int64(8), keyInt(newSep))

	right := newTestInternal(t, 10, invalidPageNum)
	right.InitRoot(20, 21, intKey(105))

	newSep = mid.BorrowFromRight(right, intKey(100))
	assert.Equal(t, 1, right.size())
	assert.Equal(t, 4, mid.size())
	assert.Equal(t, int32(20), mid.ChildAt(3))
	assert.Equal(t, int64(105), keyInt(newSep))
}
