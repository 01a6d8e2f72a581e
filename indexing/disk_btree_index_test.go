package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
)

func newTestDiskBTreeIndex(t *testing.T) *DiskBTreeIndex {
	t.Helper()
	dir := t.TempDir()
	bp := storage.NewBufferPool(32, storage.NewDiskStorageManager(dir))
	idx, err := NewDiskBTreeIndex(bp, common.ObjectID(1), intKeySchema(), []int{0})
	require.NoError(t, err)
	return idx
}

func scanAll(t *testing.T, idx *DiskBTreeIndex, direction ScanDirection) []int64 {
	t.Helper()
	it, err := idx.Scan(NilKey, direction, nil)
	require.NoError(t, err)
	defer it.Close()

	var got []int64
	for it.Next() {
		got = append(got, keyInt(it.Key()))
	}
	require.NoError(t, it.Error())
	return got
}

func TestDiskBTreeIndexInsertAndScanKey(t *testing.T) {
	idx := newTestDiskBTreeIndex(t)

	for i := int64(0); i < 300; i++ {
		require.NoError(t, idx.InsertEntry(intKey(i), rid(int32(i)), nil))
	}

	out, err := idx.ScanKey(intKey(150), nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, rid(150), out[0])

	out, err = idx.ScanKey(intKey(99999), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDiskBTreeIndexForwardScanIsSortedAndComplete(t *testing.T) {
	idx := newTestDiskBTreeIndex(t)
	const n = 500
	for i := int64(n - 1); i >= 0; i-- {
		require.NoError(t, idx.InsertEntry(intKey(i), rid(int32(i)), nil))
	}

	got := scanAll(t, idx, ScanDirectionForward)
	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, int64(i), v)
	}
}

func TestDiskBTreeIndexBackwardScanIsSortedAndComplete(t *testing.T) {
	idx := newTestDiskBTreeIndex(t)
	const n = 500
	for i := int64(0); i < n; i++ {
		require.NoError(t, idx.InsertEntry(intKey(i), rid(int32(i)), nil))
	}

	got := scanAll(t, idx, ScanDirectionBackward)
	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, int64(n-1-i), v)
	}
}

func TestDiskBTreeIndexScanFromMidpoint(t *testing.T) {
	idx := newTestDiskBTreeIndex(t)
	for i := int64(0); i < 100; i++ {
		require.NoError(t, idx.InsertEntry(intKey(i*2), rid(int32(i)), nil))
	}

	it, err := idx.Scan(intKey(51), ScanDirectionForward, nil)
	require.NoError(t, err)
	require.True(t, it.Next())
	assert.Equal(t, int64(52), keyInt(it.Key()))
	require.NoError(t, it.Close())

	it, err = idx.Scan(intKey(51), ScanDirectionBackward, nil)
	require.NoError(t, err)
	require.True(t, it.Next())
	assert.Equal(t, int64(50), keyInt(it.Key()))
	require.NoError(t, it.Close())
}

func TestDiskBTreeIndexDeleteShrinksTreeBackToEmpty(t *testing.T) {
	idx := newTestDiskBTreeIndex(t)
	const n = 400
	for i := int64(0); i < n; i++ {
		require.NoError(t, idx.InsertEntry(intKey(i), rid(int32(i)), nil))
	}

	for i := int64(0); i < n; i++ {
		require.NoError(t, idx.DeleteEntry(intKey(i), rid(int32(i)), nil))
	}

	root, err := idx.rootPageNum()
	require.NoError(t, err)
	assert.Equal(t, invalidPageNum, root)

	out, err := idx.ScanKey(intKey(0), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDiskBTreeIndexDeleteEveryOtherKeepsRemainderScannable(t *testing.T) {
	idx := newTestDiskBTreeIndex(t)
	const n = 400
	for i := int64(0); i < n; i++ {
		require.NoError(t, idx.InsertEntry(intKey(i), rid(int32(i)), nil))
	}
	for i := int64(0); i < n; i += 2 {
		require.NoError(t, idx.DeleteEntry(intKey(i), rid(int32(i)), nil))
	}

	got := scanAll(t, idx, ScanDirectionForward)
	require.Len(t, got, n/2)
	for i, v := range got {
		assert.Equal(t, int64(2*i+1), v)
	}
}

func TestDiskBTreeIndexDeleteUnknownEntryIsNoop(t *testing.T) {
	idx := newTestDiskBTreeIndex(t)
	require.NoError(t, idx.InsertEntry(intKey(1), rid(1), nil))
	require.NoError(t, idx.DeleteEntry(intKey(99), rid(99), nil))

	out, err := idx.ScanKey(intKey(1), nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
}
