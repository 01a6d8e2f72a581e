package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityHash(k int) uint64 {
	return uint64(k)
}

func TestInsertAndFind(t *testing.T) {
	tbl := New[int, string](2, identityHash)
	tbl.Insert(1, "a")
	tbl.Insert(2, "b")

	v, ok := tbl.Find(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = tbl.Find(2)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = tbl.Find(3)
	assert.False(t, ok)
}

func TestInsertUpdatesExistingKey(t *testing.T) {
	tbl := New[int, string](2, identityHash)
	tbl.Insert(1, "a")
	tbl.Insert(1, "a-updated")

	v, ok := tbl.Find(1)
	require.True(t, ok)
	assert.Equal(t, "a-updated", v)
}

// TestGrowsToFourBucketsForFourKeys mirrors the spec's scenario 2: bucket
// capacity 2, keys 0..3 each land in their own bucket once the directory
// has doubled twice (global depth 2).
func TestGrowsToFourBucketsForFourKeys(t *testing.T) {
	tbl := New[int, string](2, identityHash)
	tbl.Insert(0, "a")
	tbl.Insert(1, "b")
	tbl.Insert(2, "c")
	tbl.Insert(3, "d")

	assert.Equal(t, 2, tbl.globalDepth)
	assert.Len(t, tbl.dir, 4)

	seen := make(map[*bucket[int, string]]int)
	for _, b := range tbl.dir {
		seen[b]++
	}
	assert.Len(t, seen, 4, "expect four distinct buckets, one per key")

	for k, want := range map[int]string{0: "a", 1: "b", 2: "c", 3: "d"} {
		v, ok := tbl.Find(k)
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
}

func TestRemove(t *testing.T) {
	tbl := New[int, string](2, identityHash)
	tbl.Insert(1, "a")

	assert.True(t, tbl.Remove(1))
	_, ok := tbl.Find(1)
	assert.False(t, ok)
	assert.False(t, tbl.Remove(1))
}

func TestLocalDepthNeverExceedsGlobalDepth(t *testing.T) {
	tbl := New[int, int](2, identityHash)
	for i := 0; i < 64; i++ {
		tbl.Insert(i, i*10)
	}
	for _, b := range tbl.dir {
		assert.LessOrEqual(t, b.localDepth, tbl.globalDepth)
	}
	assert.Equal(t, 1<<uint(tbl.globalDepth), len(tbl.dir))

	for i := 0; i < 64; i++ {
		v, ok := tbl.Find(i)
		require.True(t, ok)
		assert.Equal(t, i*10, v)
	}
}
