package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
)

// testIntKeySchema is shared across every test helper in this package so that keys built by
// separate calls to intKey still compare as the same schema, as Key.Compare requires.
var testIntKeySchema = storage.NewRawTupleDesc([]common.Type{common.IntType})

func intKeySchema() *storage.RawTupleDesc {
	return testIntKeySchema
}

func intKeyMetadata() *IndexMetadata {
	return &IndexMetadata{KeySchema: intKeySchema(), ProjectionList: []int{0}}
}

func intKey(v int64) Key {
	raw := make(storage.RawTuple, common.IntSize)
	common.NewIntValue(v).WriteTo(raw)
	return Key{RawTuple: raw, schema: intKeySchema()}
}

func keyInt(k Key) int64 {
	return k.schema.GetValue(k.RawTuple, 0).IntValue()
}

func TestBTreePageHeaderRoundTrip(t *testing.T) {
	frame := &storage.PageFrame{}
	h := btreePageHeader{frame: frame}

	h.setPageType(btreePageTypeLeaf)
	h.setSize(3)
	h.setMaxSize(7)
	h.setParentPageNum(42)

	assert.Equal(t, btreePageTypeLeaf, h.pageType())
	assert.Equal(t, 3, h.size())
	assert.Equal(t, 7, h.maxSize())
	assert.Equal(t, int32(42), h.parentPageNum())
	assert.False(t, h.isFull())

	h.setSize(7)
	assert.True(t, h.isFull())
	assert.Equal(t, 4, h.minSize())
}

func TestKeyBytesForAlignsToEight(t *testing.T) {
	md := intKeyMetadata()
	assert.Equal(t, 8, keyBytesFor(md))
}
