package indexing

import (
	"math"

	"github.com/tidwall/btree"
	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
	"github.com/dsglabs/godb/transaction"
)

type btreeItem struct {
	key Key
	rid common.RecordID
}

// MemBTreeIndex is a B+-Tree based index implementation.
// It is a wrapper around github.com/tidwall/btree, specialized for database Keys and RecordIDs.
type MemBTreeIndex struct {
	tree     *btree.BTreeG[btreeItem]
	metadata *IndexMetadata
}

func NewMemBTreeIndex(schema *storage.RawTupleDesc, projectionList []int) *MemBTreeIndex {
	// less function defines the ordering of items in the BTree.
	// Primary order by Key, secondary order by RecordID (to support non-unique keys).
	less := func(a, b btreeItem) bool {
		cmp := a.key.Compare(b.key)
		if cmp != 0 {
			return cmp < 0
		}
		// Tie-breaker: RecordID ensures uniqueness for the Set
		if a.rid.PageID.Oid != b.rid.PageID.Oid {
			return a.rid.PageID.Oid < b.rid.PageID.Oid
		}
		if a.rid.PageID.PageNum != b.rid.PageID.PageNum {
			return a.rid.PageID.PageNum < b.rid.PageID.PageNum
		}
		return a.rid.Slot < b.rid.Slot
	}

	return &MemBTreeIndex{
		tree: btree.NewBTreeG(less),
		metadata: &IndexMetadata{
			KeySchema:      schema,
			ProjectionList: projectionList,
		},
	}
}

func (index *MemBTreeIndex) Metadata() *IndexMetadata {
	return index.metadata
}

func (index *MemBTreeIndex) InsertEntry(key Key, rid common.RecordID, txn *transaction.Transaction) error {
	common.Assert(key.schema == index.metadata.KeySchema, "Key schema mismatch")

	// Defensive copy: The key relies on a byte slice that might change after this call.
	keyCopy := key.DeepCopy()

	item := btreeItem{key: keyCopy, rid: rid}
	index.tree.Set(item)
	return nil
}

func (index *MemBTreeIndex) DeleteEntry(key Key, rid common.RecordID, txn *transaction.Transaction) error {
	common.Assert(key.schema == index.metadata.KeySchema, "Key schema mismatch")

	item := btreeItem{key: key, rid: rid}
	index.tree.Delete(item)
	return nil
}

func (index *MemBTreeIndex) ScanKey(key Key, output []common.RecordID, txn *transaction.Transaction) ([]common.RecordID, error) {
	common.Assert(key.schema == index.metadata.KeySchema, "Key schema mismatch")

	// Create a pivot to find the first entry with this key.
	// We use an empty RecordID for the pivot start.
	pivot := btreeItem{key: key, rid: common.RecordID{}}

	index.tree.Ascend(pivot, func(item btreeItem) bool {
		if !item.key.Equals(key) {
			return false // Stop iterating once the key changes
		}
		output = append(output, item.rid)
		return true // Continue
	})
	return output, nil
}

func (index *MemBTreeIndex) Scan(start Key, direction ScanDirection, txn *transaction.Transaction) (ScanIterator, error) {
	common.Assert(start.IsNil() || start.schema == index.metadata.KeySchema, "Key schema mismatch")
	// Use Copy-On-Write for a consistent snapshot iterator
	snapshot := index.tree.Copy()
	iter := snapshot.Iter()

	it := &MemBTreeIndexIterator{
		parent:    index,
		iter:      iter,
		direction: direction,
		firstCall: true,
	}

	var zeroRID common.RecordID

	if direction == ScanDirectionForward {
		if !start.IsNil() {
			it.hasMore = iter.Seek(btreeItem{key: start, rid: zeroRID})
		} else {
			it.hasMore = iter.First()
		}
	} else {
		if start.IsNil() {
			it.hasMore = iter.Last()
		} else {
			// Seek with the largest possible RecordID, so entries equal to start all sort before the
			// pivot and stepping back lands on the last of them.
			maxRID := common.RecordID{PageID: common.PageID{Oid: math.MaxUint32, PageNum: math.MaxInt32}, Slot: math.MaxInt32}
			found := iter.Seek(btreeItem{key: start, rid: maxRID})
			if !found {
				// We went past the end, so everything in the tree is < start (or tree is empty)
				// Try positioning at Last.
				it.hasMore = iter.Last()
			} else {
				// We landed on a valid item >= start.
				// If strictly > start, we must step back to find <= start.
				// If == start, we are good.
				item := iter.Item()
				if item.key.Compare(start) > 0 {
					it.hasMore = iter.Prev()
				} else {
					// Exact match
					it.hasMore = true
				}
			}
		}
	}
	return it, nil
}

// MemBTreeIndexIterator implements ScanIterator for BTree range scans.
type MemBTreeIndexIterator struct {
	parent    *MemBTreeIndex
	iter      btree.IterG[btreeItem]
	direction ScanDirection
	firstCall bool
	hasMore   bool
}

func (it *MemBTreeIndexIterator) Next() bool {
	if it.firstCall {
		it.firstCall = false
		return it.hasMore
	}

	if !it.hasMore {
		return false
	}

	if it.direction == ScanDirectionForward {
		it.hasMore = it.iter.Next()
	} else {
		it.hasMore = it.iter.Prev()
	}

	return it.hasMore
}

func (it *MemBTreeIndexIterator) Key() Key {
	return it.iter.Item().key
}

func (it *MemBTreeIndexIterator) Value() common.RecordID {
	return it.iter.Item().rid
}

func (it *MemBTreeIndexIterator) Error() error {
	return nil
}

func (it *MemBTreeIndexIterator) Close() error {
	it.iter.Release()
	return nil
}
