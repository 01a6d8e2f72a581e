package godb

import (
	"os"
	"sync/atomic"

	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/indexing"
	"github.com/dsglabs/godb/storage"
)

// GoDB is the top-level container for the storage and indexing core: a buffer pool sitting on top
// of disk-backed object files, and an index manager tracking the B+Tree and in-memory indexes built
// on top of it.
type GoDB struct {
	BufferPool   *storage.BufferPool
	IndexManager *indexing.IndexManager

	// nextOid hands out fresh ObjectIDs for newly created indexes, one physical file each.
	nextOid atomic.Uint32
}

// NewGoDB creates a fresh GoDB rooted at storageDir, with a buffer pool holding bufferPoolSize
// frames.
func NewGoDB(storageDir string, bufferPoolSize int) (*GoDB, error) {
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return nil, err
	}

	bufferPool := storage.NewBufferPool(bufferPoolSize, storage.NewDiskStorageManager(storageDir))

	db := &GoDB{
		BufferPool:   bufferPool,
		IndexManager: indexing.NewIndexManager(),
	}
	db.nextOid.Store(uint32(common.InvalidObjectID) + 1)
	return db, nil
}

// allocateObjectID hands out a fresh ObjectID for a new index's backing file.
func (db *GoDB) allocateObjectID() common.ObjectID {
	return common.ObjectID(db.nextOid.Add(1) - 1)
}

// CreateBTreeIndex allocates a new object file, builds a disk-resident B+Tree index over it, and
// registers it under name.
func (db *GoDB) CreateBTreeIndex(name string, schema *storage.RawTupleDesc, projectionList []int) (*indexing.DiskBTreeIndex, error) {
	oid := db.allocateObjectID()
	idx, err := indexing.NewDiskBTreeIndex(db.BufferPool, oid, schema, projectionList)
	if err != nil {
		return nil, err
	}
	if err := db.IndexManager.CreateIndex(name, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// CreateHashIndex builds an in-memory hash index and registers it under name. Hash indexes do not
// support range scans; use a B+Tree index when ordered iteration is required.
func (db *GoDB) CreateHashIndex(name string, schema *storage.RawTupleDesc, projectionList []int) (*indexing.MemHashIndex, error) {
	idx := indexing.NewMemHashIndex(schema, projectionList)
	if err := db.IndexManager.CreateIndex(name, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Close flushes every dirty page in the buffer pool to disk.
func (db *GoDB) Close() error {
	return db.BufferPool.FlushAllPages()
}
