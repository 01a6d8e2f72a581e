package indexing

import (
	"sync"

	"github.com/dsglabs/godb/common"
)

// IndexManager tracks the set of indexes currently active in the database by name. Unlike a
// catalog, it has no opinion about how an index maps back to a table's columns: callers construct
// the concrete Index (a DiskBTreeIndex, MemHashIndex, or MemBTreeIndex) themselves and register it.
type IndexManager struct {
	mu      sync.RWMutex
	indexes map[string]Index
}

func NewIndexManager() *IndexManager {
	return &IndexManager{
		indexes: make(map[string]Index),
	}
}

// CreateIndex registers idx under name. It fails if an index by that name already exists.
func (im *IndexManager) CreateIndex(name string, idx Index) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, exists := im.indexes[name]; exists {
		return common.GoDBError{Code: common.DuplicateObjectError, ErrString: "index already exists: " + name}
	}
	im.indexes[name] = idx
	return nil
}

// GetIndex retrieves an active index by name.
func (im *IndexManager) GetIndex(name string) (Index, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	idx, exists := im.indexes[name]
	if !exists {
		return nil, common.GoDBError{Code: common.NoSuchObjectError, ErrString: "no such index: " + name}
	}
	return idx, nil
}

// DropIndex unregisters an index by name. It does not touch the index's own backing storage; the
// caller is responsible for that (e.g. deleting the DBFile behind a DiskBTreeIndex).
func (im *IndexManager) DropIndex(name string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, exists := im.indexes[name]; !exists {
		return common.GoDBError{Code: common.NoSuchObjectError, ErrString: "no such index: " + name}
	}
	delete(im.indexes, name)
	return nil
}
