// Package transaction provides the minimal identity the storage and indexing core needs from a
// caller's unit of work. It deliberately implements no locking, undo logging, or commit/abort
// protocol: those concerns belong to a layer built on top, keyed by the TransactionID this package
// hands out.
package transaction

import "github.com/dsglabs/godb/common"

// Transaction identifies the caller issuing a sequence of index or buffer pool operations. Index
// implementations accept one on every mutating call so that a future concurrency-control layer can
// be introduced without changing the Index interface.
type Transaction struct {
	id common.TransactionID
}

// NewTransaction wraps id in a Transaction handle.
func NewTransaction(id common.TransactionID) *Transaction {
	return &Transaction{id: id}
}

// ID returns the underlying transaction identifier.
func (t *Transaction) ID() common.TransactionID {
	return t.id
}
