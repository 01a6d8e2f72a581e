package indexing

import (
	"encoding/binary"

	"github.com/dsglabs/godb/common"
	"github.com/dsglabs/godb/storage"
)

// Disk-resident B+Tree pages share a small fixed header, stored right after the PageFrame's own
// 8-byte LSN field (see storage.PageFrame.LSN). The header records enough to reconstruct a node
// without any external metadata beyond the index's key size, which every page in one index shares.
const (
	offsetPageType     = 8
	offsetSize         = 12
	offsetMaxSize      = 16
	offsetParentPage   = 20
	offsetNextLeafPage = 24 // leaf pages only
	btreePageHeaderSize = 32
)

type btreePageType int32

const (
	btreePageTypeInvalid btreePageType = iota
	btreePageTypeInternal
	btreePageTypeLeaf
)

// invalidPageNum marks the absence of a page reference (a nil parent, or a leaf with no
// right sibling) within a single-object-file index, where PageNum alone identifies a page.
const invalidPageNum int32 = -1

// btreePageHeader is embedded in both leaf and internal disk pages. It reads and writes its
// fields directly from/to the backing PageFrame's bytes, so there is no separate serialize step.
type btreePageHeader struct {
	frame *storage.PageFrame
}

func (h btreePageHeader) pageType() btreePageType {
	return btreePageType(int32(binary.LittleEndian.Uint32(h.frame.Bytes[offsetPageType:])))
}

func (h btreePageHeader) setPageType(t btreePageType) {
	binary.LittleEndian.PutUint32(h.frame.Bytes[offsetPageType:], uint32(int32(t)))
}

func (h btreePageHeader) size() int {
	return int(int32(binary.LittleEndian.Uint32(h.frame.Bytes[offsetSize:])))
}

func (h btreePageHeader) setSize(n int) {
	binary.LittleEndian.PutUint32(h.frame.Bytes[offsetSize:], uint32(int32(n)))
}

func (h btreePageHeader) maxSize() int {
	return int(int32(binary.LittleEndian.Uint32(h.frame.Bytes[offsetMaxSize:])))
}

func (h btreePageHeader) setMaxSize(n int) {
	binary.LittleEndian.PutUint32(h.frame.Bytes[offsetMaxSize:], uint32(int32(n)))
}

func (h btreePageHeader) parentPageNum() int32 {
	return int32(binary.LittleEndian.Uint32(h.frame.Bytes[offsetParentPage:]))
}

func (h btreePageHeader) setParentPageNum(n int32) {
	binary.LittleEndian.PutUint32(h.frame.Bytes[offsetParentPage:], uint32(n))
}

func (h btreePageHeader) isFull() bool {
	return h.size() >= h.maxSize()
}

// minSize returns the minimum occupancy the merge/redistribute logic must maintain; a node holding
// fewer entries is underflowing. Root pages are exempt; the caller checks that itself.
func (h btreePageHeader) minSize() int {
	// Root aside, every node must stay at least half full.
	return (h.maxSize() + 1) / 2
}

// keyBytesFor returns the number of bytes a single key occupies for the given index metadata.
func keyBytesFor(md *IndexMetadata) int {
	return common.Align8(md.KeySize())
}
