package storage

import (
	"math/bits"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/dsglabs/godb/common"
)

// pageOffsetLSN is the byte offset of the LSN within the page.
const pageOffsetLSN = 0

// PageFrame represents a physical page of data in memory.
// It holds the raw bytes of the page and acts as the container for Buffer Pool management.
type PageFrame struct {
	// Bytes holds the raw physical data of the page.
	Bytes [common.PageSize]byte
	// PageLatch protects the content of the page from concurrent access. The BufferPool's own
	// mutex only protects its bookkeeping (pin counts, dirty flags, the page table); callers that
	// read or write Bytes must acquire PageLatch themselves.
	PageLatch sync.RWMutex

	// id identifies this frame within the pool's frame array.
	id FrameID
	// pageID is the page currently resident in this frame. It is common.PageID{} (Oid ==
	// common.InvalidObjectID) when the frame is free.
	pageID common.PageID
	// pinCount is the number of callers currently holding this frame via FetchPage/NewPage.
	pinCount int
	// dirty records whether Bytes has been modified since the last flush.
	dirty bool
}

// Detect system endianness -- compiler should statically replace this with a constant
var isBigEndian = func() bool {
	buf := [2]byte{}
	*(*uint16)(unsafe.Pointer(&buf[0])) = uint16(0xCAFE)
	return buf[0] == 0xCA
}()

// LSN atomically reads the Log Sequence Number from the page header.
func (frame *PageFrame) LSN() common.LSN {
	ptr := (*uint64)(unsafe.Pointer(&frame.Bytes[pageOffsetLSN]))
	val := atomic.LoadUint64(ptr)
	if isBigEndian {
		val = bits.ReverseBytes64(val)
	}
	return common.LSN(val)
}

// MonotonicallyUpdateLSN atomically updates the LSN. The update is atomic and is only applied if the given lsn is
// larger than the current value.
func (frame *PageFrame) MonotonicallyUpdateLSN(lsn common.LSN) {
	ptr := (*uint64)(unsafe.Pointer(&frame.Bytes[pageOffsetLSN]))
	newVal := uint64(lsn)

	for {
		rawCurrent := atomic.LoadUint64(ptr)
		logicalCurrent := rawCurrent
		if isBigEndian {
			logicalCurrent = bits.ReverseBytes64(rawCurrent)
		}

		if newVal <= logicalCurrent {
			return
		}

		rawNew := newVal
		if isBigEndian {
			rawNew = bits.ReverseBytes64(newVal)
		}

		if atomic.CompareAndSwapUint64(ptr, rawCurrent, rawNew) {
			return
		}
	}
}

// ID returns the frame's fixed slot number within its BufferPool.
func (frame *PageFrame) ID() FrameID {
	return frame.id
}

// PageID returns the page currently resident in this frame.
func (frame *PageFrame) PageID() common.PageID {
	return frame.pageID
}
