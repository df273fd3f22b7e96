package common

import (
	"fmt"
	"math"
)

// PageId identifies a page inside a single database file. Ids are issued monotonically by the pager and page n lives
// at byte offset n*PageSize.
type PageId uint32

const (
	// InvalidPageId is a sentinel that never denotes a real page.
	InvalidPageId PageId = math.MaxUint32

	// MetaPageId is reserved for engine metadata and is never handed out by page allocation.
	MetaPageId PageId = 0
)

func (p PageId) IsValid() bool {
	return p != InvalidPageId
}

// Offset returns the byte offset of the page in the database file.
func (p PageId) Offset() (int64, error) {
	off := uint64(p) * PageSize
	if off/PageSize != uint64(p) || off > math.MaxInt64 {
		return 0, Corruption(fmt.Sprintf("page offset overflow for page %d", p))
	}

	return int64(off), nil
}

func (p PageId) String() string {
	if p == InvalidPageId {
		return "INVALID"
	}
	return fmt.Sprintf("%d", uint32(p))
}
