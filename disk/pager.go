package disk

import (
	"novalite/common"
)

// Pager maps page ids onto page sized buffers in some backing storage. It knows nothing about what is inside a page.
//
// Buffers passed to ReadPage and WritePage must be exactly common.PageSize bytes. Page 0 is reserved for metadata,
// it is never returned by AllocPage and cannot be freed.
type Pager interface {
	// ReadPage copies the content of the page into out.
	ReadPage(pid common.PageId, out []byte) error

	// WritePage stores buf as the content of an allocated page.
	WritePage(pid common.PageId, buf []byte) error

	// AllocPage returns a freed page if there is one, otherwise it grows the storage by one zeroed page.
	AllocPage() (common.PageId, error)

	// FreePage makes the page available to a later AllocPage.
	FreePage(pid common.PageId) error

	// Flush pushes written pages to stable storage.
	Flush() error

	// NumPages returns the number of pages in the storage, meta page included.
	NumPages() (uint64, error)

	// FreePages returns the ids that are currently in the freelist, oldest first.
	FreePages() []common.PageId

	Close() error
}
