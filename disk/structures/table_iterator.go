package structures

import (
	"slices"

	"novalite/common"
	"novalite/disk/pages"
)

// TableIterator walks over every live row of a heap, page by page and slot by slot. It reads each page once, rows
// inserted into an already visited page are not returned.
type TableIterator struct {
	heap    *TableHeap
	pageIdx int
	page    *pages.SlottedPage
	pageID  common.PageId
	slots   []uint16
	pos     int
}

func NewTableIterator(heap *TableHeap) *TableIterator {
	return &TableIterator{
		heap:    heap,
		pageIdx: -1,
	}
}

// Next returns the next row or nil when the heap is exhausted.
func (it *TableIterator) Next() (*Row, error) {
	for it.page == nil || it.pos >= len(it.slots) {
		it.pageIdx++
		if it.pageIdx >= len(it.heap.pageIDs) {
			// we come to the end of heap
			return nil, nil
		}

		pid := it.heap.pageIDs[it.pageIdx]
		_, sp, err := it.heap.getPage(pid)
		if err != nil {
			return nil, err
		}

		slots, err := sp.LiveSlots()
		if err != nil {
			return nil, err
		}

		it.page, it.pageID, it.slots, it.pos = sp, pid, slots, 0
	}

	idx := it.slots[it.pos]
	it.pos++

	data, err := it.page.Get(idx)
	if err != nil {
		return nil, err
	}

	return &Row{Data: slices.Clone(data), Rid: NewRid(it.pageID, idx)}, nil
}

// Scan calls fn for every live row of the heap in page order. It stops at the first error fn returns.
func (t *TableHeap) Scan(fn func(row *Row) error) error {
	it := NewTableIterator(t)
	for {
		row, err := it.Next()
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
