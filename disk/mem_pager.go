package disk

/*
	MemPager is an in memory implementation of Pager. It follows the same contract as the file backed Manager and is
	used in tests and for throwaway databases.
*/

import (
	"novalite/common"
	"novalite/freelist"
)

var _ Pager = &MemPager{}

type MemPager struct {
	pages    [][]byte
	freeList *freelist.List
	closed   bool
}

// NewMemPager returns a pager that already holds the zeroed meta page.
func NewMemPager() *MemPager {
	return &MemPager{
		pages:    [][]byte{make([]byte, common.PageSize)},
		freeList: freelist.NewFreeList(),
	}
}

func (m *MemPager) ReadPage(pid common.PageId, out []byte) error {
	if err := checkPageBuf(out); err != nil {
		return err
	}

	page, err := m.page(pid)
	if err != nil {
		return err
	}

	copy(out, page)
	return nil
}

func (m *MemPager) WritePage(pid common.PageId, buf []byte) error {
	if err := checkPageBuf(buf); err != nil {
		return err
	}

	page, err := m.page(pid)
	if err != nil {
		return err
	}

	copy(page, buf)
	return nil
}

func (m *MemPager) AllocPage() (common.PageId, error) {
	if p, ok := m.freeList.Pop(); ok {
		return p, nil
	}

	if uint64(len(m.pages)) >= uint64(common.InvalidPageId) {
		return common.InvalidPageId, common.NoSpace("page ids are exhausted")
	}

	m.pages = append(m.pages, make([]byte, common.PageSize))
	return common.PageId(len(m.pages) - 1), nil
}

func (m *MemPager) FreePage(pid common.PageId) error {
	if err := checkFreeable(pid, common.PageId(len(m.pages))); err != nil {
		return err
	}

	m.freeList.Add(pid)
	return nil
}

func (m *MemPager) FreePages() []common.PageId {
	return m.freeList.Snapshot()
}

func (m *MemPager) Flush() error {
	return nil
}

func (m *MemPager) NumPages() (uint64, error) {
	return uint64(len(m.pages)), nil
}

func (m *MemPager) Close() error {
	m.closed = true
	return nil
}

func (m *MemPager) page(pid common.PageId) ([]byte, error) {
	if m.closed {
		return nil, common.InvalidArgument("pager is closed")
	}
	if uint64(pid) >= uint64(len(m.pages)) {
		return nil, common.Corruption("page is beyond the end of the storage")
	}
	return m.pages[pid], nil
}
