package structures

import (
	"errors"
	"fmt"
	"slices"

	"novalite/common"
	"novalite/disk"
	"novalite/disk/pages"
)

// MaxTupleSize is the largest tuple a single empty heap page can hold.
const MaxTupleSize = common.PageSize - common.HeaderSize - common.SlotSize

// ErrTupleNotFound is returned when a rid points to a deleted tuple.
var ErrTupleNotFound = errors.New("tuple not found")

type ITableHeap interface {
	// InsertTuple inserts data into the last page of the heap, allocating a new page when it does not fit.
	InsertTuple(data []byte) (Rid, error)

	// UpdateTuple replaces the tuple at rid. If the new data does not fit into the tuple's page a common.ErrNoSpace
	// error is returned and callers may delete and insert instead.
	UpdateTuple(rid Rid, data []byte) error

	// ReadTuple returns a copy of the tuple at rid or ErrTupleNotFound if it was deleted.
	ReadTuple(rid Rid) (Row, error)

	// DeleteTuple tombstones the tuple at rid.
	DeleteTuple(rid Rid) error
}

var _ ITableHeap = &TableHeap{}

// TableHeap is an unordered collection of rows stored in slotted heap pages. Every operation reads the page from the
// pager, works on it through a pages.SlottedPage and writes it back when it changed.
type TableHeap struct {
	pager   disk.Pager
	pageIDs []common.PageId
	members map[common.PageId]struct{}
}

// NewTableHeap opens a heap made of pageIDs, which must be heap pages previously created by a TableHeap. An empty
// list starts an empty heap.
func NewTableHeap(pager disk.Pager, pageIDs []common.PageId) *TableHeap {
	t := &TableHeap{
		pager:   pager,
		pageIDs: slices.Clone(pageIDs),
		members: make(map[common.PageId]struct{}, len(pageIDs)),
	}
	for _, pid := range pageIDs {
		t.members[pid] = struct{}{}
	}
	return t
}

// PageIDs returns the pages of the heap in the order they were added.
func (t *TableHeap) PageIDs() []common.PageId {
	return slices.Clone(t.pageIDs)
}

func (t *TableHeap) InsertTuple(data []byte) (Rid, error) {
	if len(data) > MaxTupleSize {
		return Rid{}, common.NoSpace(fmt.Sprintf("tuple of %d bytes is larger than a page can hold", len(data)))
	}

	// earlier pages only gain dead slots, not bytes, so it is enough to try the last one.
	if len(t.pageIDs) > 0 {
		rid, err := t.insertInto(t.pageIDs[len(t.pageIDs)-1], data)
		if err == nil {
			return rid, nil
		}
		if !errors.Is(err, common.ErrNoSpace) {
			return Rid{}, err
		}
	}

	pid, err := t.newPage()
	if err != nil {
		return Rid{}, err
	}

	return t.insertInto(pid, data)
}

func (t *TableHeap) UpdateTuple(rid Rid, data []byte) error {
	page, sp, err := t.getPage(rid.PageId)
	if err != nil {
		return err
	}

	old, err := sp.Get(rid.SlotIdx)
	if err != nil {
		return err
	}
	if old == nil {
		return ErrTupleNotFound
	}

	if _, err := sp.Update(rid.SlotIdx, data); err != nil {
		return err
	}

	return t.pager.WritePage(page.GetPageId(), page.GetData())
}

func (t *TableHeap) ReadTuple(rid Rid) (Row, error) {
	_, sp, err := t.getPage(rid.PageId)
	if err != nil {
		return Row{}, err
	}

	data, err := sp.Get(rid.SlotIdx)
	if err != nil {
		return Row{}, err
	}
	if data == nil {
		return Row{}, ErrTupleNotFound
	}

	return Row{Data: slices.Clone(data), Rid: rid}, nil
}

func (t *TableHeap) DeleteTuple(rid Rid) error {
	page, sp, err := t.getPage(rid.PageId)
	if err != nil {
		return err
	}

	if err := sp.Delete(rid.SlotIdx); err != nil {
		return err
	}

	return t.pager.WritePage(page.GetPageId(), page.GetData())
}

func (t *TableHeap) insertInto(pid common.PageId, data []byte) (Rid, error) {
	page, sp, err := t.getPage(pid)
	if err != nil {
		return Rid{}, err
	}

	idx, err := sp.Insert(data)
	if err != nil {
		return Rid{}, err
	}

	if err := t.pager.WritePage(pid, page.GetData()); err != nil {
		return Rid{}, err
	}

	return NewRid(pid, idx), nil
}

func (t *TableHeap) newPage() (common.PageId, error) {
	pid, err := t.pager.AllocPage()
	if err != nil {
		return common.InvalidPageId, err
	}

	page := pages.NewRawPage(pid)
	sp, err := page.Slotted()
	if err != nil {
		return common.InvalidPageId, err
	}
	if err := sp.Init(pages.HeapPage); err != nil {
		return common.InvalidPageId, err
	}
	if err := t.pager.WritePage(pid, page.GetData()); err != nil {
		return common.InvalidPageId, err
	}

	t.pageIDs = append(t.pageIDs, pid)
	t.members[pid] = struct{}{}
	return pid, nil
}

func (t *TableHeap) getPage(pid common.PageId) (*pages.RawPage, *pages.SlottedPage, error) {
	if _, ok := t.members[pid]; !ok {
		return nil, nil, common.InvalidArgument(fmt.Sprintf("page %d does not belong to the heap", pid))
	}

	page := pages.NewRawPage(pid)
	if err := t.pager.ReadPage(pid, page.GetData()); err != nil {
		return nil, nil, err
	}

	sp, err := page.Slotted()
	if err != nil {
		return nil, nil, err
	}

	pt, err := sp.PageType()
	if err != nil {
		return nil, nil, err
	}
	if pt != pages.HeapPage {
		return nil, nil, common.Corruption(fmt.Sprintf("page %d is a %v page, want heap", pid, pt))
	}

	return page, sp, nil
}
