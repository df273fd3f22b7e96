package freelist

import (
	"slices"

	"novalite/common"
)

/*
	List keeps ids of pages that were freed and can be handed out again before the database file grows. It is a LIFO
	stack, the most recently freed page is reused first. The list lives in memory only, persisting it across restarts is
	the job of whoever owns the meta page.
*/

type FreeList interface {
	IsIn(pageID common.PageId) bool
	Pop() (pageID common.PageId, ok bool)
	Add(pageID common.PageId) bool
	Len() int
	Snapshot() []common.PageId
}

var _ FreeList = &List{}

type List struct {
	ids []common.PageId
}

func NewFreeList() *List {
	return &List{ids: make([]common.PageId, 0)}
}

func (f *List) IsIn(pageID common.PageId) bool {
	return slices.Contains(f.ids, pageID)
}

// Pop removes and returns the most recently added page. ok is false when the list is empty.
func (f *List) Pop() (pageID common.PageId, ok bool) {
	if len(f.ids) == 0 {
		return common.InvalidPageId, false
	}

	last := len(f.ids) - 1
	pageID = f.ids[last]
	f.ids = f.ids[:last]
	return pageID, true
}

// Add pushes pageID onto the list. A page that is already in the list is not added twice and Add returns false.
func (f *List) Add(pageID common.PageId) bool {
	if f.IsIn(pageID) {
		return false
	}

	f.ids = append(f.ids, pageID)
	return true
}

func (f *List) Len() int {
	return len(f.ids)
}

// Snapshot returns a copy of the list in the order pages were added.
func (f *List) Snapshot() []common.PageId {
	return slices.Clone(f.ids)
}
