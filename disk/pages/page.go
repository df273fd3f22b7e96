package pages

import (
	"novalite/common"
)

// RawPage owns one page sized buffer together with the id of the page it was read from. It is how page bytes travel
// between a pager and the code that interprets them.
type RawPage struct {
	pageId  common.PageId
	isDirty bool
	Data    []byte
}

func NewRawPage(pageId common.PageId) *RawPage {
	return &RawPage{
		pageId:  pageId,
		isDirty: false,
		Data:    make([]byte, common.PageSize),
	}
}

func (p *RawPage) GetData() []byte {
	return p.Data
}

func (p *RawPage) GetPageId() common.PageId {
	return p.pageId
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}

// Slotted returns a slotted page view over the page's buffer.
func (p *RawPage) Slotted() (*SlottedPage, error) {
	return NewSlottedPage(p.Data)
}

// Reset makes p an empty clean buffer for pageId.
func (p *RawPage) Reset(pageId common.PageId) {
	clear(p.Data)
	p.pageId = pageId
	p.isDirty = false
}
