package structures

import (
	"fmt"

	"novalite/common"
)

/*
	Row type corresponds to each record in a table heap. Row type does not care about the content of the information it
	is keeping. It just sees its content as a binary byte array.
*/

// Rid is the address of a row: the page it lives in and its slot id inside that page. A row keeps its Rid for its
// whole life, updates that move bytes inside the page do not change it.
type Rid struct {
	PageId  common.PageId
	SlotIdx uint16
}

func NewRid(pageID common.PageId, slotIdx uint16) Rid {
	return Rid{
		PageId:  pageID,
		SlotIdx: slotIdx,
	}
}

func (r Rid) String() string {
	return fmt.Sprintf("(%d, %d)", r.PageId, r.SlotIdx)
}

type IRow interface {
	GetRid() Rid
	GetData() []byte
	Length() int
}

// Row owns a copy of its data, it does not alias any page buffer.
type Row struct {
	Data []byte
	Rid  Rid
}

func (t *Row) GetRid() Rid {
	return t.Rid
}

func (t *Row) GetData() []byte {
	return t.Data
}

func (t *Row) Length() int {
	return len(t.Data)
}
