package pages

import (
	"fmt"
	"math"

	"novalite/common"
)

// SlottedPage is a view over one externally owned page buffer. The slot directory grows upward from the header and
// tuple bytes grow downward from the end of the page, so a slot id stays valid while other slots come and go.
//
// SlottedPage never caches decoded header fields: every operation decodes what it needs from the buffer and validates
// the header before touching anything. A failed validation therefore never leaves the buffer half mutated.
type SlottedPage struct {
	buf []byte
}

// NewSlottedPage wraps buf without touching its contents. Wrapping an uninitialized buffer is allowed, Init must be
// called before the first record operation on a fresh page.
func NewSlottedPage(buf []byte) (*SlottedPage, error) {
	if len(buf) != common.PageSize {
		return nil, common.Corruption(fmt.Sprintf("page buffer length %d, want %d", len(buf), common.PageSize))
	}
	return &SlottedPage{buf: buf}, nil
}

// Init resets the page to an empty page of the given type.
func (sp *SlottedPage) Init(pageType PageType) error {
	return InitEmptyHeader(sp.buf, pageType)
}

func (sp *SlottedPage) GetData() []byte {
	return sp.buf
}

func (sp *SlottedPage) Header() (PageHeader, error) {
	return DecodeHeader(sp.buf)
}

func (sp *SlottedPage) SlotCount() (uint16, error) {
	h, err := sp.validatedHeader()
	if err != nil {
		return 0, err
	}
	return h.SlotCount, nil
}

func (sp *SlottedPage) PageType() (PageType, error) {
	h, err := sp.validatedHeader()
	if err != nil {
		return 0, err
	}
	return h.PageType(), nil
}

// ValidateHeader checks the header invariants and reports the first one that does not hold.
func (sp *SlottedPage) ValidateHeader() error {
	_, err := sp.validatedHeader()
	return err
}

// ValidateFull runs ValidateHeader and then checks that every live tuple lies inside [upper, PageSize). It is
// O(slot_count) and meant for debugging and tests.
func (sp *SlottedPage) ValidateFull() error {
	h, err := sp.validatedHeader()
	if err != nil {
		return err
	}

	for id := uint16(0); id < h.SlotCount; id++ {
		s, err := ReadSlot(sp.buf, id)
		if err != nil {
			return err
		}
		if s.IsDead() {
			continue
		}
		if err := checkTupleRange(h, id, s); err != nil {
			return err
		}
	}

	return nil
}

// FreeSpace returns the number of bytes between the slot directory and the tuple area.
func (sp *SlottedPage) FreeSpace() (uint16, error) {
	h, err := DecodeHeader(sp.buf)
	if err != nil {
		return 0, err
	}
	if h.Lower > h.Upper {
		return 0, common.Corruption(fmt.Sprintf("lower %d is greater than upper %d", h.Lower, h.Upper))
	}
	return h.Upper - h.Lower, nil
}

// Insert copies data into the page and returns its slot id. A dead slot is reused when the page says there may be
// one, otherwise the slot directory grows by one entry. The page is left untouched when there is not enough space.
func (sp *SlottedPage) Insert(data []byte) (uint16, error) {
	h, err := sp.validatedHeader()
	if err != nil {
		return 0, err
	}

	slotID, reuse, scannedEmpty := h.SlotCount, false, false
	if h.HasFlag(FlagHasFreeSlots) {
		id, found, err := sp.findFreeSlot(h)
		if err != nil {
			return 0, err
		}
		if found {
			slotID, reuse = id, true
		} else {
			scannedEmpty = true
		}
	}

	required := len(data)
	if !reuse {
		required += common.SlotSize
	}
	if free := int(h.Upper) - int(h.Lower); required > free {
		return 0, common.NoSpace(fmt.Sprintf("need %d bytes, page has %d free", required, free))
	}
	if len(data) > math.MaxUint16 {
		return 0, common.Corruption(fmt.Sprintf("tuple length %d does not fit in 16 bits", len(data)))
	}

	newUpper := h.Upper - uint16(len(data))
	copy(sp.buf[newUpper:h.Upper], data)

	if err := WriteSlot(sp.buf, slotID, Slot{Offset: newUpper, Len: uint16(len(data))}); err != nil {
		return 0, err
	}

	if !reuse {
		count := h.SlotCount + 1
		if err := writeSlotCount(sp.buf, count); err != nil {
			return 0, err
		}
		if err := writeLower(sp.buf, uint16(SlotOffset(count))); err != nil {
			return 0, err
		}
	}
	if err := writeUpper(sp.buf, newUpper); err != nil {
		return 0, err
	}

	// the scan found no tombstone, remember that so the next insert can skip it.
	if scannedEmpty {
		if err := writeFlags(sp.buf, ClearFlag(h.Flags, FlagHasFreeSlots)); err != nil {
			return 0, err
		}
	}

	return slotID, nil
}

// Get returns a view of the tuple at slotID, or nil if the slot is dead. The returned slice aliases the page buffer
// and is only valid until the next mutation of the page.
func (sp *SlottedPage) Get(slotID uint16) ([]byte, error) {
	h, err := sp.validatedHeader()
	if err != nil {
		return nil, err
	}

	s, err := sp.slotInRange(h, slotID)
	if err != nil {
		return nil, err
	}
	if s.IsDead() {
		return nil, nil
	}
	if err := checkTupleRange(h, slotID, s); err != nil {
		return nil, err
	}

	end := int(s.Offset) + int(s.Len)
	return sp.buf[s.Offset:end:end], nil
}

// Update replaces the tuple at slotID and reports whether it was moved. Data that is not longer than the current
// tuple is written in place and the vacated tail is zeroed. Longer data is copied to a new region below upper, the old
// bytes become garbage that only a compaction would reclaim.
func (sp *SlottedPage) Update(slotID uint16, data []byte) (bool, error) {
	h, err := sp.validatedHeader()
	if err != nil {
		return false, err
	}

	s, err := sp.slotInRange(h, slotID)
	if err != nil {
		return false, err
	}
	if s.IsDead() {
		return false, common.Corruption(fmt.Sprintf("update of dead slot %d", slotID))
	}
	if err := checkTupleRange(h, slotID, s); err != nil {
		return false, err
	}

	if len(data) <= int(s.Len) {
		start, oldEnd := int(s.Offset), int(s.Offset)+int(s.Len)
		copy(sp.buf[start:], data)
		clear(sp.buf[start+len(data) : oldEnd])

		s.Len = uint16(len(data))
		return false, WriteSlot(sp.buf, slotID, s)
	}

	if free := int(h.Upper) - int(h.Lower); len(data) > free {
		return false, common.NoSpace(fmt.Sprintf("need %d bytes to move slot %d, page has %d free", len(data), slotID, free))
	}

	newUpper := h.Upper - uint16(len(data))
	copy(sp.buf[newUpper:h.Upper], data)

	s.Offset, s.Len = newUpper, uint16(len(data))
	if err := WriteSlot(sp.buf, slotID, s); err != nil {
		return false, err
	}
	if err := writeUpper(sp.buf, newUpper); err != nil {
		return false, err
	}

	return true, nil
}

// Delete turns slotID into a tombstone. Tuple bytes stay in place until a later insert reuses the slot. Deleting a
// dead slot is a no-op.
func (sp *SlottedPage) Delete(slotID uint16) error {
	h, err := sp.validatedHeader()
	if err != nil {
		return err
	}

	s, err := sp.slotInRange(h, slotID)
	if err != nil {
		return err
	}
	if s.IsDead() {
		return nil
	}

	s.Flags |= SlotDead
	if err := WriteSlot(sp.buf, slotID, s); err != nil {
		return err
	}

	return writeFlags(sp.buf, SetFlag(h.Flags, FlagHasFreeSlots))
}

// LiveSlots returns ids of all slots that are not dead in ascending order.
func (sp *SlottedPage) LiveSlots() ([]uint16, error) {
	h, err := sp.validatedHeader()
	if err != nil {
		return nil, err
	}

	res := make([]uint16, 0, h.SlotCount)
	for id := uint16(0); id < h.SlotCount; id++ {
		s, err := ReadSlot(sp.buf, id)
		if err != nil {
			return nil, err
		}
		if !s.IsDead() {
			res = append(res, id)
		}
	}

	return res, nil
}

func (sp *SlottedPage) validatedHeader() (PageHeader, error) {
	h, err := DecodeHeader(sp.buf)
	if err != nil {
		return PageHeader{}, err
	}

	if h.Lower < common.HeaderSize {
		return PageHeader{}, common.Corruption(fmt.Sprintf("lower %d is below header size %d", h.Lower, common.HeaderSize))
	}
	if h.Upper > common.PageSize {
		return PageHeader{}, common.Corruption(fmt.Sprintf("upper %d is beyond page size %d", h.Upper, common.PageSize))
	}
	if h.Lower > h.Upper {
		return PageHeader{}, common.Corruption(fmt.Sprintf("lower %d is greater than upper %d", h.Lower, h.Upper))
	}
	if want := SlotOffset(h.SlotCount); int(h.Lower) != want {
		return PageHeader{}, common.Corruption(fmt.Sprintf("lower %d does not match slot count %d, want %d", h.Lower, h.SlotCount, want))
	}

	return h, nil
}

func (sp *SlottedPage) slotInRange(h PageHeader, slotID uint16) (Slot, error) {
	if slotID >= h.SlotCount {
		return Slot{}, common.InvalidArgument(fmt.Sprintf("slot %d out of range, slot count is %d", slotID, h.SlotCount))
	}
	return ReadSlot(sp.buf, slotID)
}

func (sp *SlottedPage) findFreeSlot(h PageHeader) (uint16, bool, error) {
	for id := uint16(0); id < h.SlotCount; id++ {
		s, err := ReadSlot(sp.buf, id)
		if err != nil {
			return 0, false, err
		}
		if s.IsDead() {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func checkTupleRange(h PageHeader, slotID uint16, s Slot) error {
	end := int(s.Offset) + int(s.Len)
	if end > common.PageSize {
		return common.Corruption(fmt.Sprintf("slot %d tuple [%d, %d) exceeds page size", slotID, s.Offset, end))
	}
	if s.Offset < h.Upper {
		return common.Corruption(fmt.Sprintf("slot %d tuple at %d overlaps free space below upper %d", slotID, s.Offset, h.Upper))
	}
	return nil
}
