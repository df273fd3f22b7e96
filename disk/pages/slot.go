package pages

import (
	"fmt"

	"novalite/common"
)

const (
	// SlotDead marks a tombstone. Its tuple bytes are garbage until the slot is reused.
	SlotDead uint16 = 1 << 0

	// SlotRedirected and SlotOverflow are reserved for later use.
	SlotRedirected uint16 = 1 << 1
	SlotOverflow   uint16 = 1 << 2
)

const (
	offSlotOffset = 0
	offSlotLen    = 2
	offSlotFlags  = 4
)

// Slot is a decoded slot directory entry.
type Slot struct {
	Offset uint16
	Len    uint16
	Flags  uint16
}

func (s Slot) IsDead() bool {
	return s.Flags&SlotDead != 0
}

func (s Slot) IsRedirected() bool {
	return s.Flags&SlotRedirected != 0
}

func (s Slot) IsOverflow() bool {
	return s.Flags&SlotOverflow != 0
}

// SlotOffset returns the position of slot id's directory entry inside the page.
func SlotOffset(id uint16) int {
	return common.HeaderSize + int(id)*common.SlotSize
}

func ReadSlot(buf []byte, id uint16) (Slot, error) {
	base, err := slotBase(buf, id)
	if err != nil {
		return Slot{}, err
	}

	var s Slot
	if s.Offset, err = ReadU16LE(buf, base+offSlotOffset); err != nil {
		return Slot{}, err
	}
	if s.Len, err = ReadU16LE(buf, base+offSlotLen); err != nil {
		return Slot{}, err
	}
	if s.Flags, err = ReadU16LE(buf, base+offSlotFlags); err != nil {
		return Slot{}, err
	}

	return s, nil
}

func WriteSlot(buf []byte, id uint16, s Slot) error {
	base, err := slotBase(buf, id)
	if err != nil {
		return err
	}

	if err := WriteU16LE(buf, base+offSlotOffset, s.Offset); err != nil {
		return err
	}
	if err := WriteU16LE(buf, base+offSlotLen, s.Len); err != nil {
		return err
	}
	return WriteU16LE(buf, base+offSlotFlags, s.Flags)
}

// slotBase fails with a corruption error rather than an out of bounds one: a slot id past the buffer means the slot
// directory itself is broken.
func slotBase(buf []byte, id uint16) (int, error) {
	base := SlotOffset(id)
	if base+common.SlotSize > len(buf) {
		return 0, common.Corruption(fmt.Sprintf("slot %d entry [%d, %d) exceeds page length %d", id, base, base+common.SlotSize, len(buf)))
	}
	return base, nil
}
