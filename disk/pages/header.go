package pages

import (
	"fmt"

	"novalite/common"
)

/**
 * Slotted page format (little endian):
 *  ---------------------------------------------------------------------------
 *  | HEADER (16) | SLOT DIR -> ... FREE SPACE ... <- TUPLES (grow downward) |
 *  ---------------------------------------------------------------------------
 *                             ^                   ^
 *                             lower               upper
 *
 *  Header format (size in bytes):
 *  ------------------------------------------------------------------------
 *  | lower (2) | upper (2) | slot_count (2) | flags (2) | reserved (8)     |
 *  ------------------------------------------------------------------------
 *
 *  Slot format (size in bytes), slot i starts at 16 + i*6:
 *  -----------------------------------------
 *  | offset (2) | len (2) | flags (2)      |
 *  -----------------------------------------
 */

type PageType uint16

const (
	HeapPage PageType = iota
	BtreeLeafPage
	BtreeInternalPage
	OverflowPage
)

func (t PageType) String() string {
	switch t {
	case HeapPage:
		return "heap"
	case BtreeLeafPage:
		return "btree-leaf"
	case BtreeInternalPage:
		return "btree-internal"
	case OverflowPage:
		return "overflow"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

const (
	// PageTypeMask selects bits 0..3 of the page flags which hold the PageType.
	PageTypeMask uint16 = 0x000F

	// FlagHasFreeSlots is advisory: when it is set there may be a dead slot that can be reused. It is set on delete
	// and cleared lazily by an insert whose scan finds no dead slot.
	FlagHasFreeSlots uint16 = 1 << 4

	// FlagIsCompressed and FlagIsChecksummed are reserved, no codec reads or writes them yet.
	FlagIsCompressed  uint16 = 1 << 5
	FlagIsChecksummed uint16 = 1 << 6
)

const (
	offLower     = 0
	offUpper     = 2
	offSlotCount = 4
	offFlags     = 6
	offReserved  = 8
)

// PageHeader is a decoded, read only snapshot of a page header. The page buffer stays the source of truth, a snapshot
// is never written back.
type PageHeader struct {
	Lower     uint16
	Upper     uint16
	SlotCount uint16
	Flags     uint16
	Reserved  uint64
}

func (h PageHeader) PageType() PageType {
	return PageTypeOf(h.Flags)
}

func (h PageHeader) HasFlag(mask uint16) bool {
	return HasFlag(h.Flags, mask)
}

// DecodeHeader materializes the header at the beginning of buf.
func DecodeHeader(buf []byte) (PageHeader, error) {
	if len(buf) != common.PageSize {
		return PageHeader{}, common.Corruption(fmt.Sprintf("page buffer length %d, want %d", len(buf), common.PageSize))
	}

	var (
		h   PageHeader
		err error
	)
	if h.Lower, err = readLower(buf); err != nil {
		return PageHeader{}, err
	}
	if h.Upper, err = readUpper(buf); err != nil {
		return PageHeader{}, err
	}
	if h.SlotCount, err = readSlotCount(buf); err != nil {
		return PageHeader{}, err
	}
	if h.Flags, err = readFlags(buf); err != nil {
		return PageHeader{}, err
	}
	if h.Reserved, err = readReserved(buf); err != nil {
		return PageHeader{}, err
	}

	return h, nil
}

// InitEmptyHeader resets buf's header to the empty page state. Only the header bytes are touched.
func InitEmptyHeader(buf []byte, pageType PageType) error {
	if len(buf) != common.PageSize {
		return common.Corruption(fmt.Sprintf("page buffer length %d, want %d", len(buf), common.PageSize))
	}

	if err := writeLower(buf, common.HeaderSize); err != nil {
		return err
	}
	if err := writeUpper(buf, common.PageSize); err != nil {
		return err
	}
	if err := writeSlotCount(buf, 0); err != nil {
		return err
	}
	if err := writeFlags(buf, uint16(pageType)&PageTypeMask); err != nil {
		return err
	}
	return writeReserved(buf, 0)
}

func SetFlag(flags, mask uint16) uint16 {
	return flags | mask
}

func ClearFlag(flags, mask uint16) uint16 {
	return flags &^ mask
}

func HasFlag(flags, mask uint16) bool {
	return flags&mask != 0
}

// SetPageType replaces bits 0..3 of flags and keeps the rest.
func SetPageType(flags uint16, t PageType) uint16 {
	return (flags &^ PageTypeMask) | (uint16(t) & PageTypeMask)
}

func IsPageType(flags uint16, t PageType) bool {
	return PageTypeOf(flags) == t
}

func PageTypeOf(flags uint16) PageType {
	return PageType(flags & PageTypeMask)
}

func readLower(buf []byte) (uint16, error)     { return ReadU16LE(buf, offLower) }
func readUpper(buf []byte) (uint16, error)     { return ReadU16LE(buf, offUpper) }
func readSlotCount(buf []byte) (uint16, error) { return ReadU16LE(buf, offSlotCount) }
func readFlags(buf []byte) (uint16, error)     { return ReadU16LE(buf, offFlags) }
func readReserved(buf []byte) (uint64, error)  { return ReadU64LE(buf, offReserved) }

func writeLower(buf []byte, v uint16) error     { return WriteU16LE(buf, offLower, v) }
func writeUpper(buf []byte, v uint16) error     { return WriteU16LE(buf, offUpper, v) }
func writeSlotCount(buf []byte, v uint16) error { return WriteU16LE(buf, offSlotCount, v) }
func writeFlags(buf []byte, v uint16) error     { return WriteU16LE(buf, offFlags, v) }
func writeReserved(buf []byte, v uint64) error  { return WriteU64LE(buf, offReserved, v) }
