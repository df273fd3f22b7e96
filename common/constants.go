package common

const (
	// PageSize is the only page size the engine supports. Every page in a database file, page 0 included, is exactly
	// this many bytes long.
	PageSize = 4096

	// HeaderSize is the size of the header at the beginning of every slotted page.
	HeaderSize = 16

	// SlotSize is the size of one slot directory entry: offset(2) + len(2) + flags(2).
	SlotSize = 6

	// DBVersion is the on-disk format version written into the meta page.
	DBVersion uint16 = 1
)

// DBMagic identifies a database file. It occupies the first 12 bytes of the meta page.
var DBMagic = [12]byte{'N', 'O', 'V', 'A', 'D', 'B', 'L', 'I', 'T', 'E', 0, 0}
