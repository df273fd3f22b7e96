package meta

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack"

	"novalite/common"
	"novalite/disk/pages"
)

/**
 * Meta page (page 0) format:
 *  ----------------------------------------------------------------------------------------
 *  | magic (12) | version (2) | page size (4) | payload len (4) | payload (msgpack) ... |
 *  ----------------------------------------------------------------------------------------
 */

const (
	offMagic      = 0
	offVersion    = 12
	offPageSize   = 14
	offPayloadLen = 18
	offPayload    = 22

	// MaxPayloadSize is the largest msgpack payload that fits into the meta page.
	MaxPayloadSize = common.PageSize - offPayload
)

// ErrUninitialized is returned by Read for an all zero meta page, which is what a freshly created file has.
var ErrUninitialized = errors.New("meta page is not initialized")

type Meta struct {
	Version  uint16          `msgpack:"-"`
	PageSize uint32          `msgpack:"-"`
	FreeList []common.PageId `msgpack:"free_list"`

	// HeapPages lists the pages of the table heap in insertion order.
	HeapPages []common.PageId `msgpack:"heap_pages"`
}

func New() Meta {
	return Meta{
		Version:  common.DBVersion,
		PageSize: common.PageSize,
	}
}

// Write encodes m into buf, replacing the whole page. Version and page size always take the current values.
func Write(buf []byte, m Meta) error {
	if len(buf) != common.PageSize {
		return common.InvalidArgument(fmt.Sprintf("meta page buffer length %d, want %d", len(buf), common.PageSize))
	}

	payload, err := msgpack.Marshal(&m)
	if err != nil {
		return common.InvalidArgument(fmt.Sprintf("encoding meta payload: %v", err))
	}
	if len(payload) > MaxPayloadSize {
		return common.NoSpace(fmt.Sprintf("meta payload is %d bytes, at most %d fit", len(payload), MaxPayloadSize))
	}

	clear(buf)
	copy(buf[offMagic:offVersion], common.DBMagic[:])
	if err := pages.WriteU16LE(buf, offVersion, common.DBVersion); err != nil {
		return err
	}
	if err := pages.WriteU32LE(buf, offPageSize, common.PageSize); err != nil {
		return err
	}
	if err := pages.WriteU32LE(buf, offPayloadLen, uint32(len(payload))); err != nil {
		return err
	}
	copy(buf[offPayload:], payload)

	return nil
}

func Read(buf []byte) (Meta, error) {
	if len(buf) != common.PageSize {
		return Meta{}, common.Corruption(fmt.Sprintf("meta page buffer length %d, want %d", len(buf), common.PageSize))
	}
	if isZero(buf) {
		return Meta{}, ErrUninitialized
	}

	if !bytes.Equal(buf[offMagic:offVersion], common.DBMagic[:]) {
		return Meta{}, common.Corruption("meta page magic mismatch")
	}

	version, err := pages.ReadU16LE(buf, offVersion)
	if err != nil {
		return Meta{}, err
	}
	if version != common.DBVersion {
		return Meta{}, common.Corruption(fmt.Sprintf("unsupported format version %d", version))
	}

	pageSize, err := pages.ReadU32LE(buf, offPageSize)
	if err != nil {
		return Meta{}, err
	}
	if pageSize != common.PageSize {
		return Meta{}, common.Corruption(fmt.Sprintf("file page size %d, want %d", pageSize, common.PageSize))
	}

	payloadLen, err := pages.ReadU32LE(buf, offPayloadLen)
	if err != nil {
		return Meta{}, err
	}
	if payloadLen > MaxPayloadSize {
		return Meta{}, common.Corruption(fmt.Sprintf("meta payload length %d exceeds page", payloadLen))
	}

	m := Meta{}
	if err := msgpack.Unmarshal(buf[offPayload:offPayload+int(payloadLen)], &m); err != nil {
		return Meta{}, common.Corruption(fmt.Sprintf("decoding meta payload: %v", err))
	}
	m.Version, m.PageSize = version, pageSize

	return m, nil
}

func isZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
