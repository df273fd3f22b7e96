package pages

import (
	"encoding/binary"

	"novalite/common"
)

/*
	Fixed width little endian readers and writers. Every access goes through checkedRange first so that higher layers
	never do their own offset arithmetic against the buffer length. An access outside of the buffer returns
	*common.OutOfBoundsError instead of panicking.
*/

func checkedRange(length, off, size int) (int, error) {
	if off < 0 || size < 0 || off > length || size > length || off+size > length {
		return 0, &common.OutOfBoundsError{Off: off, Size: size, Len: length}
	}
	return off + size, nil
}

func ReadU16LE(buf []byte, off int) (uint16, error) {
	end, err := checkedRange(len(buf), off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[off:end]), nil
}

func WriteU16LE(buf []byte, off int, v uint16) error {
	end, err := checkedRange(len(buf), off, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf[off:end], v)
	return nil
}

func ReadU32LE(buf []byte, off int) (uint32, error) {
	end, err := checkedRange(len(buf), off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[off:end]), nil
}

func WriteU32LE(buf []byte, off int, v uint32) error {
	end, err := checkedRange(len(buf), off, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[off:end], v)
	return nil
}

func ReadU64LE(buf []byte, off int) (uint64, error) {
	end, err := checkedRange(len(buf), off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[off:end]), nil
}

func WriteU64LE(buf []byte, off int, v uint64) error {
	end, err := checkedRange(len(buf), off, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[off:end], v)
	return nil
}
