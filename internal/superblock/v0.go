package superblock

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// Version 0/1 layout after the signature:
//
//	+0   version
//	+1   free-space storage version
//	+2   root symbol-table entry version
//	+3   reserved
//	+4   shared header message format version
//	+5   size of offsets
//	+6   size of lengths
//	+7   reserved
//	+8   group leaf node K (2)
//	+10  group internal node K (2)
//	+12  file consistency flags (4)
//	[v1 only: +16 indexed storage K (2) + 2 reserved]
//	then: base address, free-space address, EOF address, driver info
//	address (offset-sized each), and the root group symbol-table entry.
func readV0V1(src io.ReaderAt, base int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 16)
	if _, err := src.ReadAt(fixed, base+8); err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", version, err)
	}

	sb := &Superblock{
		Version:    version,
		OffsetSize: fixed[5],
		LengthSize: fixed[6],
	}
	osize := int64(sb.OffsetSize)
	if osize == 0 {
		return nil, fmt.Errorf("%w: zero offset size", errs.ErrFormat)
	}

	pos := base + 24
	if version == 1 {
		pos += 4 // indexed storage K + reserved
	}

	var err error
	if sb.BaseAddress, err = readUintAt(src, pos, int(osize)); err != nil {
		return nil, err
	}
	pos += 2 * osize // skip free-space address
	if sb.EOFAddress, err = readUintAt(src, pos, int(osize)); err != nil {
		return nil, err
	}
	pos += 2 * osize // skip driver info address

	// Root group symbol-table entry: link name offset, object header
	// address, cache type, reserved, 16-byte scratch pad.
	pos += osize // link name offset
	if sb.RootGroupAddress, err = readUintAt(src, pos, int(osize)); err != nil {
		return nil, err
	}
	pos += osize

	cacheType, err := readUintAt(src, pos, 4)
	if err != nil {
		return nil, err
	}
	pos += 8 // cache type + reserved

	// Cache type 1 caches the root group's B-tree and local heap
	// addresses in the scratch pad, saving a header parse later.
	if cacheType == 1 {
		scratch := make([]byte, 16)
		if _, err := src.ReadAt(scratch, pos); err != nil {
			return nil, err
		}
		sb.RootBTreeAddress = cursor.DecodeUint(scratch, int(osize), binary.LittleEndian)
		sb.RootLocalHeapAddress = cursor.DecodeUint(scratch[osize:], int(osize), binary.LittleEndian)
	}

	return sb, nil
}
