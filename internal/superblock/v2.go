package superblock

import (
	"fmt"
	"io"
)

// Version 2/3 layout after the signature:
//
//	+0   version
//	+1   size of offsets
//	+2   size of lengths
//	+3   file consistency flags
//	then offset-sized each: base address, superblock extension address,
//	EOF address, root group object header address; then a 4-byte
//	lookup3 checksum.
func readV2V3(src io.ReaderAt, base int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 4)
	if _, err := src.ReadAt(fixed, base+8); err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", version, err)
	}

	sb := &Superblock{
		Version:    version,
		OffsetSize: fixed[1],
		LengthSize: fixed[2],
	}
	osize := int64(sb.OffsetSize)

	pos := base + 12
	var err error
	if sb.BaseAddress, err = readUintAt(src, pos, int(osize)); err != nil {
		return nil, err
	}
	pos += 2 * osize // skip superblock extension address
	if sb.EOFAddress, err = readUintAt(src, pos, int(osize)); err != nil {
		return nil, err
	}
	pos += osize
	if sb.RootGroupAddress, err = readUintAt(src, pos, int(osize)); err != nil {
		return nil, err
	}

	return sb, nil
}
