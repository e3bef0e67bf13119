// Package cursor provides the random-access byte cursor every other
// component reads through. A Cursor pairs an io.ReaderAt with the
// file-wide decode parameters (byte order, offset size, length size)
// taken from the superblock.
package cursor

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/seqview/hdf5/internal/errs"
)

// Params holds the decode parameters derived from the superblock.
type Params struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // bytes per file offset: 2, 4, or 8
	LengthSize int // bytes per length field: 2, 4, or 8
}

// DefaultParams is suitable for reading the superblock itself, before
// the real sizes are known. HDF5 metadata is always little-endian.
func DefaultParams() Params {
	return Params{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Cursor is a seekable reader positioned within an HDF5 byte source.
// Position is local to the Cursor; At() spawns independent cursors over
// the same source, so nested structures can be read without disturbing
// the caller's position.
type Cursor struct {
	src        io.ReaderAt
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
	pos        int64
}

// New creates a cursor at position 0.
func New(src io.ReaderAt, p Params) *Cursor {
	return &Cursor{
		src:        src,
		order:      p.ByteOrder,
		offsetSize: p.OffsetSize,
		lengthSize: p.LengthSize,
	}
}

// At returns an independent cursor over the same source, positioned at
// the given file offset.
func (c *Cursor) At(offset int64) *Cursor {
	dup := *c
	dup.pos = offset
	return &dup
}

// WithSizes returns a cursor with updated offset/length field widths.
// Used once the superblock has been decoded.
func (c *Cursor) WithSizes(offsetSize, lengthSize int) *Cursor {
	dup := *c
	dup.offsetSize = offsetSize
	dup.lengthSize = lengthSize
	return &dup
}

// Pos returns the current position.
func (c *Cursor) Pos() int64 { return c.pos }

// Skip advances the position by n bytes without reading.
func (c *Cursor) Skip(n int64) { c.pos += n }

// Align advances the position to the next multiple of n.
func (c *Cursor) Align(n int64) {
	if n <= 1 {
		return
	}
	if rem := c.pos % n; rem != 0 {
		c.pos += n - rem
	}
}

// Bytes reads exactly n bytes and advances the position.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := c.src.ReadAt(buf, c.pos); err != nil {
		return nil, fmt.Errorf("%w: short read of %d bytes at offset %d: %v",
			errs.ErrDataRead, n, c.pos, err)
	}
	c.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without advancing the position.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := c.src.ReadAt(buf, c.pos); err != nil {
		return nil, fmt.Errorf("%w: short peek of %d bytes at offset %d: %v",
			errs.ErrDataRead, n, c.pos, err)
	}
	return buf, nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	buf, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Uint16 reads a 16-bit unsigned integer in the configured byte order.
func (c *Cursor) Uint16() (uint16, error) {
	buf, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(buf), nil
}

// Uint32 reads a 32-bit unsigned integer.
func (c *Cursor) Uint32() (uint32, error) {
	buf, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(buf), nil
}

// Uint64 reads a 64-bit unsigned integer.
func (c *Cursor) Uint64() (uint64, error) {
	buf, err := c.Bytes(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(buf), nil
}

// UintN reads an unsigned integer of n bytes.
func (c *Cursor) UintN(n int) (uint64, error) {
	buf, err := c.Bytes(n)
	if err != nil {
		return 0, err
	}
	return DecodeUint(buf, n, c.order), nil
}

// Offset reads a file offset using the configured offset size.
func (c *Cursor) Offset() (uint64, error) {
	return c.UintN(c.offsetSize)
}

// Length reads a length field using the configured length size.
func (c *Cursor) Length() (uint64, error) {
	return c.UintN(c.lengthSize)
}

// OffsetSize returns the configured offset field width in bytes.
func (c *Cursor) OffsetSize() int { return c.offsetSize }

// LengthSize returns the configured length field width in bytes.
func (c *Cursor) LengthSize() int { return c.lengthSize }

// ByteOrder returns the configured byte order.
func (c *Cursor) ByteOrder() binary.ByteOrder { return c.order }

// UndefinedOffset reports whether offset is the all-ones "undefined
// address" sentinel for the configured offset size.
func (c *Cursor) UndefinedOffset(offset uint64) bool {
	return offset == undefinedValue(c.offsetSize)
}

// UndefinedLength reports whether length is the all-ones sentinel for
// the configured length size.
func (c *Cursor) UndefinedLength(length uint64) bool {
	return length == undefinedValue(c.lengthSize)
}

func undefinedValue(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (size * 8)) - 1
}

// DecodeUint decodes a variable-width unsigned integer from buf.
// Widths other than 1/2/4/8 are decoded little-endian, which is the
// only order HDF5 uses for metadata.
func DecodeUint(buf []byte, size int, order binary.ByteOrder) uint64 {
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	default:
		var v uint64
		for i := size - 1; i >= 0; i-- {
			v = v<<8 | uint64(buf[i])
		}
		return v
	}
}
