package object

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// Version 1 header prefix:
//
//	0  1  version (1)
//	1  1  reserved
//	2  2  message count
//	4  4  reference count
//	8  4  header size (message bytes, all blocks)
//
// Messages start on the next 8-byte boundary. Each carries a 2-byte
// class, 2-byte size, flags byte, and 3 reserved bytes, and is padded
// to 8 bytes.
func readV1(c *cursor.Cursor, address uint64) (*Header, error) {
	version, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: object header version %d", errs.ErrUnsupportedFeature, version)
	}
	c.Skip(1)

	if _, err := c.Uint16(); err != nil { // message count, advisory
		return nil, err
	}
	if _, err := c.Uint32(); err != nil { // reference count
		return nil, err
	}
	headerSize, err := c.Uint32()
	if err != nil {
		return nil, err
	}
	c.Align(8)

	hdr := &Header{Version: 1, Address: address}
	s := newScanState(hdr)
	if err := scanV1Block(s, c, uint64(headerSize)); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	return hdr, nil
}

// scanV1Block reads one run of v1 messages. Continuation blocks use
// the same raw layout with no signature of their own.
func scanV1Block(s *scanState, c *cursor.Cursor, length uint64) error {
	end := c.Pos() + int64(length)
	for c.Pos()+8 <= end {
		kind, err := c.Uint16()
		if err != nil {
			return err
		}
		size, err := c.Uint16()
		if err != nil {
			return err
		}
		if _, err := c.Uint8(); err != nil { // flags
			return err
		}
		c.Skip(3)

		body, err := c.Bytes(int(size))
		if err != nil {
			return err
		}
		c.Align(8)

		err = s.add(message.Kind(kind), body, c, func(offset, length uint64) error {
			cc := c.At(int64(offset))
			return scanV1Block(s, cc, length)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
