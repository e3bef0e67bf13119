package object

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

var signatureOCHK = []byte("OCHK")

// Version 2 header prefix:
//
//	0  4  signature "OHDR"
//	4  1  version (2)
//	5  1  flags
//	      bits 0-1  width of the block-0 size field (1 << value)
//	      bit  2    creation order tracked (2 extra bytes per message)
//	      bit  4    attribute phase-change values present (4 bytes)
//	      bit  5    timestamps present (16 bytes)
//
// Messages carry a 1-byte class, 2-byte size, and flags byte, with no
// padding. Each block ends with a 4-byte checksum.
func readV2(c *cursor.Cursor, address uint64) (*Header, error) {
	c.Skip(4) // signature, verified by the caller

	version, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: object header version %d", errs.ErrUnsupportedFeature, version)
	}
	flags, err := c.Uint8()
	if err != nil {
		return nil, err
	}

	if flags&0x20 != 0 {
		c.Skip(16) // access/mod/change/birth times
	}
	if flags&0x10 != 0 {
		c.Skip(4) // max compact / min dense attribute counts
	}

	sizeWidth := 1 << (flags & 0x03)
	blockSize, err := c.UintN(sizeWidth)
	if err != nil {
		return nil, err
	}
	trackOrder := flags&0x04 != 0

	hdr := &Header{Version: 2, Address: address}
	s := newScanState(hdr)
	// The block size counts message bytes only; the trailing checksum
	// sits after them.
	if err := scanV2Block(s, c, blockSize, trackOrder); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	return hdr, nil
}

// scanV2Block reads one run of v2 messages ending before the checksum.
func scanV2Block(s *scanState, c *cursor.Cursor, length uint64, trackOrder bool) error {
	end := c.Pos() + int64(length)
	minEnvelope := int64(4)
	if trackOrder {
		minEnvelope += 2
	}
	for c.Pos()+minEnvelope <= end {
		lead, err := c.Uint8()
		if err != nil {
			return err
		}
		s16, err := c.Uint16()
		if err != nil {
			return err
		}
		kind, size := message.Kind(lead), uint64(s16)

		if _, err := c.Uint8(); err != nil { // flags
			return err
		}
		if trackOrder {
			c.Skip(2)
		}

		body, err := c.Bytes(int(size))
		if err != nil {
			return err
		}

		err = s.add(kind, body, c, func(offset, length uint64) error {
			return scanV2Continuation(s, c, offset, length, trackOrder)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// scanV2Continuation opens an "OCHK" block: signature, messages, and a
// trailing 4-byte checksum.
func scanV2Continuation(s *scanState, c *cursor.Cursor, offset, length uint64, trackOrder bool) error {
	cc := c.At(int64(offset))
	sig, err := cc.Bytes(4)
	if err != nil {
		return err
	}
	if string(sig) != string(signatureOCHK) {
		return fmt.Errorf("%w: continuation block at %d has signature %q", errs.ErrFormat, offset, sig)
	}
	if length < 8 {
		return fmt.Errorf("%w: continuation block at %d too short", errs.ErrFormat, offset)
	}
	return scanV2Block(s, cc, length-8, trackOrder) // minus signature and checksum
}
