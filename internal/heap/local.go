// Package heap reads the two HDF5 heap structures this engine needs:
// local heaps holding old-style group link names, and global heap
// collections holding variable-length element payloads.
package heap

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

var localSignature = []byte("HEAP")

// Local is a local heap: a single data segment addressed by byte
// offset, holding null-terminated names.
type Local struct {
	DataAddress uint64
	data        []byte
}

// ReadLocal reads the local heap header at address and pulls in its
// data segment.
func ReadLocal(c *cursor.Cursor, address uint64) (*Local, error) {
	hc := c.At(int64(address))

	sig, err := hc.Bytes(4)
	if err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", address, err)
	}
	if string(sig) != string(localSignature) {
		return nil, fmt.Errorf("%w: local heap at %d has signature %q", errs.ErrFormat, address, sig)
	}
	version, err := hc.Uint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", errs.ErrUnsupportedFeature, version)
	}
	hc.Skip(3)

	dataSize, err := hc.Length()
	if err != nil {
		return nil, err
	}
	if _, err := hc.Length(); err != nil { // free list head, unused
		return nil, err
	}
	dataAddr, err := hc.Offset()
	if err != nil {
		return nil, err
	}

	dc := c.At(int64(dataAddr))
	data, err := dc.Bytes(int(dataSize))
	if err != nil {
		return nil, fmt.Errorf("local heap data at %d: %w", dataAddr, err)
	}
	return &Local{DataAddress: dataAddr, data: data}, nil
}

// Name returns the null-terminated string at the given heap offset.
// An out-of-range offset yields the empty string, matching how the
// format treats the root entry's unnamed slot.
func (h *Local) Name(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	end := offset
	for end < uint64(len(h.data)) && h.data[end] != 0 {
		end++
	}
	return string(h.data[offset:end])
}
