package message

import (
	"encoding/binary"
	"fmt"

	"github.com/seqview/hdf5/internal/errs"
)

// FillValue is the fill value message (class 0x0005): the byte pattern
// used for elements no chunk or block covers.
type FillValue struct {
	Version uint8
	Value   []byte // nil when the value is undefined or zero-length
}

func (m *FillValue) Kind() Kind { return KindFillValue }

func parseFillValue(body []byte) (*FillValue, error) {
	if len(body) < 1 {
		return nil, fmt.Errorf("%w: fill value message truncated", errs.ErrDataRead)
	}
	fv := &FillValue{Version: body[0]}

	var off int
	defined := true
	switch fv.Version {
	case 1, 2:
		if len(body) < 4 {
			return nil, fmt.Errorf("%w: fill value message truncated", errs.ErrDataRead)
		}
		defined = body[3] != 0
		off = 4
		if fv.Version == 1 {
			defined = true // v1 always carries the size field
		}
	case 3:
		if len(body) < 2 {
			return nil, fmt.Errorf("%w: fill value message truncated", errs.ErrDataRead)
		}
		flags := body[1]
		defined = flags&0x20 != 0
		off = 2
	default:
		return nil, fmt.Errorf("%w: fill value version %d", errs.ErrUnsupportedFeature, fv.Version)
	}

	if !defined {
		return fv, nil
	}
	if off+4 > len(body) {
		return fv, nil // size field absent: treat as undefined
	}
	size := int(binary.LittleEndian.Uint32(body[off:]))
	off += 4
	if size == 0 {
		return fv, nil
	}
	if off+size > len(body) {
		return nil, fmt.Errorf("%w: fill value truncated (%d of %d bytes)", errs.ErrDataRead, len(body)-off, size)
	}
	fv.Value = append([]byte(nil), body[off:off+size]...)
	return fv, nil
}
