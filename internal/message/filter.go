package message

import (
	"encoding/binary"
	"fmt"

	"github.com/seqview/hdf5/internal/errs"
)

// Filter identifiers registered in the format.
const (
	FilterDeflate    uint16 = 1
	FilterShuffle    uint16 = 2
	FilterFletcher32 uint16 = 3
	FilterSZip       uint16 = 4
	FilterNBit       uint16 = 5
	FilterScaleOff   uint16 = 6
	FilterLZF        uint16 = 32000
)

// FilterEntry describes one stage of a dataset's filter pipeline.
type FilterEntry struct {
	ID         uint16
	Name       string
	Flags      uint16
	ClientData []uint32
}

// Optional reports whether a decode failure of this stage may be
// tolerated rather than aborting the read.
func (f FilterEntry) Optional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline is the filter pipeline message (class 0x000B). The
// entries are in forward (encode) order; decoding applies them in
// reverse.
type FilterPipeline struct {
	Version uint8
	Filters []FilterEntry
}

func (m *FilterPipeline) Kind() Kind { return KindFilters }

func parseFilters(body []byte) (*FilterPipeline, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: filter pipeline message truncated", errs.ErrDataRead)
	}
	fp := &FilterPipeline{Version: body[0]}
	count := int(body[1])

	var off int
	switch fp.Version {
	case 1:
		off = 8 // 2 reserved shorts + 4 reserved bytes
	case 2:
		off = 2
	default:
		return nil, fmt.Errorf("%w: filter pipeline version %d", errs.ErrUnsupportedFeature, fp.Version)
	}

	for i := 0; i < count; i++ {
		entry, n, err := parseFilterEntry(body[off:], fp.Version)
		if err != nil {
			return nil, err
		}
		fp.Filters = append(fp.Filters, entry)
		off += n
	}
	return fp, nil
}

func parseFilterEntry(body []byte, version uint8) (FilterEntry, int, error) {
	var e FilterEntry
	if len(body) < 8 {
		return e, 0, fmt.Errorf("%w: filter entry truncated", errs.ErrDataRead)
	}
	e.ID = binary.LittleEndian.Uint16(body)
	nameLen := int(binary.LittleEndian.Uint16(body[2:]))
	e.Flags = binary.LittleEndian.Uint16(body[4:])
	nvals := int(binary.LittleEndian.Uint16(body[6:]))
	off := 8

	// v2 omits the name for the reserved filter range (< 256).
	if version == 2 && e.ID < 256 {
		nameLen = 0
	}
	if nameLen > 0 {
		if off+nameLen > len(body) {
			return e, 0, fmt.Errorf("%w: filter name truncated", errs.ErrDataRead)
		}
		raw := body[off : off+nameLen]
		for len(raw) > 0 && raw[len(raw)-1] == 0 {
			raw = raw[:len(raw)-1]
		}
		e.Name = string(raw)
		off += nameLen
		if version == 1 {
			off = pad8(off)
		}
	}

	if off+4*nvals > len(body) {
		return e, 0, fmt.Errorf("%w: filter client data truncated", errs.ErrDataRead)
	}
	e.ClientData = make([]uint32, nvals)
	for i := range e.ClientData {
		e.ClientData[i] = binary.LittleEndian.Uint32(body[off:])
		off += 4
	}
	// v1 pads the client data to an even count of values.
	if version == 1 && nvals%2 != 0 {
		off += 4
	}
	return e, off, nil
}

func pad8(n int) int { return (n + 7) &^ 7 }
