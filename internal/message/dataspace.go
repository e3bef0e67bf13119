package message

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// SpaceKind distinguishes the three dataspace shapes.
type SpaceKind uint8

const (
	SpaceScalar SpaceKind = 0 // exactly one element, no dimensions
	SpaceSimple SpaceKind = 1 // regular N-dimensional extent
	SpaceNull   SpaceKind = 2 // no elements at all
)

// Dataspace is the shape message (class 0x0001): the ordered list of
// dimension extents for a dataset or attribute.
type Dataspace struct {
	Version uint8
	Rank    int
	Space   SpaceKind
	Dims    []uint64
	MaxDims []uint64 // nil when absent (fixed extent)
}

func (m *Dataspace) Kind() Kind { return KindDataspace }

// NumElements returns the product of the dimension extents (1 for a
// scalar space, 0 for a null space).
func (m *Dataspace) NumElements() uint64 {
	switch m.Space {
	case SpaceScalar:
		return 1
	case SpaceSimple:
		n := uint64(1)
		for _, d := range m.Dims {
			n *= d
		}
		return n
	default:
		return 0
	}
}

// IsScalar reports whether the space holds exactly one element with no
// dimensions.
func (m *Dataspace) IsScalar() bool { return m.Space == SpaceScalar }

func parseDataspace(body []byte, c *cursor.Cursor) (*Dataspace, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: dataspace message truncated", errs.ErrDataRead)
	}

	ds := &Dataspace{
		Version: body[0],
		Rank:    int(body[1]),
	}
	flags := body[2]

	var off int
	switch ds.Version {
	case 1:
		// v1 has no explicit space type; rank 0 means scalar. Four
		// reserved bytes follow the flags.
		if ds.Rank == 0 {
			ds.Space = SpaceScalar
		} else {
			ds.Space = SpaceSimple
		}
		off = 8
	case 2:
		ds.Space = SpaceKind(body[3])
		off = 4
	default:
		return nil, fmt.Errorf("%w: dataspace version %d", errs.ErrUnsupportedFeature, ds.Version)
	}

	if ds.Space != SpaceSimple || ds.Rank == 0 {
		return ds, nil
	}

	lsize := c.LengthSize()
	need := off + ds.Rank*lsize
	if flags&0x01 != 0 {
		need += ds.Rank * lsize
	}
	if len(body) < need {
		return nil, fmt.Errorf("%w: dataspace dimensions truncated (rank %d, %d bytes)",
			errs.ErrDataRead, ds.Rank, len(body))
	}

	ds.Dims = make([]uint64, ds.Rank)
	for i := range ds.Dims {
		ds.Dims[i] = cursor.DecodeUint(body[off:], lsize, c.ByteOrder())
		off += lsize
	}
	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, ds.Rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = cursor.DecodeUint(body[off:], lsize, c.ByteOrder())
			off += lsize
		}
	}
	return ds, nil
}
