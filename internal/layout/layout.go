// Package layout reads dataset element storage. Each storage class
// (compact, contiguous, chunked) gets a Reader that yields the full
// element buffer in row-major order, with unwritten regions taken
// from the fill value.
package layout

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// Reader produces the dataset's raw element bytes.
type Reader interface {
	// ReadAll returns every element in row-major order.
	ReadAll() ([]byte, error)
}

// New builds the Reader for a dataset's storage.
func New(
	lo *message.DataLayout,
	space *message.Dataspace,
	dt *message.Datatype,
	fp *message.FilterPipeline,
	fill []byte,
	c *cursor.Cursor,
) (Reader, error) {
	if lo == nil {
		return nil, fmt.Errorf("%w: dataset has no layout message", errs.ErrFormat)
	}
	switch lo.Class {
	case message.StorageCompact:
		return &compactReader{data: lo.CompactData}, nil
	case message.StorageContiguous:
		return &contiguousReader{lo: lo, space: space, dt: dt, fill: fill, c: c}, nil
	case message.StorageChunked:
		return newChunkedReader(lo, space, dt, fp, fill, c)
	default:
		return nil, fmt.Errorf("%w: storage class %d", errs.ErrUnsupportedFeature, lo.Class)
	}
}

func totalBytes(space *message.Dataspace, dt *message.Datatype) uint64 {
	if space == nil || dt == nil {
		return 0
	}
	return space.NumElements() * uint64(dt.Size)
}

// fillBuffer stamps the fill pattern across buf. A nil or empty
// pattern leaves the zero bytes in place.
func fillBuffer(buf, pattern []byte) {
	if len(pattern) == 0 {
		return
	}
	for off := 0; off < len(buf); off += len(pattern) {
		copy(buf[off:], pattern)
	}
}
