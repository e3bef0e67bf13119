package layout

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// contiguousReader serves elements stored as one block in the file.
type contiguousReader struct {
	lo    *message.DataLayout
	space *message.Dataspace
	dt    *message.Datatype
	fill  []byte
	c     *cursor.Cursor
}

func (r *contiguousReader) ReadAll() ([]byte, error) {
	want := totalBytes(r.space, r.dt)
	if want == 0 {
		return nil, nil
	}

	// An undefined address means no block was ever allocated; every
	// element takes the fill value.
	if r.c.UndefinedOffset(r.lo.Address) {
		buf := make([]byte, want)
		fillBuffer(buf, r.fill)
		return buf, nil
	}

	size := r.lo.Size
	if size == 0 || size > want {
		size = want
	}
	dc := r.c.At(int64(r.lo.Address))
	data, err := dc.Bytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("contiguous block at %d: %w", r.lo.Address, err)
	}
	if uint64(len(data)) < want {
		return nil, fmt.Errorf("%w: contiguous block holds %d of %d bytes",
			errs.ErrDataRead, len(data), want)
	}
	return data, nil
}
