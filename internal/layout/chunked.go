package layout

import (
	"fmt"

	"github.com/seqview/hdf5/internal/chunkindex"
	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/filter"
	"github.com/seqview/hdf5/internal/message"
)

// chunkedReader assembles a dataset from its stored chunks: every
// chunk is located through the index, run backwards through the
// filter pipeline, and copied into place with edge chunks clipped to
// the dataset extent.
type chunkedReader struct {
	lo       *message.DataLayout
	space    *message.Dataspace
	dt       *message.Datatype
	pipeline *filter.Pipeline
	fill     []byte
	c        *cursor.Cursor
}

func newChunkedReader(
	lo *message.DataLayout,
	space *message.Dataspace,
	dt *message.Datatype,
	fp *message.FilterPipeline,
	fill []byte,
	c *cursor.Cursor,
) (*chunkedReader, error) {
	if lo.Version >= 4 {
		return nil, fmt.Errorf("%w: version 4 chunk index (kind %d)", errs.ErrUnsupportedFeature, lo.IndexKind)
	}
	if len(lo.ChunkDims) == 0 {
		return nil, fmt.Errorf("%w: chunked layout with no chunk shape", errs.ErrFormat)
	}
	p, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, err
	}
	return &chunkedReader{lo: lo, space: space, dt: dt, pipeline: p, fill: fill, c: c}, nil
}

func (r *chunkedReader) ReadAll() ([]byte, error) {
	want := totalBytes(r.space, r.dt)
	if want == 0 {
		return nil, nil
	}
	out := make([]byte, want)
	fillBuffer(out, r.fill)

	// No index at all means no chunk was ever written.
	if r.c.UndefinedOffset(r.lo.IndexAddr) {
		return out, nil
	}

	dims := r.space.Dims
	chunkDims := r.lo.ChunkDims
	if len(chunkDims) > len(dims) {
		chunkDims = chunkDims[:len(dims)]
	}
	if len(chunkDims) != len(dims) {
		return nil, fmt.Errorf("%w: chunk rank %d does not match dataset rank %d",
			errs.ErrFormat, len(chunkDims), len(dims))
	}

	elemSize := int(r.dt.Size)
	chunkBytes := elemSize
	for _, d := range chunkDims {
		chunkBytes *= int(d)
	}

	idx, err := chunkindex.Open(r.c, r.lo.IndexAddr, len(dims))
	if err != nil {
		return nil, err
	}
	entries, err := idx.ReadAll()
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		data, err := r.readChunk(e, chunkBytes)
		if err != nil {
			return nil, fmt.Errorf("chunk at %v: %w", e.Offset, err)
		}
		if err := placeChunk(out, data, e.Offset, dims, chunkDims, elemSize); err != nil {
			return nil, fmt.Errorf("chunk at %v: %w", e.Offset, err)
		}
	}
	return out, nil
}

// readChunk pulls one chunk's stored bytes and decodes them. Decoded
// chunks are always full-shape; clipping happens during placement.
func (r *chunkedReader) readChunk(e chunkindex.Entry, chunkBytes int) ([]byte, error) {
	cc := r.c.At(int64(e.Address))
	raw, err := cc.Bytes(int(e.Size))
	if err != nil {
		return nil, err
	}
	if r.pipeline.Empty() {
		if len(raw) != chunkBytes {
			return nil, fmt.Errorf("%w: stored chunk holds %d bytes, shape needs %d",
				errs.ErrDataRead, len(raw), chunkBytes)
		}
		return raw, nil
	}
	return r.pipeline.Decode(raw, e.FilterMask, chunkBytes)
}
