package layout

import (
	"fmt"

	"github.com/seqview/hdf5/internal/errs"
)

// placeChunk copies one decoded chunk into the row-major output
// buffer. origin is the chunk's first element coordinate; the copy is
// clipped where the chunk extends past the dataset extent, which
// happens on every trailing edge when the extent is not a multiple of
// the chunk shape.
func placeChunk(dst, chunk []byte, origin []uint64, dims []uint64, chunkDims []uint32, elemSize int) error {
	ndims := len(dims)
	if len(origin) != ndims || len(chunkDims) != ndims {
		return fmt.Errorf("%w: chunk coordinate rank mismatch", errs.ErrFormat)
	}
	for d := 0; d < ndims; d++ {
		if origin[d] >= dims[d] {
			return fmt.Errorf("%w: chunk origin %v outside extent %v", errs.ErrFormat, origin, dims)
		}
	}

	// Row-major strides over the dataset and over the chunk.
	dstStride := make([]uint64, ndims)
	srcStride := make([]uint64, ndims)
	dstStride[ndims-1] = uint64(elemSize)
	srcStride[ndims-1] = uint64(elemSize)
	for d := ndims - 2; d >= 0; d-- {
		dstStride[d] = dstStride[d+1] * dims[d+1]
		srcStride[d] = srcStride[d+1] * uint64(chunkDims[d+1])
	}

	// Copy extent per dimension, clipped to the dataset edge.
	count := make([]uint64, ndims)
	for d := 0; d < ndims; d++ {
		count[d] = uint64(chunkDims[d])
		if origin[d]+count[d] > dims[d] {
			count[d] = dims[d] - origin[d]
		}
	}

	return copyRegion(dst, chunk, origin, count, dstStride, srcStride, 0, 0, 0)
}

// copyRegion walks the non-innermost dimensions and copies whole rows
// in the innermost one.
func copyRegion(dst, src []byte, origin, count []uint64, dstStride, srcStride []uint64, dim int, dstOff, srcOff uint64) error {
	if dim == len(count)-1 {
		rowBytes := count[dim] * dstStride[dim] // innermost stride is the element size
		dstStart := dstOff + origin[dim]*dstStride[dim]
		if dstStart+rowBytes > uint64(len(dst)) || srcOff+rowBytes > uint64(len(src)) {
			return fmt.Errorf("%w: chunk copy out of range", errs.ErrDataRead)
		}
		copy(dst[dstStart:dstStart+rowBytes], src[srcOff:srcOff+rowBytes])
		return nil
	}
	for i := uint64(0); i < count[dim]; i++ {
		err := copyRegion(dst, src, origin, count, dstStride, srcStride, dim+1,
			dstOff+(origin[dim]+i)*dstStride[dim],
			srcOff+i*srcStride[dim])
		if err != nil {
			return err
		}
	}
	return nil
}
