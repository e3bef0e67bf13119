package message

import (
	"encoding/binary"
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// StorageClass identifies how dataset elements are stored.
type StorageClass uint8

const (
	StorageCompact    StorageClass = 0 // raw data inline in the header
	StorageContiguous StorageClass = 1 // one block at a file address
	StorageChunked    StorageClass = 2 // indexed fixed-shape chunks
	StorageVirtual    StorageClass = 3 // stitched from other datasets
)

// IndexKind is the chunk index structure named by a v4 layout message.
type IndexKind uint8

const (
	IndexSingleChunk     IndexKind = 1
	IndexImplicit        IndexKind = 2
	IndexFixedArray      IndexKind = 3
	IndexExtensibleArray IndexKind = 4
	IndexBTreeV2         IndexKind = 5
)

// DataLayout is the storage layout message (class 0x0008).
type DataLayout struct {
	Version uint8
	Class   StorageClass

	// Compact storage
	CompactData []byte

	// Contiguous storage
	Address uint64
	Size    uint64

	// Chunked storage. ChunkDims excludes the trailing element-size
	// dimension the on-disk encoding appends.
	ChunkDims []uint32
	IndexAddr uint64
	IndexKind IndexKind // v4 only; zero for v1-v3 (always a v1 B-tree)
}

func (m *DataLayout) Kind() Kind { return KindDataLayout }

func parseDataLayout(body []byte, c *cursor.Cursor) (*DataLayout, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: layout message truncated", errs.ErrDataRead)
	}
	lo := &DataLayout{Version: body[0]}
	switch lo.Version {
	case 1, 2:
		return parseLayoutV1V2(body, c, lo)
	case 3, 4:
		return parseLayoutV3V4(body, c, lo)
	default:
		return nil, fmt.Errorf("%w: layout version %d", errs.ErrUnsupportedFeature, lo.Version)
	}
}

// v1/v2: dimensionality precedes the class; chunk dimensions include
// the trailing element-size entry.
func parseLayoutV1V2(body []byte, c *cursor.Cursor, lo *DataLayout) (*DataLayout, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("%w: layout v%d truncated", errs.ErrDataRead, lo.Version)
	}
	ndims := int(body[1])
	lo.Class = StorageClass(body[2])
	off := 8 // class + 5 reserved bytes follow the dimensionality

	switch lo.Class {
	case StorageContiguous, StorageChunked:
		osize := c.OffsetSize()
		if off+osize > len(body) {
			return nil, fmt.Errorf("%w: layout address truncated", errs.ErrDataRead)
		}
		addr := cursor.DecodeUint(body[off:], osize, c.ByteOrder())
		off += osize
		if lo.Class == StorageContiguous {
			lo.Address = addr
		} else {
			lo.IndexAddr = addr
		}
	}

	if lo.Class == StorageChunked || lo.Class == StorageCompact || lo.Class == StorageContiguous {
		dims := make([]uint32, 0, ndims)
		for i := 0; i < ndims; i++ {
			if off+4 > len(body) {
				return nil, fmt.Errorf("%w: layout dimensions truncated", errs.ErrDataRead)
			}
			dims = append(dims, binary.LittleEndian.Uint32(body[off:]))
			off += 4
		}
		if lo.Class == StorageChunked {
			if off+4 <= len(body) {
				off += 4 // element size entry
			}
			if len(dims) > 0 {
				dims = dims[:len(dims)-1]
			}
			lo.ChunkDims = dims
		}
	}

	switch lo.Class {
	case StorageCompact:
		if off+4 > len(body) {
			return nil, fmt.Errorf("%w: compact size truncated", errs.ErrDataRead)
		}
		size := binary.LittleEndian.Uint32(body[off:])
		off += 4
		if off+int(size) > len(body) {
			return nil, fmt.Errorf("%w: compact data truncated", errs.ErrDataRead)
		}
		lo.CompactData = append([]byte(nil), body[off:off+int(size)]...)
	case StorageContiguous:
		lsize := c.LengthSize()
		if off+lsize <= len(body) {
			lo.Size = cursor.DecodeUint(body[off:], lsize, c.ByteOrder())
		}
	}
	return lo, nil
}

func parseLayoutV3V4(body []byte, c *cursor.Cursor, lo *DataLayout) (*DataLayout, error) {
	lo.Class = StorageClass(body[1])
	off := 2

	switch lo.Class {
	case StorageCompact:
		if off+2 > len(body) {
			return nil, fmt.Errorf("%w: compact size truncated", errs.ErrDataRead)
		}
		size := int(binary.LittleEndian.Uint16(body[off:]))
		off += 2
		if off+size > len(body) {
			return nil, fmt.Errorf("%w: compact data truncated", errs.ErrDataRead)
		}
		lo.CompactData = append([]byte(nil), body[off:off+size]...)
		return lo, nil

	case StorageContiguous:
		osize, lsize := c.OffsetSize(), c.LengthSize()
		if off+osize+lsize > len(body) {
			return nil, fmt.Errorf("%w: contiguous layout truncated", errs.ErrDataRead)
		}
		lo.Address = cursor.DecodeUint(body[off:], osize, c.ByteOrder())
		off += osize
		lo.Size = cursor.DecodeUint(body[off:], lsize, c.ByteOrder())
		return lo, nil

	case StorageChunked:
		if lo.Version == 3 {
			return parseChunkedV3(body[off:], c, lo)
		}
		return parseChunkedV4(body[off:], c, lo)

	case StorageVirtual:
		return nil, fmt.Errorf("%w: virtual dataset layout", errs.ErrUnsupportedFeature)

	default:
		return nil, fmt.Errorf("%w: storage class %d", errs.ErrUnsupportedFeature, lo.Class)
	}
}

// v3 chunked: dimensionality, B-tree address, 4-byte dims with the
// element size appended.
func parseChunkedV3(body []byte, c *cursor.Cursor, lo *DataLayout) (*DataLayout, error) {
	if len(body) < 1 {
		return nil, fmt.Errorf("%w: chunked layout truncated", errs.ErrDataRead)
	}
	ndims := int(body[0])
	off := 1

	osize := c.OffsetSize()
	if off+osize > len(body) {
		return nil, fmt.Errorf("%w: chunk index address truncated", errs.ErrDataRead)
	}
	lo.IndexAddr = cursor.DecodeUint(body[off:], osize, c.ByteOrder())
	off += osize

	if off+4*ndims > len(body) {
		return nil, fmt.Errorf("%w: chunk dimensions truncated", errs.ErrDataRead)
	}
	dims := make([]uint32, ndims)
	for i := range dims {
		dims[i] = binary.LittleEndian.Uint32(body[off:])
		off += 4
	}
	// The last entry is the element size, not a dimension.
	if len(dims) > 0 {
		dims = dims[:len(dims)-1]
	}
	lo.ChunkDims = dims
	return lo, nil
}

// v4 chunked: flags, dimensionality, per-dimension encoded size,
// dims, index type + type-specific fields, then the index address.
func parseChunkedV4(body []byte, c *cursor.Cursor, lo *DataLayout) (*DataLayout, error) {
	if len(body) < 3 {
		return nil, fmt.Errorf("%w: chunked v4 layout truncated", errs.ErrDataRead)
	}
	ndims := int(body[1])
	dimSize := int(body[2])
	off := 3

	if dimSize < 1 || dimSize > 8 || off+ndims*dimSize > len(body) {
		return nil, fmt.Errorf("%w: chunked v4 dimensions truncated", errs.ErrDataRead)
	}
	dims := make([]uint32, ndims)
	for i := range dims {
		dims[i] = uint32(cursor.DecodeUint(body[off:], dimSize, c.ByteOrder()))
		off += dimSize
	}
	lo.ChunkDims = dims

	if off >= len(body) {
		return nil, fmt.Errorf("%w: chunk index type truncated", errs.ErrDataRead)
	}
	lo.IndexKind = IndexKind(body[off])
	off++

	// Index-specific fields precede the address; the address is the
	// trailing offset-sized field.
	osize := c.OffsetSize()
	if len(body) >= osize {
		lo.IndexAddr = cursor.DecodeUint(body[len(body)-osize:], osize, c.ByteOrder())
	}
	return lo, nil
}
