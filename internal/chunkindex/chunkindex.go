// Package chunkindex navigates the version 1 B-tree that maps chunk
// grid coordinates to raw chunk blocks on disk. Keys order chunks
// lexicographically by coordinate, most significant dimension first,
// so both point lookup and full in-order enumeration are cheap.
//
// The newer index structures (version 2 B-trees, fixed and extensible
// arrays) are recognized by signature and reported as unsupported.
package chunkindex

import (
	"bytes"
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

var (
	signatureV1      = []byte("TREE")
	signatureV2      = []byte("BTHD")
	signatureFixed   = []byte("FAHD")
	signatureExtArr  = []byte("EAHD")
	maxNodeDepth     = 64 // a deeper tree than this is a corrupt file
	nodeTypeChunkRaw = uint8(1)
)

// Entry locates one stored chunk.
type Entry struct {
	// Offset is the chunk's origin in element coordinates; always a
	// multiple of the chunk shape in every dimension.
	Offset []uint64

	// FilterMask has bit i set when pipeline stage i was skipped for
	// this chunk.
	FilterMask uint32

	// Size is the stored (possibly compressed) byte count.
	Size uint32

	// Address is the file offset of the stored bytes.
	Address uint64
}

// Index is an opened chunk index rooted at a v1 B-tree node.
type Index struct {
	c     *cursor.Cursor
	root  uint64
	ndims int
}

// Open validates the index signature at address. ndims is the dataset
// rank; the on-disk keys carry one extra trailing coordinate (the
// element-size axis) which the Index strips.
func Open(c *cursor.Cursor, address uint64, ndims int) (*Index, error) {
	nc := c.At(int64(address))
	sig, err := nc.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("chunk index at %d: %w", address, err)
	}
	switch {
	case bytes.Equal(sig, signatureV1):
		return &Index{c: c, root: address, ndims: ndims}, nil
	case bytes.Equal(sig, signatureV2):
		return nil, fmt.Errorf("%w: version 2 B-tree chunk index", errs.ErrUnsupportedFeature)
	case bytes.Equal(sig, signatureFixed):
		return nil, fmt.Errorf("%w: fixed array chunk index", errs.ErrUnsupportedFeature)
	case bytes.Equal(sig, signatureExtArr):
		return nil, fmt.Errorf("%w: extensible array chunk index", errs.ErrUnsupportedFeature)
	default:
		return nil, fmt.Errorf("%w: no chunk index at address %d (signature %q)", errs.ErrFormat, address, sig)
	}
}

// ReadAll enumerates every stored chunk in key order.
func (idx *Index) ReadAll() ([]Entry, error) {
	var out []Entry
	err := idx.walk(idx.root, 0, func(e Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

// Lookup descends the tree for the chunk whose origin is exactly
// coord. The second return is false when no chunk is stored there,
// which is not an error: unwritten chunks take the fill value.
func (idx *Index) Lookup(coord []uint64) (Entry, bool, error) {
	if len(coord) != idx.ndims {
		return Entry{}, false, fmt.Errorf("%w: lookup coordinate has rank %d, index has rank %d",
			errs.ErrDataRead, len(coord), idx.ndims)
	}
	return idx.lookupNode(idx.root, coord, 0)
}

// node header: signature, type, level, entries used, two sibling
// addresses.
type nodeInfo struct {
	level   uint8
	entries int
	c       *cursor.Cursor
}

func (idx *Index) openNode(address uint64, depth int) (*nodeInfo, error) {
	if depth > maxNodeDepth {
		return nil, fmt.Errorf("%w: chunk B-tree deeper than %d levels", errs.ErrFormat, maxNodeDepth)
	}
	nc := idx.c.At(int64(address))
	sig, err := nc.Bytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, signatureV1) {
		return nil, fmt.Errorf("%w: chunk B-tree node at %d has signature %q", errs.ErrFormat, address, sig)
	}
	nodeType, err := nc.Uint8()
	if err != nil {
		return nil, err
	}
	if nodeType != nodeTypeChunkRaw {
		return nil, fmt.Errorf("%w: B-tree node type %d in chunk index", errs.ErrFormat, nodeType)
	}
	level, err := nc.Uint8()
	if err != nil {
		return nil, err
	}
	used, err := nc.Uint16()
	if err != nil {
		return nil, err
	}
	nc.Skip(int64(2 * nc.OffsetSize())) // left and right siblings
	return &nodeInfo{level: level, entries: int(used), c: nc}, nil
}

// key reads one chunk key: stored size, filter mask, and ndims+1
// coordinates (the trailing element-size axis is dropped).
func (idx *Index) key(nc *cursor.Cursor) (size, mask uint32, coord []uint64, err error) {
	if size, err = nc.Uint32(); err != nil {
		return
	}
	if mask, err = nc.Uint32(); err != nil {
		return
	}
	coord = make([]uint64, idx.ndims+1)
	for i := range coord {
		if coord[i], err = nc.Uint64(); err != nil {
			return
		}
	}
	coord = coord[:idx.ndims]
	return
}

// walk visits every leaf entry under address in key order.
func (idx *Index) walk(address uint64, depth int, visit func(Entry) error) error {
	n, err := idx.openNode(address, depth)
	if err != nil {
		return err
	}
	// entries+1 keys bracket the entries children; the final key is an
	// upper bound with no child pointer.
	for i := 0; i < n.entries; i++ {
		size, mask, coord, err := idx.key(n.c)
		if err != nil {
			return err
		}
		child, err := n.c.Offset()
		if err != nil {
			return err
		}
		if n.level > 0 {
			if err := idx.walk(child, depth+1, visit); err != nil {
				return err
			}
			continue
		}
		if n.c.UndefinedOffset(child) {
			continue
		}
		if err := visit(Entry{Offset: coord, FilterMask: mask, Size: size, Address: child}); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) lookupNode(address uint64, coord []uint64, depth int) (Entry, bool, error) {
	n, err := idx.openNode(address, depth)
	if err != nil {
		return Entry{}, false, err
	}

	var (
		child     uint64
		haveChild bool
	)
	for i := 0; i < n.entries; i++ {
		size, mask, key, err := idx.key(n.c)
		if err != nil {
			return Entry{}, false, err
		}
		cmp := compareCoords(key, coord)
		if n.level == 0 && cmp == 0 {
			addr, err := n.c.Offset()
			if err != nil {
				return Entry{}, false, err
			}
			if n.c.UndefinedOffset(addr) {
				return Entry{}, false, nil
			}
			return Entry{Offset: key, FilterMask: mask, Size: size, Address: addr}, true, nil
		}
		if cmp > 0 {
			break // keys are sorted; coord precedes everything further
		}
		addr, err := n.c.Offset()
		if err != nil {
			return Entry{}, false, err
		}
		child, haveChild = addr, true
	}

	if n.level == 0 || !haveChild {
		return Entry{}, false, nil
	}
	return idx.lookupNode(child, coord, depth+1)
}

// compareCoords orders chunk coordinates lexicographically with the
// most significant dimension first.
func compareCoords(a, b []uint64) int {
	for i := range a {
		if i >= len(b) {
			break
		}
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
