// Package grouptree reads old-style group storage: the version 1
// B-tree of symbol table nodes ("SNOD") whose entries name a group's
// children, with the names themselves held in the group's local heap.
package grouptree

import (
	"bytes"
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/heap"
)

var (
	signatureTree = []byte("TREE")
	signatureSnod = []byte("SNOD")
)

const maxTreeDepth = 64

// Symbol table entry cache types.
const (
	cacheNone uint32 = 0
	cacheStab uint32 = 1 // scratch pad holds the child's own B-tree/heap
	cacheSoft uint32 = 2 // scratch pad holds a heap offset to a path
)

// Entry is one named child of an old-style group.
type Entry struct {
	Name          string
	ObjectAddress uint64
	SoftTarget    string // non-empty for symbolic entries
}

// IsSoft reports whether the entry is a symbolic link rather than a
// direct object reference.
func (e Entry) IsSoft() bool { return e.SoftTarget != "" }

// ReadEntries walks the group B-tree rooted at btreeAddr and returns
// every child entry in name order, resolving names through the heap.
func ReadEntries(c *cursor.Cursor, btreeAddr uint64, names *heap.Local) ([]Entry, error) {
	var out []Entry
	if err := walkNode(c, btreeAddr, names, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkNode(c *cursor.Cursor, address uint64, names *heap.Local, depth int, out *[]Entry) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("%w: group B-tree deeper than %d levels", errs.ErrFormat, maxTreeDepth)
	}
	nc := c.At(int64(address))

	sig, err := nc.Bytes(4)
	if err != nil {
		return fmt.Errorf("group B-tree at %d: %w", address, err)
	}
	if !bytes.Equal(sig, signatureTree) {
		return fmt.Errorf("%w: group B-tree node at %d has signature %q", errs.ErrFormat, address, sig)
	}
	nodeType, err := nc.Uint8()
	if err != nil {
		return err
	}
	if nodeType != 0 {
		return fmt.Errorf("%w: B-tree node type %d in group tree", errs.ErrFormat, nodeType)
	}
	level, err := nc.Uint8()
	if err != nil {
		return err
	}
	used, err := nc.Uint16()
	if err != nil {
		return err
	}
	nc.Skip(int64(2 * nc.OffsetSize())) // siblings

	// Group keys are single heap offsets; only the child pointers
	// matter for full enumeration.
	for i := 0; i < int(used); i++ {
		if _, err := nc.Length(); err != nil {
			return err
		}
		child, err := nc.Offset()
		if err != nil {
			return err
		}
		if level > 0 {
			if err := walkNode(c, child, names, depth+1, out); err != nil {
				return err
			}
			continue
		}
		if err := readSymbolNode(c, child, names, out); err != nil {
			return err
		}
	}
	return nil
}

func readSymbolNode(c *cursor.Cursor, address uint64, names *heap.Local, out *[]Entry) error {
	nc := c.At(int64(address))

	sig, err := nc.Bytes(4)
	if err != nil {
		return fmt.Errorf("symbol table node at %d: %w", address, err)
	}
	if !bytes.Equal(sig, signatureSnod) {
		return fmt.Errorf("%w: symbol table node at %d has signature %q", errs.ErrFormat, address, sig)
	}
	version, err := nc.Uint8()
	if err != nil {
		return err
	}
	if version != 1 {
		return fmt.Errorf("%w: symbol table node version %d", errs.ErrUnsupportedFeature, version)
	}
	nc.Skip(1)
	count, err := nc.Uint16()
	if err != nil {
		return err
	}

	for i := 0; i < int(count); i++ {
		entry, err := ReadSymbolEntry(nc, names)
		if err != nil {
			return fmt.Errorf("symbol table entry %d at %d: %w", i, address, err)
		}
		if entry.Name == "" {
			continue
		}
		*out = append(*out, entry)
	}
	return nil
}

// ReadSymbolEntry decodes one symbol table entry at the cursor's
// position: heap name offset, object address, cache type, and a
// 16-byte scratch pad. The superblock's root entry uses the same
// layout, which is why this is exported.
func ReadSymbolEntry(nc *cursor.Cursor, names *heap.Local) (Entry, error) {
	var e Entry

	nameOffset, err := nc.Offset()
	if err != nil {
		return e, err
	}
	objAddr, err := nc.Offset()
	if err != nil {
		return e, err
	}
	cacheType, err := nc.Uint32()
	if err != nil {
		return e, err
	}
	nc.Skip(4)
	scratch, err := nc.Bytes(16)
	if err != nil {
		return e, err
	}

	if names != nil {
		e.Name = names.Name(nameOffset)
	}
	e.ObjectAddress = objAddr

	if cacheType == cacheSoft && names != nil {
		heapOffset := uint64(nc.ByteOrder().Uint32(scratch[:4]))
		e.SoftTarget = names.Name(heapOffset)
		e.ObjectAddress = 0
	}
	return e, nil
}
