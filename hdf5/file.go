// Package hdf5 reads HDF5 files: hierarchical groups of typed,
// optionally chunked and compressed datasets with attached attributes.
//
// Open a file, navigate to a dataset by path, and read its elements:
//
//	f, err := hdf5.Open("data.h5")
//	if err != nil { ... }
//	defer f.Close()
//
//	ds, err := f.OpenDataset("/measurements/temperature")
//	if err != nil { ... }
//	values, err := ds.Float64s()
//
// The package is read-only. Writing, external link traversal, and
// dense (heap-indexed) link storage are out of scope.
package hdf5

import (
	"fmt"
	"io"
	"os"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/superblock"
)

// File is an open HDF5 file.
type File struct {
	path   string
	closer io.Closer // nil when opened over a caller-owned reader
	c      *cursor.Cursor
	sb     *superblock.Superblock
	root   *Group
	closed bool
}

// Open opens the named file for reading.
func Open(path string) (*File, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hdf5: %w", err)
	}
	f, err := open(src, path)
	if err != nil {
		src.Close()
		return nil, err
	}
	f.closer = src
	return f, nil
}

// OpenReader opens an HDF5 byte stream through any io.ReaderAt. The
// caller keeps ownership of src; Close does not close it.
func OpenReader(src io.ReaderAt) (*File, error) {
	return open(src, "")
}

func open(src io.ReaderAt, path string) (*File, error) {
	sb, err := superblock.Read(src)
	if err != nil {
		return nil, fmt.Errorf("hdf5: %w", err)
	}
	f := &File{
		path: path,
		c:    cursor.New(src, sb.Params()),
		sb:   sb,
	}
	root, err := f.groupAt(sb.RootGroupAddress, "/")
	if err != nil {
		return nil, fmt.Errorf("hdf5: root group: %w", err)
	}
	f.root = root
	return f, nil
}

// Close releases the file. Calling it twice is harmless.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Path returns the name the file was opened with, or "" for a reader.
func (f *File) Path() string { return f.path }

// Version returns the superblock version (0 through 3).
func (f *File) Version() int { return int(f.sb.Version) }

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// OpenGroup opens the group at an absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens the dataset at an absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Attr looks up an attribute by a combined path of the form
// "/object@name"; "/@name" addresses the root group itself.
func (f *File) Attr(path string) (*Attribute, error) {
	if f.closed {
		return nil, ErrClosed
	}
	objectPath, attrName, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	holder, err := f.attributeHolder(objectPath)
	if err != nil {
		return nil, err
	}
	attr := holder.Attr(attrName)
	if attr == nil {
		return nil, fmt.Errorf("hdf5: object %q has no attribute %q", objectPath, attrName)
	}
	return attr, nil
}

// ReadAttr looks up an attribute by combined path and returns its
// decoded value.
func (f *File) ReadAttr(path string) (interface{}, error) {
	attr, err := f.Attr(path)
	if err != nil {
		return nil, err
	}
	return attr.Value()
}

// attrHolder is anything carrying attributes: groups and datasets.
type attrHolder interface {
	Attr(name string) *Attribute
}

func (f *File) attributeHolder(path string) (attrHolder, error) {
	if len(splitPath(path)) == 0 {
		return f.root, nil
	}
	if g, err := f.OpenGroup(path); err == nil {
		return g, nil
	}
	return f.OpenDataset(path)
}

// groupAt reads the object header at address and wraps it as a group.
func (f *File) groupAt(address uint64, path string) (*Group, error) {
	hdr, err := readHeader(f, address)
	if err != nil {
		return nil, err
	}
	return &Group{file: f, path: path, header: hdr, addr: address}, nil
}

// datasetAt reads the object header at address and wraps it as a
// dataset.
func (f *File) datasetAt(address uint64, path string) (*Dataset, error) {
	hdr, err := readHeader(f, address)
	if err != nil {
		return nil, err
	}
	return newDataset(f, path, address, hdr)
}
