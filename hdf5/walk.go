package hdf5

import (
	"errors"
	"sort"
)

// ObjectKind tags what a walked path points at.
type ObjectKind int

const (
	KindGroup ObjectKind = iota
	KindDataset
)

func (k ObjectKind) String() string {
	if k == KindDataset {
		return "dataset"
	}
	return "group"
}

// SkipAll stops a walk early without reporting an error.
var SkipAll = errors.New("skip everything and stop the walk")

// WalkFunc is called once per reachable object, root first, parents
// before children. Children are visited in name order.
type WalkFunc func(path string, kind ObjectKind) error

// Walk visits every object reachable through hard links, depth first.
// Soft and external links are not followed, so each object is visited
// once per hard path and link cycles cannot recurse.
func (f *File) Walk(fn WalkFunc) error {
	if f.closed {
		return ErrClosed
	}
	seen := make(map[uint64]bool)
	err := f.walkGroup(f.root, fn, seen)
	if err == SkipAll {
		return nil
	}
	return err
}

func (f *File) walkGroup(g *Group, fn WalkFunc, seen map[uint64]bool) error {
	if seen[g.addr] {
		return nil
	}
	seen[g.addr] = true

	if err := fn(g.path, KindGroup); err != nil {
		return err
	}

	links, err := g.links()
	if err != nil {
		return err
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })

	for _, ln := range links {
		if ln.Kind != LinkHard {
			continue
		}
		hdr, err := readHeader(f, ln.Address)
		if err != nil {
			return err
		}
		childPath := joinPath(g.path, ln.Name)
		if hdr.IsDataset() {
			if seen[ln.Address] {
				continue
			}
			seen[ln.Address] = true
			if err := fn(childPath, KindDataset); err != nil {
				return err
			}
			continue
		}
		child := &Group{file: f, path: childPath, header: hdr, addr: ln.Address}
		if err := f.walkGroup(child, fn, seen); err != nil {
			return err
		}
	}
	return nil
}
