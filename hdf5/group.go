package hdf5

import (
	"fmt"
	"path"

	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/grouptree"
	"github.com/seqview/hdf5/internal/heap"
	"github.com/seqview/hdf5/internal/message"
	"github.com/seqview/hdf5/internal/object"
)

// Group is a node of the file hierarchy holding named links to other
// groups and datasets.
type Group struct {
	file   *File
	path   string
	header *object.Header
	addr   uint64
}

// LinkKind distinguishes the three link variants a group can hold.
type LinkKind int

const (
	LinkHard LinkKind = iota
	LinkSoft
	LinkExternal
)

func (k LinkKind) String() string {
	switch k {
	case LinkHard:
		return "hard"
	case LinkSoft:
		return "soft"
	case LinkExternal:
		return "external"
	default:
		return fmt.Sprintf("LinkKind(%d)", int(k))
	}
}

// Link describes one named edge out of a group, before resolution.
type Link struct {
	Name string
	Kind LinkKind

	// Address is the target object header address (hard links only).
	Address uint64

	// Target is the link's path value: an in-file absolute path for
	// soft links, the object path inside the other file for external
	// links.
	Target string

	// TargetFile is the external file name (external links only).
	TargetFile string
}

// Name returns the group's own name, the last path component.
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the absolute path of the group.
func (g *Group) Path() string { return g.path }

// Members returns the names of the group's children in storage order.
func (g *Group) Members() ([]string, error) {
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(links))
	for i, ln := range links {
		names[i] = ln.Name
	}
	return names, nil
}

// Links returns every link in the group without resolving any of
// them, so soft link targets and external link file names can be
// inspected even when following them would fail.
func (g *Group) Links() ([]Link, error) {
	return g.links()
}

// Link returns the named link, unresolved.
func (g *Group) Link(name string) (Link, error) {
	links, err := g.links()
	if err != nil {
		return Link{}, err
	}
	for _, ln := range links {
		if ln.Name == name {
			return ln, nil
		}
	}
	return Link{}, fmt.Errorf("%w: group %q has no link %q", errs.ErrGroupNotFound, g.path, name)
}

// links gathers the group's links from whichever storage the file
// uses: new-style link messages, or the old-style symbol table B-tree.
func (g *Group) links() ([]Link, error) {
	var out []Link
	for _, lm := range g.header.Links() {
		out = append(out, linkFromMessage(lm))
	}
	if len(out) > 0 {
		return out, nil
	}

	stab := g.header.SymbolTable()
	if stab == nil && g.path == "/" && g.file.sb.RootBTreeAddress != 0 {
		// v0/v1 files cache the root group's B-tree and heap in the
		// superblock scratch pad.
		stab = &message.SymbolTable{
			BTreeAddress:     g.file.sb.RootBTreeAddress,
			LocalHeapAddress: g.file.sb.RootLocalHeapAddress,
		}
	}
	if stab == nil {
		return nil, nil // a group with no children
	}

	names, err := heap.ReadLocal(g.file.c, stab.LocalHeapAddress)
	if err != nil {
		return nil, err
	}
	entries, err := grouptree.ReadEntries(g.file.c, stab.BTreeAddress, names)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsSoft() {
			out = append(out, Link{Name: e.Name, Kind: LinkSoft, Target: e.SoftTarget})
			continue
		}
		out = append(out, Link{Name: e.Name, Kind: LinkHard, Address: e.ObjectAddress})
	}
	return out, nil
}

func linkFromMessage(lm *message.Link) Link {
	switch {
	case lm.IsSoft():
		return Link{Name: lm.Name, Kind: LinkSoft, Target: lm.Target}
	case lm.IsExternal():
		return Link{Name: lm.Name, Kind: LinkExternal, Target: lm.FileTarget, TargetFile: lm.File}
	default:
		return Link{Name: lm.Name, Kind: LinkHard, Address: lm.ObjectAddress}
	}
}

// OpenGroup opens a subgroup by path relative to this group.
func (g *Group) OpenGroup(relPath string) (*Group, error) {
	res, target, err := g.open(relPath)
	if err != nil {
		if err == errNotFound {
			return nil, fmt.Errorf("%w: %q", errs.ErrGroupNotFound, joinPath(g.path, relPath))
		}
		return nil, err
	}
	if res == nil {
		return g, nil // empty path
	}
	if res.isDataset {
		return nil, fmt.Errorf("%w: %q is a dataset", errs.ErrGroupNotFound, target)
	}
	return g.file.groupAt(res.addr, target)
}

// OpenDataset opens a dataset by path relative to this group.
func (g *Group) OpenDataset(relPath string) (*Dataset, error) {
	res, target, err := g.open(relPath)
	if err != nil {
		if err == errNotFound {
			return nil, fmt.Errorf("%w: %q", errs.ErrDatasetNotFound, joinPath(g.path, relPath))
		}
		return nil, err
	}
	if res == nil || !res.isDataset {
		return nil, fmt.Errorf("%w: %q is a group", errs.ErrDatasetNotFound, target)
	}
	return g.file.datasetAt(res.addr, target)
}

// open resolves relPath against this group and returns the final
// resolution plus the absolute path it landed on. A nil resolution
// with nil error means the empty path (the group itself).
func (g *Group) open(relPath string) (*resolution, string, error) {
	parts := splitPath(relPath)
	if len(parts) == 0 {
		return nil, g.path, nil
	}

	current := g
	visited := make(map[string]bool)
	for i, name := range parts {
		res, err := current.resolveChild(name, visited)
		if err != nil {
			if err == errNotFound && i < len(parts)-1 {
				return nil, "", fmt.Errorf("%w: %q", errs.ErrGroupNotFound, joinPath(current.path, name))
			}
			return nil, "", err
		}
		target := joinPath(current.path, name)
		if i == len(parts)-1 {
			return res, target, nil
		}
		if res.isDataset {
			return nil, "", fmt.Errorf("%w: %q is a dataset", errs.ErrGroupNotFound, target)
		}
		current, err = g.file.groupAt(res.addr, target)
		if err != nil {
			return nil, "", err
		}
	}
	return nil, "", errNotFound
}

// Attrs returns the names of the group's attributes.
func (g *Group) Attrs() []string {
	msgs := g.header.Attributes()
	names := make([]string, len(msgs))
	for i, a := range msgs {
		names[i] = a.Name
	}
	return names
}

// Attr returns the named attribute, or nil when absent.
func (g *Group) Attr(name string) *Attribute {
	for _, a := range g.header.Attributes() {
		if a.Name == name {
			return &Attribute{msg: a, file: g.file}
		}
	}
	return nil
}

// Attributes returns all of the group's attributes.
func (g *Group) Attributes() []*Attribute {
	msgs := g.header.Attributes()
	out := make([]*Attribute, len(msgs))
	for i, a := range msgs {
		out[i] = &Attribute{msg: a, file: g.file}
	}
	return out
}

// HasAttr reports whether the group carries the named attribute.
func (g *Group) HasAttr(name string) bool { return g.Attr(name) != nil }
