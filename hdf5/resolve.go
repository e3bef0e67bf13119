package hdf5

import (
	"fmt"

	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/object"
)

// maxLinkDepth caps how many soft links a single resolution may
// follow. Hitting it means the link graph is effectively circular.
const maxLinkDepth = 64

func readHeader(f *File, address uint64) (*object.Header, error) {
	return object.Read(f.c, address)
}

// resolution is the outcome of following a name to an object.
type resolution struct {
	addr      uint64
	isDataset bool
}

// errNotFound marks a name absent from a group; callers translate it
// to the group- or dataset-specific sentinel.
var errNotFound = fmt.Errorf("object not found")

// resolveChild follows one name inside g. Soft links are resolved
// transitively with visited tracking the target paths already on the
// resolution stack; revisiting one is a cycle.
func (g *Group) resolveChild(name string, visited map[string]bool) (*resolution, error) {
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	for _, ln := range links {
		if ln.Name != name {
			continue
		}
		return g.followLink(ln, visited)
	}
	return nil, errNotFound
}

func (g *Group) followLink(ln Link, visited map[string]bool) (*resolution, error) {
	switch ln.Kind {
	case LinkHard:
		hdr, err := readHeader(g.file, ln.Address)
		if err != nil {
			return nil, err
		}
		return &resolution{addr: ln.Address, isDataset: hdr.IsDataset()}, nil

	case LinkSoft:
		if len(visited) >= maxLinkDepth {
			return nil, fmt.Errorf("%w: more than %d links in chain", errs.ErrCircularLink, maxLinkDepth)
		}
		if visited[ln.Target] {
			return nil, fmt.Errorf("%w: soft link target %q revisited", errs.ErrCircularLink, ln.Target)
		}
		visited[ln.Target] = true
		return g.file.resolveAbsolute(ln.Target, visited)

	case LinkExternal:
		return nil, fmt.Errorf("%w: external link to %q in file %q",
			errs.ErrUnsupportedFeature, ln.Target, ln.TargetFile)

	default:
		return nil, fmt.Errorf("%w: link kind %d", errs.ErrUnsupportedFeature, ln.Kind)
	}
}

// resolveAbsolute walks an absolute path from the root. Soft link
// targets are always absolute paths, so this is the re-entry point
// during transitive resolution.
func (f *File) resolveAbsolute(path string, visited map[string]bool) (*resolution, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return &resolution{addr: f.sb.RootGroupAddress}, nil
	}

	current := f.root
	for i, name := range parts {
		res, err := current.resolveChild(name, visited)
		if err != nil {
			if err == errNotFound {
				return nil, fmt.Errorf("%w: %q (component %q)", errs.ErrGroupNotFound, path, name)
			}
			return nil, fmt.Errorf("resolving %q in %q: %w", name, path, err)
		}
		if i == len(parts)-1 {
			return res, nil
		}
		if res.isDataset {
			return nil, fmt.Errorf("%w: %q is a dataset, not a group", errs.ErrGroupNotFound, name)
		}
		current, err = f.groupAt(res.addr, joinPath(current.path, name))
		if err != nil {
			return nil, err
		}
	}
	return nil, errNotFound
}

func joinPath(base, name string) string {
	if base == "/" || base == "" {
		return "/" + name
	}
	return base + "/" + name
}
