package hdf5

import (
	"fmt"
	"strings"

	"github.com/seqview/hdf5/internal/message"
)

// DatasetInfo summarizes a dataset's storage without reading its
// elements.
type DatasetInfo struct {
	Path        string
	Shape       []uint64
	Type        string
	ElementSize int
	Storage     string   // "compact", "contiguous", or "chunked"
	ChunkShape  []uint64 // nil unless chunked
	Filters     []string // forward (encode) order
	Attributes  []string
}

// Inspect summarizes the dataset.
func (d *Dataset) Inspect() DatasetInfo {
	info := DatasetInfo{
		Path:        d.path,
		Shape:       d.Shape(),
		Type:        d.dt.String(),
		ElementSize: int(d.dt.Size),
		Attributes:  d.Attrs(),
	}
	if lo := d.header.Layout(); lo != nil {
		switch lo.Class {
		case message.StorageCompact:
			info.Storage = "compact"
		case message.StorageContiguous:
			info.Storage = "contiguous"
		case message.StorageChunked:
			info.Storage = "chunked"
			info.ChunkShape = make([]uint64, len(lo.ChunkDims))
			for i, c := range lo.ChunkDims {
				info.ChunkShape[i] = uint64(c)
			}
		default:
			info.Storage = fmt.Sprintf("class %d", lo.Class)
		}
	}
	if fp := d.header.Filters(); fp != nil {
		for _, f := range fp.Filters {
			info.Filters = append(info.Filters, filterName(f))
		}
	}
	return info
}

// GroupInfo summarizes a group's membership without opening any child.
type GroupInfo struct {
	Path        string
	NumChildren int
	Children    []string // link names, unresolved
	Attributes  []string
}

// Inspect summarizes the group.
func (g *Group) Inspect() (GroupInfo, error) {
	children, err := g.Members()
	if err != nil {
		return GroupInfo{}, err
	}
	return GroupInfo{
		Path:        g.path,
		NumChildren: len(children),
		Children:    children,
		Attributes:  g.Attrs(),
	}, nil
}

// String renders the summary on one line, e.g. "/grp: group, 3 members".
func (info GroupInfo) String() string {
	return fmt.Sprintf("%s: group, %d members", info.Path, info.NumChildren)
}

func filterName(f message.FilterEntry) string {
	switch f.ID {
	case message.FilterDeflate:
		if len(f.ClientData) > 0 {
			return fmt.Sprintf("deflate(level=%d)", f.ClientData[0])
		}
		return "deflate"
	case message.FilterShuffle:
		return "shuffle"
	case message.FilterFletcher32:
		return "fletcher32"
	case message.FilterLZF:
		return "lzf"
	default:
		if f.Name != "" {
			return f.Name
		}
		return fmt.Sprintf("filter(%d)", f.ID)
	}
}

// String renders the summary on one line, e.g.
// "/data: float64 [10 10], chunked [3 3], deflate(level=4)".
func (info DatasetInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", info.Path, info.Type)
	if len(info.Shape) > 0 {
		fmt.Fprintf(&b, " %v", info.Shape)
	} else {
		b.WriteString(" scalar")
	}
	if info.Storage != "" {
		fmt.Fprintf(&b, ", %s", info.Storage)
	}
	if len(info.ChunkShape) > 0 {
		fmt.Fprintf(&b, " %v", info.ChunkShape)
	}
	for _, f := range info.Filters {
		fmt.Fprintf(&b, ", %s", f)
	}
	return b.String()
}
