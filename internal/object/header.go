// Package object reads HDF5 object headers. An object header is the
// anchor record for every group and dataset: a list of typed messages
// (shape, element type, storage layout, filters, attributes, links)
// possibly spread over continuation blocks.
package object

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

var signatureV2 = []byte("OHDR")

// Header is a fully scanned object header with its messages flattened
// across continuation blocks.
type Header struct {
	Version  uint8
	Address  uint64
	Messages []message.Message
}

// Read scans the object header at address. The version is sniffed from
// the leading bytes: "OHDR" marks version 2, a leading 0x01 version 1.
func Read(c *cursor.Cursor, address uint64) (*Header, error) {
	hc := c.At(int64(address))

	lead, err := hc.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	if string(lead) == string(signatureV2) {
		return readV2(hc, address)
	}
	if lead[0] == 1 {
		return readV1(hc, address)
	}
	return nil, fmt.Errorf("%w: no object header at address %d", errs.ErrFormat, address)
}

// find returns the first message of the given kind, or nil.
func (h *Header) find(k message.Kind) message.Message {
	for _, m := range h.Messages {
		if m.Kind() == k {
			return m
		}
	}
	return nil
}

// Dataspace returns the shape message, or nil when absent.
func (h *Header) Dataspace() *message.Dataspace {
	if m := h.find(message.KindDataspace); m != nil {
		return m.(*message.Dataspace)
	}
	return nil
}

// Datatype returns the element type message, or nil when absent.
func (h *Header) Datatype() *message.Datatype {
	if m := h.find(message.KindDatatype); m != nil {
		return m.(*message.Datatype)
	}
	return nil
}

// Layout returns the storage layout message, or nil when absent.
func (h *Header) Layout() *message.DataLayout {
	if m := h.find(message.KindDataLayout); m != nil {
		return m.(*message.DataLayout)
	}
	return nil
}

// Filters returns the filter pipeline message, or nil when absent.
func (h *Header) Filters() *message.FilterPipeline {
	if m := h.find(message.KindFilters); m != nil {
		return m.(*message.FilterPipeline)
	}
	return nil
}

// FillValue returns the fill value message, or nil when absent.
func (h *Header) FillValue() *message.FillValue {
	if m := h.find(message.KindFillValue); m != nil {
		return m.(*message.FillValue)
	}
	return nil
}

// SymbolTable returns the old-style group message, or nil when absent.
func (h *Header) SymbolTable() *message.SymbolTable {
	if m := h.find(message.KindSymbolTable); m != nil {
		return m.(*message.SymbolTable)
	}
	return nil
}

// Attributes returns all attribute messages in header order.
func (h *Header) Attributes() []*message.Attribute {
	var out []*message.Attribute
	for _, m := range h.Messages {
		if a, ok := m.(*message.Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// Links returns all link messages in header order.
func (h *Header) Links() []*message.Link {
	var out []*message.Link
	for _, m := range h.Messages {
		if l, ok := m.(*message.Link); ok {
			out = append(out, l)
		}
	}
	return out
}

// IsGroup reports whether the header describes a group: either an
// old-style symbol table or new-style link storage, and no layout.
func (h *Header) IsGroup() bool {
	if h.Layout() != nil || h.Datatype() != nil {
		return false
	}
	if h.SymbolTable() != nil || len(h.Links()) > 0 {
		return true
	}
	// An empty new-style group may carry only link info / group info.
	return h.find(message.KindLinkInfo) != nil || h.find(message.KindGroupInfo) != nil
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.Datatype() != nil && h.Dataspace() != nil
}

// scanState carries the pieces shared by the top-level header scan and
// its continuation blocks.
type scanState struct {
	hdr     *Header
	visited map[uint64]bool // continuation block offsets already read
}

func newScanState(hdr *Header) *scanState {
	return &scanState{hdr: hdr, visited: make(map[uint64]bool)}
}

// add parses one raw message and appends it, chasing continuations.
// Message classes the engine does not decode come back from Parse as
// *Unknown and are kept; a recognized class that fails to decode
// aborts the scan, since the header can no longer be trusted.
func (s *scanState) add(kind message.Kind, body []byte, c *cursor.Cursor, cont func(offset, length uint64) error) error {
	if kind == message.KindNIL {
		return nil
	}
	msg, err := message.Parse(kind, body, c)
	if err != nil {
		return err
	}
	if cm, ok := msg.(*message.Continuation); ok {
		if s.visited[cm.Offset] {
			return fmt.Errorf("%w: object header continuation loop at %d", errs.ErrFormat, cm.Offset)
		}
		s.visited[cm.Offset] = true
		return cont(cm.Offset, cm.Length)
	}
	s.hdr.Messages = append(s.hdr.Messages, msg)
	return nil
}
