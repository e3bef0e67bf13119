// Package message decodes HDF5 object header messages: dataspace,
// datatype, data layout, filter pipeline, fill value, attribute, link,
// and symbol table. Every parser takes the raw message body plus the
// file cursor (for offset/length field widths) and returns a typed
// Message value.
package message

import (
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// Kind identifies a header message class.
type Kind uint16

const (
	KindNIL          Kind = 0x0000
	KindDataspace    Kind = 0x0001
	KindLinkInfo     Kind = 0x0002
	KindDatatype     Kind = 0x0003
	KindFillValueOld Kind = 0x0004
	KindFillValue    Kind = 0x0005
	KindLink         Kind = 0x0006
	KindDataLayout   Kind = 0x0008
	KindGroupInfo    Kind = 0x000A
	KindFilters      Kind = 0x000B
	KindAttribute    Kind = 0x000C
	KindComment      Kind = 0x000D
	KindContinuation Kind = 0x0010
	KindSymbolTable  Kind = 0x0011
	KindModTime      Kind = 0x0012
	KindAttrInfo     Kind = 0x0015
)

// Message is the interface implemented by all decoded header messages.
type Message interface {
	Kind() Kind
}

// Parse decodes one header message body. Unrecognized classes come
// back as *Unknown so callers can skip them; classes the format
// defines but this engine does not read (dense link storage) are also
// surfaced as *Unknown, keeping header iteration total.
func Parse(kind Kind, body []byte, c *cursor.Cursor) (Message, error) {
	switch kind {
	case KindDataspace:
		return parseDataspace(body, c)
	case KindDatatype:
		return parseDatatype(body)
	case KindDataLayout:
		return parseDataLayout(body, c)
	case KindFilters:
		return parseFilters(body)
	case KindFillValue:
		return parseFillValue(body)
	case KindAttribute:
		return parseAttribute(body, c)
	case KindLink:
		return parseLink(body, c)
	case KindSymbolTable:
		return parseSymbolTable(body, c)
	case KindContinuation:
		return parseContinuation(body, c)
	default:
		return &Unknown{kind: kind, body: body}, nil
	}
}

// Unknown wraps a message class this engine does not decode.
type Unknown struct {
	kind Kind
	body []byte
}

func (m *Unknown) Kind() Kind   { return m.kind }
func (m *Unknown) Body() []byte { return m.body }

// Continuation points at a further block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Kind() Kind { return KindContinuation }

func parseContinuation(body []byte, c *cursor.Cursor) (*Continuation, error) {
	osize := c.OffsetSize()
	if len(body) < osize+c.LengthSize() {
		return nil, fmt.Errorf("%w: continuation message truncated (%d bytes)", errs.ErrDataRead, len(body))
	}
	return &Continuation{
		Offset: cursor.DecodeUint(body[:osize], osize, c.ByteOrder()),
		Length: cursor.DecodeUint(body[osize:], c.LengthSize(), c.ByteOrder()),
	}, nil
}
