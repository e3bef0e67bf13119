package message

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// Attribute is the attribute message (class 0x000C): a small named
// value attached to an object, with its own datatype and dataspace and
// the raw element bytes inline.
type Attribute struct {
	Version uint8
	Name    string
	Type    *Datatype
	Space   *Dataspace
	Data    []byte
}

func (m *Attribute) Kind() Kind { return KindAttribute }

func parseAttribute(body []byte, c *cursor.Cursor) (*Attribute, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("%w: attribute message truncated", errs.ErrDataRead)
	}
	attr := &Attribute{Version: body[0]}
	if attr.Version < 1 || attr.Version > 3 {
		return nil, fmt.Errorf("%w: attribute message version %d", errs.ErrUnsupportedFeature, attr.Version)
	}

	// v1: reserved byte. v2/v3: flags byte; shared datatype or
	// dataspace is flagged there.
	flags := body[1]
	if attr.Version >= 2 && flags&0x03 != 0 {
		return nil, fmt.Errorf("%w: shared attribute datatype or dataspace", errs.ErrUnsupportedFeature)
	}

	nameLen := int(binary.LittleEndian.Uint16(body[2:]))
	typeLen := int(binary.LittleEndian.Uint16(body[4:]))
	spaceLen := int(binary.LittleEndian.Uint16(body[6:]))
	off := 8
	if attr.Version == 3 {
		off++ // name character set
	}

	// v1 pads each of the three sections to 8 bytes; v2/v3 pack them.
	padded := func(n int) int {
		if attr.Version == 1 {
			return pad8(n)
		}
		return n
	}

	if off+padded(nameLen) > len(body) {
		return nil, fmt.Errorf("%w: attribute name truncated", errs.ErrDataRead)
	}
	attr.Name = strings.TrimRight(string(body[off:off+nameLen]), "\x00")
	off += padded(nameLen)

	if off+padded(typeLen) > len(body) {
		return nil, fmt.Errorf("%w: attribute datatype truncated", errs.ErrDataRead)
	}
	dt, err := parseDatatype(body[off : off+typeLen])
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
	}
	attr.Type = dt
	off += padded(typeLen)

	if off+padded(spaceLen) > len(body) {
		return nil, fmt.Errorf("%w: attribute dataspace truncated", errs.ErrDataRead)
	}
	sp, err := parseDataspace(body[off:off+spaceLen], c)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
	}
	attr.Space = sp
	off += padded(spaceLen)

	attr.Data = append([]byte(nil), body[off:]...)
	return attr, nil
}
