package message

import (
	"encoding/binary"
	"fmt"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// LinkClass is the link variant tag.
type LinkClass uint8

const (
	LinkHard     LinkClass = 0  // bound directly to an object address
	LinkSoft     LinkClass = 1  // bound to a path, resolved at access
	LinkExternal LinkClass = 64 // bound to a path in another file
)

// Link is a link message (class 0x0006): one named edge out of a
// group.
type Link struct {
	Version uint8
	Class   LinkClass
	Name    string

	// Hard
	ObjectAddress uint64

	// Soft
	Target string

	// External
	File       string
	FileTarget string
}

func (m *Link) Kind() Kind { return KindLink }

func (m *Link) IsHard() bool     { return m.Class == LinkHard }
func (m *Link) IsSoft() bool     { return m.Class == LinkSoft }
func (m *Link) IsExternal() bool { return m.Class == LinkExternal }

func parseLink(body []byte, c *cursor.Cursor) (*Link, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: link message truncated", errs.ErrDataRead)
	}
	ln := &Link{Version: body[0]}
	if ln.Version != 1 {
		return nil, fmt.Errorf("%w: link message version %d", errs.ErrUnsupportedFeature, ln.Version)
	}

	flags := body[1]
	off := 2
	nameLenSize := 1 << (flags & 0x03)

	if flags&0x08 != 0 { // explicit link class
		if off >= len(body) {
			return nil, fmt.Errorf("%w: link class truncated", errs.ErrDataRead)
		}
		ln.Class = LinkClass(body[off])
		off++
	}
	if flags&0x04 != 0 { // creation order
		off += 8
	}
	if flags&0x10 != 0 { // name charset
		off++
	}

	if off+nameLenSize > len(body) {
		return nil, fmt.Errorf("%w: link name length truncated", errs.ErrDataRead)
	}
	nameLen := int(cursor.DecodeUint(body[off:], nameLenSize, c.ByteOrder()))
	off += nameLenSize
	if off+nameLen > len(body) {
		return nil, fmt.Errorf("%w: link name truncated", errs.ErrDataRead)
	}
	ln.Name = string(body[off : off+nameLen])
	off += nameLen

	switch ln.Class {
	case LinkHard:
		osize := c.OffsetSize()
		if off+osize > len(body) {
			return nil, fmt.Errorf("%w: hard link address truncated", errs.ErrDataRead)
		}
		ln.ObjectAddress = cursor.DecodeUint(body[off:], osize, c.ByteOrder())

	case LinkSoft:
		target, err := linkPayload(body[off:])
		if err != nil {
			return nil, err
		}
		ln.Target = string(target)

	case LinkExternal:
		payload, err := linkPayload(body[off:])
		if err != nil {
			return nil, err
		}
		// Payload: version/flags byte, then file name and object path,
		// each null-terminated.
		if len(payload) < 1 {
			return nil, fmt.Errorf("%w: external link payload empty", errs.ErrDataRead)
		}
		payload = payload[1:]
		sep := 0
		for sep < len(payload) && payload[sep] != 0 {
			sep++
		}
		ln.File = string(payload[:sep])
		if sep+1 < len(payload) {
			rest := payload[sep+1:]
			if n := len(rest); n > 0 && rest[n-1] == 0 {
				rest = rest[:n-1]
			}
			ln.FileTarget = string(rest)
		}

	default:
		return nil, fmt.Errorf("%w: link class %d", errs.ErrUnsupportedFeature, ln.Class)
	}
	return ln, nil
}

// linkPayload reads the 2-byte-length-prefixed value used by soft and
// external links.
func linkPayload(body []byte) ([]byte, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: link payload length truncated", errs.ErrDataRead)
	}
	n := int(binary.LittleEndian.Uint16(body))
	if 2+n > len(body) {
		return nil, fmt.Errorf("%w: link payload truncated (%d of %d bytes)", errs.ErrDataRead, len(body)-2, n)
	}
	return body[2 : 2+n], nil
}
