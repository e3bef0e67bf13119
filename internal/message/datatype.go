package message

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/seqview/hdf5/internal/errs"
)

// Class is the HDF5 datatype class tag.
type Class uint8

const (
	ClassFixedPoint Class = 0
	ClassFloat      Class = 1
	ClassTime       Class = 2
	ClassString     Class = 3
	ClassBitfield   Class = 4
	ClassOpaque     Class = 5
	ClassCompound   Class = 6
	ClassReference  Class = 7
	ClassEnum       Class = 8
	ClassVarLen     Class = 9
	ClassArray      Class = 10
)

// Order is the byte order of a numeric datatype.
type Order uint8

const (
	OrderLE Order = 0
	OrderBE Order = 1
)

// StrPad is the string padding discipline.
type StrPad uint8

const (
	PadNullTerm StrPad = 0
	PadNullPad  StrPad = 1
	PadSpacePad StrPad = 2
)

// Charset is the string character encoding.
type Charset uint8

const (
	CharsetASCII Charset = 0
	CharsetUTF8  Charset = 1
)

// Malformed descriptors could nest types without bound; parsing stops
// at this depth with ErrDataRead.
const maxTypeDepth = 8

// Datatype is the decoded type descriptor (message class 0x0003).
// One struct covers every class; only the fields relevant to Class are
// populated.
type Datatype struct {
	Class   Class
	Version uint8
	Bits    uint32 // raw class bit field
	Size    uint32 // element size in bytes

	Order  Order
	Signed bool // fixed-point only

	BitOffset    uint16
	BitPrecision uint16

	Pad     StrPad
	Charset Charset

	Members []Member // compound

	ArrayDims []uint32  // array extents, slowest dimension first
	Base      *Datatype // array / enum / varlen element type

	EnumMembers []EnumMember

	OpaqueTag string

	VarLenString bool
}

// Member is one field of a compound datatype.
type Member struct {
	Name   string
	Offset uint32 // byte offset within the compound element
	Type   *Datatype
}

// EnumMember is one name/value pair of an enum datatype, in storage
// order.
type EnumMember struct {
	Name  string
	Value int64
}

func (m *Datatype) Kind() Kind { return KindDatatype }

// IsVarLenString reports whether the type is a variable-length string
// (a varlen whose element kind bit marks string).
func (m *Datatype) IsVarLenString() bool {
	return m.Class == ClassVarLen && m.VarLenString
}

// String renders a compact human-readable description, used by the
// introspection surface.
func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		sign := "uint"
		if m.Signed {
			sign = "int"
		}
		return fmt.Sprintf("%s%d", sign, m.Size*8)
	case ClassFloat:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassTime:
		return fmt.Sprintf("time%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string(%d)", m.Size)
	case ClassBitfield:
		return fmt.Sprintf("bitfield%d", m.Size*8)
	case ClassOpaque:
		if m.OpaqueTag != "" {
			return fmt.Sprintf("opaque(%q)", m.OpaqueTag)
		}
		return "opaque"
	case ClassCompound:
		var b strings.Builder
		b.WriteString("compound{")
		for i, mem := range m.Members {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s:%s", mem.Name, mem.Type)
		}
		b.WriteString("}")
		return b.String()
	case ClassReference:
		return "reference"
	case ClassEnum:
		if m.Base != nil {
			return fmt.Sprintf("enum(%s, %d members)", m.Base, len(m.EnumMembers))
		}
		return "enum"
	case ClassVarLen:
		if m.VarLenString {
			return "string(varlen)"
		}
		if m.Base != nil {
			return fmt.Sprintf("varlen(%s)", m.Base)
		}
		return "varlen"
	case ClassArray:
		if m.Base != nil {
			return fmt.Sprintf("array(%s, %v)", m.Base, m.ArrayDims)
		}
		return "array"
	default:
		return fmt.Sprintf("class%d", m.Class)
	}
}

func parseDatatype(body []byte) (*Datatype, error) {
	dt, _, err := decodeType(body, 0)
	return dt, err
}

// decodeType decodes one descriptor from the front of body and returns
// the bytes consumed, so compound members and enum/array base types
// can follow in the same buffer.
func decodeType(body []byte, depth int) (*Datatype, int, error) {
	if depth > maxTypeDepth {
		return nil, 0, fmt.Errorf("%w: datatype nesting exceeds depth %d", errs.ErrDataRead, maxTypeDepth)
	}
	if len(body) < 8 {
		return nil, 0, fmt.Errorf("%w: datatype descriptor truncated (%d bytes)", errs.ErrDataRead, len(body))
	}

	dt := &Datatype{
		Class:   Class(body[0] & 0x0F),
		Version: body[0] >> 4,
		Bits:    uint32(body[1]) | uint32(body[2])<<8 | uint32(body[3])<<16,
		Size:    binary.LittleEndian.Uint32(body[4:8]),
	}
	props := body[8:]

	var used int
	var err error
	switch dt.Class {
	case ClassFixedPoint:
		used, err = decodeFixedProps(dt, props)
	case ClassFloat:
		used, err = decodeFloatProps(dt, props)
	case ClassTime:
		used, err = decodeTimeProps(dt, props)
	case ClassString:
		dt.Pad = StrPad(dt.Bits & 0x0F)
		dt.Charset = Charset((dt.Bits >> 4) & 0x0F)
	case ClassBitfield:
		used, err = decodeFixedProps(dt, props) // same layout as fixed-point
	case ClassOpaque:
		used, err = decodeOpaqueProps(dt, props)
	case ClassCompound:
		used, err = decodeCompoundProps(dt, props, depth)
	case ClassReference:
		// no properties
	case ClassEnum:
		used, err = decodeEnumProps(dt, props, depth)
	case ClassVarLen:
		used, err = decodeVarLenProps(dt, props, depth)
	case ClassArray:
		used, err = decodeArrayProps(dt, props, depth)
	default:
		return nil, 0, fmt.Errorf("%w: datatype class %d", errs.ErrUnsupportedFeature, dt.Class)
	}
	if err != nil {
		return nil, 0, err
	}
	return dt, 8 + used, nil
}

func decodeFixedProps(dt *Datatype, props []byte) (int, error) {
	dt.Order = Order(dt.Bits & 0x01)
	dt.Signed = dt.Bits&0x08 != 0
	if len(props) < 4 {
		return 0, fmt.Errorf("%w: fixed-point properties truncated", errs.ErrDataRead)
	}
	dt.BitOffset = binary.LittleEndian.Uint16(props[0:2])
	dt.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
	return 4, nil
}

func decodeFloatProps(dt *Datatype, props []byte) (int, error) {
	dt.Order = Order(dt.Bits & 0x01)
	// bit offset (2) + precision (2) + exponent location/size (2) +
	// mantissa location/size (2) + exponent bias (4)
	if len(props) < 12 {
		return 0, fmt.Errorf("%w: float properties truncated", errs.ErrDataRead)
	}
	dt.BitOffset = binary.LittleEndian.Uint16(props[0:2])
	dt.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
	return 12, nil
}

func decodeTimeProps(dt *Datatype, props []byte) (int, error) {
	dt.Order = Order(dt.Bits & 0x01)
	if len(props) < 2 {
		return 0, fmt.Errorf("%w: time properties truncated", errs.ErrDataRead)
	}
	dt.BitPrecision = binary.LittleEndian.Uint16(props[0:2])
	return 2, nil
}

func decodeOpaqueProps(dt *Datatype, props []byte) (int, error) {
	// Tag length lives in the low bits; the tag itself is ASCII,
	// null-padded to a multiple of 8.
	tagLen := int(dt.Bits & 0xFF)
	if tagLen > len(props) {
		return 0, fmt.Errorf("%w: opaque tag truncated", errs.ErrDataRead)
	}
	dt.OpaqueTag = strings.TrimRight(string(props[:tagLen]), "\x00")
	return tagLen, nil
}

func decodeCompoundProps(dt *Datatype, props []byte, depth int) (int, error) {
	count := int(dt.Bits & 0xFFFF)
	dt.Members = make([]Member, 0, count)

	off := 0
	for i := 0; i < count; i++ {
		mem, used, err := decodeMember(props[off:], dt.Version, dt.Size, depth)
		if err != nil {
			return 0, fmt.Errorf("compound member %d: %w", i, err)
		}
		// Member extents must stay inside the declared element size.
		if mem.Type != nil && uint64(mem.Offset)+uint64(mem.Type.Size) > uint64(dt.Size) {
			return 0, fmt.Errorf("%w: compound member %q at offset %d overruns element size %d",
				errs.ErrDataRead, mem.Name, mem.Offset, dt.Size)
		}
		dt.Members = append(dt.Members, mem)
		off += used
	}
	return off, nil
}

func decodeMember(body []byte, version uint8, compoundSize uint32, depth int) (Member, int, error) {
	var mem Member

	nameEnd := 0
	for nameEnd < len(body) && body[nameEnd] != 0 {
		nameEnd++
	}
	if nameEnd >= len(body) {
		return mem, 0, fmt.Errorf("%w: member name not terminated", errs.ErrDataRead)
	}
	mem.Name = string(body[:nameEnd])

	off := nameEnd + 1
	if version < 3 {
		// v1/v2 pad the name to an 8-byte boundary.
		if off%8 != 0 {
			off += 8 - off%8
		}
	}

	// Byte offset: 4 bytes in v1/v2; v3 shrinks it to the minimum
	// width that can address the compound's size.
	offsetSize := 4
	if version >= 3 {
		offsetSize = minUintSize(compoundSize)
	}
	if off+offsetSize > len(body) {
		return mem, 0, fmt.Errorf("%w: member byte offset truncated", errs.ErrDataRead)
	}
	switch offsetSize {
	case 1:
		mem.Offset = uint32(body[off])
	case 2:
		mem.Offset = uint32(binary.LittleEndian.Uint16(body[off:]))
	case 4:
		mem.Offset = binary.LittleEndian.Uint32(body[off:])
	case 8:
		mem.Offset = uint32(binary.LittleEndian.Uint64(body[off:]))
	}
	off += offsetSize

	// v1 members carry legacy per-member array info: dimensionality,
	// three reserved bytes, permutation, reserved, four 4-byte sizes.
	if version == 1 {
		if off+28 > len(body) {
			return mem, 0, fmt.Errorf("%w: v1 member dimension info truncated", errs.ErrDataRead)
		}
		off += 28
	}

	sub, used, err := decodeType(body[off:], depth+1)
	if err != nil {
		return mem, 0, err
	}
	mem.Type = sub
	return mem, off + used, nil
}

func decodeEnumProps(dt *Datatype, props []byte, depth int) (int, error) {
	base, used, err := decodeType(props, depth+1)
	if err != nil {
		return 0, fmt.Errorf("enum base type: %w", err)
	}
	if base.Class != ClassFixedPoint {
		return 0, fmt.Errorf("%w: enum base class %d (only fixed-point supported)",
			errs.ErrUnsupportedFeature, base.Class)
	}
	dt.Base = base
	off := used

	count := int(dt.Bits & 0xFFFF)
	names := make([]string, count)
	for i := 0; i < count; i++ {
		end := off
		for end < len(props) && props[end] != 0 {
			end++
		}
		if end >= len(props) {
			return 0, fmt.Errorf("%w: enum member name truncated", errs.ErrDataRead)
		}
		names[i] = string(props[off:end])
		// Each name field is padded to a multiple of 8 bytes from its
		// own start (v3 drops the padding).
		nameLen := end - off + 1
		if dt.Version < 3 && nameLen%8 != 0 {
			nameLen += 8 - nameLen%8
		}
		off += nameLen
	}

	valSize := int(base.Size)
	dt.EnumMembers = make([]EnumMember, count)
	for i := 0; i < count; i++ {
		if off+valSize > len(props) {
			return 0, fmt.Errorf("%w: enum member value truncated", errs.ErrDataRead)
		}
		raw := cursorDecodeLE(props[off : off+valSize])
		val := int64(raw)
		if base.Signed {
			val = signExtend(raw, valSize)
		}
		dt.EnumMembers[i] = EnumMember{Name: names[i], Value: val}
		off += valSize
	}
	return off, nil
}

func decodeVarLenProps(dt *Datatype, props []byte, depth int) (int, error) {
	dt.VarLenString = dt.Bits&0x0F == 1
	dt.Pad = StrPad((dt.Bits >> 4) & 0x0F)
	dt.Charset = Charset((dt.Bits >> 8) & 0x0F)

	base, used, err := decodeType(props, depth+1)
	if err != nil {
		return 0, fmt.Errorf("varlen base type: %w", err)
	}
	dt.Base = base
	return used, nil
}

func decodeArrayProps(dt *Datatype, props []byte, depth int) (int, error) {
	if len(props) < 1 {
		return 0, fmt.Errorf("%w: array properties truncated", errs.ErrDataRead)
	}
	ndims := int(props[0])
	off := 1
	if dt.Version < 3 {
		off += 3 // reserved
	}

	if off+4*ndims > len(props) {
		return 0, fmt.Errorf("%w: array dimensions truncated", errs.ErrDataRead)
	}
	dt.ArrayDims = make([]uint32, ndims)
	for i := range dt.ArrayDims {
		dt.ArrayDims[i] = binary.LittleEndian.Uint32(props[off:])
		off += 4
	}
	if dt.Version < 3 {
		off += 4 * ndims // permutation indices, never used in practice
	}

	base, used, err := decodeType(props[off:], depth+1)
	if err != nil {
		return 0, fmt.Errorf("array base type: %w", err)
	}
	switch base.Class {
	case ClassArray, ClassCompound, ClassVarLen:
		return 0, fmt.Errorf("%w: array of %s base types", errs.ErrUnsupportedFeature, base)
	}
	dt.Base = base
	return off + used, nil
}

// minUintSize returns the narrowest field width that can hold v.
func minUintSize(v uint32) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

func cursorDecodeLE(buf []byte) uint64 {
	var v uint64
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

func signExtend(raw uint64, size int) int64 {
	shift := uint(64 - size*8)
	return int64(raw<<shift) >> shift
}
