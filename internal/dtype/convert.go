package dtype

import (
	"fmt"
	"math"
	"strings"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/heap"
	"github.com/seqview/hdf5/internal/message"
)

// Decoder converts raw element bytes to Go values. It caches global
// heap collections, so decoding many variable-length elements from
// the same collection reads it once.
type Decoder struct {
	c     *cursor.Cursor
	heaps map[uint64]*heap.Global
}

// NewDecoder returns a Decoder reading heap data through c. A nil
// cursor is allowed for types with no heap references.
func NewDecoder(c *cursor.Cursor) *Decoder {
	return &Decoder{c: c, heaps: make(map[uint64]*heap.Global)}
}

// Values decodes n elements of type dt from data.
func (d *Decoder) Values(dt *message.Datatype, data []byte, n uint64) ([]interface{}, error) {
	size := uint64(dt.Size)
	if size == 0 {
		return nil, fmt.Errorf("%w: datatype with zero element size", errs.ErrFormat)
	}
	if uint64(len(data)) < n*size {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, %d elements of %d bytes needed",
			errs.ErrDataRead, len(data), n, size)
	}
	out := make([]interface{}, n)
	for i := uint64(0); i < n; i++ {
		v, err := d.Value(dt, data[i*size:(i+1)*size])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Value decodes a single element of type dt from buf, which must hold
// exactly dt.Size bytes.
func (d *Decoder) Value(dt *message.Datatype, buf []byte) (interface{}, error) {
	switch dt.Class {
	case message.ClassFixedPoint:
		return decodeFixed(dt, buf)
	case message.ClassFloat:
		return decodeFloat(dt, buf)
	case message.ClassTime:
		// Raw tick count; unit interpretation is up to the caller.
		raw := cursor.DecodeUint(buf, len(buf), byteOrder(dt))
		return int64(raw), nil
	case message.ClassString:
		return decodeString(dt, buf), nil
	case message.ClassBitfield:
		return decodeUnsigned(dt, buf), nil
	case message.ClassOpaque:
		out := make([]byte, len(buf))
		copy(out, buf)
		return out, nil
	case message.ClassCompound:
		return d.decodeCompound(dt, buf)
	case message.ClassReference:
		// Object references carry the target's header address.
		return cursor.DecodeUint(buf, min(len(buf), 8), byteOrder(dt)), nil
	case message.ClassEnum:
		return decodeFixed(dt.Base, buf)
	case message.ClassVarLen:
		return d.decodeVarLen(dt, buf)
	case message.ClassArray:
		return d.decodeArray(dt, buf)
	default:
		return nil, fmt.Errorf("%w: datatype class %d", errs.ErrUnsupportedFeature, dt.Class)
	}
}

func decodeFixed(dt *message.Datatype, buf []byte) (interface{}, error) {
	raw := cursor.DecodeUint(buf, len(buf), byteOrder(dt))
	if dt.Signed {
		switch len(buf) {
		case 1:
			return int8(raw), nil
		case 2:
			return int16(raw), nil
		case 4:
			return int32(raw), nil
		case 8:
			return int64(raw), nil
		default:
			shift := uint(64 - len(buf)*8)
			return int64(raw<<shift) >> shift, nil
		}
	}
	switch len(buf) {
	case 1:
		return uint8(raw), nil
	case 2:
		return uint16(raw), nil
	case 4:
		return uint32(raw), nil
	default:
		return raw, nil
	}
}

func decodeUnsigned(dt *message.Datatype, buf []byte) interface{} {
	raw := cursor.DecodeUint(buf, len(buf), byteOrder(dt))
	switch len(buf) {
	case 1:
		return uint8(raw)
	case 2:
		return uint16(raw)
	case 4:
		return uint32(raw)
	default:
		return raw
	}
}

func decodeFloat(dt *message.Datatype, buf []byte) (interface{}, error) {
	order := byteOrder(dt)
	switch len(buf) {
	case 4:
		return math.Float32frombits(order.Uint32(buf)), nil
	case 8:
		return math.Float64frombits(order.Uint64(buf)), nil
	default:
		return nil, fmt.Errorf("%w: %d-byte floating point", errs.ErrUnsupportedFeature, len(buf))
	}
}

func decodeString(dt *message.Datatype, buf []byte) string {
	s := string(buf)
	switch dt.Pad {
	case message.PadSpacePad:
		return strings.TrimRight(s, " ")
	default:
		// Null-terminated and null-padded both read up to the first
		// null byte.
		if i := strings.IndexByte(s, 0); i >= 0 {
			return s[:i]
		}
		return s
	}
}

func (d *Decoder) decodeCompound(dt *message.Datatype, buf []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(dt.Members))
	for _, mem := range dt.Members {
		end := mem.Offset + mem.Type.Size
		if uint64(end) > uint64(len(buf)) {
			return nil, fmt.Errorf("%w: member %q overruns element", errs.ErrDataRead, mem.Name)
		}
		v, err := d.Value(mem.Type, buf[mem.Offset:end])
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", mem.Name, err)
		}
		out[mem.Name] = v
	}
	return out, nil
}

func (d *Decoder) decodeArray(dt *message.Datatype, buf []byte) ([]interface{}, error) {
	if dt.Base == nil {
		return nil, fmt.Errorf("%w: array type with no base", errs.ErrFormat)
	}
	n := 1
	for _, dim := range dt.ArrayDims {
		n *= int(dim)
	}
	elemSize := int(dt.Base.Size)
	if n*elemSize > len(buf) {
		return nil, fmt.Errorf("%w: array elements overrun buffer", errs.ErrDataRead)
	}
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		v, err := d.Value(dt.Base, buf[i*elemSize:(i+1)*elemSize])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// decodeVarLen resolves a variable-length element: a 4-byte count
// followed by a global heap ID locating the payload.
func (d *Decoder) decodeVarLen(dt *message.Datatype, buf []byte) (interface{}, error) {
	if d.c == nil {
		return nil, fmt.Errorf("%w: variable-length data needs file access", errs.ErrDataRead)
	}
	if len(buf) < 4 {
		return nil, fmt.Errorf("%w: variable-length element truncated", errs.ErrDataRead)
	}
	count := byteOrder(dt).Uint32(buf[:4])
	id, err := heap.ParseGlobalID(buf[4:], d.c)
	if err != nil {
		return nil, err
	}

	// A zero-length element can carry a null heap reference.
	if count == 0 && (id.Collection == 0 || d.c.UndefinedOffset(id.Collection)) {
		if dt.IsVarLenString() {
			return "", nil
		}
		return []interface{}{}, nil
	}

	g, ok := d.heaps[id.Collection]
	if !ok {
		g, err = heap.ReadGlobal(d.c, id.Collection)
		if err != nil {
			return nil, err
		}
		d.heaps[id.Collection] = g
	}
	payload, err := g.Object(uint16(id.Index))
	if err != nil {
		return nil, err
	}

	if dt.IsVarLenString() {
		if uint32(len(payload)) > count {
			payload = payload[:count]
		}
		return string(payload), nil
	}

	if dt.Base == nil {
		return nil, fmt.Errorf("%w: variable-length type with no base", errs.ErrFormat)
	}
	return d.Values(dt.Base, payload, uint64(count))
}
