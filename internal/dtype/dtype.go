// Package dtype turns raw dataset bytes into Go values according to
// the dataset's type descriptor. Elements decode to the natural Go
// type for their class: sized integers and floats, string, []byte for
// opaque data, map[string]interface{} for compound elements, and
// []interface{} for array and variable-length elements.
package dtype

import (
	"encoding/binary"
	"math"

	"github.com/seqview/hdf5/internal/message"
)

// byteOrder maps the descriptor's order flag to an encoding order.
func byteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.Order == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// AsFloat64 widens any numeric element value to float64.
func AsFloat64(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

// AsInt64 narrows any integer element value to int64.
func AsInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

// AsString extracts a string element value.
func AsString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
