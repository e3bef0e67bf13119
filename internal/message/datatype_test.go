package message

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqview/hdf5/internal/errs"
)

// dtHeader builds the fixed 8-byte descriptor prefix.
func dtHeader(class Class, version uint8, bits uint32, size uint32) []byte {
	buf := make([]byte, 8)
	buf[0] = version<<4 | uint8(class)
	buf[1] = byte(bits)
	buf[2] = byte(bits >> 8)
	buf[3] = byte(bits >> 16)
	binary.LittleEndian.PutUint32(buf[4:], size)
	return buf
}

// int32LE is a signed little-endian 32-bit fixed-point descriptor.
func int32LE() []byte {
	body := dtHeader(ClassFixedPoint, 1, 0x08, 4)
	props := make([]byte, 4)
	binary.LittleEndian.PutUint16(props[2:], 32) // precision
	return append(body, props...)
}

func float64LE() []byte {
	body := dtHeader(ClassFloat, 1, 0, 8)
	props := make([]byte, 12)
	binary.LittleEndian.PutUint16(props[2:], 64) // precision
	props[4] = 52                                // exponent location
	props[5] = 11                                // exponent size
	props[7] = 52                                // mantissa size
	binary.LittleEndian.PutUint32(props[8:], 1023)
	return append(body, props...)
}

func TestDatatypeFixedPoint(t *testing.T) {
	dt, err := parseDatatype(int32LE())
	require.NoError(t, err)

	assert.Equal(t, ClassFixedPoint, dt.Class)
	assert.Equal(t, uint32(4), dt.Size)
	assert.True(t, dt.Signed)
	assert.Equal(t, OrderLE, dt.Order)
	assert.Equal(t, uint16(32), dt.BitPrecision)
	assert.Equal(t, "int32", dt.String())
}

func TestDatatypeFloat(t *testing.T) {
	dt, err := parseDatatype(float64LE())
	require.NoError(t, err)

	assert.Equal(t, ClassFloat, dt.Class)
	assert.Equal(t, uint32(8), dt.Size)
	assert.Equal(t, "float64", dt.String())
}

func TestDatatypeString(t *testing.T) {
	// 16-byte null-padded UTF-8 string; pad and charset live in the
	// class bits.
	bits := uint32(PadNullPad) | uint32(CharsetUTF8)<<4
	dt, err := parseDatatype(dtHeader(ClassString, 1, bits, 16))
	require.NoError(t, err)

	assert.Equal(t, ClassString, dt.Class)
	assert.Equal(t, PadNullPad, dt.Pad)
	assert.Equal(t, CharsetUTF8, dt.Charset)
	assert.Equal(t, "string(16)", dt.String())
}

// compoundV1 builds {x: int32 @0, y: float64 @4} with the v1 member
// envelope: name padded to 8, 4-byte offset, 28 bytes of legacy array
// info, then the member type.
func compoundV1() []byte {
	member := func(name string, offset uint32, sub []byte) []byte {
		n := []byte(name + "\x00")
		for len(n)%8 != 0 {
			n = append(n, 0)
		}
		buf := append([]byte{}, n...)
		off := make([]byte, 4)
		binary.LittleEndian.PutUint32(off, offset)
		buf = append(buf, off...)
		buf = append(buf, make([]byte, 28)...)
		return append(buf, sub...)
	}
	body := dtHeader(ClassCompound, 1, 2, 12)
	body = append(body, member("x", 0, int32LE())...)
	body = append(body, member("y", 4, float64LE())...)
	return body
}

func TestDatatypeCompound(t *testing.T) {
	dt, err := parseDatatype(compoundV1())
	require.NoError(t, err)

	assert.Equal(t, ClassCompound, dt.Class)
	require.Len(t, dt.Members, 2)
	assert.Equal(t, "x", dt.Members[0].Name)
	assert.Equal(t, uint32(0), dt.Members[0].Offset)
	assert.Equal(t, ClassFixedPoint, dt.Members[0].Type.Class)
	assert.Equal(t, "y", dt.Members[1].Name)
	assert.Equal(t, uint32(4), dt.Members[1].Offset)
	assert.Equal(t, ClassFloat, dt.Members[1].Type.Class)
	assert.Equal(t, "compound{x:int32, y:float64}", dt.String())
}

func TestDatatypeCompoundMemberOverrun(t *testing.T) {
	// Same layout but the declared element size is too small for the
	// second member.
	body := compoundV1()
	binary.LittleEndian.PutUint32(body[4:], 8) // y at offset 4 + 8 bytes > 8

	_, err := parseDatatype(body)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDataRead)
}

// enumV1 builds enum(int8){FALSE=0, TRUE=1}, the encoding used for
// boolean data.
func enumV1() []byte {
	base := dtHeader(ClassFixedPoint, 1, 0x08, 1)
	baseProps := make([]byte, 4)
	binary.LittleEndian.PutUint16(baseProps[2:], 8)
	base = append(base, baseProps...)

	body := dtHeader(ClassEnum, 1, 2, 1)
	body = append(body, base...)
	body = append(body, []byte("FALSE\x00\x00\x00")...) // padded to 8
	body = append(body, []byte("TRUE\x00\x00\x00\x00")...)
	body = append(body, 0, 1) // member values
	return body
}

func TestDatatypeEnum(t *testing.T) {
	dt, err := parseDatatype(enumV1())
	require.NoError(t, err)

	assert.Equal(t, ClassEnum, dt.Class)
	require.NotNil(t, dt.Base)
	assert.Equal(t, ClassFixedPoint, dt.Base.Class)
	require.Len(t, dt.EnumMembers, 2)
	assert.Equal(t, EnumMember{Name: "FALSE", Value: 0}, dt.EnumMembers[0])
	assert.Equal(t, EnumMember{Name: "TRUE", Value: 1}, dt.EnumMembers[1])
}

func TestDatatypeVarLenString(t *testing.T) {
	// varlen with string element kind; base is a 1-byte string.
	base := dtHeader(ClassString, 1, 0, 1)
	body := dtHeader(ClassVarLen, 1, 0x01, 16)
	body = append(body, base...)

	dt, err := parseDatatype(body)
	require.NoError(t, err)
	assert.True(t, dt.IsVarLenString())
	assert.Equal(t, "string(varlen)", dt.String())
}

func TestDatatypeArray(t *testing.T) {
	// v2 array [3] of int32: ndims, 3 reserved, dims, permutation.
	body := dtHeader(ClassArray, 2, 0, 12)
	props := []byte{1, 0, 0, 0} // ndims + reserved
	dim := make([]byte, 4)
	binary.LittleEndian.PutUint32(dim, 3)
	props = append(props, dim...)
	props = append(props, make([]byte, 4)...) // permutation
	body = append(body, props...)
	body = append(body, int32LE()...)

	dt, err := parseDatatype(body)
	require.NoError(t, err)
	assert.Equal(t, ClassArray, dt.Class)
	assert.Equal(t, []uint32{3}, dt.ArrayDims)
	require.NotNil(t, dt.Base)
	assert.Equal(t, ClassFixedPoint, dt.Base.Class)
}

func TestDatatypeArrayOfCompoundUnsupported(t *testing.T) {
	body := dtHeader(ClassArray, 3, 0, 24)
	dim := make([]byte, 4)
	binary.LittleEndian.PutUint32(dim, 2)
	body = append(body, 1) // ndims, v3: no reserved bytes
	body = append(body, dim...)
	body = append(body, compoundV1()...)

	_, err := parseDatatype(body)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnsupportedFeature)
}

func TestDatatypeTruncated(t *testing.T) {
	_, err := parseDatatype([]byte{0x10, 0, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDataRead)
}

func TestDatatypeNestingDepthCapped(t *testing.T) {
	// Wrap an int32 in more varlen layers than the decoder allows.
	body := int32LE()
	for i := 0; i < 12; i++ {
		body = append(dtHeader(ClassVarLen, 1, 0, 16), body...)
	}
	_, err := parseDatatype(body)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDataRead)
}
