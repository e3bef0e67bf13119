package message

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
)

// testCursor supplies the file-wide decode parameters the parsers
// need; none of these tests read through it.
func testCursor() *cursor.Cursor {
	return cursor.New(bytes.NewReader(nil), cursor.DefaultParams())
}

func TestDataspaceV2Scalar(t *testing.T) {
	body := []byte{2, 0, 0, 0}

	ds, err := parseDataspace(body, testCursor())
	require.NoError(t, err)

	assert.Equal(t, uint8(2), ds.Version)
	assert.True(t, ds.IsScalar())
	assert.Equal(t, uint64(1), ds.NumElements())
	assert.Empty(t, ds.Dims)
}

func TestDataspaceV2Simple2D(t *testing.T) {
	body := make([]byte, 4+16)
	body[0] = 2 // version
	body[1] = 2 // rank
	body[3] = 1 // simple
	binary.LittleEndian.PutUint64(body[4:], 3)
	binary.LittleEndian.PutUint64(body[12:], 4)

	ds, err := parseDataspace(body, testCursor())
	require.NoError(t, err)

	assert.Equal(t, []uint64{3, 4}, ds.Dims)
	assert.Equal(t, uint64(12), ds.NumElements())
	assert.False(t, ds.IsScalar())
	assert.Nil(t, ds.MaxDims)
}

func TestDataspaceV1WithMaxDims(t *testing.T) {
	// v1: rank, flags, then 4 reserved bytes after the first four.
	body := make([]byte, 8+8+8)
	body[0] = 1    // version
	body[1] = 1    // rank
	body[2] = 0x01 // max dims present
	binary.LittleEndian.PutUint64(body[8:], 10)
	binary.LittleEndian.PutUint64(body[16:], ^uint64(0)) // unlimited

	ds, err := parseDataspace(body, testCursor())
	require.NoError(t, err)

	assert.Equal(t, []uint64{10}, ds.Dims)
	require.Len(t, ds.MaxDims, 1)
	assert.Equal(t, ^uint64(0), ds.MaxDims[0])
}

func TestDataspaceV1RankZeroIsScalar(t *testing.T) {
	body := make([]byte, 8)
	body[0] = 1

	ds, err := parseDataspace(body, testCursor())
	require.NoError(t, err)
	assert.True(t, ds.IsScalar())
}

func TestDataspaceTruncatedDims(t *testing.T) {
	body := make([]byte, 4+4) // rank says 1 but only half a dim present
	body[0] = 2
	body[1] = 1
	body[3] = 1

	_, err := parseDataspace(body, testCursor())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDataRead)
}

func TestDataspaceUnknownVersion(t *testing.T) {
	_, err := parseDataspace([]byte{7, 0, 0, 0}, testCursor())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnsupportedFeature)
}
