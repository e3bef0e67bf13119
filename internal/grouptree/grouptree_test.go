package grouptree

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqview/hdf5/internal/cursor"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/heap"
)

func testCursor(data []byte) *cursor.Cursor {
	return cursor.New(bytes.NewReader(data), cursor.DefaultParams())
}

func put64(buf []byte, off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:], v) }
func put32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
func put16(buf []byte, off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:], v) }

// Heap segment used by all trees below. Offsets: 1 "alpha", 7 "beta",
// 12 "soft", 17 "/target".
const heapSegment = "\x00alpha\x00beta\x00soft\x00/target\x00"

// writeHeap lays out a local heap header at addr with its data segment
// immediately after the 32-byte header.
func writeHeap(buf []byte, addr int) {
	copy(buf[addr:], "HEAP")
	put64(buf, addr+8, uint64(len(heapSegment))) // data size
	put64(buf, addr+24, uint64(addr+32))         // data address
	copy(buf[addr+32:], heapSegment)
}

// writeTree lays out a type 0 B-tree node: each child is one heap-offset
// key plus a child address.
func writeTree(buf []byte, addr int, level uint8, children ...uint64) {
	copy(buf[addr:], "TREE")
	buf[addr+5] = level
	put16(buf, addr+6, uint16(len(children)))
	put64(buf, addr+8, ^uint64(0))  // left sibling
	put64(buf, addr+16, ^uint64(0)) // right sibling
	off := addr + 24
	for _, child := range children {
		put64(buf, off, 0) // key: heap offset, unused by the walk
		put64(buf, off+8, child)
		off += 16
	}
}

type snodEntry struct {
	nameOffset uint64
	objAddr    uint64
	cacheType  uint32
	softOffset uint32
}

func writeSnod(buf []byte, addr int, entries ...snodEntry) {
	copy(buf[addr:], "SNOD")
	buf[addr+4] = 1
	put16(buf, addr+6, uint16(len(entries)))
	off := addr + 8
	for _, e := range entries {
		put64(buf, off, e.nameOffset)
		put64(buf, off+8, e.objAddr)
		put32(buf, off+16, e.cacheType)
		put32(buf, off+24, e.softOffset) // scratch pad
		off += 40
	}
}

func TestReadEntries(t *testing.T) {
	buf := make([]byte, 512)
	writeHeap(buf, 0)
	writeTree(buf, 128, 0, 256)
	writeSnod(buf, 256,
		snodEntry{nameOffset: 1, objAddr: 1000},
		snodEntry{nameOffset: 7, objAddr: 2000},
		snodEntry{nameOffset: 12, cacheType: 2, softOffset: 17},
	)

	c := testCursor(buf)
	names, err := heap.ReadLocal(c, 0)
	require.NoError(t, err)

	entries, err := ReadEntries(c, 128, names)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Name: "alpha", ObjectAddress: 1000}, entries[0])
	assert.Equal(t, Entry{Name: "beta", ObjectAddress: 2000}, entries[1])

	soft := entries[2]
	assert.Equal(t, "soft", soft.Name)
	assert.True(t, soft.IsSoft())
	assert.Equal(t, "/target", soft.SoftTarget)
	assert.Zero(t, soft.ObjectAddress)
}

func TestReadEntriesTwoLevels(t *testing.T) {
	buf := make([]byte, 768)
	writeHeap(buf, 0)
	writeTree(buf, 128, 1, 192, 256) // internal node over two subtrees
	writeTree(buf, 192, 0, 320)
	writeTree(buf, 256, 0, 384)
	writeSnod(buf, 320, snodEntry{nameOffset: 1, objAddr: 1000})
	writeSnod(buf, 384, snodEntry{nameOffset: 7, objAddr: 2000})

	c := testCursor(buf)
	names, err := heap.ReadLocal(c, 0)
	require.NoError(t, err)

	entries, err := ReadEntries(c, 128, names)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "beta", entries[1].Name)
}

func TestReadEntriesBadSignature(t *testing.T) {
	buf := make([]byte, 256)
	writeHeap(buf, 0)
	copy(buf[128:], "JUNK")

	c := testCursor(buf)
	names, err := heap.ReadLocal(c, 0)
	require.NoError(t, err)

	_, err = ReadEntries(c, 128, names)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFormat)
}

func TestReadEntriesWrongNodeType(t *testing.T) {
	buf := make([]byte, 256)
	writeHeap(buf, 0)
	writeTree(buf, 128, 0)
	buf[128+4] = 1 // chunk node type in a group tree

	c := testCursor(buf)
	names, err := heap.ReadLocal(c, 0)
	require.NoError(t, err)

	_, err = ReadEntries(c, 128, names)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFormat)
}

func TestReadEntriesSelfLoopCapped(t *testing.T) {
	// An internal node whose child is itself must hit the depth cap
	// instead of recursing forever.
	buf := make([]byte, 256)
	writeHeap(buf, 0)
	writeTree(buf, 128, 1, 128)

	c := testCursor(buf)
	names, err := heap.ReadLocal(c, 0)
	require.NoError(t, err)

	_, err = ReadEntries(c, 128, names)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFormat)
}
