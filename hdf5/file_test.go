package hdf5

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileImage assembles a minimal in-memory HDF5 file: a version 2
// superblock plus version 2 object headers placed after it.
type fileImage struct {
	buf []byte
}

func newFileImage() *fileImage {
	return &fileImage{buf: make([]byte, 48)} // superblock slot
}

// place appends an object at the next 8-byte boundary and returns its
// address.
func (fi *fileImage) place(data []byte) uint64 {
	for len(fi.buf)%8 != 0 {
		fi.buf = append(fi.buf, 0)
	}
	addr := uint64(len(fi.buf))
	fi.buf = append(fi.buf, data...)
	return addr
}

// finish writes the superblock pointing at the root header.
func (fi *fileImage) finish(rootAddr uint64) []byte {
	copy(fi.buf, []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'})
	fi.buf[8] = 2  // version
	fi.buf[9] = 8  // offset size
	fi.buf[10] = 8 // length size
	binary.LittleEndian.PutUint64(fi.buf[28:], uint64(len(fi.buf))) // EOF
	binary.LittleEndian.PutUint64(fi.buf[36:], rootAddr)
	return fi.buf
}

func mustOpen(t *testing.T, img []byte) *File {
	t.Helper()
	f, err := OpenReader(bytes.NewReader(img))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// --- version 2 object header assembly ---

func v2Msg(kind uint8, body []byte) []byte {
	buf := []byte{kind}
	size := make([]byte, 2)
	binary.LittleEndian.PutUint16(size, uint16(len(body)))
	buf = append(buf, size...)
	buf = append(buf, 0) // flags
	return append(buf, body...)
}

func v2Header(msgs ...[]byte) []byte {
	var block []byte
	for _, m := range msgs {
		block = append(block, m...)
	}
	buf := append([]byte("OHDR"), 2, 0, byte(len(block)))
	buf = append(buf, block...)
	return append(buf, 0, 0, 0, 0) // checksum, not verified
}

// --- message bodies ---

func space1D(n uint64) []byte {
	body := []byte{2, 1, 0, 1}
	dim := make([]byte, 8)
	binary.LittleEndian.PutUint64(dim, n)
	return append(body, dim...)
}

var spaceScalar = []byte{2, 0, 0, 0}

func fixedType(size uint32, precision uint16) []byte {
	body := []byte{0x10, 0x08, 0, 0}
	sz := make([]byte, 4)
	binary.LittleEndian.PutUint32(sz, size)
	body = append(body, sz...)
	props := make([]byte, 4)
	binary.LittleEndian.PutUint16(props[2:], precision)
	return append(body, props...)
}

func stringType(size uint32) []byte {
	body := []byte{0x13, 0, 0, 0}
	sz := make([]byte, 4)
	binary.LittleEndian.PutUint32(sz, size)
	return append(body, sz...)
}

// boolEnumType is enum(int8){FALSE=0, TRUE=1}, the encoding h5py uses
// for booleans.
func boolEnumType() []byte {
	body := []byte{0x18, 2, 0, 0, 1, 0, 0, 0}
	body = append(body, fixedType(1, 8)...)
	body = append(body, "FALSE\x00\x00\x00"...)
	body = append(body, "TRUE\x00\x00\x00\x00"...)
	return append(body, 0, 1)
}

func compactLayout(data []byte) []byte {
	body := []byte{3, 0}
	size := make([]byte, 2)
	binary.LittleEndian.PutUint16(size, uint16(len(data)))
	body = append(body, size...)
	return append(body, data...)
}

func hardLink(name string, addr uint64) []byte {
	body := []byte{1, 0x08, 0, byte(len(name))}
	body = append(body, name...)
	a := make([]byte, 8)
	binary.LittleEndian.PutUint64(a, addr)
	return v2Msg(0x06, append(body, a...))
}

func softLink(name, target string) []byte {
	body := []byte{1, 0x08, 1, byte(len(name))}
	body = append(body, name...)
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, uint16(len(target)))
	body = append(body, n...)
	return v2Msg(0x06, append(body, target...))
}

func externalLink(name, file, target string) []byte {
	payload := append([]byte{0}, file...)
	payload = append(payload, 0)
	payload = append(payload, target...)
	payload = append(payload, 0)

	body := []byte{1, 0x08, 64, byte(len(name))}
	body = append(body, name...)
	n := make([]byte, 2)
	binary.LittleEndian.PutUint16(n, uint16(len(payload)))
	body = append(body, n...)
	return v2Msg(0x06, append(body, payload...))
}

// attrMsg builds a version 3 attribute message.
func attrMsg(name string, dt, space, data []byte) []byte {
	body := []byte{3, 0}
	for _, n := range []int{len(name) + 1, len(dt), len(space)} {
		f := make([]byte, 2)
		binary.LittleEndian.PutUint16(f, uint16(n))
		body = append(body, f...)
	}
	body = append(body, 0) // charset
	body = append(body, name...)
	body = append(body, 0)
	body = append(body, dt...)
	body = append(body, space...)
	return v2Msg(0x0C, append(body, data...))
}

func datasetHeader(space, dt, lo []byte, extra ...[]byte) []byte {
	msgs := [][]byte{v2Msg(0x01, space), v2Msg(0x03, dt), v2Msg(0x08, lo)}
	msgs = append(msgs, extra...)
	return v2Header(msgs...)
}

// buildTestFile lays out:
//
//	/            group, attr title="hello"
//	/data        int32[4] = {0, 1, 2, 3}, attr units="m/s"
//	/flags       bool enum[5] = {F, T, T, F, T}
//	/t           int64[2] = {1.5e9, 1.5e12}
//	/grp/vals    int32[2] = {7, 8}
//	/alias  ->   /grp (soft)
//	/ext    ->   other.h5:/remote (external)
func buildTestFile() []byte {
	fi := newFileImage()

	dataRaw := make([]byte, 16)
	for i := uint32(0); i < 4; i++ {
		binary.LittleEndian.PutUint32(dataRaw[i*4:], i)
	}
	dataAddr := fi.place(datasetHeader(
		space1D(4), fixedType(4, 32), compactLayout(dataRaw),
		attrMsg("units", stringType(3), spaceScalar, []byte("m/s")),
	))

	flagsAddr := fi.place(datasetHeader(
		space1D(5), boolEnumType(), compactLayout([]byte{0, 1, 1, 0, 1}),
	))

	tRaw := make([]byte, 16)
	binary.LittleEndian.PutUint64(tRaw, 1_500_000_000)
	binary.LittleEndian.PutUint64(tRaw[8:], 1_500_000_000_000)
	tAddr := fi.place(datasetHeader(space1D(2), fixedType(8, 64), compactLayout(tRaw)))

	valsRaw := make([]byte, 8)
	binary.LittleEndian.PutUint32(valsRaw, 7)
	binary.LittleEndian.PutUint32(valsRaw[4:], 8)
	valsAddr := fi.place(datasetHeader(space1D(2), fixedType(4, 32), compactLayout(valsRaw)))

	grpAddr := fi.place(v2Header(hardLink("vals", valsAddr)))

	rootAddr := fi.place(v2Header(
		softLink("alias", "/grp"),
		hardLink("data", dataAddr),
		externalLink("ext", "other.h5", "/remote"),
		hardLink("flags", flagsAddr),
		hardLink("grp", grpAddr),
		hardLink("t", tAddr),
		attrMsg("title", stringType(5), spaceScalar, []byte("hello")),
	))

	return fi.finish(rootAddr)
}

func TestOpenReader(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	assert.Equal(t, 2, f.Version())
	assert.Equal(t, "", f.Path())
	assert.Equal(t, "/", f.Root().Name())

	members, err := f.Root().Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"alias", "data", "ext", "flags", "grp", "t"}, members)
}

func TestOpenDataset(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	d, err := f.OpenDataset("/data")
	require.NoError(t, err)
	assert.Equal(t, "data", d.Name())
	assert.Equal(t, "/data", d.Path())
	assert.Equal(t, []uint64{4}, d.Shape())
	assert.Equal(t, uint64(4), d.NumElements())
	assert.Equal(t, "int32", d.TypeDescription())

	vals, err := d.Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3}, vals)

	floats, err := d.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, floats)
}

func TestOpenGroupAndNestedDataset(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	g, err := f.OpenGroup("/grp")
	require.NoError(t, err)
	assert.Equal(t, "grp", g.Name())

	d, err := g.OpenDataset("vals")
	require.NoError(t, err)
	vals, err := d.Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, vals)

	// The same dataset through an absolute path.
	d, err = f.OpenDataset("/grp/vals")
	require.NoError(t, err)
	assert.Equal(t, "/grp/vals", d.Path())
}

func TestOpenErrors(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	_, err := f.OpenDataset("/missing")
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	_, err = f.OpenGroup("/missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = f.OpenGroup("/missing/deeper")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	// Kind mismatches.
	_, err = f.OpenGroup("/data")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = f.OpenDataset("/grp")
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	// A dataset used as an intermediate path component.
	_, err = f.OpenDataset("/data/deeper")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSoftLinkResolution(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	g, err := f.OpenGroup("/alias")
	require.NoError(t, err)
	assert.Equal(t, "/alias", g.Path())

	d, err := f.OpenDataset("/alias/vals")
	require.NoError(t, err)
	vals, err := d.Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, vals)
}

func TestExternalLinkUnsupported(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	_, err := f.OpenGroup("/ext")
	assert.ErrorIs(t, err, ErrUnsupportedFeature)

	// But the link itself can be inspected without following it.
	ln, err := f.Root().Link("ext")
	require.NoError(t, err)
	assert.Equal(t, LinkExternal, ln.Kind)
	assert.Equal(t, "other.h5", ln.TargetFile)
	assert.Equal(t, "/remote", ln.Target)
}

func TestLinkIntrospection(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	ln, err := f.Root().Link("alias")
	require.NoError(t, err)
	assert.Equal(t, LinkSoft, ln.Kind)
	assert.Equal(t, "/grp", ln.Target)
	assert.Equal(t, "soft", ln.Kind.String())

	ln, err = f.Root().Link("data")
	require.NoError(t, err)
	assert.Equal(t, LinkHard, ln.Kind)
	assert.NotZero(t, ln.Address)

	_, err = f.Root().Link("nope")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestCircularSoftLinks(t *testing.T) {
	fi := newFileImage()
	rootAddr := fi.place(v2Header(
		softLink("a", "/b"),
		softLink("b", "/a"),
		softLink("self", "/self"),
	))
	f := mustOpen(t, fi.finish(rootAddr))

	_, err := f.OpenGroup("/a")
	assert.ErrorIs(t, err, ErrCircularLink)

	_, err = f.OpenGroup("/self")
	assert.ErrorIs(t, err, ErrCircularLink)
}

func TestBools(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	d, err := f.OpenDataset("/flags")
	require.NoError(t, err)

	bools, err := d.Bools()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false, true}, bools)

	names, err := d.EnumNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"FALSE", "TRUE", "TRUE", "FALSE", "TRUE"}, names)
}

func TestEnumNamesRejectsNonEnum(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	d, err := f.OpenDataset("/data")
	require.NoError(t, err)
	_, err = d.EnumNames()
	require.Error(t, err)
}

func TestTimes(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	d, err := f.OpenDataset("/t")
	require.NoError(t, err)

	// UnitAuto: 1.5e9 is below the millisecond threshold, 1.5e12 above.
	times, err := d.Times(UnitAuto)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, int64(1_500_000_000), times[0].Unix())
	assert.Equal(t, int64(1_500_000_000_000), times[1].UnixMilli())

	times, err = d.Times(UnitMilliseconds)
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000_000), times[0].UnixMilli())
}

func TestAttributes(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	v, err := f.ReadAttr("/@title")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	attr, err := f.Attr("/data@units")
	require.NoError(t, err)
	assert.Equal(t, "units", attr.Name())
	assert.True(t, attr.IsScalar())
	s, err := attr.String()
	require.NoError(t, err)
	assert.Equal(t, "m/s", s)

	_, err = f.Attr("/data@nope")
	require.Error(t, err)

	d, err := f.OpenDataset("/data")
	require.NoError(t, err)
	assert.True(t, d.HasAttr("units"))
	assert.False(t, d.HasAttr("nope"))
	assert.Equal(t, []string{"units"}, d.Attrs())

	assert.True(t, f.Root().HasAttr("title"))
}

func TestWalk(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	type visit struct {
		path string
		kind ObjectKind
	}
	var visits []visit
	err := f.Walk(func(path string, kind ObjectKind) error {
		visits = append(visits, visit{path, kind})
		return nil
	})
	require.NoError(t, err)

	// Soft and external links are not followed; children come in name
	// order, parents first.
	assert.Equal(t, []visit{
		{"/", KindGroup},
		{"/data", KindDataset},
		{"/flags", KindDataset},
		{"/grp", KindGroup},
		{"/grp/vals", KindDataset},
		{"/t", KindDataset},
	}, visits)
}

func TestWalkSkipAll(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	var count int
	err := f.Walk(func(path string, kind ObjectKind) error {
		count++
		return SkipAll
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInspect(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	d, err := f.OpenDataset("/data")
	require.NoError(t, err)

	info := d.Inspect()
	assert.Equal(t, "/data", info.Path)
	assert.Equal(t, []uint64{4}, info.Shape)
	assert.Equal(t, "int32", info.Type)
	assert.Equal(t, 4, info.ElementSize)
	assert.Equal(t, "compact", info.Storage)
	assert.Nil(t, info.ChunkShape)
	assert.Equal(t, []string{"units"}, info.Attributes)
	assert.Equal(t, "/data: int32 [4], compact", info.String())
}

func TestInspectGroup(t *testing.T) {
	f := mustOpen(t, buildTestFile())

	info, err := f.Root().Inspect()
	require.NoError(t, err)
	assert.Equal(t, "/", info.Path)
	assert.Equal(t, 6, info.NumChildren)
	assert.Equal(t, []string{"alias", "data", "ext", "flags", "grp", "t"}, info.Children)
	assert.Equal(t, []string{"title"}, info.Attributes)
	assert.Equal(t, "/: group, 6 members", info.String())

	g, err := f.OpenGroup("/grp")
	require.NoError(t, err)
	info, err = g.Inspect()
	require.NoError(t, err)
	assert.Equal(t, "/grp", info.Path)
	assert.Equal(t, 1, info.NumChildren)
	assert.Equal(t, []string{"vals"}, info.Children)
	assert.Empty(t, info.Attributes)
}

func TestHardLinkedDatasetsReadIdentically(t *testing.T) {
	fi := newFileImage()
	raw := make([]byte, 16)
	for i := uint32(0); i < 4; i++ {
		binary.LittleEndian.PutUint32(raw[i*4:], i*11)
	}
	dsAddr := fi.place(datasetHeader(space1D(4), fixedType(4, 32), compactLayout(raw)))
	rootAddr := fi.place(v2Header(
		hardLink("data", dsAddr),
		hardLink("twin", dsAddr),
	))
	f := mustOpen(t, fi.finish(rootAddr))

	a, err := f.OpenDataset("/data")
	require.NoError(t, err)
	b, err := f.OpenDataset("/twin")
	require.NoError(t, err)

	aRaw, err := a.Raw()
	require.NoError(t, err)
	bRaw, err := b.Raw()
	require.NoError(t, err)
	assert.Equal(t, aRaw, bRaw)

	aVals, err := a.Int64s()
	require.NoError(t, err)
	bVals, err := b.Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 11, 22, 33}, aVals)
	assert.Equal(t, aVals, bVals)

	// Walk sees the shared object once, under the first name.
	var visited []string
	require.NoError(t, f.Walk(func(path string, kind ObjectKind) error {
		visited = append(visited, path)
		return nil
	}))
	assert.Equal(t, []string{"/", "/data"}, visited)
}

func TestClose(t *testing.T) {
	f, err := OpenReader(bytes.NewReader(buildTestFile()))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close()) // idempotent

	_, err = f.OpenDataset("/data")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.OpenGroup("/grp")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.Walk(func(string, ObjectKind) error { return nil }), ErrClosed)
}

func TestOpenNotHDF5(t *testing.T) {
	_, err := OpenReader(bytes.NewReader(bytes.Repeat([]byte("plain text "), 600)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseAttrPath(t *testing.T) {
	obj, name, err := ParseAttrPath("/grp/data@units")
	require.NoError(t, err)
	assert.Equal(t, "/grp/data", obj)
	assert.Equal(t, "units", name)

	obj, name, err = ParseAttrPath("@title")
	require.NoError(t, err)
	assert.Equal(t, "/", obj)
	assert.Equal(t, "title", name)

	_, _, err = ParseAttrPath("/no/attr/part")
	require.Error(t, err)

	_, _, err = ParseAttrPath("/obj@")
	require.Error(t, err)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPath("/a//b/"))
	assert.Equal(t, []string{"a", "b"}, splitPath("a/b"))
	assert.Nil(t, splitPath("/"))
	assert.Nil(t, splitPath(""))
}
