package hdf5

import (
	"fmt"
	"path"
	"time"

	"github.com/seqview/hdf5/internal/dtype"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/layout"
	"github.com/seqview/hdf5/internal/message"
	"github.com/seqview/hdf5/internal/object"
)

// Dataset is an n-dimensional array of typed elements.
type Dataset struct {
	file   *File
	path   string
	addr   uint64
	header *object.Header
	space  *message.Dataspace
	dt     *message.Datatype
	reader layout.Reader
}

func newDataset(f *File, dsPath string, addr uint64, hdr *object.Header) (*Dataset, error) {
	space := hdr.Dataspace()
	if space == nil {
		return nil, fmt.Errorf("%w: dataset %q has no dataspace message", errs.ErrFormat, dsPath)
	}
	dt := hdr.Datatype()
	if dt == nil {
		return nil, fmt.Errorf("%w: dataset %q has no datatype message", errs.ErrFormat, dsPath)
	}

	var fill []byte
	if fv := hdr.FillValue(); fv != nil {
		fill = fv.Value
	}
	rd, err := layout.New(hdr.Layout(), space, dt, hdr.Filters(), fill, f.c)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", dsPath, err)
	}
	return &Dataset{file: f, path: dsPath, addr: addr, header: hdr, space: space, dt: dt, reader: rd}, nil
}

// Name returns the dataset's own name, the last path component.
func (d *Dataset) Name() string { return path.Base(d.path) }

// Path returns the absolute path of the dataset.
func (d *Dataset) Path() string { return d.path }

// Shape returns the dimension extents; nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.space.IsScalar() {
		return nil
	}
	return d.space.Dims
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return d.space.Rank }

// NumElements returns the total element count.
func (d *Dataset) NumElements() uint64 { return d.space.NumElements() }

// IsScalar reports whether the dataset holds exactly one element.
func (d *Dataset) IsScalar() bool { return d.space.IsScalar() }

// TypeDescription renders the element type, e.g. "float64" or
// "compound{x:int32, y:float64}".
func (d *Dataset) TypeDescription() string { return d.dt.String() }

// ElementSize returns the size of one stored element in bytes.
func (d *Dataset) ElementSize() int { return int(d.dt.Size) }

// Raw returns the dataset's element bytes in row-major order, after
// chunk assembly and filter decoding but before type conversion.
func (d *Dataset) Raw() ([]byte, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	return d.reader.ReadAll()
}

// Values reads every element in row-major order. Elements decode to
// the natural Go type for their class: sized integers and floats,
// string, []byte for opaque data, map[string]interface{} for compound
// elements, []interface{} for array elements, and the underlying
// integer code for enums.
func (d *Dataset) Values() ([]interface{}, error) {
	raw, err := d.Raw()
	if err != nil {
		return nil, err
	}
	dec := dtype.NewDecoder(d.file.c)
	return dec.Values(d.dt, raw, d.space.NumElements())
}

// Value reads a scalar dataset's single element.
func (d *Dataset) Value() (interface{}, error) {
	vals, err := d.Values()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: dataset %q has no elements", errs.ErrDataRead, d.path)
	}
	return vals[0], nil
}

// Float64s reads the dataset with every numeric element widened to
// float64.
func (d *Dataset) Float64s() ([]float64, error) {
	vals, err := d.Values()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		x, ok := dtype.AsFloat64(v)
		if !ok {
			return nil, fmt.Errorf("dataset %q: element %d (%T) is not numeric", d.path, i, v)
		}
		out[i] = x
	}
	return out, nil
}

// Int64s reads the dataset with every integer element widened to
// int64.
func (d *Dataset) Int64s() ([]int64, error) {
	vals, err := d.Values()
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(vals))
	for i, v := range vals {
		x, ok := dtype.AsInt64(v)
		if !ok {
			return nil, fmt.Errorf("dataset %q: element %d (%T) is not an integer", d.path, i, v)
		}
		out[i] = x
	}
	return out, nil
}

// Strings reads a string-typed dataset.
func (d *Dataset) Strings() ([]string, error) {
	vals, err := d.Values()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		s, ok := dtype.AsString(v)
		if !ok {
			return nil, fmt.Errorf("dataset %q: element %d (%T) is not a string", d.path, i, v)
		}
		out[i] = s
	}
	return out, nil
}

// Bools reads an integer-coded boolean dataset: zero is false,
// anything else true.
func (d *Dataset) Bools() ([]bool, error) {
	vals, err := d.Int64s()
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(vals))
	for i, v := range vals {
		out[i] = v != 0
	}
	return out, nil
}

// Maps reads a compound-typed dataset as one field map per element.
func (d *Dataset) Maps() ([]map[string]interface{}, error) {
	vals, err := d.Values()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(vals))
	for i, v := range vals {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("dataset %q: element %d (%T) is not compound", d.path, i, v)
		}
		out[i] = m
	}
	return out, nil
}

// TimeUnit selects how integer timestamps are interpreted.
type TimeUnit int

const (
	// UnitAuto infers the unit from magnitude: tick counts at or above
	// 1e11 are milliseconds, below that seconds. (1e11 seconds is the
	// year 5138; 1e11 milliseconds is 1973.)
	UnitAuto TimeUnit = iota
	UnitSeconds
	UnitMilliseconds
)

const autoMillisThreshold = 1e11

// Times reads an integer dataset as wall-clock timestamps.
func (d *Dataset) Times(unit TimeUnit) ([]time.Time, error) {
	ticks, err := d.Int64s()
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(ticks))
	for i, t := range ticks {
		switch {
		case unit == UnitSeconds || (unit == UnitAuto && t < autoMillisThreshold):
			out[i] = time.Unix(t, 0).UTC()
		default:
			out[i] = time.UnixMilli(t).UTC()
		}
	}
	return out, nil
}

// EnumNames reads an enum dataset as member names. A code with no
// member is rendered numerically.
func (d *Dataset) EnumNames() ([]string, error) {
	if d.dt.Class != message.ClassEnum {
		return nil, fmt.Errorf("dataset %q: type %s is not an enum", d.path, d.dt)
	}
	codes, err := d.Int64s()
	if err != nil {
		return nil, err
	}
	byValue := make(map[int64]string, len(d.dt.EnumMembers))
	for _, m := range d.dt.EnumMembers {
		byValue[m.Value] = m.Name
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		if name, ok := byValue[c]; ok {
			out[i] = name
		} else {
			out[i] = fmt.Sprintf("%d", c)
		}
	}
	return out, nil
}

// Attrs returns the names of the dataset's attributes.
func (d *Dataset) Attrs() []string {
	msgs := d.header.Attributes()
	names := make([]string, len(msgs))
	for i, a := range msgs {
		names[i] = a.Name
	}
	return names
}

// Attr returns the named attribute, or nil when absent.
func (d *Dataset) Attr(name string) *Attribute {
	for _, a := range d.header.Attributes() {
		if a.Name == name {
			return &Attribute{msg: a, file: d.file}
		}
	}
	return nil
}

// Attributes returns all of the dataset's attributes.
func (d *Dataset) Attributes() []*Attribute {
	msgs := d.header.Attributes()
	out := make([]*Attribute, len(msgs))
	for i, a := range msgs {
		out[i] = &Attribute{msg: a, file: d.file}
	}
	return out
}

// HasAttr reports whether the dataset carries the named attribute.
func (d *Dataset) HasAttr(name string) bool { return d.Attr(name) != nil }
