package hdf5

import (
	"fmt"

	"github.com/seqview/hdf5/internal/dtype"
	"github.com/seqview/hdf5/internal/errs"
	"github.com/seqview/hdf5/internal/message"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	msg  *message.Attribute
	file *File
}

// Name returns the attribute's name.
func (a *Attribute) Name() string { return a.msg.Name }

// Shape returns the attribute's dimension extents; nil for a scalar.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Space.IsScalar() {
		return nil
	}
	return a.msg.Space.Dims
}

// IsScalar reports whether the attribute holds a single element.
func (a *Attribute) IsScalar() bool { return a.msg.Space.IsScalar() }

// NumElements returns the attribute's element count.
func (a *Attribute) NumElements() uint64 { return a.msg.Space.NumElements() }

// TypeDescription renders the attribute's element type.
func (a *Attribute) TypeDescription() string { return a.msg.Type.String() }

// Value decodes the attribute: the bare element for a scalar, a
// []interface{} otherwise.
func (a *Attribute) Value() (interface{}, error) {
	n := a.msg.Space.NumElements()
	dec := dtype.NewDecoder(a.file.c)
	vals, err := dec.Values(a.msg.Type, a.msg.Data, n)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	if a.msg.Space.IsScalar() {
		if len(vals) == 0 {
			return nil, fmt.Errorf("%w: attribute %q has no value", errs.ErrDataRead, a.msg.Name)
		}
		return vals[0], nil
	}
	return vals, nil
}

// String decodes a scalar string attribute.
func (a *Attribute) String() (string, error) {
	v, err := a.Value()
	if err != nil {
		return "", err
	}
	s, ok := dtype.AsString(v)
	if !ok {
		return "", fmt.Errorf("attribute %q: value (%T) is not a string", a.msg.Name, v)
	}
	return s, nil
}

// Int decodes a scalar integer attribute.
func (a *Attribute) Int() (int64, error) {
	v, err := a.Value()
	if err != nil {
		return 0, err
	}
	x, ok := dtype.AsInt64(v)
	if !ok {
		return 0, fmt.Errorf("attribute %q: value (%T) is not an integer", a.msg.Name, v)
	}
	return x, nil
}

// Float decodes a scalar numeric attribute as float64.
func (a *Attribute) Float() (float64, error) {
	v, err := a.Value()
	if err != nil {
		return 0, err
	}
	x, ok := dtype.AsFloat64(v)
	if !ok {
		return 0, fmt.Errorf("attribute %q: value (%T) is not numeric", a.msg.Name, v)
	}
	return x, nil
}
