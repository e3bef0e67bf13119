package hdf5

import (
	"errors"

	"github.com/seqview/hdf5/internal/errs"
)

// Sentinel errors returned (wrapped) by this package. Match them with
// errors.Is.
var (
	// ErrFormat marks structural corruption: a bad signature, an
	// impossible field value, a truncated metadata block.
	ErrFormat = errs.ErrFormat

	// ErrGroupNotFound is returned when a path names a group that does
	// not exist or names a dataset where a group was required.
	ErrGroupNotFound = errs.ErrGroupNotFound

	// ErrDatasetNotFound is returned when a path names a dataset that
	// does not exist or names a group where a dataset was required.
	ErrDatasetNotFound = errs.ErrDatasetNotFound

	// ErrUnsupportedFeature marks a well-formed file using a format
	// feature this package does not read.
	ErrUnsupportedFeature = errs.ErrUnsupportedFeature

	// ErrCircularLink is returned when soft links form a cycle.
	ErrCircularLink = errs.ErrCircularLink

	// ErrDataRead marks element data that cannot be produced: short
	// blocks, checksum or size mismatches, undecodable filter output.
	ErrDataRead = errs.ErrDataRead

	// ErrClosed is returned by operations on a closed File.
	ErrClosed = errors.New("hdf5: file is closed")
)
