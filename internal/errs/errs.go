// Package errs defines the error taxonomy shared by every layer of the
// engine. The public hdf5 package re-exports these sentinels; internal
// packages wrap them with fmt.Errorf("...: %w", ...) so errors.Is works
// regardless of how deep the failure happened.
package errs

import "errors"

var (
	// ErrFormat reports a missing signature or a structurally corrupt
	// superblock, header, or metadata block.
	ErrFormat = errors.New("invalid HDF5 file")

	// ErrGroupNotFound reports a path component that does not resolve
	// to a group.
	ErrGroupNotFound = errors.New("group not found")

	// ErrDatasetNotFound reports a path that does not resolve to a
	// dataset.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrUnsupportedFeature reports a protocol variant this engine
	// recognizes but deliberately does not implement: v2 B-tree chunk
	// indexes, fixed/extensible array indexes, external-link targets,
	// dense link storage, unregistered filters, unknown datatype
	// classes.
	ErrUnsupportedFeature = errors.New("unsupported HDF5 feature")

	// ErrCircularLink reports a soft-link cycle found during path
	// resolution.
	ErrCircularLink = errors.New("circular link")

	// ErrDataRead reports malformed or inconsistent data encountered
	// after the object was located: truncated chunks, decompressed
	// size mismatches, malformed message bodies.
	ErrDataRead = errors.New("data read error")
)
