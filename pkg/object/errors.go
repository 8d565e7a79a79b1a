package object

import "errors"

var (
	// ErrNotFound indicates no stored object matches the requested hash.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidObject indicates a stored frame is malformed: missing NUL
	// separator, unparseable header, or a length mismatch.
	ErrInvalidObject = errors.New("invalid object")

	// ErrAmbiguousHash indicates a short hash prefix matches more than one
	// stored object.
	ErrAmbiguousHash = errors.New("ambiguous hash prefix")
)
