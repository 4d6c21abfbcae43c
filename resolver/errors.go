package resolver

import "errors"

var (
	// ErrMissingSource is returned when a request carries no source
	// image reference.
	ErrMissingSource = errors.New("resolver: source reference is required")

	// ErrUnsupportedFormat is returned for an output format outside the
	// recognized set.
	ErrUnsupportedFormat = errors.New("resolver: unsupported output format")

	// ErrInvalidSourceImage is returned when the source bytes cannot be
	// decoded as an image.
	ErrInvalidSourceImage = errors.New("resolver: source is not a valid image")

	// ErrDirNotWritable is returned when the target directory, or the
	// directory of an explicit target override, cannot be written.
	ErrDirNotWritable = errors.New("resolver: target directory is not writable")

	// ErrNoOperation is returned when a request reaches the resolver
	// without an operation selected. This is a caller sequencing bug,
	// not an I/O failure.
	ErrNoOperation = errors.New("resolver: no operation applied to request")
)
