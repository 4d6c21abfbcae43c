package thumbview

import "errors"

var (
	// ErrInvalidArgument is returned for missing or malformed request
	// input, before any filesystem access happens.
	ErrInvalidArgument = errors.New("thumbview: invalid argument")

	// ErrUnknownOperation is returned when a dispatched name does not
	// resolve to a supported thumbnail operation.
	ErrUnknownOperation = errors.New("thumbview: unknown operation")
)
