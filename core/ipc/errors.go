package ipc

import "errors"

var (
	// ErrFrameDecode is wrapped by errors returned for frames that arrived
	// fully delimited but could not be parsed. The decoder has already
	// advanced past the bad frame when this is returned.
	ErrFrameDecode = errors.New("frame could not be decoded")

	// ErrFrameTooLarge is wrapped by errors returned when the buffered bytes
	// of a single frame exceed the decoder's limit before a delimiter is
	// seen. The buffered run is discarded.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
)
