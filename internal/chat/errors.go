package chat

import "errors"

var (
	// Wire decoding.
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event")

	// Registry consistency. Only ever produced by Registry.Verify.
	ErrInvariant = errors.New("registry invariant violated")
)
