package beacon

import "github.com/pkg/errors"

// Decode errors. They are returned wrapped; test with errors.Is.
var (
	ErrTruncatedPayload   = errors.New("beacon: truncated payload")
	ErrUnknownScheme      = errors.New("beacon: unknown eddystone url scheme")
	ErrInvalidURLEncoding = errors.New("beacon: eddystone url is not valid utf-8")
)
