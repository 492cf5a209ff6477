package binfmt

import "errors"

// Errors returned by the codec. ErrConfiguration and ErrFormat signal
// schema problems (fix the registration or the format string), ErrTruncated
// and ErrTypeMismatch signal data problems (fix the input or the value).
// All of them abort the call immediately; no partial result is ever
// returned, and a partially written sink must be discarded by the caller.
var (
	// ErrConfiguration reports an invalid type registration, such as a
	// duplicate tag.
	ErrConfiguration = errors.New("binfmt: invalid type registration")

	// ErrFormat reports a malformed format string: unbalanced brackets or
	// a character that is neither a primitive code nor a registered tag.
	ErrFormat = errors.New("binfmt: invalid format string")

	// ErrTruncated reports a source that ran out of bytes before a field
	// or array was fully read.
	ErrTruncated = errors.New("binfmt: truncated input")

	// ErrTypeMismatch reports a value whose shape does not match the
	// primitive, array or composite kind expected by the format.
	ErrTypeMismatch = errors.New("binfmt: value does not match format")
)
