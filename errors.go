package cbor

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the codec. Decoder errors are wrapped in a
// *DecodeError carrying the byte offset of the failure; use errors.Is to
// classify them.
var (
	// ErrUnexpectedEnd is returned when the source is exhausted mid-item.
	ErrUnexpectedEnd = errors.New("cbor: unexpected end of data")

	// ErrMalformed is returned for reserved head values, stop codes outside
	// an indefinite-length container, illegal simple values, and typed-array
	// payloads whose length is not a multiple of the element width.
	ErrMalformed = errors.New("cbor: malformed data")

	// ErrInvalidUTF8 is returned when a text string contains invalid UTF-8.
	ErrInvalidUTF8 = errors.New("cbor: invalid UTF-8 in text string")

	// ErrOutOfRange is returned when an integer cannot fit the destination type.
	ErrOutOfRange = errors.New("cbor: integer out of range for target type")

	// ErrTypeMismatch is returned when the decoded major type does not match
	// what the target expected.
	ErrTypeMismatch = errors.New("cbor: major type does not match target")

	// ErrMissingField is returned in strict mode when a required struct field
	// is absent from the decoded map.
	ErrMissingField = errors.New("cbor: missing struct field")

	// ErrUnknownField is returned in strict mode when the decoded map holds a
	// key with no matching struct field.
	ErrUnknownField = errors.New("cbor: unknown struct field")

	// ErrDuplicateKey is returned when a map decoded into a struct repeats a key.
	ErrDuplicateKey = errors.New("cbor: duplicate map key")

	// ErrIO is returned when a sink or source operation fails; the
	// underlying failure stays wrapped alongside it.
	ErrIO = errors.New("cbor: sink/source I/O failure")

	// ErrTrailingBytes is returned by Unmarshal when data remains after the
	// outermost item.
	ErrTrailingBytes = errors.New("cbor: trailing bytes after top-level value")

	// ErrNestingDepthExceeded is returned when containers nest beyond the
	// decoder's depth limit.
	ErrNestingDepthExceeded = errors.New("cbor: maximum nesting depth exceeded")
)

// DecodeError wraps a decoding failure with the byte offset at which it was
// detected. The decoder's cursor is rewound to that offset only on type
// mismatches; after other failures it can lie past the offset.
type DecodeError struct {
	Offset int
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("cbor: offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// decodeErr wraps err with the given offset unless it already carries one.
func decodeErr(offset int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}

	return &DecodeError{Offset: offset, Err: err}
}

// decodeErrf wraps a sentinel with detail text and the failure offset.
func decodeErrf(offset int, sentinel error, format string, args ...any) error {
	return &DecodeError{
		Offset: offset,
		Err:    fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...),
	}
}
