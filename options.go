package cbor

import (
	"fmt"

	"github.com/contentauth/c2pa-cbor/internal/options"
)

// EncoderOption represents a functional option for configuring an Encoder.
// This is a type alias for the generic Option interface specialized for Encoder.
type EncoderOption = options.Option[*Encoder]

// DecoderOption represents a functional option for configuring a Decoder.
type DecoderOption = options.Option[*Decoder]

// WithCompactFloats controls float emission. When enabled (the default) the
// encoder picks the shortest of half, single and double precision that
// losslessly round-trips the value; when disabled every float is emitted as
// double precision. Decoding accepts all three widths regardless.
func WithCompactFloats(enabled bool) EncoderOption {
	return options.NoError(func(e *Encoder) {
		e.compactFloats = enabled
	})
}

// WithStrictFields makes struct decoding strict: map keys without a matching
// field fail with ErrUnknownField, and fields not marked omitempty that are
// absent from the map fail with ErrMissingField. The default lenient policy
// skips unknown keys and leaves missing fields at their zero value.
func WithStrictFields(enabled bool) DecoderOption {
	return options.NoError(func(d *Decoder) {
		d.strictFields = enabled
	})
}

// WithMaxNestingDepth bounds container and tag nesting during decode.
// The default is 64.
func WithMaxNestingDepth(depth int) DecoderOption {
	return options.New(func(d *Decoder) error {
		if depth <= 0 {
			return fmt.Errorf("cbor: invalid nesting depth %d", depth)
		}
		d.maxDepth = depth

		return nil
	})
}
