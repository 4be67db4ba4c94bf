// Package cbor implements the Concise Binary Object Representation codec
// defined in RFC 8949, together with the RFC 8746 typed-array tags.
//
// The codec is built from a low-level Encoder/Decoder pair and a reflection
// bridge that maps arbitrary Go values onto the CBOR data model:
//
//   - Encoder writes data items to any io.Writer using preferred
//     serialization: shortest head arguments, definite lengths only, and
//     (by default) the shortest lossless float width.
//   - Decoder reads data items from a byte slice, accepting any argument
//     width and both definite- and indefinite-length containers; indefinite
//     items collapse to their definite in-memory form.
//   - Standard-tag helpers cover RFC 3339 date/times (tag 0), epoch times
//     (tag 1), URIs (tag 32), base64url/base64 text (tags 33/34) and the
//     RFC 8746 typed arrays (tags 64-71, 81-86).
//
// # Basic Usage
//
// Encoding and decoding Go values:
//
//	import "github.com/contentauth/c2pa-cbor"
//
//	type Claim struct {
//	    Label  string `cbor:"label"`
//	    Format string `cbor:"format,omitempty"`
//	    Size   uint64 `cbor:"size"`
//	}
//
//	data, err := cbor.Marshal(Claim{Label: "c2pa.hash", Size: 512})
//	if err != nil {
//	    return err
//	}
//
//	var claim Claim
//	if err := cbor.Unmarshal(data, &claim); err != nil {
//	    return err
//	}
//
// Low-level encoding against an arbitrary sink:
//
//	enc, _ := cbor.NewEncoder(&buf)
//	_ = enc.WriteMapHeader(2)
//	_ = enc.WriteUint(1)
//	_ = enc.WriteUint(2)
//	_ = enc.WriteUint(3)
//	_ = enc.WriteUint(4)
//
// # Package Structure
//
// This package holds the codec core. The endian package supplies the byte
// order engines used by typed arrays, the format package holds the wire
// constants, and the compress package backs the compressed convenience
// wrappers.
package cbor

import (
	"fmt"

	"github.com/contentauth/c2pa-cbor/compress"
	"github.com/contentauth/c2pa-cbor/format"
	"github.com/contentauth/c2pa-cbor/internal/pool"
)

// Simple is a CBOR simple value (major type 7). The assigned values
// false/true/null/undefined map to Go bool and nil; Simple carries the
// unassigned ones through encode and decode unchanged.
type Simple uint8

// Undefined is the CBOR undefined simple value. It is distinct from null,
// which maps to Go nil.
type Undefined struct{}

// Tag pairs a tag number with its content value. The low-level API surfaces
// unknown tags as Tag values; the reflection bridge ignores tags by default
// and decodes their content directly.
type Tag struct {
	Number  uint64
	Content any
}

// Marshal encodes v into a freshly allocated byte slice using preferred
// serialization.
func Marshal(v any) ([]byte, error) {
	buf := pool.GetEncodeBuffer()
	defer pool.PutEncodeBuffer(buf)

	enc, err := NewEncoder(buf)
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// Unmarshal decodes a single data item from data into v, which must be a
// non-nil pointer. Bytes remaining after the item fail with
// ErrTrailingBytes.
func Unmarshal(data []byte, v any) error {
	dec, err := NewDecoder(data)
	if err != nil {
		return err
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.Remaining() > 0 {
		return decodeErrf(dec.Offset(), ErrTrailingBytes, "%d bytes remain", dec.Remaining())
	}

	return nil
}

// MarshalCompressed encodes v and compresses the encoding with the given
// algorithm. The caller is responsible for remembering the algorithm;
// no framing is added.
func MarshalCompressed(v any, compression format.CompressionType) ([]byte, error) {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}

	out, err := codec.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("cbor: compress payload: %w", err)
	}

	return out, nil
}

// UnmarshalCompressed decompresses data with the given algorithm and decodes
// the result into v.
func UnmarshalCompressed(data []byte, v any, compression format.CompressionType) error {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return err
	}

	raw, err := codec.Decompress(data)
	if err != nil {
		return fmt.Errorf("cbor: decompress payload: %w", err)
	}

	return Unmarshal(raw, v)
}
