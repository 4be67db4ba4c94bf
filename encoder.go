package cbor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/contentauth/c2pa-cbor/format"
	"github.com/contentauth/c2pa-cbor/internal/options"
)

// Encoder writes CBOR data items to an io.Writer sink.
//
// All emitted heads use preferred serialization: the shortest argument width
// that fits. Containers and strings are always written in definite-length
// form. The encoder keeps no state between items beyond the sink itself, so
// a partial write caused by a sink failure remains visible to the caller.
//
// An Encoder is not safe for concurrent use; run parallel encodes on
// distinct Encoder instances.
type Encoder struct {
	w             io.Writer
	scratch       [9]byte
	compactFloats bool
}

// NewEncoder creates an Encoder targeting w.
//
// Compact float emission is enabled by default; pass
// WithCompactFloats(false) to always emit double precision.
func NewEncoder(w io.Writer, opts ...EncoderOption) (*Encoder, error) {
	enc := &Encoder{
		w:             w,
		compactFloats: true,
	}

	if err := options.Apply(enc, opts...); err != nil {
		return nil, err
	}

	return enc, nil
}

// write pushes p to the sink. A sink failure is classified as ErrIO with
// the underlying error kept in the chain.
func (e *Encoder) write(p []byte) error {
	if _, err := e.w.Write(p); err != nil {
		return fmt.Errorf("%w: sink write: %w", ErrIO, err)
	}

	return nil
}

// writeHead emits the head for one data item: the initial byte holding the
// major type and additional info, followed by the shortest big-endian
// argument encoding that fits.
func (e *Encoder) writeHead(major format.MajorType, arg uint64) error {
	hb := byte(major) << 5

	var n int
	switch {
	case arg <= format.AddInfoMax:
		e.scratch[0] = hb | byte(arg)
		n = 1
	case arg <= math.MaxUint8:
		e.scratch[0] = hb | format.AddInfo8Bit
		e.scratch[1] = byte(arg)
		n = 2
	case arg <= math.MaxUint16:
		e.scratch[0] = hb | format.AddInfo16Bit
		binary.BigEndian.PutUint16(e.scratch[1:3], uint16(arg))
		n = 3
	case arg <= math.MaxUint32:
		e.scratch[0] = hb | format.AddInfo32Bit
		binary.BigEndian.PutUint32(e.scratch[1:5], uint32(arg))
		n = 5
	default:
		e.scratch[0] = hb | format.AddInfo64Bit
		binary.BigEndian.PutUint64(e.scratch[1:9], arg)
		n = 9
	}

	return e.write(e.scratch[:n])
}

// WriteUint writes an unsigned integer (major type 0).
func (e *Encoder) WriteUint(v uint64) error {
	return e.writeHead(format.MajorUnsigned, v)
}

// WriteInt writes a signed integer as major type 0 or 1.
func (e *Encoder) WriteInt(v int64) error {
	if v >= 0 {
		return e.writeHead(format.MajorUnsigned, uint64(v))
	}

	// The wire form of a negative integer is -1-n, so the argument is the
	// complement of the value.
	return e.writeHead(format.MajorNegative, uint64(-(v + 1)))
}

// WriteNegative writes the negative integer -1-n (major type 1). It covers
// the full wire range down to -2^64, which WriteInt cannot express.
func (e *Encoder) WriteNegative(n uint64) error {
	return e.writeHead(format.MajorNegative, n)
}

// WriteBigInt writes v as major type 0 or 1. Values outside [-2^64, 2^64-1]
// are rejected; the codec does not emit bignum tags.
func (e *Encoder) WriteBigInt(v *big.Int) error {
	if v.IsUint64() {
		return e.writeHead(format.MajorUnsigned, v.Uint64())
	}
	if v.Sign() < 0 {
		// arg = -1-v must fit in uint64
		var arg big.Int
		arg.Neg(v)
		arg.Sub(&arg, big.NewInt(1))
		if arg.IsUint64() {
			return e.writeHead(format.MajorNegative, arg.Uint64())
		}
	}

	return fmt.Errorf("%w: big.Int %s exceeds the CBOR integer range", ErrOutOfRange, v.String())
}

// WriteBytes writes a definite-length byte string (major type 2).
func (e *Encoder) WriteBytes(v []byte) error {
	if err := e.writeHead(format.MajorBytes, uint64(len(v))); err != nil {
		return err
	}

	return e.write(v)
}

// WriteString writes a definite-length text string (major type 3).
// The string is assumed to hold valid UTF-8; validation happens on decode.
func (e *Encoder) WriteString(v string) error {
	if err := e.writeHead(format.MajorText, uint64(len(v))); err != nil {
		return err
	}

	if len(v) == 0 {
		return nil
	}

	return e.write([]byte(v))
}

// WriteArrayHeader writes the head of a definite-length array (major type 4).
// The caller must follow with exactly n encoded elements.
func (e *Encoder) WriteArrayHeader(n int) error {
	return e.writeHead(format.MajorArray, uint64(n))
}

// WriteMapHeader writes the head of a definite-length map (major type 5).
// The caller must follow with exactly n key/value pairs.
func (e *Encoder) WriteMapHeader(n int) error {
	return e.writeHead(format.MajorMap, uint64(n))
}

// WriteTag writes a tag head (major type 6) and leaves the encoder
// positioned for the content value; the next item written is the tagged
// content.
func (e *Encoder) WriteTag(t uint64) error {
	return e.writeHead(format.MajorTag, t)
}

// WriteBool writes a boolean simple value.
func (e *Encoder) WriteBool(v bool) error {
	if v {
		return e.writeHead(format.MajorSimple, format.SimpleTrue)
	}

	return e.writeHead(format.MajorSimple, format.SimpleFalse)
}

// WriteNull writes the null simple value.
func (e *Encoder) WriteNull() error {
	return e.writeHead(format.MajorSimple, format.SimpleNull)
}

// WriteUndefined writes the undefined simple value.
func (e *Encoder) WriteUndefined() error {
	return e.writeHead(format.MajorSimple, format.SimpleUndefined)
}

// WriteSimple writes a simple value. Values 0-23 are encoded inline;
// values 32-255 use the two-byte form. Values 24-31 are reserved by
// RFC 8949 and rejected.
func (e *Encoder) WriteSimple(v Simple) error {
	switch {
	case v <= format.AddInfoMax:
		return e.writeHead(format.MajorSimple, uint64(v))
	case v < 32:
		return fmt.Errorf("%w: reserved simple value %d", ErrMalformed, v)
	default:
		e.scratch[0] = byte(format.MajorSimple)<<5 | format.AddInfo8Bit
		e.scratch[1] = byte(v)

		return e.write(e.scratch[:2])
	}
}

// WriteFloat32 writes v as a single-precision float (major type 7, info 26)
// regardless of the compact-floats setting.
func (e *Encoder) WriteFloat32(v float32) error {
	e.scratch[0] = byte(format.MajorSimple)<<5 | format.AddInfo32Bit
	binary.BigEndian.PutUint32(e.scratch[1:5], math.Float32bits(v))

	return e.write(e.scratch[:5])
}

// WriteFloat64 writes a floating-point value.
//
// With compact floats enabled the shortest of half, single, and double
// precision that losslessly round-trips v is chosen; NaN canonicalizes to
// the half-precision quiet NaN 0xf97e00. With compact floats disabled the
// value is always emitted as double precision.
func (e *Encoder) WriteFloat64(v float64) error {
	if e.compactFloats {
		if math.IsNaN(v) {
			e.scratch[0] = byte(format.MajorSimple)<<5 | format.AddInfo16Bit
			binary.BigEndian.PutUint16(e.scratch[1:3], canonicalNaN16)

			return e.write(e.scratch[:3])
		}

		if h, ok := floatToHalf(v); ok {
			e.scratch[0] = byte(format.MajorSimple)<<5 | format.AddInfo16Bit
			binary.BigEndian.PutUint16(e.scratch[1:3], h)

			return e.write(e.scratch[:3])
		}

		if f32 := float32(v); float64(f32) == v {
			return e.WriteFloat32(f32)
		}
	}

	e.scratch[0] = byte(format.MajorSimple)<<5 | format.AddInfo64Bit
	binary.BigEndian.PutUint64(e.scratch[1:9], math.Float64bits(v))

	return e.write(e.scratch[:9])
}
