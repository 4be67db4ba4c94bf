package cbor

import (
	"math"

	"github.com/contentauth/c2pa-cbor/endian"
	"github.com/contentauth/c2pa-cbor/format"
	"github.com/contentauth/c2pa-cbor/internal/pool"
)

// RFC 8746 typed arrays: homogeneous numeric arrays carried as a tagged
// byte string whose element width and byte order are implied by the tag.
// Elements are written back to back with no per-element head.
//
// Writers take an endian.EndianEngine that selects both the emitted tag and
// the element byte order; readers accept either byte order and reconstruct
// the elements in native Go values.

// WriteUint8Array writes v as a tag 64 typed array. A uint8 array is
// byte-order neutral, so no engine is needed.
func WriteUint8Array(e *Encoder, v []uint8) error {
	if err := e.WriteTag(format.TagUint8Array); err != nil {
		return err
	}

	return e.WriteBytes(v)
}

// WriteUint16Array writes v as a tag 65 (big-endian) or 69 (little-endian)
// typed array.
func WriteUint16Array(e *Encoder, v []uint16, engine endian.EndianEngine) error {
	tag := format.TagUint16BEArray
	if !isBigEndian(engine) {
		tag = format.TagUint16LEArray
	}

	return writeTypedArray(e, tag, len(v), 2, func(buf []byte) []byte {
		for _, el := range v {
			buf = engine.AppendUint16(buf, el)
		}

		return buf
	})
}

// WriteUint32Array writes v as a tag 66 (big-endian) or 70 (little-endian)
// typed array.
func WriteUint32Array(e *Encoder, v []uint32, engine endian.EndianEngine) error {
	tag := format.TagUint32BEArray
	if !isBigEndian(engine) {
		tag = format.TagUint32LEArray
	}

	return writeTypedArray(e, tag, len(v), 4, func(buf []byte) []byte {
		for _, el := range v {
			buf = engine.AppendUint32(buf, el)
		}

		return buf
	})
}

// WriteUint64Array writes v as a tag 67 (big-endian) or 71 (little-endian)
// typed array.
func WriteUint64Array(e *Encoder, v []uint64, engine endian.EndianEngine) error {
	tag := format.TagUint64BEArray
	if !isBigEndian(engine) {
		tag = format.TagUint64LEArray
	}

	return writeTypedArray(e, tag, len(v), 8, func(buf []byte) []byte {
		for _, el := range v {
			buf = engine.AppendUint64(buf, el)
		}

		return buf
	})
}

// WriteFloat32Array writes v as a tag 81 (big-endian) or 85 (little-endian)
// typed array.
func WriteFloat32Array(e *Encoder, v []float32, engine endian.EndianEngine) error {
	tag := format.TagFloat32BEArray
	if !isBigEndian(engine) {
		tag = format.TagFloat32LEArray
	}

	return writeTypedArray(e, tag, len(v), 4, func(buf []byte) []byte {
		for _, el := range v {
			buf = engine.AppendUint32(buf, math.Float32bits(el))
		}

		return buf
	})
}

// WriteFloat64Array writes v as a tag 82 (big-endian) or 86 (little-endian)
// typed array.
func WriteFloat64Array(e *Encoder, v []float64, engine endian.EndianEngine) error {
	tag := format.TagFloat64BEArray
	if !isBigEndian(engine) {
		tag = format.TagFloat64LEArray
	}

	return writeTypedArray(e, tag, len(v), 8, func(buf []byte) []byte {
		for _, el := range v {
			buf = engine.AppendUint64(buf, math.Float64bits(el))
		}

		return buf
	})
}

// ReadUint8Array reads a tag 64 or 68 typed array.
func ReadUint8Array(d *Decoder) ([]uint8, error) {
	start := d.pos

	tag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}
	if tag != format.TagUint8Array && tag != format.TagUint8LEArray {
		d.pos = start

		return nil, decodeErrf(start, ErrTypeMismatch, "expected uint8 array tag, found tag %d", tag)
	}

	p, err := readTypedPayload(d, 1)
	if err != nil {
		return nil, err
	}

	out := make([]uint8, len(p))
	copy(out, p)

	return out, nil
}

// ReadUint16Array reads a tag 65 or 69 typed array in either byte order.
func ReadUint16Array(d *Decoder) ([]uint16, error) {
	engine, err := readTypedTag(d, format.TagUint16BEArray, format.TagUint16LEArray)
	if err != nil {
		return nil, err
	}

	p, err := readTypedPayload(d, 2)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, len(p)/2)
	for i := range out {
		out[i] = engine.Uint16(p[i*2:])
	}

	return out, nil
}

// ReadUint32Array reads a tag 66 or 70 typed array in either byte order.
func ReadUint32Array(d *Decoder) ([]uint32, error) {
	engine, err := readTypedTag(d, format.TagUint32BEArray, format.TagUint32LEArray)
	if err != nil {
		return nil, err
	}

	p, err := readTypedPayload(d, 4)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, len(p)/4)
	for i := range out {
		out[i] = engine.Uint32(p[i*4:])
	}

	return out, nil
}

// ReadUint64Array reads a tag 67 or 71 typed array in either byte order.
func ReadUint64Array(d *Decoder) ([]uint64, error) {
	engine, err := readTypedTag(d, format.TagUint64BEArray, format.TagUint64LEArray)
	if err != nil {
		return nil, err
	}

	p, err := readTypedPayload(d, 8)
	if err != nil {
		return nil, err
	}

	out := make([]uint64, len(p)/8)
	for i := range out {
		out[i] = engine.Uint64(p[i*8:])
	}

	return out, nil
}

// ReadFloat32Array reads a tag 81 or 85 typed array in either byte order.
func ReadFloat32Array(d *Decoder) ([]float32, error) {
	engine, err := readTypedTag(d, format.TagFloat32BEArray, format.TagFloat32LEArray)
	if err != nil {
		return nil, err
	}

	p, err := readTypedPayload(d, 4)
	if err != nil {
		return nil, err
	}

	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(engine.Uint32(p[i*4:]))
	}

	return out, nil
}

// ReadFloat64Array reads a tag 82 or 86 typed array in either byte order.
func ReadFloat64Array(d *Decoder) ([]float64, error) {
	engine, err := readTypedTag(d, format.TagFloat64BEArray, format.TagFloat64LEArray)
	if err != nil {
		return nil, err
	}

	p, err := readTypedPayload(d, 8)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(p)/8)
	for i := range out {
		out[i] = math.Float64frombits(engine.Uint64(p[i*8:]))
	}

	return out, nil
}

func isBigEndian(engine endian.EndianEngine) bool {
	return engine == endian.GetBigEndianEngine()
}

// writeTypedArray emits tag, byte-string head and the packed elements. The
// elements are staged in a pooled buffer so the sink sees a single write.
func writeTypedArray(e *Encoder, tag uint64, count, width int, appendAll func([]byte) []byte) error {
	if err := e.WriteTag(tag); err != nil {
		return err
	}
	if err := e.writeHead(format.MajorBytes, uint64(count*width)); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	buf := pool.GetEncodeBuffer()
	defer pool.PutEncodeBuffer(buf)

	buf.Grow(count * width)
	buf.B = appendAll(buf.B)

	return e.write(buf.Bytes())
}

// readTypedTag consumes a typed-array tag that must be one of the given
// big-/little-endian pair and returns the matching engine.
func readTypedTag(d *Decoder, beTag, leTag uint64) (endian.EndianEngine, error) {
	start := d.pos

	tag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case beTag:
		return endian.GetBigEndianEngine(), nil
	case leTag:
		return endian.GetLittleEndianEngine(), nil
	default:
		d.pos = start

		return nil, decodeErrf(start, ErrTypeMismatch, "expected tag %d or %d, found tag %d", beTag, leTag, tag)
	}
}

// readTypedPayload reads the byte-string content of a typed array and
// validates that its length is a whole number of elements.
func readTypedPayload(d *Decoder, width int) ([]byte, error) {
	start := d.pos

	arg, indef, err := d.expectHead(format.MajorBytes)
	if err != nil {
		return nil, err
	}

	p, err := d.readSegments(format.MajorBytes, arg, indef, false)
	if err != nil {
		return nil, err
	}
	if len(p)%width != 0 {
		return nil, decodeErrf(start, ErrMalformed, "typed-array payload of %d bytes is not a multiple of width %d", len(p), width)
	}

	return p, nil
}

// decodeTypedArrayValue reconstructs the element slice for a typed-array
// tag whose tag head has already been consumed. It backs the reflection
// bridge's transparent typed-array handling.
func decodeTypedArrayValue(d *Decoder, tag uint64) (any, error) {
	width, engine, isFloat, ok := typedArrayLayout(tag)
	if !ok {
		return nil, decodeErrf(d.pos, ErrMalformed, "tag %d is not a typed-array tag", tag)
	}

	p, err := readTypedPayload(d, width)
	if err != nil {
		return nil, err
	}

	n := len(p) / width
	switch {
	case isFloat && width == 4:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(engine.Uint32(p[i*4:]))
		}

		return out, nil
	case isFloat:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(engine.Uint64(p[i*8:]))
		}

		return out, nil
	case width == 1:
		out := make([]uint8, n)
		copy(out, p)

		return out, nil
	case width == 2:
		out := make([]uint16, n)
		for i := range out {
			out[i] = engine.Uint16(p[i*2:])
		}

		return out, nil
	case width == 4:
		out := make([]uint32, n)
		for i := range out {
			out[i] = engine.Uint32(p[i*4:])
		}

		return out, nil
	default:
		out := make([]uint64, n)
		for i := range out {
			out[i] = engine.Uint64(p[i*8:])
		}

		return out, nil
	}
}

// typedArrayLayout maps a typed-array tag to its element width, byte order
// and float-ness.
func typedArrayLayout(tag uint64) (width int, engine endian.EndianEngine, isFloat, ok bool) {
	switch tag {
	case format.TagUint8Array, format.TagUint16BEArray, format.TagUint32BEArray, format.TagUint64BEArray:
		return 1 << ((tag - 64) % 4), endian.GetBigEndianEngine(), false, true
	case format.TagUint8LEArray, format.TagUint16LEArray, format.TagUint32LEArray, format.TagUint64LEArray:
		return 1 << ((tag - 64) % 4), endian.GetLittleEndianEngine(), false, true
	case format.TagFloat32BEArray:
		return 4, endian.GetBigEndianEngine(), true, true
	case format.TagFloat64BEArray:
		return 8, endian.GetBigEndianEngine(), true, true
	case format.TagFloat32LEArray:
		return 4, endian.GetLittleEndianEngine(), true, true
	case format.TagFloat64LEArray:
		return 8, endian.GetLittleEndianEngine(), true, true
	default:
		return 0, nil, false, false
	}
}

// isTypedArrayTag reports whether tag selects an RFC 8746 typed array
// handled by this codec.
func isTypedArrayTag(tag uint64) bool {
	_, _, _, ok := typedArrayLayout(tag)

	return ok
}
