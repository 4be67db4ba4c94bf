package cbor

import (
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/contentauth/c2pa-cbor/format"
	"github.com/contentauth/c2pa-cbor/internal/options"
)

// defaultMaxNestingDepth bounds container recursion on hostile inputs.
const defaultMaxNestingDepth = 64

// Decoder reads CBOR data items from an immutable byte slice.
//
// The decoder accepts any argument width on heads and both definite- and
// indefinite-length containers and strings; indefinite items are collapsed
// to their definite in-memory form. On failure the returned error is a
// *DecodeError carrying the offset where the failure was detected, usually
// the start of the failing item. Readers that fail on a type mismatch
// restore the cursor to that offset; other failures leave the cursor where
// reading stopped, which can be past the reported offset.
//
// A Decoder is not safe for concurrent use; run parallel decodes on
// distinct Decoder instances.
type Decoder struct {
	data         []byte
	pos          int
	maxDepth     int
	strictFields bool
}

// NewDecoder creates a Decoder over data. The decoder does not copy data;
// byte strings returned by ReadBytes and Decode are copied out of it.
func NewDecoder(data []byte, opts ...DecoderOption) (*Decoder, error) {
	dec := &Decoder{
		data:     data,
		maxDepth: defaultMaxNestingDepth,
	}

	if err := options.Apply(dec, opts...); err != nil {
		return nil, err
	}

	return dec, nil
}

// Offset returns the current cursor position in bytes.
func (d *Decoder) Offset() int {
	return d.pos
}

// Remaining returns the number of unconsumed bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, decodeErr(d.pos, ErrUnexpectedEnd)
	}

	b := d.data[d.pos]
	d.pos++

	return b, nil
}

// take yields the next n source bytes without copying them.
func (d *Decoder) take(n uint64) ([]byte, error) {
	if n > uint64(len(d.data)-d.pos) {
		return nil, decodeErr(d.pos, ErrUnexpectedEnd)
	}

	p := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)

	return p, nil
}

// PeekMajorType returns the major type of the next item without advancing
// the cursor.
func (d *Decoder) PeekMajorType() (format.MajorType, error) {
	if d.pos >= len(d.data) {
		return 0, decodeErr(d.pos, ErrUnexpectedEnd)
	}

	return format.MajorType(d.data[d.pos] >> 5), nil
}

// readHead consumes one head: the initial byte plus any argument follow-up
// bytes. For major types 2-5 an indefinite-length head yields indef=true
// with a zero argument. Reserved info values and misplaced indefinite or
// break codes fail as malformed.
func (d *Decoder) readHead() (major format.MajorType, arg uint64, indef bool, err error) {
	start := d.pos

	b, err := d.readByte()
	if err != nil {
		return 0, 0, false, err
	}

	major = format.MajorType(b >> 5)
	info := b & 0x1f

	switch {
	case info <= format.AddInfoMax:
		arg = uint64(info)
	case info == format.AddInfo8Bit:
		v, e := d.readByte()
		if e != nil {
			return 0, 0, false, e
		}
		if major == format.MajorSimple && v < 32 {
			return 0, 0, false, decodeErrf(start, ErrMalformed, "two-byte simple value %d", v)
		}
		arg = uint64(v)
	case info == format.AddInfo16Bit:
		p, e := d.take(2)
		if e != nil {
			return 0, 0, false, e
		}
		arg = uint64(binary.BigEndian.Uint16(p))
	case info == format.AddInfo32Bit:
		p, e := d.take(4)
		if e != nil {
			return 0, 0, false, e
		}
		arg = uint64(binary.BigEndian.Uint32(p))
	case info == format.AddInfo64Bit:
		p, e := d.take(8)
		if e != nil {
			return 0, 0, false, e
		}
		arg = binary.BigEndian.Uint64(p)
	case info == format.AddInfoIndefinite:
		switch major {
		case format.MajorBytes, format.MajorText, format.MajorArray, format.MajorMap:
			indef = true
		case format.MajorSimple:
			return 0, 0, false, decodeErrf(start, ErrMalformed, "break code outside indefinite-length container")
		default:
			return 0, 0, false, decodeErrf(start, ErrMalformed, "indefinite length on major type %d", major)
		}
	default:
		return 0, 0, false, decodeErrf(start, ErrMalformed, "reserved additional info %d", info)
	}

	return major, arg, indef, nil
}

// expectHead reads a head and verifies its major type, restoring the cursor
// on mismatch so the caller can retry with a different reader.
func (d *Decoder) expectHead(want format.MajorType) (arg uint64, indef bool, err error) {
	start := d.pos

	major, arg, indef, err := d.readHead()
	if err != nil {
		return 0, false, err
	}
	if major != want {
		d.pos = start

		return 0, false, decodeErrf(start, ErrTypeMismatch, "expected %s, found %s", want, major)
	}

	return arg, indef, nil
}

// ReadUint reads an unsigned integer (major type 0).
func (d *Decoder) ReadUint() (uint64, error) {
	arg, _, err := d.expectHead(format.MajorUnsigned)

	return arg, err
}

// ReadInt reads a signed integer (major type 0 or 1). Values outside the
// int64 range fail with ErrOutOfRange; use ReadBigInt for the full wire
// range.
func (d *Decoder) ReadInt() (int64, error) {
	start := d.pos

	major, arg, _, err := d.readHead()
	if err != nil {
		return 0, err
	}

	switch major {
	case format.MajorUnsigned:
		if arg > math.MaxInt64 {
			return 0, decodeErrf(start, ErrOutOfRange, "%d overflows int64", arg)
		}

		return int64(arg), nil
	case format.MajorNegative:
		if arg > math.MaxInt64 {
			return 0, decodeErrf(start, ErrOutOfRange, "-1-%d underflows int64", arg)
		}

		return -1 - int64(arg), nil
	default:
		d.pos = start

		return 0, decodeErrf(start, ErrTypeMismatch, "expected integer, found %s", major)
	}
}

// ReadNegative reads a negative integer (major type 1) and returns the raw
// argument n of the wire form -1-n.
func (d *Decoder) ReadNegative() (uint64, error) {
	arg, _, err := d.expectHead(format.MajorNegative)

	return arg, err
}

// ReadBigInt reads an integer of either sign into an arbitrary-precision
// value. Unlike ReadInt it accepts the full major type 1 range down to
// -2^64 (ReadNegative also covers it, as the raw argument).
func (d *Decoder) ReadBigInt() (*big.Int, error) {
	start := d.pos

	major, arg, _, err := d.readHead()
	if err != nil {
		return nil, err
	}

	switch major {
	case format.MajorUnsigned:
		return new(big.Int).SetUint64(arg), nil
	case format.MajorNegative:
		v := new(big.Int).SetUint64(arg)
		v.Neg(v)
		v.Sub(v, big.NewInt(1))

		return v, nil
	default:
		d.pos = start

		return nil, decodeErrf(start, ErrTypeMismatch, "expected integer, found %s", major)
	}
}

// readSegments consumes the payload of a string item whose head has already
// been read. Indefinite-length strings are accumulated chunk by chunk; each
// chunk must be a definite-length string of the same major type. The
// returned slice aliases the source only for a definite single segment with
// copyOut=false.
func (d *Decoder) readSegments(major format.MajorType, arg uint64, indef bool, copyOut bool) ([]byte, error) {
	if !indef {
		p, err := d.take(arg)
		if err != nil {
			return nil, err
		}
		if major == format.MajorText && !utf8.Valid(p) {
			return nil, decodeErr(d.pos-len(p), ErrInvalidUTF8)
		}
		if !copyOut {
			return p, nil
		}

		out := make([]byte, len(p))
		copy(out, p)

		return out, nil
	}

	var out []byte
	for {
		done, err := d.atBreak()
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}

		start := d.pos
		chunkMajor, chunkArg, chunkIndef, err := d.readHead()
		if err != nil {
			return nil, err
		}
		if chunkMajor != major || chunkIndef {
			return nil, decodeErrf(start, ErrMalformed, "invalid chunk inside indefinite-length %s", major)
		}

		p, err := d.take(chunkArg)
		if err != nil {
			return nil, err
		}
		if major == format.MajorText && !utf8.Valid(p) {
			return nil, decodeErr(d.pos-len(p), ErrInvalidUTF8)
		}
		out = append(out, p...)
	}
}

// atBreak consumes a pending break code and reports whether one was found.
func (d *Decoder) atBreak() (bool, error) {
	if d.pos >= len(d.data) {
		return false, decodeErr(d.pos, ErrUnexpectedEnd)
	}
	if d.data[d.pos] == format.BreakByte {
		d.pos++

		return true, nil
	}

	return false, nil
}

// ReadBytes reads a byte string (major type 2) into a freshly allocated
// slice. Indefinite-length strings are concatenated.
func (d *Decoder) ReadBytes() ([]byte, error) {
	arg, indef, err := d.expectHead(format.MajorBytes)
	if err != nil {
		return nil, err
	}

	return d.readSegments(format.MajorBytes, arg, indef, true)
}

// ReadString reads a text string (major type 3), validating UTF-8.
// Indefinite-length strings are concatenated.
func (d *Decoder) ReadString() (string, error) {
	arg, indef, err := d.expectHead(format.MajorText)
	if err != nil {
		return "", err
	}

	p, err := d.readSegments(format.MajorText, arg, indef, false)
	if err != nil {
		return "", err
	}

	return string(p), nil
}

// ReadArrayHeader reads an array head (major type 4) and returns the
// declared element count, or -1 for an indefinite-length array. For the
// indefinite form the caller iterates with More until the break code.
func (d *Decoder) ReadArrayHeader() (int64, error) {
	start := d.pos

	arg, indef, err := d.expectHead(format.MajorArray)
	if err != nil {
		return 0, err
	}
	if indef {
		return -1, nil
	}
	if arg > uint64(len(d.data)-d.pos) {
		// Each element takes at least one byte, so the declared count can
		// never exceed the remaining input.
		d.pos = start

		return 0, decodeErrf(start, ErrUnexpectedEnd, "array of %d elements exceeds input", arg)
	}

	return int64(arg), nil
}

// ReadMapHeader reads a map head (major type 5) and returns the declared
// pair count, or -1 for an indefinite-length map.
func (d *Decoder) ReadMapHeader() (int64, error) {
	start := d.pos

	arg, indef, err := d.expectHead(format.MajorMap)
	if err != nil {
		return 0, err
	}
	if indef {
		return -1, nil
	}
	if arg > uint64(len(d.data)-d.pos)/2 {
		d.pos = start

		return 0, decodeErrf(start, ErrUnexpectedEnd, "map of %d pairs exceeds input", arg)
	}

	return int64(arg), nil
}

// More reports whether another element precedes the break code of an
// indefinite-length container, consuming the break when it is found.
func (d *Decoder) More() (bool, error) {
	done, err := d.atBreak()
	if err != nil {
		return false, err
	}

	return !done, nil
}

// ReadTag reads a tag head (major type 6) and returns the tag number,
// leaving the cursor positioned at the content value.
func (d *Decoder) ReadTag() (uint64, error) {
	arg, _, err := d.expectHead(format.MajorTag)

	return arg, err
}

// ReadBool reads a boolean simple value.
func (d *Decoder) ReadBool() (bool, error) {
	start := d.pos

	arg, err := d.readSimpleHead()
	if err != nil {
		return false, err
	}

	switch arg {
	case format.SimpleFalse:
		return false, nil
	case format.SimpleTrue:
		return true, nil
	default:
		d.pos = start

		return false, decodeErrf(start, ErrTypeMismatch, "expected boolean, found simple(%d)", arg)
	}
}

// ReadNull consumes a null simple value.
func (d *Decoder) ReadNull() error {
	return d.readExpectedSimple(format.SimpleNull, "null")
}

// ReadUndefined consumes an undefined simple value.
func (d *Decoder) ReadUndefined() error {
	return d.readExpectedSimple(format.SimpleUndefined, "undefined")
}

func (d *Decoder) readExpectedSimple(want uint64, name string) error {
	start := d.pos

	arg, err := d.readSimpleHead()
	if err != nil {
		return err
	}
	if arg != want {
		d.pos = start

		return decodeErrf(start, ErrTypeMismatch, "expected %s, found simple(%d)", name, arg)
	}

	return nil
}

// ReadSimple reads any simple value, including the extended two-byte form.
func (d *Decoder) ReadSimple() (Simple, error) {
	arg, err := d.readSimpleHead()
	if err != nil {
		return 0, err
	}

	return Simple(arg), nil
}

// readSimpleHead reads a major type 7 head that is a simple value (info
// 0-24), rejecting floats and the malformed two-byte form with value < 32.
func (d *Decoder) readSimpleHead() (uint64, error) {
	start := d.pos

	if d.pos >= len(d.data) {
		return 0, decodeErr(d.pos, ErrUnexpectedEnd)
	}
	info := d.data[d.pos] & 0x1f

	arg, _, err := d.expectHead(format.MajorSimple)
	if err != nil {
		return 0, err
	}

	switch {
	case info <= format.AddInfo8Bit:
		return arg, nil
	default:
		d.pos = start

		return 0, decodeErrf(start, ErrTypeMismatch, "expected simple value, found float")
	}
}

// ReadFloat reads a floating-point value of any width (major type 7, info
// 25-27), promoting half and single precision to float64. Half-precision
// NaN payload bits are preserved through the promotion.
func (d *Decoder) ReadFloat() (float64, error) {
	start := d.pos

	arg, _, err := d.expectHead(format.MajorSimple)
	if err != nil {
		return 0, err
	}

	// expectHead consumed the whole head; the original info selects the width.
	info := d.data[start] & 0x1f
	switch info {
	case format.AddInfo16Bit:
		return halfToFloat(uint16(arg)), nil
	case format.AddInfo32Bit:
		return float64(math.Float32frombits(uint32(arg))), nil
	case format.AddInfo64Bit:
		return math.Float64frombits(arg), nil
	default:
		d.pos = start

		return 0, decodeErrf(start, ErrTypeMismatch, "expected float, found simple(%d)", arg)
	}
}

// Skip consumes one complete data item, including all nested content.
func (d *Decoder) Skip() error {
	return d.skipItem(0)
}

func (d *Decoder) skipItem(depth int) error {
	if depth > d.maxDepth {
		return decodeErr(d.pos, ErrNestingDepthExceeded)
	}

	major, arg, indef, err := d.readHead()
	if err != nil {
		return err
	}

	switch major {
	case format.MajorUnsigned, format.MajorNegative, format.MajorSimple:
		// readHead consumed any argument bytes.
		return nil
	case format.MajorBytes, format.MajorText:
		_, err = d.readSegments(major, arg, indef, false)

		return err
	case format.MajorArray:
		return d.skipElements(arg, indef, 1, depth)
	case format.MajorMap:
		return d.skipElements(arg, indef, 2, depth)
	case format.MajorTag:
		return d.skipItem(depth + 1)
	default:
		return decodeErrf(d.pos, ErrMalformed, "unknown major type %d", major)
	}
}

func (d *Decoder) skipElements(arg uint64, indef bool, itemsPer uint64, depth int) error {
	if indef {
		for {
			more, err := d.More()
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
			for i := uint64(0); i < itemsPer; i++ {
				if err := d.skipItem(depth + 1); err != nil {
					return err
				}
			}
		}
	}

	if arg > uint64(len(d.data)-d.pos)/itemsPer {
		return decodeErrf(d.pos, ErrUnexpectedEnd, "container of %d items exceeds input", arg)
	}

	for i := uint64(0); i < arg*itemsPer; i++ {
		if err := d.skipItem(depth + 1); err != nil {
			return err
		}
	}

	return nil
}
