package cbor

import (
	"encoding/hex"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

type assertion struct {
	Label  string `cbor:"label"`
	Digest []byte `cbor:"digest"`
	Size   uint32 `cbor:"size"`
	Sealed bool   `cbor:"sealed"`
	Note   string `cbor:"note,omitempty"`
	hidden int
	Ignore string `cbor:"-"`
}

func TestReflect_StructRoundTrip(t *testing.T) {
	in := assertion{
		Label:  "c2pa.hash",
		Digest: []byte{0xde, 0xad, 0xbe, 0xef},
		Size:   512,
		Sealed: true,
		hidden: 7,
		Ignore: "dropped",
	}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out assertion
	require.NoError(t, Unmarshal(data, &out))

	require.Equal(t, in.Label, out.Label)
	require.Equal(t, in.Digest, out.Digest)
	require.Equal(t, in.Size, out.Size)
	require.Equal(t, in.Sealed, out.Sealed)
	require.Zero(t, out.hidden)
	require.Empty(t, out.Ignore)
}

func TestReflect_StructFieldOrderAndOmitEmpty(t *testing.T) {
	data, err := Marshal(assertion{Label: "a", Digest: []byte{1}, Size: 1, Sealed: false})
	require.NoError(t, err)

	// Declaration order, with the empty omitempty field absent: a 4-entry map.
	require.Equal(t, byte(0xa4), data[0])

	withNote, err := Marshal(assertion{Label: "a", Digest: []byte{1}, Size: 1, Note: "n"})
	require.NoError(t, err)
	require.Equal(t, byte(0xa5), withNote[0])
}

func TestReflect_StructAnyKeyOrder(t *testing.T) {
	// {"size": 9, "sealed": true, "label": "x", "digest": h''} in an order
	// that differs from the declaration order.
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteMapHeader(4))
	require.NoError(t, enc.WriteString("size"))
	require.NoError(t, enc.WriteUint(9))
	require.NoError(t, enc.WriteString("sealed"))
	require.NoError(t, enc.WriteBool(true))
	require.NoError(t, enc.WriteString("label"))
	require.NoError(t, enc.WriteString("x"))
	require.NoError(t, enc.WriteString("digest"))
	require.NoError(t, enc.WriteBytes(nil))

	var out assertion
	require.NoError(t, Unmarshal(buf.Bytes(), &out))
	require.Equal(t, uint32(9), out.Size)
	require.True(t, out.Sealed)
	require.Equal(t, "x", out.Label)
}

func TestReflect_UnknownFieldPolicy(t *testing.T) {
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteMapHeader(5))
	require.NoError(t, enc.WriteString("label"))
	require.NoError(t, enc.WriteString("x"))
	require.NoError(t, enc.WriteString("digest"))
	require.NoError(t, enc.WriteBytes([]byte{1}))
	require.NoError(t, enc.WriteString("size"))
	require.NoError(t, enc.WriteUint(1))
	require.NoError(t, enc.WriteString("sealed"))
	require.NoError(t, enc.WriteBool(false))
	require.NoError(t, enc.WriteString("extra"))
	require.NoError(t, enc.WriteString("ignored"))

	// Lenient (default): the unknown key is skipped.
	var out assertion
	dec, err := NewDecoder(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, dec.Decode(&out))
	require.Equal(t, "x", out.Label)

	// Strict: the unknown key fails.
	dec, err = NewDecoder(buf.Bytes(), WithStrictFields(true))
	require.NoError(t, err)
	err = dec.Decode(&out)
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestReflect_MissingFieldPolicy(t *testing.T) {
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteMapHeader(1))
	require.NoError(t, enc.WriteString("label"))
	require.NoError(t, enc.WriteString("x"))

	// Lenient: missing fields stay zero.
	var out assertion
	dec, err := NewDecoder(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, dec.Decode(&out))
	require.Equal(t, "x", out.Label)
	require.Zero(t, out.Size)

	// Strict: a non-omitempty field is required. The omitempty "note" field
	// is not.
	dec, err = NewDecoder(buf.Bytes(), WithStrictFields(true))
	require.NoError(t, err)
	err = dec.Decode(&out)
	require.ErrorIs(t, err, ErrMissingField)
}

func TestReflect_DuplicateKeyPolicy(t *testing.T) {
	// {"a": 1, "a": 2} — legal at the raw layer.
	data := mustHex(t, "a2616101616102")

	// Unordered targets keep the last value.
	var m map[string]int
	require.NoError(t, Unmarshal(data, &m))
	require.Equal(t, map[string]int{"a": 2}, m)

	var generic any
	require.NoError(t, Unmarshal(data, &generic))
	require.Equal(t, map[any]any{"a": uint64(2)}, generic)

	// Struct targets reject the duplicate.
	type rec struct {
		A int `cbor:"a"`
	}
	var r rec
	require.ErrorIs(t, Unmarshal(data, &r), ErrDuplicateKey)
}

func TestReflect_IntegerTargetRanges(t *testing.T) {
	var i8 int8
	require.NoError(t, Unmarshal(mustHex(t, "187f"), &i8)) // 127
	require.Equal(t, int8(127), i8)
	require.ErrorIs(t, Unmarshal(mustHex(t, "1880"), &i8), ErrOutOfRange) // 128

	var u16 uint16
	require.NoError(t, Unmarshal(mustHex(t, "19ffff"), &u16))
	require.Equal(t, uint16(0xffff), u16)
	require.ErrorIs(t, Unmarshal(mustHex(t, "1a00010000"), &u16), ErrOutOfRange)

	// Negative into unsigned.
	var u uint
	require.ErrorIs(t, Unmarshal(mustHex(t, "20"), &u), ErrOutOfRange)

	// -2^64 fits only big.Int.
	var i64 int64
	require.ErrorIs(t, Unmarshal(mustHex(t, "3bffffffffffffffff"), &i64), ErrOutOfRange)

	var bi big.Int
	require.NoError(t, Unmarshal(mustHex(t, "3bffffffffffffffff"), &bi))
	want := new(big.Int).Lsh(big.NewInt(1), 64)
	want.Neg(want)
	require.Zero(t, bi.Cmp(want))
}

func TestReflect_FloatTargets(t *testing.T) {
	var f32 float32
	require.NoError(t, Unmarshal(mustHex(t, "fa47c35000"), &f32))
	require.Equal(t, float32(100000.0), f32)

	// Double that does not fit float32 losslessly.
	require.ErrorIs(t, Unmarshal(mustHex(t, "fb3ff199999999999a"), &f32), ErrOutOfRange)

	var f64 float64
	require.NoError(t, Unmarshal(mustHex(t, "f93c00"), &f64))
	require.Equal(t, 1.0, f64)

	// Integers decode into float targets.
	require.NoError(t, Unmarshal(mustHex(t, "1903e8"), &f64))
	require.Equal(t, 1000.0, f64)
	require.NoError(t, Unmarshal(mustHex(t, "3903e7"), &f64))
	require.Equal(t, -1000.0, f64)
}

func TestReflect_PointerTargets(t *testing.T) {
	var p *uint64
	require.NoError(t, Unmarshal(mustHex(t, "182a"), &p))
	require.NotNil(t, p)
	require.Equal(t, uint64(42), *p)

	// Null clears the pointer.
	p = new(uint64)
	require.NoError(t, Unmarshal(mustHex(t, "f6"), &p))
	require.Nil(t, p)

	// Encoding follows through pointers and encodes nil as null.
	v := uint64(7)
	data, err := Marshal(&v)
	require.NoError(t, err)
	require.Equal(t, "07", hex.EncodeToString(data))

	data, err = Marshal((*uint64)(nil))
	require.NoError(t, err)
	require.Equal(t, "f6", hex.EncodeToString(data))
}

func TestReflect_InterfaceRepresentation(t *testing.T) {
	tests := []struct {
		data string
		want any
	}{
		{"00", uint64(0)},
		{"1bffffffffffffffff", uint64(math.MaxUint64)},
		{"20", int64(-1)},
		{"f4", false},
		{"f5", true},
		{"f6", nil},
		{"f7", Undefined{}},
		{"f0", Simple(16)},
		{"6161", "a"},
		{"fb3ff199999999999a", 1.1},
		{"83010203", []any{uint64(1), uint64(2), uint64(3)}},
		{"a161618102", map[any]any{"a": []any{uint64(2)}}},
	}
	for _, tt := range tests {
		var got any
		require.NoError(t, Unmarshal(mustHex(t, tt.data), &got), "data %s", tt.data)
		require.Equal(t, tt.want, got, "data %s", tt.data)
	}

	// []byte content.
	var got any
	require.NoError(t, Unmarshal(mustHex(t, "4401020304"), &got))
	require.Equal(t, []byte{1, 2, 3, 4}, got)

	// -2^64 surfaces as *big.Int.
	require.NoError(t, Unmarshal(mustHex(t, "3bffffffffffffffff"), &got))
	bi, ok := got.(*big.Int)
	require.True(t, ok)
	require.Equal(t, "-18446744073709551616", bi.String())
}

func TestReflect_ByteStringKeysBecomeStrings(t *testing.T) {
	// {h'6b6579': 1}
	var got any
	require.NoError(t, Unmarshal(mustHex(t, "a1436b657901"), &got))
	require.Equal(t, map[any]any{"key": uint64(1)}, got)
}

func TestReflect_MapTargets(t *testing.T) {
	data, err := Marshal(map[string]uint64{"x": 1, "y": 2})
	require.NoError(t, err)

	var m map[string]uint64
	require.NoError(t, Unmarshal(data, &m))
	require.Equal(t, map[string]uint64{"x": 1, "y": 2}, m)

	// Integer-keyed maps work through the bridge.
	data = mustHex(t, "a201020304") // {1: 2, 3: 4}
	var im map[int]int
	require.NoError(t, Unmarshal(data, &im))
	require.Equal(t, map[int]int{1: 2, 3: 4}, im)
}

func TestReflect_ArrayTargets(t *testing.T) {
	var a [3]uint8
	require.NoError(t, Unmarshal(mustHex(t, "83010203"), &a))
	require.Equal(t, [3]uint8{1, 2, 3}, a)

	// Length mismatch fails.
	require.ErrorIs(t, Unmarshal(mustHex(t, "820102"), &a), ErrOutOfRange)

	// Fixed-size byte arrays take byte strings.
	var b [4]byte
	require.NoError(t, Unmarshal(mustHex(t, "4401020304"), &b))
	require.Equal(t, [4]byte{1, 2, 3, 4}, b)
}

func TestReflect_IndefiniteContainersCollapse(t *testing.T) {
	// [_ 1, [_ 2, 3], [4, 5]] equals its definite counterpart.
	indef := mustHex(t, "9f019f0203ff820405ff")
	definite := mustHex(t, "8301820203820405")

	var a, b any
	require.NoError(t, Unmarshal(indef, &a))
	require.NoError(t, Unmarshal(definite, &b))
	require.Equal(t, b, a)

	// {_ "a": 1, "b": [_ 2, 3]} likewise.
	indefMap := mustHex(t, "bf61610161629f0203ffff")
	definiteMap := mustHex(t, "a26161016162820203")

	require.NoError(t, Unmarshal(indefMap, &a))
	require.NoError(t, Unmarshal(definiteMap, &b))
	require.Equal(t, b, a)

	// Indefinite into struct targets.
	type rec struct {
		A uint64 `cbor:"a"`
		B []int  `cbor:"b"`
	}
	var r rec
	require.NoError(t, Unmarshal(indefMap, &r))
	require.Equal(t, rec{A: 1, B: []int{2, 3}}, r)
}

func TestReflect_TypeMismatches(t *testing.T) {
	var s string
	require.ErrorIs(t, Unmarshal(mustHex(t, "01"), &s), ErrTypeMismatch)

	var n int
	require.ErrorIs(t, Unmarshal(mustHex(t, "6161"), &n), ErrTypeMismatch)

	var b bool
	require.ErrorIs(t, Unmarshal(mustHex(t, "80"), &b), ErrTypeMismatch)

	var m map[string]int
	require.ErrorIs(t, Unmarshal(mustHex(t, "83010203"), &m), ErrTypeMismatch)
}

func TestReflect_DecodeTargetValidation(t *testing.T) {
	var v int
	require.Error(t, Unmarshal(mustHex(t, "01"), v)) // not a pointer

	dec, err := NewDecoder(mustHex(t, "01"))
	require.NoError(t, err)
	require.Error(t, dec.Decode((*int)(nil)))
}

func TestReflect_SimpleAndUndefinedRoundTrip(t *testing.T) {
	data, err := Marshal(Simple(100))
	require.NoError(t, err)
	require.Equal(t, "f864", hex.EncodeToString(data))

	var s Simple
	require.NoError(t, Unmarshal(data, &s))
	require.Equal(t, Simple(100), s)

	data, err = Marshal(Undefined{})
	require.NoError(t, err)
	require.Equal(t, "f7", hex.EncodeToString(data))

	var u Undefined
	require.NoError(t, Unmarshal(data, &u))
}
