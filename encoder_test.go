package cbor

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEncoder(t *testing.T, opts ...EncoderOption) (*Encoder, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, opts...)
	require.NoError(t, err)

	return enc, &buf
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	p, err := hex.DecodeString(s)
	require.NoError(t, err)

	return p
}

func TestEncoder_WriteUint_Boundaries(t *testing.T) {
	tests := []struct {
		value uint64
		want  string
	}{
		{0, "00"},
		{1, "01"},
		{10, "0a"},
		{23, "17"},
		{24, "1818"},
		{25, "1819"},
		{100, "1864"},
		{255, "18ff"},
		{256, "190100"},
		{1000, "1903e8"},
		{65535, "19ffff"},
		{65536, "1a00010000"},
		{1000000, "1a000f4240"},
		{4294967295, "1affffffff"},
		{4294967296, "1b0000000100000000"},
		{1000000000000, "1b000000e8d4a51000"},
		{18446744073709551615, "1bffffffffffffffff"},
	}
	for _, tt := range tests {
		enc, buf := newTestEncoder(t)
		require.NoError(t, enc.WriteUint(tt.value))
		require.Equal(t, tt.want, hex.EncodeToString(buf.Bytes()), "value %d", tt.value)
	}
}

func TestEncoder_WriteInt_Negative(t *testing.T) {
	tests := []struct {
		value int64
		want  string
	}{
		{-1, "20"},
		{-10, "29"},
		{-24, "37"},
		{-25, "3818"},
		{-100, "3863"},
		{-1000, "3903e7"},
		{-2147483648, "3a7fffffff"},
		{math.MinInt64, "3b7fffffffffffffff"},
	}
	for _, tt := range tests {
		enc, buf := newTestEncoder(t)
		require.NoError(t, enc.WriteInt(tt.value))
		require.Equal(t, tt.want, hex.EncodeToString(buf.Bytes()), "value %d", tt.value)
	}
}

// The wire form of -1-n differs from n only in the major-type bits.
func TestEncoder_NegativeMirrorsUnsigned(t *testing.T) {
	for _, n := range []uint64{0, 23, 24, 255, 256, 65535, 65536, math.MaxUint32, math.MaxUint32 + 1, math.MaxInt64} {
		encU, bufU := newTestEncoder(t)
		require.NoError(t, encU.WriteUint(n))

		encN, bufN := newTestEncoder(t)
		require.NoError(t, encN.WriteNegative(n))

		u, neg := bufU.Bytes(), bufN.Bytes()
		require.Equal(t, len(u), len(neg))
		require.Equal(t, u[0]|0x20, neg[0], "argument %d", n)
		require.Equal(t, u[1:], neg[1:], "argument %d", n)
	}
}

func TestEncoder_WriteNegative_FullRange(t *testing.T) {
	// -2^64 is only expressible through the raw writer and big.Int.
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteNegative(math.MaxUint64))
	require.Equal(t, "3bffffffffffffffff", hex.EncodeToString(buf.Bytes()))
}

func TestEncoder_WriteBigInt(t *testing.T) {
	minus2e64 := new(big.Int).Lsh(big.NewInt(1), 64)
	minus2e64.Neg(minus2e64)

	tests := []struct {
		value *big.Int
		want  string
	}{
		{big.NewInt(0), "00"},
		{big.NewInt(1000), "1903e8"},
		{new(big.Int).SetUint64(math.MaxUint64), "1bffffffffffffffff"},
		{big.NewInt(-1), "20"},
		{minus2e64, "3bffffffffffffffff"},
	}
	for _, tt := range tests {
		enc, buf := newTestEncoder(t)
		require.NoError(t, enc.WriteBigInt(tt.value))
		require.Equal(t, tt.want, hex.EncodeToString(buf.Bytes()), "value %s", tt.value)
	}

	outOfRange := new(big.Int).Lsh(big.NewInt(1), 64) // 2^64
	enc, _ := newTestEncoder(t)
	require.ErrorIs(t, enc.WriteBigInt(outOfRange), ErrOutOfRange)

	belowRange := new(big.Int).Sub(minus2e64, big.NewInt(1))
	require.ErrorIs(t, enc.WriteBigInt(belowRange), ErrOutOfRange)
}

func TestEncoder_WriteStrings(t *testing.T) {
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteString(""))
	require.Equal(t, "60", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteString("IETF"))
	require.Equal(t, "6449455446", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteString("ü"))
	require.Equal(t, "62c3bc", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteBytes(nil))
	require.Equal(t, "40", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteBytes([]byte{1, 2, 3, 4}))
	require.Equal(t, "4401020304", hex.EncodeToString(buf.Bytes()))
}

func TestEncoder_Containers(t *testing.T) {
	// {1: 2, 3: 4}
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteMapHeader(2))
	require.NoError(t, enc.WriteUint(1))
	require.NoError(t, enc.WriteUint(2))
	require.NoError(t, enc.WriteUint(3))
	require.NoError(t, enc.WriteUint(4))
	require.Equal(t, "a201020304", hex.EncodeToString(buf.Bytes()))

	// [1, [2, 3], [4, 5]]
	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteArrayHeader(3))
	require.NoError(t, enc.WriteUint(1))
	require.NoError(t, enc.WriteArrayHeader(2))
	require.NoError(t, enc.WriteUint(2))
	require.NoError(t, enc.WriteUint(3))
	require.NoError(t, enc.WriteArrayHeader(2))
	require.NoError(t, enc.WriteUint(4))
	require.NoError(t, enc.WriteUint(5))
	require.Equal(t, "8301820203820405", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteArrayHeader(0))
	require.Equal(t, "80", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteMapHeader(0))
	require.Equal(t, "a0", hex.EncodeToString(buf.Bytes()))
}

func TestEncoder_SimpleValues(t *testing.T) {
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteBool(false))
	require.NoError(t, enc.WriteBool(true))
	require.NoError(t, enc.WriteNull())
	require.NoError(t, enc.WriteUndefined())
	require.Equal(t, "f4f5f6f7", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteSimple(Simple(16)))
	require.Equal(t, "f0", hex.EncodeToString(buf.Bytes()))

	enc, buf = newTestEncoder(t)
	require.NoError(t, enc.WriteSimple(Simple(255)))
	require.Equal(t, "f8ff", hex.EncodeToString(buf.Bytes()))

	enc, _ = newTestEncoder(t)
	require.ErrorIs(t, enc.WriteSimple(Simple(24)), ErrMalformed)
	require.ErrorIs(t, enc.WriteSimple(Simple(31)), ErrMalformed)
}

func TestEncoder_CompactFloats(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0.0, "f90000"},
		{math.Copysign(0, -1), "f98000"},
		{1.0, "f93c00"},
		{1.5, "f93e00"},
		{-4.0, "f9c400"},
		{65504.0, "f97bff"},
		{5.960464477539063e-8, "f90001"},
		{0.00006103515625, "f90400"},
		{100000.0, "fa47c35000"},
		{3.4028234663852886e38, "fa7f7fffff"},
		{1.1, "fb3ff199999999999a"},
		{1.0e300, "fb7e37e43c8800759c"},
		{-4.1, "fbc010666666666666"},
		{math.Inf(1), "f97c00"},
		{math.Inf(-1), "f9fc00"},
		{math.NaN(), "f97e00"},
	}
	for _, tt := range tests {
		enc, buf := newTestEncoder(t)
		require.NoError(t, enc.WriteFloat64(tt.value))
		require.Equal(t, tt.want, hex.EncodeToString(buf.Bytes()), "value %v", tt.value)
	}
}

func TestEncoder_FixedWidthFloats(t *testing.T) {
	enc, buf := newTestEncoder(t, WithCompactFloats(false))
	require.NoError(t, enc.WriteFloat64(1.0))
	require.Equal(t, "fb3ff0000000000000", hex.EncodeToString(buf.Bytes()))

	// The explicit single-precision writer ignores the option.
	enc, buf = newTestEncoder(t, WithCompactFloats(false))
	require.NoError(t, enc.WriteFloat32(100000.0))
	require.Equal(t, "fa47c35000", hex.EncodeToString(buf.Bytes()))
}

func TestEncoder_WriteTag(t *testing.T) {
	enc, buf := newTestEncoder(t)
	require.NoError(t, enc.WriteTag(55799))
	require.NoError(t, enc.WriteUint(1))
	require.Equal(t, "d9d9f701", hex.EncodeToString(buf.Bytes()))
}

// failWriter fails after n successful writes.
type failWriter struct {
	n   int
	err error
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, w.err
	}
	w.n--

	return len(p), nil
}

func TestEncoder_SinkFailurePropagates(t *testing.T) {
	sinkErr := errors.New("disk full")

	enc, err := NewEncoder(&failWriter{n: 1, err: sinkErr})
	require.NoError(t, err)

	require.NoError(t, enc.WriteUint(1))

	err = enc.WriteUint(2)
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, sinkErr)
}

// Re-encoding a decoded value reproduces the original bytes: preferred
// serialization is a fixpoint.
func TestEncoder_CanonicalFixpoint(t *testing.T) {
	vectors := []string{
		"00", "17", "1818", "190100", "1a00010000", "1bffffffffffffffff",
		"20", "3903e7",
		"6449455446", "4401020304",
		"83010203", "a10102",
		"f4", "f5", "f6",
		"f93c00", "fa47c35000", "fb3ff199999999999a",
	}
	for _, v := range vectors {
		data := mustHex(t, v)

		var decoded any
		require.NoError(t, Unmarshal(data, &decoded), "vector %s", v)

		reencoded, err := Marshal(decoded)
		require.NoError(t, err, "vector %s", v)
		require.Equal(t, v, hex.EncodeToString(reencoded), "vector %s", v)
	}
}
