package compress

import (
	"bytes"
	"testing"

	"github.com/contentauth/c2pa-cbor/format"
	"github.com/stretchr/testify/require"
)

func samplePayload() []byte {
	// Repetitive CBOR-ish content compresses on every algorithm.
	return bytes.Repeat([]byte{0xa2, 0x65, 'l', 'a', 'b', 'e', 'l', 0x01, 0x64, 's', 'i', 'z', 'e', 0x19, 0x02, 0x00}, 256)
}

func TestCodecs_RoundTrip(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			data := samplePayload()
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			back, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, back)

			if ct != format.CompressionNone {
				require.Less(t, len(compressed), len(data))
			}
		})
	}
}

func TestGetCodec_Unknown(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0x7F))
	require.Error(t, err)
}

func TestZstd_RejectsCorruptData(t *testing.T) {
	codec := NewZstdCompressor()
	_, err := codec.Decompress([]byte("definitely not zstd"))
	require.Error(t, err)
}

func TestLZ4_EmptyInput(t *testing.T) {
	codec := NewLZ4Compressor()

	compressed, err := codec.Compress(nil)
	require.NoError(t, err)
	require.Nil(t, compressed)

	back, err := codec.Decompress(nil)
	require.NoError(t, err)
	require.Nil(t, back)
}
