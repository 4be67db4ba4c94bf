// Package format defines the wire-level constants of the CBOR encoding:
// major types, additional-information values, simple values, standard tag
// numbers, and the compression types accepted by the compressed convenience
// wrappers.
package format

type (
	MajorType       uint8
	CompressionType uint8
)

// CBOR major types (RFC 8949 §3.1), the high 3 bits of the head byte.
const (
	MajorUnsigned MajorType = 0 // MajorUnsigned is an unsigned integer.
	MajorNegative MajorType = 1 // MajorNegative is a negative integer, encoded as -1-n.
	MajorBytes    MajorType = 2 // MajorBytes is a byte string.
	MajorText     MajorType = 3 // MajorText is a UTF-8 text string.
	MajorArray    MajorType = 4 // MajorArray is an array of data items.
	MajorMap      MajorType = 5 // MajorMap is a map of key/value pairs.
	MajorTag      MajorType = 6 // MajorTag is a tagged data item.
	MajorSimple   MajorType = 7 // MajorSimple is a simple value or float.
)

func (m MajorType) String() string {
	switch m {
	case MajorUnsigned:
		return "UnsignedInteger"
	case MajorNegative:
		return "NegativeInteger"
	case MajorBytes:
		return "ByteString"
	case MajorText:
		return "TextString"
	case MajorArray:
		return "Array"
	case MajorMap:
		return "Map"
	case MajorTag:
		return "Tag"
	case MajorSimple:
		return "SimpleOrFloat"
	default:
		return "Unknown"
	}
}

// Additional-information values, the low 5 bits of the head byte.
// Values 0-23 carry the argument inline; 24-27 select a 1/2/4/8 byte
// big-endian follow-up; 28-30 are reserved and malformed; 31 marks an
// indefinite length for major types 2-5 and the break code under major 7.
const (
	AddInfoMax        = 23
	AddInfo8Bit       = 24
	AddInfo16Bit      = 25
	AddInfo32Bit      = 26
	AddInfo64Bit      = 27
	AddInfoIndefinite = 31
)

// Simple values assigned by RFC 8949 (major type 7).
const (
	SimpleFalse     = 20
	SimpleTrue      = 21
	SimpleNull      = 22
	SimpleUndefined = 23
)

// BreakByte terminates an indefinite-length item.
const BreakByte byte = 0xFF

// Standard tag numbers with dedicated codec support.
const (
	TagDateTime  uint64 = 0  // TagDateTime is an RFC 3339 date/time text string.
	TagEpochTime uint64 = 1  // TagEpochTime is a POSIX epoch integer or float.
	TagURI       uint64 = 32 // TagURI is a URI text string (RFC 3986).
	TagBase64URL uint64 = 33 // TagBase64URL is base64url-encoded text, passed through verbatim.
	TagBase64    uint64 = 34 // TagBase64 is classic base64-encoded text, passed through verbatim.
)

// RFC 8746 typed-array tags. The element width is 2^((tag-64) mod 4) bytes
// for the unsigned-integer tags; 64-67 are big-endian, 68-71 little-endian.
// Tag 68 (uint8 little-endian) is byte-order neutral and equivalent to 64.
const (
	TagUint8Array    uint64 = 64
	TagUint16BEArray uint64 = 65
	TagUint32BEArray uint64 = 66
	TagUint64BEArray uint64 = 67
	TagUint8LEArray  uint64 = 68
	TagUint16LEArray uint64 = 69
	TagUint32LEArray uint64 = 70
	TagUint64LEArray uint64 = 71

	TagFloat32BEArray uint64 = 81
	TagFloat64BEArray uint64 = 82
	TagFloat32LEArray uint64 = 85
	TagFloat64LEArray uint64 = 86
)

// Compression types accepted by the compressed marshal wrappers.
const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
