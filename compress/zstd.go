package compress

// ZstdCompressor provides Zstandard compression for encoded payloads.
//
// Zstd favors compression ratio over speed, which suits archival and
// network transmission of CBOR documents. Two backends implement the
// methods: the pure-Go klauspost/compress encoder (default) and the cgo
// valyala/gozstd binding selected by the gozstd build tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
