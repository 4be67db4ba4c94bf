// Package compress provides compression and decompression codecs for
// encoded CBOR payloads.
//
// CBOR output is compact item by item but still redundant across repeated
// map keys and similar structures, so payloads at rest or on the wire are
// routinely wrapped in a general-purpose compressor. This package backs the
// MarshalCompressed / UnmarshalCompressed convenience wrappers of the root
// package and can be used standalone.
//
// # Supported Algorithms
//
//   - None: no compression (fastest, largest)
//   - Zstd: excellent compression ratio, moderate speed
//   - S2: balanced compression and speed
//   - LZ4: fast decompression, moderate compression
//
// The Zstd codec has two build variants: the pure-Go klauspost/compress
// implementation (default) and the cgo valyala/gozstd implementation behind
// the gozstd build tag.
//
// # Thread Safety
//
// All codecs are stateless values whose internal encoder/decoder instances
// are pooled; they are safe for concurrent use.
package compress
