// Package endian provides byte order utilities for the typed-array codec.
//
// This package extends Go's standard encoding/binary package by combining
// ByteOrder and AppendByteOrder interfaces into a unified EndianEngine
// interface. RFC 8746 typed arrays carry their byte order in the tag number,
// so both orders are first-class here: the engine passed to a typed-array
// writer selects the tag that gets emitted, and the tag read back selects
// the engine used to reconstruct the elements.
//
// # Basic Usage
//
//	import "github.com/contentauth/c2pa-cbor/endian"
//
//	engine := endian.GetBigEndianEngine()
//	err := cbor.WriteUint32Array(enc, values, engine)
//
// # Performance
//
// Using EndianEngine (which includes AppendByteOrder) avoids the temporary
// buffer that ByteOrder alone would require when appending elements:
//
//	// Using EndianEngine (recommended)
//	buf = engine.AppendUint64(buf, value)
//
//	// Using ByteOrder only
//	tmp := make([]byte, 8)
//	engine.PutUint64(tmp, value)
//	buf = append(buf, tmp...) // Slower, extra allocation
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single interface for convenient byte order
// operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian
// from the standard library, making it fully compatible with existing Go
// code while providing access to both read/write and append operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
