// Package frame packs and unpacks the framing header described in spec
// §4.H: magic, a bit-packed size-and-variant word, a struct hash, and an
// IEEE-754 timestamp — 24 bytes total (the byte-offset table and the
// worked decode example both total 24, even though prose elsewhere calls
// it a "16-byte header"; this package follows the table and the example).
// The size_and_variant bit layout follows the teacher's
// languages/go/structs/header bit-packed header style, built on
// internal/bits rather than hand-rolled shifts. Every framed record, top
// level or nested, uses this same 24-byte layout.
package frame

import (
	"github.com/bearlytools/cbuf/internal/bits"
	"github.com/bearlytools/cbuf/internal/wire"
)

// HeaderSize is the fixed byte length of a framing header.
const HeaderSize = 24

// Magic is the little-endian magic word "TNDV" at header offset 0.
const Magic uint32 = 0x56444E54

const (
	variantFlagBit = 31 // set iff HasVariant, even when the variant is 0
	variantLowBit  = 27 // variant occupies bits 27-30
	variantHighBit = 31 // bits.Mask's end bound is exclusive, so this reaches bit 30
	sizeMask       = 0x07FFFFFF // lower 27 bits, used when the variant flag is set
	sizeMaskNoFlag = 0x7FFFFFFF // lower 31 bits, used when it is not
)

// variantMask selects bits 27-30, the variant's 4-bit field.
var variantMask = bits.Mask[uint32](variantLowBit, variantHighBit)

// Header is the decoded form of a framing header.
type Header struct {
	Size      uint32
	Variant   uint8 // 0 when no variant bit was set on the wire
	HasVariant bool // whether bit 31 was set; preserved for byte-exact re-encoding
	Hash      uint64
	Timestamp float64
}

// Decode reads a Header from the first HeaderSize bytes of b. b must be at
// least HeaderSize bytes long.
func Decode(b []byte) Header {
	word := wire.Get[uint32](b[4:8])
	h := Header{
		Hash:      wire.Get[uint64](b[8:16]),
		Timestamp: wire.Get[float64](b[16:24]),
	}
	if bits.GetBit(word, variantFlagBit) {
		h.HasVariant = true
		h.Variant = bits.GetValue[uint32, uint8](word, variantMask, variantLowBit)
		h.Size = word & sizeMask
	} else {
		h.Size = word & sizeMaskNoFlag
	}
	return h
}

// Encode writes h into the first HeaderSize bytes of b. b must be at least
// HeaderSize bytes long.
func Encode(b []byte, h Header) {
	wire.Put[uint32](b[0:4], Magic)

	var word uint32
	if h.HasVariant {
		word = bits.SetBit(word, variantFlagBit, true)
		word = bits.SetValue[uint8, uint32](h.Variant&0xF, word, variantLowBit, variantHighBit)
		word |= h.Size & sizeMask
	} else {
		word = h.Size & sizeMaskNoFlag
	}
	wire.Put[uint32](b[4:8], word)

	wire.Put[uint64](b[8:16], h.Hash)
	wire.Put[float64](b[16:24], h.Timestamp)
}
