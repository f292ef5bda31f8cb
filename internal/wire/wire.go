// Package wire replaces the standard library's encoding/binary package for
// cbuf's little-endian wire primitives using generics, adapted from claw's
// internal/binary package and generalized from integers-only to the full
// set of cbuf scalar wire types (also float32/float64/bool), plus a
// zero-copy typed-slice view helper for naturally aligned numeric arrays.
package wire

import (
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Scalar is the set of fixed-width cbuf wire types that Get/Put/View
// operate on directly. bool is handled separately: on the wire it is a
// single byte where any non-zero value means true.
type Scalar interface {
	constraints.Integer | ~float32 | ~float64
}

var nativeLittleEndian = *(*uint16)(unsafe.Pointer(&[2]byte{1, 0})) == 1

// Sizeof returns the wire width, in bytes, of T.
func Sizeof[T Scalar]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// Get decodes a little-endian T from the first Sizeof[T]() bytes of b.
func Get[T Scalar](b []byte) T {
	var z T
	switch any(z).(type) {
	case int8:
		return T(int8(b[0]))
	case uint8:
		return T(b[0])
	case int16:
		return T(int16(getU16(b)))
	case uint16:
		return T(getU16(b))
	case int32:
		return T(int32(getU32(b)))
	case uint32:
		return T(getU32(b))
	case int64:
		return T(int64(getU64(b)))
	case uint64:
		return T(getU64(b))
	case float32:
		return T(math.Float32frombits(getU32(b)))
	case float64:
		return T(math.Float64frombits(getU64(b)))
	default:
		panic("wire.Get: unsupported type")
	}
}

// Put encodes v into b in little-endian order, using Sizeof[T]() bytes.
func Put[T Scalar](b []byte, v T) {
	switch x := any(v).(type) {
	case int8:
		b[0] = byte(x)
	case uint8:
		b[0] = x
	case int16:
		putU16(b, uint16(x))
	case uint16:
		putU16(b, x)
	case int32:
		putU32(b, uint32(x))
	case uint32:
		putU32(b, x)
	case int64:
		putU64(b, uint64(x))
	case uint64:
		putU64(b, x)
	case float32:
		putU32(b, math.Float32bits(x))
	case float64:
		putU64(b, math.Float64bits(x))
	default:
		panic("wire.Put: unsupported type")
	}
}

// GetBool decodes a cbuf bool: any non-zero byte is true.
func GetBool(b []byte) bool {
	return b[0] != 0
}

// PutBool encodes a cbuf bool as a single byte, 1 for true and 0 for false.
func PutBool(b []byte, v bool) {
	if v {
		b[0] = 1
		return
	}
	b[0] = 0
}

func getU16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0]) | uint16(b[1])<<8
}

func getU32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func getU64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func putU16(b []byte, v uint16) {
	_ = b[1]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putU32(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU64(b []byte, v uint64) {
	_ = b[7]
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Aligned reports whether offset is naturally aligned for a T-sized access.
func Aligned[T Scalar](offset int) bool {
	return offset%Sizeof[T]() == 0
}

// View returns a zero-copy []T aliasing buf[:count*Sizeof[T]()] when the
// host is little-endian and buf's backing array happens to be naturally
// aligned for T, falling back to CopyView (a freshly allocated, correctly
// ordered slice) otherwise.
//
// The contract is semantic equality with CopyView's result, not pointer
// identity: callers must not assume View always aliases buf, and must not
// mutate buf while the returned slice is in use if it does.
func View[T Scalar](buf []byte, count int) []T {
	if count == 0 {
		return nil
	}
	if !nativeLittleEndian || uintptr(unsafe.Pointer(&buf[0]))%uintptr(Sizeof[T]()) != 0 {
		return CopyView[T](buf, count)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), count)
}

// CopyView decodes count little-endian T values out of buf into a freshly
// allocated slice, used when a zero-copy View is not possible (misaligned
// offset, or a big-endian host).
func CopyView[T Scalar](buf []byte, count int) []T {
	if count == 0 {
		return nil
	}
	sz := Sizeof[T]()
	out := make([]T, count)
	for i := 0; i < count; i++ {
		out[i] = Get[T](buf[i*sz : i*sz+sz])
	}
	return out
}

// BoolView returns a zero-copy view over count wire bools (one byte each,
// non-zero is true), represented as their raw bytes rather than Go bool to
// avoid a representation that is not valid for unsafe reinterpretation.
func BoolView(buf []byte, count int) []uint8 {
	if count == 0 {
		return nil
	}
	return buf[:count:count]
}
