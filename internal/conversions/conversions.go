// Package conversions holds unsafe conversions between related in-memory
// representations, such as a []byte and a string. These are used by the
// wire codec to provide zero-copy views over caller-owned buffers instead
// of allocating and copying on every decode.
package conversions

import (
	"unsafe"
)

// ByteSlice2String converts bs to a string without copying. bs must not be
// mutated after this call.
func ByteSlice2String(bs []byte) string {
	if len(bs) == 0 {
		return ""
	}
	return unsafe.String(&bs[0], len(bs))
}

// UnsafeGetBytes returns the []byte backing s without copying. The result
// must not be mutated.
func UnsafeGetBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
