// Package bits provides small bit-packing helpers used to read and write
// sub-byte and sub-word fields inside an otherwise fixed-width wire value,
// such as the variant flag and size packed into a cbuf framing header's
// size_and_variant word.
package bits

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// SetValue stores "val" in unsigned number "store" starting at bit "start" and
// ending at bit "end" (exclusive). If start >= end, this panics.
func SetValue[I, U constraints.Unsigned](val I, store U, start, end uint64) U {
	if start >= end {
		panic("start cannot be > end")
	}
	c := U(val) << start
	return store | c
}

// GetValue retrieves a value stored with SetValue. store is the unsigned
// number the value was stored in, bitMask is the mask covering the field,
// and start is the bit position the field begins at.
func GetValue[U, U1 constraints.Unsigned](store U, bitMask U, start uint64) U1 {
	return U1((store & bitMask) >> start)
}

// GetBit gets a single bit value from "store" at position "pos". true if set.
func GetBit[U constraints.Unsigned](store U, pos uint8) bool {
	checkPos(store, pos)
	return store&(1<<pos) != 0
}

// SetBit sets a single bit in "store" at position "pos" to val.
func SetBit[U constraints.Unsigned](store U, pos uint8, val bool) U {
	checkPos(store, pos)
	if val {
		return store | (1 << pos)
	}
	return store & ^(1 << pos)
}

func checkPos[U constraints.Unsigned](store U, pos uint8) {
	var max uint8
	switch any(store).(type) {
	case uint8:
		max = 7
	case uint16:
		max = 15
	case uint32:
		max = 31
	case uint64:
		max = 63
	}
	if pos > max {
		panic(fmt.Sprintf("bit position %d out of range for %T", pos, store))
	}
}

// Mask creates a mask covering bits [start, end). Index starts at 0, so
// Mask(1, 4) covers bits at locations 1 to 3. Panics if start >= end.
func Mask[U constraints.Unsigned](start, end uint64) U {
	return U(setBits(uint(0), start, end))
}

func setBits[I constraints.Unsigned](n I, start, end uint64) I {
	var size uint64
	switch any(n).(type) {
	case uint:
		size = bits.UintSize
	case uint8:
		size = 8
	case uint16:
		size = 16
	case uint32:
		size = 32
	case uint64:
		size = 64
	default:
		panic(fmt.Sprintf("n must be of type uint8/uint16/uint32/uint64, was %T", n))
	}

	if start >= end {
		panic("start cannot be >= end")
	}
	if end > size {
		panic(fmt.Sprintf("end cannot be %d, as that is the largest amount of bits in a %d bit number", end, size))
	}

	var r uint
	for x := start; x < end; x++ {
		r |= uint(1) << x
	}
	return n | I(r)
}
