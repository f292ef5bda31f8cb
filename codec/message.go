// Package codec implements the wire codec of spec §4.H/§4.I: deserializing
// and serializing framed and naked cbuf records against a
// schema.HashIndex, including zero-copy numeric array views where
// alignment and endianness permit.
package codec

// Message is a decoded record (spec §4.H): the framing metadata plus the
// naked payload, recursively decoded into plain Go values keyed by field
// name.
//
// Fields holds, per element: the Go-native scalar type for a primitive
// (uint8, ..., float64, bool, string); []T for a numeric array (T matching
// the element's primitive, or []uint8 for a bool array); []string for a
// string or short_string array; map[string]any for a nested struct field
// (only the inner message is ever surfaced, per spec §4.H); and
// []map[string]any for an array of structs.
type Message struct {
	TypeName string
	Size     int
	Variant  uint8
	// HasVariant records whether the source record's size_and_variant bit
	// 31 was set, so re-serializing preserves it exactly even when
	// Variant is 0 (spec §4.I round-trip guarantee).
	HasVariant bool
	HashValue  uint64
	Timestamp  float64
	Fields     map[string]any
}
