// Package cbuf re-exports the most commonly used entry points of
// github.com/bearlytools/cbuf/schema and .../codec at the module root, the
// way the teacher's own claw.go re-exported its languages/go package at
// the top level for callers who only need the common path.
package cbuf

import (
	"github.com/bearlytools/cbuf/codec"
	"github.com/bearlytools/cbuf/schema"
)

// ParseSchema parses and analyzes cbuf schema text into a descriptor map
// (spec §6 parseCBufSchema).
func ParseSchema(text string) (*schema.Map, error) {
	return schema.ParseCBufSchema(text)
}

// HashIndex derives the by-hash lookup table a Map's descriptors are
// addressed by on the wire (spec §6 schemaMapToHashMap).
func HashIndex(m *schema.Map) (*schema.HashIndex, error) {
	return schema.SchemaMapToHashMap(m)
}

// Message is a decoded wire record.
type Message = codec.Message

// Deserialize decodes one framed record from buffer at offset (spec §6
// deserializeMessage).
func Deserialize(idx *schema.HashIndex, buffer []byte, offset int) (*Message, error) {
	return codec.Deserialize(idx, buffer, offset)
}

// Serialize encodes msg into a freshly allocated buffer (spec §6
// serializeMessage).
func Serialize(idx *schema.HashIndex, msg *Message) ([]byte, error) {
	return codec.Serialize(idx, msg)
}

// SerializedSize computes the exact byte length Serialize(idx, msg) would
// produce (spec §6 serializedMessageSize).
func SerializedSize(idx *schema.HashIndex, msg *Message) (int, error) {
	return codec.SerializedMessageSize(idx, msg)
}
