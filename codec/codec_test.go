package codec

import (
	"strings"
	"testing"

	"github.com/bearlytools/cbuf/metadata"
	"github.com/bearlytools/cbuf/schema"
	"github.com/kylelemons/godebug/pretty"
)

func mustSchema(t *testing.T, src string) (*schema.Map, *schema.HashIndex) {
	t.Helper()
	m, err := schema.ParseCBufSchema(src)
	if err != nil {
		t.Fatalf("ParseCBufSchema: unexpected error: %s", err)
	}
	idx, err := schema.SchemaMapToHashMap(m)
	if err != nil {
		t.Fatalf("SchemaMapToHashMap: unexpected error: %s", err)
	}
	return m, idx
}

func TestSerializeDeserializeRoundTripScalar(t *testing.T) {
	m, idx := mustSchema(t, `
struct Point {
	s32 x;
	s32 y;
	bool flag;
	string name;
}
`)
	sd, _ := m.Get("Point")
	msg := &Message{
		TypeName:  sd.Name,
		HashValue: sd.HashValue,
		Timestamp: 1234.5,
		Fields: map[string]any{
			"x":    int32(7),
			"y":    int32(-3),
			"flag": true,
			"name": "hello",
		},
	}

	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}

	sz, err := SerializedMessageSize(idx, msg)
	if err != nil {
		t.Fatalf("SerializedMessageSize: unexpected error: %s", err)
	}
	if sz != len(buf) {
		t.Errorf("SerializedMessageSize: got %d, want %d (actual buffer length)", sz, len(buf))
	}

	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	if got.TypeName != "Point" {
		t.Errorf("TypeName: got %q, want Point", got.TypeName)
	}
	if got.Fields["x"] != int32(7) || got.Fields["y"] != int32(-3) {
		t.Errorf("Fields x/y: got %v/%v, want 7/-3", got.Fields["x"], got.Fields["y"])
	}
	if got.Fields["flag"] != true {
		t.Errorf("Fields flag: got %v, want true", got.Fields["flag"])
	}
	if got.Fields["name"] != "hello" {
		t.Errorf("Fields name: got %v, want hello", got.Fields["name"])
	}
	if got.Timestamp != 1234.5 {
		t.Errorf("Timestamp: got %v, want 1234.5", got.Timestamp)
	}
}

func TestSerializeDeserializeRoundTripArrays(t *testing.T) {
	m, idx := mustSchema(t, `
struct Arrays {
	u8 fixed[3];
	u8 compact[4] @compact;
	s32 dyn[];
}
`)
	sd, _ := m.Get("Arrays")
	msg := &Message{
		HashValue: sd.HashValue,
		Fields: map[string]any{
			"fixed":   []uint8{1, 2, 3},
			"compact": []uint8{9, 8},
			"dyn":     []int32{100, 200, 300},
		},
	}

	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}

	fixed := got.Fields["fixed"].([]uint8)
	if len(fixed) != 3 || fixed[0] != 1 || fixed[2] != 3 {
		t.Errorf("fixed: got %v, want [1 2 3]", fixed)
	}
	compact := got.Fields["compact"].([]uint8)
	if len(compact) != 2 || compact[0] != 9 || compact[1] != 8 {
		t.Errorf("compact: got %v, want [9 8]", compact)
	}
	dyn := got.Fields["dyn"].([]int32)
	if len(dyn) != 3 || dyn[1] != 200 {
		t.Errorf("dyn: got %v, want [100 200 300]", dyn)
	}
}

// TestSerializeDeserializeRoundTripBoolArray covers both ways a bool-array
// field's value can arrive: freshly constructed as []bool, and re-serialized
// after a decode, which hands back []uint8 (internal/wire.BoolView, per
// spec §4.H).
func TestSerializeDeserializeRoundTripBoolArray(t *testing.T) {
	m, idx := mustSchema(t, `
struct Flags {
	bool flags[4];
}
`)
	sd, _ := m.Get("Flags")
	msg := &Message{
		HashValue: sd.HashValue,
		Fields:    map[string]any{"flags": []bool{true, false, true, true}},
	}

	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize([]bool): unexpected error: %s", err)
	}
	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	flags := got.Fields["flags"].([]uint8)
	want := []uint8{1, 0, 1, 1}
	for i := range want {
		if (flags[i] != 0) != (want[i] != 0) {
			t.Errorf("flags[%d]: got %d, want truthy=%v", i, flags[i], want[i] != 0)
		}
	}

	// Re-serializing the decoded []uint8 value must also succeed.
	msg2 := &Message{HashValue: sd.HashValue, Fields: map[string]any{"flags": flags}}
	buf2, err := Serialize(idx, msg2)
	if err != nil {
		t.Fatalf("Serialize([]uint8 from decode): unexpected error: %s", err)
	}
	if string(buf2) != string(buf) {
		t.Errorf("re-serialized bytes differ from the original: %v != %v", buf2, buf)
	}
}

func TestSerializeCompactArrayOverBoundErrors(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 c[2] @compact; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{HashValue: sd.HashValue, Fields: map[string]any{"c": []uint8{1, 2, 3}}}
	if _, err := Serialize(idx, msg); err == nil {
		t.Fatalf("Serialize: expected CompactOverflow error")
	}
}

func TestDeserializeCompactArrayOverBoundErrors(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 c[2] @compact; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{HashValue: sd.HashValue, Fields: map[string]any{"c": []uint8{1}}}
	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	// Corrupt the wire count prefix to exceed the compact bound.
	buf[24] = 5
	if _, err := Deserialize(idx, buf, 0); err == nil {
		t.Fatalf("Deserialize: expected CompactOverflow error for corrupted count")
	}
}

// TestSerializeDeserializeFieldsStructuralDiff uses pretty.Compare for a
// full structural diff of the round-tripped Fields map, rather than
// checking one field at a time.
func TestSerializeDeserializeFieldsStructuralDiff(t *testing.T) {
	m, idx := mustSchema(t, `
struct Inner {
	s32 v;
}
struct Outer {
	u8 tag;
	string label;
	Inner inner;
	s32 values[3];
}
`)
	sd, _ := m.Get("Outer")
	want := map[string]any{
		"tag":    uint8(9),
		"label":  "outer",
		"inner":  map[string]any{"v": int32(7)},
		"values": []int32{1, 2, 3},
	}
	msg := &Message{HashValue: sd.HashValue, Fields: want}

	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	if diff := pretty.Compare(want, got.Fields); diff != "" {
		t.Errorf("Fields differ after round trip (-want +got):\n%s", diff)
	}
}

func TestSerializeDeserializeNestedStruct(t *testing.T) {
	m, idx := mustSchema(t, `
struct Inner {
	s32 v;
}
struct Outer {
	Inner inner;
}
`)
	sd, _ := m.Get("Outer")
	msg := &Message{
		HashValue: sd.HashValue,
		Fields: map[string]any{
			"inner": map[string]any{"v": int32(42)},
		},
	}
	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	inner := got.Fields["inner"].(map[string]any)
	if inner["v"] != int32(42) {
		t.Errorf("inner.v: got %v, want 42", inner["v"])
	}
}

func TestSerializeDeserializeNakedNestedStruct(t *testing.T) {
	m, idx := mustSchema(t, `
struct Inner @naked {
	s32 v;
}
struct Outer {
	Inner inner;
}
`)
	sd, _ := m.Get("Outer")
	msg := &Message{
		HashValue: sd.HashValue,
		Fields: map[string]any{
			"inner": map[string]any{"v": int32(9)},
		},
	}
	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	inner := got.Fields["inner"].(map[string]any)
	if inner["v"] != int32(9) {
		t.Errorf("inner.v: got %v, want 9", inner["v"])
	}
}

func TestVariantBitPreservedAcrossRoundTrip(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 x; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{
		HashValue:  sd.HashValue,
		HasVariant: true,
		Variant:    3,
		Fields:     map[string]any{"x": uint8(1)},
	}
	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	if !got.HasVariant || got.Variant != 3 {
		t.Errorf("variant: got HasVariant=%v Variant=%d, want true/3", got.HasVariant, got.Variant)
	}
}

func TestDeserializeAtOffsetInLargerBuffer(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 x; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{HashValue: sd.HashValue, Fields: map[string]any{"x": uint8(5)}}
	rec, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	buf := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, rec...)

	got, err := Deserialize(idx, buf, 4)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	if got.Fields["x"] != uint8(5) {
		t.Errorf("x: got %v, want 5", got.Fields["x"])
	}

	next, err := Skip(buf, 4)
	if err != nil {
		t.Fatalf("Skip: unexpected error: %s", err)
	}
	if next != len(buf) {
		t.Errorf("Skip: got next offset %d, want %d", next, len(buf))
	}
}

func TestDeserializeTruncatedRecordErrors(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 x; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{HashValue: sd.HashValue, Fields: map[string]any{"x": uint8(5)}}
	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	if _, err := Deserialize(idx, buf[:len(buf)-1], 0); err == nil {
		t.Fatalf("Deserialize: expected error for truncated record")
	}
}

func TestDeserializeBadMagicErrors(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 x; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{HashValue: sd.HashValue, Fields: map[string]any{"x": uint8(5)}}
	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	buf[0] = 0xFF
	if _, err := Deserialize(idx, buf, 0); err == nil {
		t.Fatalf("Deserialize: expected InvalidMagic error")
	}
}

func TestDeserializeUnknownHashErrors(t *testing.T) {
	_, idx := mustSchema(t, `struct Foo { u8 x; }`)
	m2, err := schema.ParseCBufSchema(`struct Bar { u8 y; }`)
	if err != nil {
		t.Fatalf("ParseCBufSchema: unexpected error: %s", err)
	}
	bar, _ := m2.Get("Bar")
	msg := &Message{HashValue: bar.HashValue, Fields: map[string]any{"y": uint8(1)}}
	idx2, err := schema.SchemaMapToHashMap(m2)
	if err != nil {
		t.Fatalf("SchemaMapToHashMap: unexpected error: %s", err)
	}
	buf, err := Serialize(idx2, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	// idx (built from a schema without Bar) has no descriptor for this hash.
	if _, err := Deserialize(idx, buf, 0); err == nil {
		t.Fatalf("Deserialize: expected UnknownHash error")
	}
}

func TestSerializeMissingFieldErrors(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 x; u8 y; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{HashValue: sd.HashValue, Fields: map[string]any{"x": uint8(1)}}
	if _, err := Serialize(idx, msg); err == nil {
		t.Fatalf("Serialize: expected error for missing field y")
	}
}

func TestDebugStringRendersFieldsInDeclarationOrder(t *testing.T) {
	m, idx := mustSchema(t, `struct Foo { u8 a; u8 b; }`)
	sd, _ := m.Get("Foo")
	msg := &Message{HashValue: sd.HashValue, Fields: map[string]any{"a": uint8(1), "b": uint8(2)}}
	s, err := DebugString(idx, msg)
	if err != nil {
		t.Fatalf("DebugString: unexpected error: %s", err)
	}
	aIdx := strings.Index(s, "a:")
	bIdx := strings.Index(s, "b:")
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Errorf("DebugString: got %q, want field a before field b", s)
	}
	if !strings.Contains(s, "Foo") {
		t.Errorf("DebugString: got %q, want it to name the struct Foo", s)
	}
}

// TestResolveDescriptorFallsBackToBuiltinMetadata exercises spec §8's
// self-describing bootstrap property: a record whose hash isn't in the
// caller's HashIndex at all still resolves, and round-trips, as long as it
// carries the built-in cbufmsg::metadata hash. This is what lets a
// metadata record describing a schema travel ahead of any record of that
// schema, with the receiver starting from a HashIndex that knows nothing
// yet.
func TestResolveDescriptorFallsBackToBuiltinMetadata(t *testing.T) {
	empty := &schema.HashIndex{}

	msg := &Message{
		HashValue: metadata.HashValue,
		Fields: map[string]any{
			"msg_hash": uint64(0x1234),
			"msg_name": "messages::test",
			"msg_meta": "struct messages::test { ... }",
		},
	}

	buf, err := Serialize(empty, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error resolving cbufmsg::metadata against an empty HashIndex: %s", err)
	}

	got, err := Deserialize(empty, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error resolving cbufmsg::metadata against an empty HashIndex: %s", err)
	}
	if got.TypeName != metadata.Name {
		t.Errorf("TypeName: got %q, want %q", got.TypeName, metadata.Name)
	}
	if got.Fields["msg_hash"] != uint64(0x1234) {
		t.Errorf("Fields[msg_hash]: got %v, want 0x1234", got.Fields["msg_hash"])
	}
	if got.Fields["msg_name"] != "messages::test" {
		t.Errorf("Fields[msg_name]: got %v, want messages::test", got.Fields["msg_name"])
	}
}
