package cbuf

import "testing"

func TestParseSchemaSerializeDeserializeRoundTrip(t *testing.T) {
	m, err := ParseSchema(`
struct Greeting {
	string text;
}
`)
	if err != nil {
		t.Fatalf("ParseSchema: unexpected error: %s", err)
	}
	idx, err := HashIndex(m)
	if err != nil {
		t.Fatalf("HashIndex: unexpected error: %s", err)
	}
	sd, ok := m.Get("Greeting")
	if !ok {
		t.Fatalf("Get(Greeting): not found")
	}

	msg := &Message{
		HashValue: sd.HashValue,
		Fields:    map[string]any{"text": "hi there"},
	}

	sz, err := SerializedSize(idx, msg)
	if err != nil {
		t.Fatalf("SerializedSize: unexpected error: %s", err)
	}

	buf, err := Serialize(idx, msg)
	if err != nil {
		t.Fatalf("Serialize: unexpected error: %s", err)
	}
	if len(buf) != sz {
		t.Errorf("Serialize produced %d bytes, SerializedSize predicted %d", len(buf), sz)
	}

	got, err := Deserialize(idx, buf, 0)
	if err != nil {
		t.Fatalf("Deserialize: unexpected error: %s", err)
	}
	if got.Fields["text"] != "hi there" {
		t.Errorf("Fields[text]: got %v, want %q", got.Fields["text"], "hi there")
	}
}
