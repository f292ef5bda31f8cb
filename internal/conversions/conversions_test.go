package conversions

import "testing"

func TestByteSlice2StringRoundTrip(t *testing.T) {
	bs := []byte("hello cbuf")
	s := ByteSlice2String(bs)
	if s != "hello cbuf" {
		t.Errorf("ByteSlice2String: got %q, want %q", s, "hello cbuf")
	}
	if ByteSlice2String(nil) != "" {
		t.Errorf("ByteSlice2String(nil): got non-empty string")
	}
}

func TestUnsafeGetBytesRoundTrip(t *testing.T) {
	s := "hello cbuf"
	bs := UnsafeGetBytes(s)
	if string(bs) != s {
		t.Errorf("UnsafeGetBytes: got %q, want %q", string(bs), s)
	}
	if UnsafeGetBytes("") != nil {
		t.Errorf("UnsafeGetBytes(\"\"): got non-nil")
	}
}
