package wire

import "testing"

func TestGetPutRoundTripIntegers(t *testing.T) {
	buf := make([]byte, 8)

	Put[uint8](buf[:1], 0xAB)
	if got := Get[uint8](buf[:1]); got != 0xAB {
		t.Errorf("uint8 round trip: got %#x, want 0xAB", got)
	}

	Put[int16](buf[:2], -1234)
	if got := Get[int16](buf[:2]); got != -1234 {
		t.Errorf("int16 round trip: got %d, want -1234", got)
	}

	Put[uint32](buf[:4], 0xDEADBEEF)
	if got := Get[uint32](buf[:4]); got != 0xDEADBEEF {
		t.Errorf("uint32 round trip: got %#x, want 0xDEADBEEF", got)
	}

	Put[int64](buf[:8], -9001)
	if got := Get[int64](buf[:8]); got != -9001 {
		t.Errorf("int64 round trip: got %d, want -9001", got)
	}
}

func TestGetPutRoundTripFloats(t *testing.T) {
	buf := make([]byte, 8)

	Put[float32](buf[:4], 3.5)
	if got := Get[float32](buf[:4]); got != 3.5 {
		t.Errorf("float32 round trip: got %v, want 3.5", got)
	}

	Put[float64](buf[:8], 2.518518518518518)
	if got := Get[float64](buf[:8]); got != 2.518518518518518 {
		t.Errorf("float64 round trip: got %v, want 2.518518518518518", got)
	}
}

func TestLittleEndianByteOrder(t *testing.T) {
	buf := make([]byte, 4)
	Put[uint32](buf, 0x01020304)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("Put[uint32](0x01020304): got bytes %x, want %x (little-endian)", buf, want)
		}
	}
}

func TestBoolEncoding(t *testing.T) {
	buf := make([]byte, 1)
	PutBool(buf, true)
	if !GetBool(buf) {
		t.Errorf("GetBool: got false after PutBool(true)")
	}
	PutBool(buf, false)
	if GetBool(buf) {
		t.Errorf("GetBool: got true after PutBool(false)")
	}
	// Any non-zero byte is true, not just 1.
	buf[0] = 0xFF
	if !GetBool(buf) {
		t.Errorf("GetBool: got false for byte 0xFF, want true (non-zero means true)")
	}
}

func TestViewMatchesCopyView(t *testing.T) {
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = byte(i)
	}
	view := View[uint32](buf, 4)
	cp := CopyView[uint32](buf, 4)
	if len(view) != len(cp) {
		t.Fatalf("View/CopyView length mismatch: %d != %d", len(view), len(cp))
	}
	for i := range view {
		if view[i] != cp[i] {
			t.Errorf("View[%d] = %d, CopyView[%d] = %d", i, view[i], i, cp[i])
		}
	}
}

func TestViewMisalignedBufferFallsBackToCopy(t *testing.T) {
	// Offset the backing array by one byte so a uint32 view at buf[0] would
	// be misaligned; View must still decode correctly via CopyView.
	backing := make([]byte, 17)
	for i := range backing {
		backing[i] = byte(i)
	}
	buf := backing[1:] // deliberately odd starting offset
	view := View[uint32](buf, 4)
	want := CopyView[uint32](buf, 4)
	for i := range want {
		if view[i] != want[i] {
			t.Errorf("View[%d] = %d, want %d", i, view[i], want[i])
		}
	}
}

func TestViewEmptyCount(t *testing.T) {
	if v := View[uint32](nil, 0); v != nil {
		t.Errorf("View with count 0: got %v, want nil", v)
	}
}

func TestBoolViewNonZeroMeansTrue(t *testing.T) {
	buf := []byte{0, 1, 0xFF, 0}
	bv := BoolView(buf, len(buf))
	want := []bool{false, true, true, false}
	for i, w := range want {
		if (bv[i] != 0) != w {
			t.Errorf("BoolView[%d] = %d, want truthy=%v", i, bv[i], w)
		}
	}
}

func TestSizeofAndAligned(t *testing.T) {
	if Sizeof[uint8]() != 1 || Sizeof[uint32]() != 4 || Sizeof[float64]() != 8 {
		t.Fatalf("Sizeof: got %d/%d/%d, want 1/4/8",
			Sizeof[uint8](), Sizeof[uint32](), Sizeof[float64]())
	}
	if !Aligned[uint32](8) || Aligned[uint32](3) {
		t.Errorf("Aligned[uint32]: got Aligned(8)=%v Aligned(3)=%v, want true/false",
			Aligned[uint32](8), Aligned[uint32](3))
	}
}
