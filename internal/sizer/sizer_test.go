package sizer

import "testing"

func TestAnalyzeNonNakedOffsetsStartAt16(t *testing.T) {
	st := &StructShape{
		Fields: []Field{
			{Name: "a", Kind: KindPrimitive, Primitive: "uint8"},
			{Name: "b", Kind: KindPrimitive, Primitive: "uint32"},
		},
	}
	if _, err := Analyze(st); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	els := st.Elements()
	if els[0].Offset != 16 || els[0].Size != 1 {
		t.Errorf("field a: got %+v, want offset 16 size 1", els[0])
	}
	if els[1].Offset != 17 || els[1].Size != 4 {
		t.Errorf("field b: got %+v, want offset 17 size 4", els[1])
	}
	if st.PackedSize() != 21 {
		t.Errorf("PackedSize: got %d, want 21 (16 header + 1 + 4)", st.PackedSize())
	}
	if !st.Simple() {
		t.Errorf("Simple: got false, want true (all fixed-width fields)")
	}
	if st.HasCompact() {
		t.Errorf("HasCompact: got true, want false")
	}
}

func TestAnalyzeNakedOffsetsStartAt0(t *testing.T) {
	st := &StructShape{
		Naked: true,
		Fields: []Field{
			{Name: "a", Kind: KindPrimitive, Primitive: "uint8"},
		},
	}
	if _, err := Analyze(st); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if st.Elements()[0].Offset != 0 {
		t.Errorf("naked field a: got offset %d, want 0", st.Elements()[0].Offset)
	}
	if st.PackedSize() != 1 {
		t.Errorf("PackedSize: got %d, want 1", st.PackedSize())
	}
}

func TestAnalyzeShortStringIsFixed16(t *testing.T) {
	st := &StructShape{
		Naked:  true,
		Fields: []Field{{Name: "s", Kind: KindShortString}},
	}
	if _, err := Analyze(st); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if st.Elements()[0].Size != 16 {
		t.Errorf("short_string size: got %d, want 16", st.Elements()[0].Size)
	}
	if !st.Simple() {
		t.Errorf("Simple: got false, want true (short_string is fixed-width)")
	}
}

func TestAnalyzeDynamicStringIsNotSimple(t *testing.T) {
	st := &StructShape{
		Naked:  true,
		Fields: []Field{{Name: "s", Kind: KindString}},
	}
	if _, err := Analyze(st); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if st.Elements()[0].Size != 4 {
		t.Errorf("dynamic string size: got %d, want 4 (length prefix only)", st.Elements()[0].Size)
	}
	if st.Simple() {
		t.Errorf("Simple: got true, want false (dynamic string has no fixed size)")
	}
}

func TestAnalyzeFixedArraySize(t *testing.T) {
	st := &StructShape{
		Naked: true,
		Fields: []Field{
			{Name: "a", Kind: KindPrimitive, Primitive: "uint16", IsArray: true, FixedLength: 4},
		},
	}
	if _, err := Analyze(st); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if st.Elements()[0].Size != 8 {
		t.Errorf("fixed array size: got %d, want 8 (4 * 2 bytes)", st.Elements()[0].Size)
	}
	if !st.Simple() {
		t.Errorf("Simple: got false, want true (fixed array of fixed-width elements)")
	}
}

func TestAnalyzeDynamicArrayIsNotSimple(t *testing.T) {
	dyn := &StructShape{
		Naked:  true,
		Fields: []Field{{Name: "a", Kind: KindPrimitive, Primitive: "uint8", IsArray: true, Dynamic: true}},
	}
	if _, err := Analyze(dyn); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if dyn.Simple() {
		t.Errorf("Simple (dynamic array): got true, want false")
	}
}

// TestAnalyzeCompactArrayOfFixedWidthElementsIsSimple matches the original
// cbuf parser's compute_simple, which disqualifies simple only for
// TYPE_STRING and is_dynamic_array (plus a non-simple nested struct) and
// never inspects is_compact_array: a compact array's element type being
// fixed-width is enough for the owning struct to still be simple.
func TestAnalyzeCompactArrayOfFixedWidthElementsIsSimple(t *testing.T) {
	compact := &StructShape{
		Naked: true,
		Fields: []Field{
			{Name: "a", Kind: KindPrimitive, Primitive: "uint8", IsArray: true, Compact: true, ArrayBound: 8},
		},
	}
	if _, err := Analyze(compact); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if !compact.Simple() {
		t.Errorf("Simple (compact array of uint8): got false, want true")
	}
	if !compact.HasCompact() {
		t.Errorf("HasCompact (compact array): got false, want true")
	}
}

func TestAnalyzeCompactArrayOfStringsIsNotSimple(t *testing.T) {
	compact := &StructShape{
		Naked: true,
		Fields: []Field{
			{Name: "a", Kind: KindString, IsArray: true, Compact: true, ArrayBound: 8},
		},
	}
	if _, err := Analyze(compact); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if compact.Simple() {
		t.Errorf("Simple (compact array of strings): got true, want false")
	}
}

func TestAnalyzeNestedStructPropagatesHasCompact(t *testing.T) {
	inner := &StructShape{
		Naked: true,
		Fields: []Field{
			{Name: "c", Kind: KindPrimitive, Primitive: "uint8", IsArray: true, Compact: true, ArrayBound: 2},
		},
	}
	outer := &StructShape{
		Naked:  true,
		Fields: []Field{{Name: "inner", Kind: KindStruct, StructRef: inner}},
	}
	if _, err := Analyze(outer); err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if !outer.HasCompact() {
		t.Errorf("HasCompact: got false, want true (propagated from nested struct)")
	}
}

func TestAnalyzeIsMemoized(t *testing.T) {
	st := &StructShape{
		Naked:  true,
		Fields: []Field{{Name: "a", Kind: KindPrimitive, Primitive: "uint8"}},
	}
	first, err := Analyze(st)
	if err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	// Mutate Fields after first Analyze; a second call must return the
	// cached result rather than recomputing from the (now different) Fields.
	st.Fields = append(st.Fields, Field{Name: "b", Kind: KindPrimitive, Primitive: "uint8"})
	second, err := Analyze(st)
	if err != nil {
		t.Fatalf("Analyze: unexpected error: %s", err)
	}
	if first.PackedSize() != second.PackedSize() || second.PackedSize() != 1 {
		t.Errorf("Analyze: second call recomputed instead of returning cached result: %d", second.PackedSize())
	}
}

func TestAnalyzeUnknownPrimitiveErrors(t *testing.T) {
	st := &StructShape{Fields: []Field{{Name: "a", Kind: KindPrimitive, Primitive: "nope"}}}
	if _, err := Analyze(st); err == nil {
		t.Fatalf("Analyze: expected error for unknown primitive type")
	}
}
