// Package sizer implements the size & shape analysis of spec §4.E: the
// packed byte size of a struct, the per-element size and offset within it,
// and the two derived shape flags (simple, has_compact) that schema
// exposes on its struct descriptors.
//
// Like package hasher, sizer walks its own lightweight struct shape rather
// than schema's descriptor type, so that schema (which assembles
// descriptors using both hasher and sizer) doesn't create an import cycle.
package sizer

import "github.com/bearlytools/cbuf/internal/cerr"

// headerSize is the descriptor-level element-offset base for a non-naked
// struct ("element offsets within a non-naked struct begin at 16"). It is
// distinct from internal/frame.HeaderSize (24): this package reports where
// a struct's own fields sit relative to its body, not the physical
// on-wire framing prefix a top-level or nested non-naked record carries.
const headerSize = 16

// Kind identifies how a Field's size is computed.
type Kind int

const (
	KindPrimitive Kind = iota
	KindEnum               // wire size always 4 (int32), regardless of declared range
	KindShortString         // fixed 16 bytes
	KindString              // dynamic: 4-byte length prefix + content
	KindStruct              // nested struct, sized via StructRef
)

// primitiveSizes gives the fixed wire width of every canonical primitive
// name except "string"/"short_string", which have their own Kinds.
var primitiveSizes = map[string]int{
	"uint8": 1, "int8": 1, "bool": 1,
	"uint16": 2, "int16": 2,
	"uint32": 4, "int32": 4, "float32": 4,
	"uint64": 8, "int64": 8, "float64": 8,
}

// Field is one struct element as seen by the sizer, after symbol
// resolution: type references are already struct pointers, enum values
// are already collapsed to KindEnum.
type Field struct {
	Name string
	Kind Kind

	Primitive string // set when Kind == KindPrimitive

	StructRef *StructShape // set when Kind == KindStruct

	IsArray         bool
	Dynamic         bool   // `[]`, no declared bound
	Compact         bool   // @compact, wire count-prefixed up to ArrayBound
	FixedLength     uint32 // declared N for a plain `[N]` array
	ArrayBound      uint32 // declared N for a `[N] @compact` array
}

// StructShape is the minimal struct shape the sizer analyzes.
type StructShape struct {
	Name   string
	Naked  bool
	Fields []Field

	computed     bool
	simple       bool
	hasCompact   bool
	packedSize   int
	elementSizes []ElementSize
}

// ElementSize is the computed size and offset of one field.
type ElementSize struct {
	Name   string
	Offset int
	// Size is the field's static wire contribution: exact when the field
	// (and everything nested within it) is fixed-width, otherwise the
	// minimum possible contribution (e.g. 4 bytes for an empty string or
	// empty dynamic array) — see Analyze's doc comment.
	Size int
}

// Analyze computes st's packed size, per-element sizes/offsets, and its
// simple/has_compact flags, caching the result on st. Nested StructShapes
// reached via a KindStruct field must already have been analyzed (or are
// analyzed recursively here) before st's own size can be finalized.
//
// PackedSize is exact when Simple(st) is true and HasCompact(st) is false:
// every field then has a statically known wire width. For a struct
// containing strings, dynamic arrays, compact arrays, or non-simple nested
// structs, PackedSize reports the minimum
// possible size (empty strings/arrays) rather than a meaningless instance
// size — callers needing the actual size of a populated message use
// codec.SerializedMessageSize instead.
func Analyze(st *StructShape) (*StructShape, error) {
	if st.computed {
		return st, nil
	}

	simple := true
	hasCompact := false
	sizes := make([]ElementSize, 0, len(st.Fields))
	offset := 0
	if !st.Naked {
		offset = headerSize
	}

	for _, f := range st.Fields {
		size, fieldSimple, err := fieldSize(f)
		if err != nil {
			return nil, err
		}
		if !fieldSimple {
			simple = false
		}
		if f.IsArray && f.Compact {
			hasCompact = true
		}
		if f.Kind == KindStruct && f.StructRef != nil {
			if _, err := Analyze(f.StructRef); err != nil {
				return nil, err
			}
			if f.StructRef.hasCompact {
				hasCompact = true
			}
		}
		sizes = append(sizes, ElementSize{Name: f.Name, Offset: offset, Size: size})
		offset += size
	}

	st.simple = simple
	st.hasCompact = hasCompact
	st.packedSize = offset
	st.elementSizes = sizes
	st.computed = true
	return st, nil
}

// fieldSize returns a field's static size contribution and whether the
// field is simple (no string, dynamic array or non-simple struct in it). A
// compact array of simple elements is simple, although its contribution
// is only the 4-byte count prefix, its minimum size.
func fieldSize(f Field) (size int, simple bool, err error) {
	elemSize, elemSimple, err := scalarSize(f)
	if err != nil {
		return 0, false, err
	}

	if !f.IsArray {
		return elemSize, elemSimple, nil
	}

	switch {
	case f.Dynamic:
		return 4, false, nil
	case f.Compact:
		// Upper-bounded but still wire-variable: the count prefix plus the
		// bound's worth of elements is the maximum, not a fixed size. Unlike
		// a dynamic array or a string, a compact array's boundedness doesn't
		// disqualify simple on its own (compute_simple in the original only
		// checks TYPE_STRING and is_dynamic_array), so fieldSimple here
		// tracks the element type's own simplicity rather than being forced
		// false.
		return 4, elemSimple, nil
	default:
		// Plain fixed-length array: exactly FixedLength elements, no count
		// prefix, no padding.
		return int(f.FixedLength) * elemSize, elemSimple, nil
	}
}

func scalarSize(f Field) (size int, simple bool, err error) {
	switch f.Kind {
	case KindPrimitive:
		sz, ok := primitiveSizes[f.Primitive]
		if !ok {
			return 0, false, cerr.New(cerr.SizeError, "unknown primitive type %q for field %q", f.Primitive, f.Name)
		}
		return sz, true, nil
	case KindEnum:
		return 4, true, nil
	case KindShortString:
		return 16, true, nil
	case KindString:
		return 4, false, nil
	case KindStruct:
		if f.StructRef == nil {
			return 0, false, cerr.New(cerr.SizeError, "field %q has no resolved struct reference", f.Name)
		}
		if _, err := Analyze(f.StructRef); err != nil {
			return 0, false, err
		}
		return f.StructRef.packedSize, f.StructRef.simple, nil
	default:
		return 0, false, cerr.New(cerr.SizeError, "unknown field kind for %q", f.Name)
	}
}

// PackedSize returns st's analyzed packed byte size. Analyze must have
// already been called (schema.Build does this while constructing the
// descriptor table).
func (st *StructShape) PackedSize() int { return st.packedSize }

// Simple reports whether st, directly or transitively, contains no string,
// no dynamic array and no non-simple nested struct (spec §4.E). A compact
// array does not make st non-simple.
func (st *StructShape) Simple() bool { return st.simple }

// HasCompact reports whether st contains, directly or transitively, a
// compact array field (spec §4.E).
func (st *StructShape) HasCompact() bool { return st.hasCompact }

// Elements returns the per-field sizes and offsets computed by Analyze.
func (st *StructShape) Elements() []ElementSize { return st.elementSizes }
