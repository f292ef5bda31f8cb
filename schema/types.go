// Package schema builds and represents the descriptor table a parsed cbuf
// schema produces (spec §3, §6): parseCBufSchema turns schema text into an
// ordered Map of StructDescriptors, keyed by qualified name, and
// SchemaMapToHashMap derives the by-hash index the codec uses to look up a
// descriptor from a wire record's hash field.
package schema

import "github.com/bearlytools/cbuf/internal/sizer"

// DefaultKind identifies which field of Default holds an element's folded
// default value.
type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	DefaultInt
	DefaultFloat
	DefaultBool
	DefaultString
)

// Default is an element's folded default value, per spec §4.G: integers
// fold through the expression evaluator, floats are stored as float64,
// booleans and strings are stored directly. Custom (struct-typed) defaults
// are rejected at build time.
type Default struct {
	Kind DefaultKind
	Int  int64
	Float float64
	Bool bool
	Str  string
}

// ArrayKind distinguishes the three array wire shapes (spec §3). It exists
// because ArrayLength/ArrayUpperBound being zero is ambiguous on its own —
// a fixed array can legitimately declare length 0.
type ArrayKind int

const (
	ArrayNone ArrayKind = iota
	ArrayFixed          // `[N]`: exactly N elements, no count prefix
	ArrayCompact        // `[N] @compact`: uint32 count (<= N) + count elements
	ArrayDynamic        // `[]`: uint32 count + count elements
)

// Element is one field of a struct, in declaration order.
type Element struct {
	Name string

	// Type is the canonical wire type: a primitive name (uint8, string,
	// ...), or the qualified name of a referenced struct, or "int32" for
	// an enum-typed field (enums always serialize as signed 32-bit).
	Type string

	IsArray         bool
	ArrayKindOf     ArrayKind
	ArrayLength     uint32 // fixed `[N]` length; meaningful iff ArrayKindOf == ArrayFixed
	ArrayUpperBound uint32 // `[N] @compact` bound; meaningful iff ArrayKindOf == ArrayCompact
	UpperBound      uint32 // short_string fixed width (16); 0 otherwise

	IsComplex bool // true iff Type names a user struct (not an enum)

	Default Default

	// Offset and Size are this element's byte offset and static wire
	// size within its struct, as computed by internal/sizer. Size is
	// exact only when the owning struct's Simple() is true; see
	// sizer.Analyze's doc comment.
	Offset int
	Size   int

	enumName  string             // non-"" iff this element refers to an enum
	structRef *StructDescriptor // non-nil iff IsComplex
}

// IsEnum reports whether this element's type is an enum. This is a
// supplemented accessor: on the wire and in Type, an enum field looks
// identical to a plain int32 field, so callers that care about the
// distinction (debug printers, code generators) need this rather than
// inspecting Type.
func (e Element) IsEnum() bool { return e.enumName != "" }

// StructRef returns the descriptor of the struct this element refers to,
// or nil if IsComplex is false.
func (e Element) StructRef() *StructDescriptor { return e.structRef }

// StructDescriptor describes one struct's wire shape (spec §3).
type StructDescriptor struct {
	// Name is the qualified name ("ns::Name", or bare "Name" for the
	// global namespace).
	Name string

	HashValue uint64

	// Line and Column locate the struct name token in the source text.
	Line, Column int

	// Naked is true when the struct was declared `@naked`: it carries no
	// framing header, at top level or nested.
	Naked bool

	Elements []Element

	shape *sizer.StructShape
}

// PackedSize returns the struct's packed byte size (spec §4.E): the sum of
// element wire sizes, plus 16 for a non-naked struct's descriptor-level
// header accounting. Exact only when Simple() is true.
func (sd *StructDescriptor) PackedSize() int { return sd.shape.PackedSize() }

// Simple reports whether sd, directly or transitively, contains no string
// and no dynamic array, with every nested struct itself Simple. Compact
// arrays are allowed, so a Simple struct's wire size still varies when
// HasCompact is true.
func (sd *StructDescriptor) Simple() bool { return sd.shape.Simple() }

// HasCompact reports whether sd contains, directly or transitively, a
// compact array field.
func (sd *StructDescriptor) HasCompact() bool { return sd.shape.HasCompact() }

// EnumDescriptor is a supplemented, schema-level view of a parsed enum: it
// is never referenced on the wire (an enum-typed field always serializes
// as a plain int32, per Element.Type), but tools built on this package
// (debug printers, code generators) need it to render symbolic names.
type EnumDescriptor struct {
	Name   string // qualified
	Values []EnumValue
}

// EnumValue is one named member of an enum.
type EnumValue struct {
	Name  string
	Value int64
}

// Map is the ordered, qualified-name-keyed table parseCBufSchema
// produces. Iteration order (via Names) is insertion order: global-
// namespace structs first, then named namespaces in source order (spec
// §3), matching the teacher's languages/go/mapping.Map style of an
// order-preserving map over generated descriptors.
type Map struct {
	order  []string
	byName map[string]*StructDescriptor

	enumOrder  []string
	enumByName map[string]*EnumDescriptor
}

func newMap() *Map {
	return &Map{
		byName:     map[string]*StructDescriptor{},
		enumByName: map[string]*EnumDescriptor{},
	}
}

func (m *Map) set(name string, sd *StructDescriptor) {
	if _, exists := m.byName[name]; !exists {
		m.order = append(m.order, name)
	}
	m.byName[name] = sd
}

func (m *Map) setEnum(name string, ed *EnumDescriptor) {
	if _, exists := m.enumByName[name]; !exists {
		m.enumOrder = append(m.enumOrder, name)
	}
	m.enumByName[name] = ed
}

// Get looks up a struct descriptor by its qualified name.
func (m *Map) Get(name string) (*StructDescriptor, bool) {
	sd, ok := m.byName[name]
	return sd, ok
}

// GetEnum looks up an enum descriptor by its qualified name.
func (m *Map) GetEnum(name string) (*EnumDescriptor, bool) {
	ed, ok := m.enumByName[name]
	return ed, ok
}

// Names returns every qualified struct name in insertion order.
func (m *Map) Names() []string { return m.order }

// EnumNames returns every qualified enum name in insertion order.
func (m *Map) EnumNames() []string { return m.enumOrder }

// Len returns the number of struct descriptors in the map.
func (m *Map) Len() int { return len(m.order) }
