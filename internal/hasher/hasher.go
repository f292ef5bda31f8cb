// Package hasher computes the stable per-struct hash described in spec
// §4.F, ported directly from the original implementation's ComputeHash
// (original_source/src/SchemaParser.cpp): a DJB2-style 64-bit hash folded
// over a canonical textual rendering of the struct, one line per element,
// so that comments, whitespace, default values and the declaration order
// of independent structs never change an unrelated struct's hash.
package hasher

import (
	"fmt"
	"strings"

	"github.com/bearlytools/cbuf/internal/cerr"
)

// elementTypeToStrC mirrors the original's ElementTypeToStrC table: the
// canonical C-style spelling emitted for each primitive wire type. Order
// matches TYPE_U8..TYPE_BOOL in the original enum; string and short_string
// get distinct entries (std::string vs VString<15>) even though both map
// to schema type "string".
var elementTypeToStrC = map[string]string{
	"uint8":  "uint8_t",
	"uint16": "uint16_t",
	"uint32": "uint32_t",
	"uint64": "uint64_t",
	"int8":   "int8_t",
	"int16":  "int16_t",
	"int32":  "int32_t",
	"int64":  "int64_t",
	"float32": "float",
	"float64": "double",
	"bool":   "bool",
}

// Field is the minimal view of a struct element the hasher needs: its
// declared array size (N for a fixed or compact array, 0 for a dynamic
// array or a non-array field), its canonical type token,
// and its field name. Callers (the schema builder) assemble this after
// size analysis so array sizes are already folded to integers.
type Field struct {
	// ArraySize is the fixed/compact array length; 0 for a dynamic `[]`
	// field, which has no declared length. HasArray controls whether a
	// "[N] " prefix is printed at all — the original prints it whenever
	// the element has any array suffix, dynamic included, with N=0 for
	// the dynamic case.
	ArraySize uint64
	HasArray  bool

	// Exactly one of the following describes the element's type.
	Primitive string // canonical primitive name (e.g. "uint32", "string", "short_string")
	EnumName  string // set when the element refers to an enum
	StructRef *StructInput // set when the element refers to another struct

	Name string
}

// StructInput is the minimal struct shape the hasher walks. Namespace is
// "" for the global namespace.
type StructInput struct {
	Namespace string
	Name      string
	Fields    []Field

	hash    uint64
	visited bool // cycle guard during Compute
	done    bool
}

// Compute computes st's hash, recursively hashing any struct-typed field
// first (depth-first, matching the original), and caches the result on
// st.hash. Calling Compute again on an already-computed struct is a no-op.
// A cycle among struct references is reported as a SizeError, matching
// spec §4.E's "cyclic type graphs ... diagnosed at hash time".
func Compute(st *StructInput) (uint64, error) {
	if st.done {
		return st.hash, nil
	}
	if st.visited {
		return 0, cerr.New(cerr.SizeError, "cyclic struct reference involving %s", qualifiedName(st))
	}
	st.visited = true

	var buf strings.Builder
	buf.WriteString("struct ")
	if st.Namespace != "" {
		fmt.Fprintf(&buf, "%s::", st.Namespace)
	}
	fmt.Fprintf(&buf, "%s \n", st.Name)

	for _, f := range st.Fields {
		if f.HasArray {
			fmt.Fprintf(&buf, "[%d] ", f.ArraySize)
		}
		switch {
		case f.StructRef != nil:
			innerHash, err := Compute(f.StructRef)
			if err != nil {
				return 0, err
			}
			fmt.Fprintf(&buf, "%X %s;\n", innerHash, f.Name)
		case f.EnumName != "":
			fmt.Fprintf(&buf, "%s %s;\n", f.EnumName, f.Name)
		default:
			tok, ok := typeToken(f.Primitive)
			if !ok {
				return 0, cerr.New(cerr.SizeError, "unknown primitive type %q on field %q", f.Primitive, f.Name)
			}
			fmt.Fprintf(&buf, "%s %s; \n", tok, f.Name)
		}
	}

	st.hash = djb2(buf.String())
	st.visited = false
	st.done = true
	return st.hash, nil
}

func typeToken(primitive string) (string, bool) {
	switch primitive {
	case "string":
		return "std::string", true
	case "short_string":
		return "VString<15>", true
	}
	tok, ok := elementTypeToStrC[primitive]
	return tok, ok
}

func qualifiedName(st *StructInput) string {
	if st.Namespace == "" {
		return st.Name
	}
	return st.Namespace + "::" + st.Name
}

// djb2 is the original's hash(): h = 5381; h = h*33 + b for every byte,
// with the multiply expressed as (h<<5)+h, all arithmetic wrapping.
func djb2(s string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) + uint64(s[i])
	}
	return h
}
