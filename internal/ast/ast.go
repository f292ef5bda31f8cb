// Package ast defines the abstract syntax tree produced by the parser: the
// typed shape of a cbuf schema after lexing and grammar analysis, before
// symbol resolution, sizing, or hashing.
package ast

// Position is a source location, 1-based for both line and column.
type Position struct {
	Line, Column int
}

// Expr is a constant expression node, as folded by package eval.
type Expr interface {
	exprNode()
}

// IntLit is an integer literal.
type IntLit struct {
	Val int64
	Pos Position
}

// FloatLit is a floating point literal.
type FloatLit struct {
	Val float64
	Pos Position
}

// Ident is a reference to a previously declared const identifier.
type Ident struct {
	Name string
	Pos  Position
}

// Unary is a unary-minus expression.
type Unary struct {
	X   Expr
	Pos Position
}

// BinOp identifies a binary arithmetic operator.
type BinOp byte

const (
	Add BinOp = '+'
	Sub BinOp = '-'
	Mul BinOp = '*'
	Div BinOp = '/'
)

// Binary is a binary arithmetic expression.
type Binary struct {
	Op   BinOp
	X, Y Expr
	Pos  Position
}

func (*IntLit) exprNode()  {}
func (*FloatLit) exprNode() {}
func (*Ident) exprNode()   {}
func (*Unary) exprNode()   {}
func (*Binary) exprNode()  {}

// ArraySuffix is the `[EXPR]` or `[]` suffix on an element declaration.
// Size is nil for a dynamic (`[]`) array.
type ArraySuffix struct {
	Size Expr
	Pos  Position
}

// TypeRef is the type token on an element: either a primitive spelling
// (see token.PrimitiveNames) or a (possibly namespace-qualified) custom
// type name.
type TypeRef struct {
	// Namespace is set when the source wrote `ns::Name`; empty otherwise.
	Namespace string
	// Name is the primitive spelling or the bare custom type name.
	Name string
	Pos  Position
}

// IsQualified reports whether the reference used the `ns::Name` form.
func (t TypeRef) IsQualified() bool { return t.Namespace != "" }

// Element is one field declaration inside a struct.
type Element struct {
	Name string
	Type TypeRef

	Array   *ArraySuffix // nil if not an array
	Compact bool         // @compact annotation present

	Default Expr // nil if no default value was given

	Pos Position // position of the element's name token
}

// StructDef is a parsed `struct NAME [@naked] { ... }` definition.
type StructDef struct {
	Name     string
	Naked    bool
	Elements []*Element
	Pos      Position // position of the NAME token
}

// EnumValue is one `IDENT [= EXPR]` entry inside an enum body.
type EnumValue struct {
	Name     string
	Value    int64 // auto-incremented value, or the literal fold of ValueExpr
	Explicit bool
	ValueExpr Expr // set when Explicit; the unevaluated `= EXPR` expression
	Pos      Position
}

// EnumDef is a parsed `enum NAME { ... }` definition.
type EnumDef struct {
	Name   string
	Values []*EnumValue
	Pos    Position
}

// ConstDef is a parsed `const TYPE NAME = EXPR;` declaration.
type ConstDef struct {
	Name string
	Type TypeRef
	Expr Expr
	Pos  Position
}

// Namespace collects every struct, enum and const declared within it
// (directly at the top level for the global namespace, or inside a
// `namespace NAME { ... }` block otherwise).
type Namespace struct {
	// Name is "" for the global namespace.
	Name    string
	Structs []*StructDef
	Enums   []*EnumDef
	Consts  []*ConstDef
}

// File is a fully parsed schema: the global namespace plus every named
// namespace, in source order.
type File struct {
	Global     *Namespace
	Namespaces []*Namespace
}

// AllNamespaces returns the global namespace followed by every named
// namespace, in the insertion order required by spec §3: "global-namespace
// structs first, then named namespaces in source order."
func (f *File) AllNamespaces() []*Namespace {
	out := make([]*Namespace, 0, len(f.Namespaces)+1)
	out = append(out, f.Global)
	out = append(out, f.Namespaces...)
	return out
}
