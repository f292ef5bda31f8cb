// Package token defines the vocabulary shared between the lexer and the
// parser: the kinds of lexeme a cbuf schema can be broken into, and the
// Token type that carries a lexeme's decoded value and source position.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident  // identifier or keyword, disambiguated by the parser
	Int    // integer literal, decimal or 0x-prefixed hex
	Float  // floating point literal
	String // quoted string literal, escapes already resolved

	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	LParen   // (
	RParen   // )
	Semi     // ;
	Comma    // ,
	Assign   // =
	Star     // *
	Plus     // +
	Minus    // -
	Slash    // /
	ColonColon // ::
	At       // @
)

var names = map[Kind]string{
	Invalid:    "invalid",
	EOF:        "EOF",
	Ident:      "identifier",
	Int:        "integer",
	Float:      "float",
	String:     "string",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	LParen:     "(",
	RParen:     ")",
	Semi:       ";",
	Comma:      ",",
	Assign:     "=",
	Star:       "*",
	Plus:       "+",
	Minus:      "-",
	Slash:      "/",
	ColonColon: "::",
	At:         "@",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Token is a single lexeme with its decoded value and source position.
type Token struct {
	Kind Kind
	Text string // raw source text of the lexeme

	IntVal   int64
	FloatVal float64
	StrVal   string // decoded value for String, raw identifier text for Ident

	Line, Column int
}

func (t Token) String() string {
	if t.Text != "" {
		return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Text, t.Line, t.Column)
	}
	return fmt.Sprintf("%s@%d:%d", t.Kind, t.Line, t.Column)
}

// Keywords that are reserved words rather than ordinary identifiers.
var Keywords = map[string]bool{
	"struct":    true,
	"enum":      true,
	"namespace": true,
	"const":     true,
	"true":      true,
	"false":     true,
}

// PrimitiveNames maps every spelling of a primitive type (both the short
// cbuf spelling and the C-style alias) to the canonical emitted name used
// in descriptors, per spec §3.
var PrimitiveNames = map[string]string{
	"u8": "uint8", "uint8_t": "uint8",
	"u16": "uint16", "uint16_t": "uint16",
	"u32": "uint32", "uint32_t": "uint32",
	"u64": "uint64", "uint64_t": "uint64",
	"s8": "int8", "int8_t": "int8",
	"s16": "int16", "int16_t": "int16",
	"s32": "int32", "int32_t": "int32",
	"s64": "int64", "int64_t": "int64",
	"f32": "float32", "float": "float32",
	"f64": "float64", "double": "float64",
	"bool":         "bool",
	"string":       "string",
	"short_string": "string",
}

// IsPrimitive reports whether name spells one of the built-in primitive
// types (including the short_string alias, which has its own distinct
// handling beyond the canonical "string" name).
func IsPrimitive(name string) bool {
	_, ok := PrimitiveNames[name]
	return ok
}
