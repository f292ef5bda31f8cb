// Package eval folds the constant expressions the parser builds for
// default values and array sizes (spec §4.B): integer/float arithmetic
// with +, -, *, / and unary -, parentheses (implicit in the AST's shape),
// integer and float literals, and references to previously declared const
// identifiers.
package eval

import (
	"github.com/bearlytools/cbuf/internal/ast"
	"github.com/bearlytools/cbuf/internal/cerr"
)

// Value is a folded constant: either an integer or a float. Mixed
// integer/float arithmetic promotes the whole expression to float, per
// spec §4.B.
type Value struct {
	Float bool
	I     int64
	F     float64
}

// Int wraps an integer constant.
func Int(v int64) Value { return Value{I: v} }

// FloatVal wraps a float constant.
func FloatVal(v float64) Value { return Value{Float: true, F: v} }

// AsFloat returns the value widened to float64.
func (v Value) AsFloat() float64 {
	if v.Float {
		return v.F
	}
	return float64(v.I)
}

// Lookup resolves a previously declared const identifier to its folded
// value. ok is false if name is not a known const in scope.
type Lookup func(name string) (Value, bool)

// Eval folds e to a constant Value, resolving Ident references via lookup.
func Eval(e ast.Expr, lookup Lookup) (Value, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return Int(n.Val), nil
	case *ast.FloatLit:
		return FloatVal(n.Val), nil
	case *ast.Ident:
		v, ok := lookup(n.Name)
		if !ok {
			return Value{}, cerr.At(cerr.EvalError, n.Pos.Line, n.Pos.Column,
				"reference to undeclared const %q", n.Name)
		}
		return v, nil
	case *ast.Unary:
		x, err := Eval(n.X, lookup)
		if err != nil {
			return Value{}, err
		}
		if x.Float {
			return FloatVal(-x.F), nil
		}
		return Int(-x.I), nil
	case *ast.Binary:
		x, err := Eval(n.X, lookup)
		if err != nil {
			return Value{}, err
		}
		y, err := Eval(n.Y, lookup)
		if err != nil {
			return Value{}, err
		}
		return evalBinary(n, x, y)
	default:
		return Value{}, cerr.New(cerr.EvalError, "unsupported expression node %T", e)
	}
}

func evalBinary(n *ast.Binary, x, y Value) (Value, error) {
	if x.Float || y.Float {
		xf, yf := x.AsFloat(), y.AsFloat()
		switch n.Op {
		case ast.Add:
			return FloatVal(xf + yf), nil
		case ast.Sub:
			return FloatVal(xf - yf), nil
		case ast.Mul:
			return FloatVal(xf * yf), nil
		case ast.Div:
			if yf == 0 {
				return Value{}, cerr.At(cerr.EvalError, n.Pos.Line, n.Pos.Column, "division by zero")
			}
			return FloatVal(xf / yf), nil
		}
	}

	switch n.Op {
	case ast.Add:
		return Int(x.I + y.I), nil
	case ast.Sub:
		return Int(x.I - y.I), nil
	case ast.Mul:
		return Int(x.I * y.I), nil
	case ast.Div:
		if y.I == 0 {
			return Value{}, cerr.At(cerr.EvalError, n.Pos.Line, n.Pos.Column, "division by zero")
		}
		// Integer division truncates toward zero, matching Go's / operator
		// for integers (spec §4.B).
		return Int(x.I / y.I), nil
	}
	return Value{}, cerr.New(cerr.EvalError, "unknown operator %q", n.Op)
}

// IntRange describes the representable range of an integer field type,
// used to range-check a folded default value per spec §4.B.
type IntRange struct {
	Min, Max int64
	Unsigned bool
	Bits     int
}

// Ranges holds the range for every cbuf integer wire type, keyed by its
// canonical emitted name (see token.PrimitiveNames).
var Ranges = map[string]IntRange{
	"uint8":  {Min: 0, Max: 1<<8 - 1, Unsigned: true, Bits: 8},
	"uint16": {Min: 0, Max: 1<<16 - 1, Unsigned: true, Bits: 16},
	"uint32": {Min: 0, Max: 1<<32 - 1, Unsigned: true, Bits: 32},
	"uint64": {Min: 0, Max: 0, Unsigned: true, Bits: 64}, // Max unrepresentable in int64; checked specially
	"int8":   {Min: -1 << 7, Max: 1<<7 - 1, Bits: 8},
	"int16":  {Min: -1 << 15, Max: 1<<15 - 1, Bits: 16},
	"int32":  {Min: -1 << 31, Max: 1<<31 - 1, Bits: 32},
	"int64":  {Min: 0, Max: 0, Bits: 64}, // unrestricted within int64
}

// CheckRange range-checks v against the named integer type, per spec §4.B:
// "values outside the field's range fail with a typed diagnostic."
func CheckRange(typeName string, v int64, pos ast.Position) error {
	r, ok := Ranges[typeName]
	switch typeName {
	case "uint64":
		if v < 0 {
			return cerr.At(cerr.EvalError, pos.Line, pos.Column,
				"value %d out of range for uint64", v)
		}
		return nil
	case "int64":
		return nil
	}
	if !ok {
		return nil
	}
	if v < r.Min || v > r.Max {
		return cerr.At(cerr.EvalError, pos.Line, pos.Column,
			"value %d out of range for %s (must be in [%d, %d])", v, typeName, r.Min, r.Max)
	}
	return nil
}
