package schema

import (
	"github.com/bearlytools/cbuf/internal/ast"
	"github.com/bearlytools/cbuf/internal/cerr"
	"github.com/bearlytools/cbuf/internal/eval"
	"github.com/bearlytools/cbuf/internal/hasher"
	"github.com/bearlytools/cbuf/internal/parser"
	"github.com/bearlytools/cbuf/internal/sizer"
	"github.com/bearlytools/cbuf/internal/symtab"
	"github.com/bearlytools/cbuf/internal/token"
)

// ParseCBufSchema parses and fully analyzes cbuf schema text (spec §6):
// lexing, parsing, symbol resolution, size/shape analysis and hashing all
// happen here, producing a Map ready for SchemaMapToHashMap and the codec.
//
// The specification's external contract collapses every front-end failure
// into a single error string; the idiomatic Go shape for that is simply a
// non-nil error, whose Error() text is that string.
func ParseCBufSchema(text string) (*Map, error) {
	file, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	table, err := symtab.Build(file)
	if err != nil {
		return nil, err
	}

	b := &builder{
		file:           file,
		table:          table,
		schema:         newMap(),
		astOf:          map[string]*structInfo{},
		descOf:         map[string]*StructDescriptor{},
		hashOf:         map[string]*hasher.StructInput{},
		sizeOf:         map[string]*sizer.StructShape{},
		resolved:       map[string]bool{},
		resolving:      map[string]bool{},
		constNS:        map[*ast.ConstDef]string{},
		constVal:       map[*ast.ConstDef]eval.Value{},
		constResolving: map[*ast.ConstDef]bool{},
	}

	for _, ns := range file.AllNamespaces() {
		for _, cd := range ns.Consts {
			b.constNS[cd] = ns.Name
		}
		for _, sd := range ns.Structs {
			qname := qualify(ns.Name, sd.Name)
			b.astOf[qname] = &structInfo{def: sd, ns: ns.Name}
			desc := &StructDescriptor{Name: qname, Naked: sd.Naked, Line: sd.Pos.Line, Column: sd.Pos.Column}
			b.descOf[qname] = desc
			b.hashOf[qname] = &hasher.StructInput{Namespace: ns.Name, Name: sd.Name}
			b.sizeOf[qname] = &sizer.StructShape{Name: sd.Name, Naked: sd.Naked}
			b.schema.set(qname, desc)
		}
		for _, ed := range ns.Enums {
			b.schema.setEnum(qualify(ns.Name, ed.Name), &EnumDescriptor{Name: qualify(ns.Name, ed.Name)})
		}
	}

	if err := b.foldEnums(); err != nil {
		return nil, err
	}
	for _, ns := range file.AllNamespaces() {
		for _, ed := range ns.Enums {
			qname := qualify(ns.Name, ed.Name)
			out, _ := b.schema.GetEnum(qname)
			for _, ev := range ed.Values {
				out.Values = append(out.Values, EnumValue{Name: ev.Name, Value: ev.Value})
			}
		}
	}

	for _, qname := range b.schema.Names() {
		if err := b.resolveStruct(qname); err != nil {
			return nil, err
		}
	}

	for _, qname := range b.schema.Names() {
		hv, err := hasher.Compute(b.hashOf[qname])
		if err != nil {
			return nil, err
		}
		ss := b.sizeOf[qname]
		if _, err := sizer.Analyze(ss); err != nil {
			return nil, err
		}
		desc := b.descOf[qname]
		desc.HashValue = hv
		desc.shape = ss
		for i, es := range ss.Elements() {
			desc.Elements[i].Offset = es.Offset
			desc.Elements[i].Size = es.Size
		}
	}

	return b.schema, nil
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "::" + name
}

type structInfo struct {
	def *ast.StructDef
	ns  string
}

type builder struct {
	file  *ast.File
	table *symtab.Table

	schema *Map

	astOf  map[string]*structInfo
	descOf map[string]*StructDescriptor
	hashOf map[string]*hasher.StructInput
	sizeOf map[string]*sizer.StructShape

	resolved  map[string]bool
	resolving map[string]bool

	constNS        map[*ast.ConstDef]string
	constVal       map[*ast.ConstDef]eval.Value
	constResolving map[*ast.ConstDef]bool

	lookupErr error
}

// foldEnums resolves every enum value's concrete int32, overriding the
// parser's best-effort literal fold so that an explicit value given as a
// general constant expression (not just a bare integer literal) still
// anchors the auto-increment of the following members correctly (spec
// §4.C: "auto-increments from previous explicit value").
func (b *builder) foldEnums() error {
	for _, ns := range b.file.AllNamespaces() {
		for _, ed := range ns.Enums {
			next := int64(0)
			for _, ev := range ed.Values {
				if ev.Explicit {
					v, err := b.evalConst(ev.ValueExpr, ns.Name)
					if err != nil {
						return err
					}
					if v.Float {
						return cerr.At(cerr.EvalError, ev.Pos.Line, ev.Pos.Column,
							"enum value %q must be an integer", ev.Name)
					}
					ev.Value = v.I
				} else {
					ev.Value = next
				}
				next = ev.Value + 1
			}
		}
	}
	return nil
}

func (b *builder) resolveStruct(qname string) error {
	if b.resolved[qname] {
		return nil
	}
	if b.resolving[qname] {
		return cerr.New(cerr.SizeError, "cyclic struct reference involving %q", qname)
	}
	b.resolving[qname] = true
	defer delete(b.resolving, qname)

	info := b.astOf[qname]
	desc := b.descOf[qname]
	hi := b.hashOf[qname]
	ss := b.sizeOf[qname]

	for _, el := range info.def.Elements {
		elem, hf, sf, err := b.resolveElement(el, info.ns)
		if err != nil {
			return err
		}
		desc.Elements = append(desc.Elements, elem)
		hi.Fields = append(hi.Fields, hf)
		ss.Fields = append(ss.Fields, sf)
	}

	b.resolved[qname] = true
	return nil
}

func (b *builder) resolveElement(el *ast.Element, ns string) (Element, hasher.Field, sizer.Field, error) {
	out := Element{Name: el.Name}
	hf := hasher.Field{Name: el.Name}
	sf := sizer.Field{Name: el.Name}

	isArray := el.Array != nil
	out.IsArray = isArray
	sf.IsArray = isArray
	hf.HasArray = isArray

	if isArray {
		if el.Array.Size == nil {
			sf.Dynamic = true
			out.ArrayKindOf = ArrayDynamic
		} else {
			v, err := b.evalConst(el.Array.Size, ns)
			if err != nil {
				return Element{}, hasher.Field{}, sizer.Field{}, err
			}
			if v.Float || v.I < 0 {
				return Element{}, hasher.Field{}, sizer.Field{}, cerr.At(cerr.EvalError,
					el.Array.Pos.Line, el.Array.Pos.Column, "array size for %q must be a non-negative integer", el.Name)
			}
			arrLen := uint32(v.I)
			hf.ArraySize = uint64(arrLen)
			if el.Compact {
				out.ArrayUpperBound = arrLen
				out.ArrayKindOf = ArrayCompact
				sf.Compact = true
				sf.ArrayBound = arrLen
			} else {
				out.ArrayLength = arrLen
				out.ArrayKindOf = ArrayFixed
				sf.FixedLength = arrLen
			}
		}
	}

	rawName := el.Type.Name
	switch {
	case !el.Type.IsQualified() && rawName == "short_string":
		out.Type = "string"
		out.UpperBound = 16
		hf.Primitive = "short_string"
		sf.Kind = sizer.KindShortString
	case !el.Type.IsQualified() && token.IsPrimitive(rawName):
		canon := token.PrimitiveNames[rawName]
		out.Type = canon
		hf.Primitive = canon
		if canon == "string" {
			sf.Kind = sizer.KindString
		} else {
			sf.Kind = sizer.KindPrimitive
			sf.Primitive = canon
		}
	default:
		sym, err := b.table.Resolve(el.Type, ns)
		if err != nil {
			return Element{}, hasher.Field{}, sizer.Field{}, err
		}
		if sym.IsEnum() {
			out.Type = "int32"
			out.enumName = sym.Enum.Name
			hf.EnumName = sym.Enum.Name
			sf.Kind = sizer.KindEnum
		} else {
			nestedQName := qualify(sym.Namespace, sym.Struct.Name)
			if err := b.resolveStruct(nestedQName); err != nil {
				return Element{}, hasher.Field{}, sizer.Field{}, err
			}
			out.Type = nestedQName
			out.IsComplex = true
			out.structRef = b.descOf[nestedQName]
			hf.StructRef = b.hashOf[nestedQName]
			sf.Kind = sizer.KindStruct
			sf.StructRef = b.sizeOf[nestedQName]
		}
	}

	if el.Default != nil {
		def, err := b.resolveDefault(el, out, ns)
		if err != nil {
			return Element{}, hasher.Field{}, sizer.Field{}, err
		}
		out.Default = def
	}

	return out, hf, sf, nil
}

func (b *builder) resolveDefault(el *ast.Element, elem Element, ns string) (Default, error) {
	if elem.IsComplex {
		return Default{}, cerr.At(cerr.EvalError, el.Pos.Line, el.Pos.Column,
			"default values for struct-typed field %q are not supported", el.Name)
	}

	if _, ok := el.Default.(parser.ArrayLit); ok {
		if !elem.IsArray {
			return Default{}, cerr.At(cerr.EvalError, el.Pos.Line, el.Pos.Column,
				"array initializer default given for non-array field %q", el.Name)
		}
		// The grammar accepts an initializer list so schemas that declare
		// one aren't rejected, but its elements are not retained: array
		// defaults have no round-trip obligation (spec §9).
		return Default{}, nil
	}

	if sl, ok := el.Default.(parser.StringLit); ok {
		if elem.Type != "string" {
			return Default{}, cerr.At(cerr.EvalError, el.Pos.Line, el.Pos.Column,
				"string default given for non-string field %q", el.Name)
		}
		return Default{Kind: DefaultString, Str: sl.StringValue()}, nil
	}
	if bl, ok := el.Default.(parser.BoolLit); ok {
		if elem.Type != "bool" {
			return Default{}, cerr.At(cerr.EvalError, el.Pos.Line, el.Pos.Column,
				"bool default given for non-bool field %q", el.Name)
		}
		return Default{Kind: DefaultBool, Bool: bl.BoolValue()}, nil
	}

	v, err := b.evalConst(el.Default, ns)
	if err != nil {
		return Default{}, err
	}
	if elem.Type == "float32" || elem.Type == "float64" {
		return Default{Kind: DefaultFloat, Float: v.AsFloat()}, nil
	}
	if v.Float {
		return Default{}, cerr.At(cerr.EvalError, el.Pos.Line, el.Pos.Column,
			"default value for integer field %q is not an integer", el.Name)
	}
	if err := eval.CheckRange(elem.Type, v.I, el.Pos); err != nil {
		return Default{}, err
	}
	return Default{Kind: DefaultInt, Int: v.I}, nil
}

// evalConst folds expr, resolving Ident references to consts in scope
// (ns, falling back to the global namespace). eval.Lookup has no error
// channel, so a failure while resolving a referenced const is stashed in
// b.lookupErr and surfaces once Eval gives up on the lookup.
func (b *builder) evalConst(expr ast.Expr, ns string) (eval.Value, error) {
	b.lookupErr = nil
	lookup := func(name string) (eval.Value, bool) {
		cd, ok := b.table.LookupConst(ns, name)
		if !ok {
			return eval.Value{}, false
		}
		v, err := b.foldConstDef(cd)
		if err != nil {
			b.lookupErr = err
			return eval.Value{}, false
		}
		return v, true
	}
	v, err := eval.Eval(expr, lookup)
	if err != nil {
		if b.lookupErr != nil {
			return eval.Value{}, b.lookupErr
		}
		return eval.Value{}, err
	}
	return v, nil
}

func (b *builder) foldConstDef(cd *ast.ConstDef) (eval.Value, error) {
	if v, ok := b.constVal[cd]; ok {
		return v, nil
	}
	if b.constResolving[cd] {
		return eval.Value{}, cerr.At(cerr.EvalError, cd.Pos.Line, cd.Pos.Column,
			"cyclic const reference involving %q", cd.Name)
	}
	b.constResolving[cd] = true
	defer delete(b.constResolving, cd)

	v, err := b.evalConst(cd.Expr, b.constNS[cd])
	if err != nil {
		return eval.Value{}, err
	}
	b.constVal[cd] = v
	return v, nil
}
