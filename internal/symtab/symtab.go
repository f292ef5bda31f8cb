// Package symtab resolves custom type references to their declaring
// struct or enum, implementing the two lookup modes from spec §4.D:
// a qualified `ns::Name` reference looks up directly in ns, while a bare
// `Name` reference looks up in the enclosing struct's namespace first,
// falling back to the global namespace. Enums and structs share a single
// name domain within a namespace, so a reference resolves to at most one
// declaration.
package symtab

import (
	"github.com/bearlytools/cbuf/internal/ast"
	"github.com/bearlytools/cbuf/internal/cerr"
)

// GlobalNamespace is the name used for the implicit top-level namespace.
const GlobalNamespace = ""

// Symbol is a resolved struct or enum declaration.
type Symbol struct {
	Namespace string
	Struct    *ast.StructDef // nil if Enum is set
	Enum      *ast.EnumDef   // nil if Struct is set
}

// QualifiedName returns the symbol's namespace-qualified name.
func (s Symbol) QualifiedName() string {
	if s.Namespace == GlobalNamespace {
		return s.Name()
	}
	return s.Namespace + "::" + s.Name()
}

// Name returns the symbol's bare name.
func (s Symbol) Name() string {
	if s.Struct != nil {
		return s.Struct.Name
	}
	return s.Enum.Name
}

// IsEnum reports whether the symbol names an enum rather than a struct.
func (s Symbol) IsEnum() bool { return s.Enum != nil }

// Table indexes every struct and enum declared across a parsed file by
// namespace, and resolves TypeRefs against that index.
type Table struct {
	// byNamespace[ns][name] -> Symbol
	byNamespace map[string]map[string]Symbol

	// constsByNamespace[ns][name] -> ConstDef, used by eval's Lookup.
	constsByNamespace map[string]map[string]*ast.ConstDef
}

// Build indexes every namespace in f. It fails with a ResolveError if a
// struct and enum collide on the same name within a namespace (the parser
// already rejects such collisions, and duplicates within one kind, in any
// file it parses; Build repeats the struct/enum check for the File it is
// given).
func Build(f *ast.File) (*Table, error) {
	t := &Table{
		byNamespace:       map[string]map[string]Symbol{},
		constsByNamespace: map[string]map[string]*ast.ConstDef{},
	}
	for _, ns := range f.AllNamespaces() {
		names := map[string]Symbol{}
		consts := map[string]*ast.ConstDef{}
		for _, sd := range ns.Structs {
			names[sd.Name] = Symbol{Namespace: ns.Name, Struct: sd}
		}
		for _, ed := range ns.Enums {
			if _, dup := names[ed.Name]; dup {
				return nil, cerr.At(cerr.ResolveError, ed.Pos.Line, ed.Pos.Column,
					"%q is declared as both a struct and an enum in namespace %q", ed.Name, ns.Name)
			}
			names[ed.Name] = Symbol{Namespace: ns.Name, Enum: ed}
		}
		for _, cd := range ns.Consts {
			consts[cd.Name] = cd
		}
		t.byNamespace[ns.Name] = names
		t.constsByNamespace[ns.Name] = consts
	}
	return t, nil
}

// Resolve looks up a TypeRef seen while processing a struct declared in
// enclosingNamespace, per the two modes of spec §4.D.
func (t *Table) Resolve(ref ast.TypeRef, enclosingNamespace string) (Symbol, error) {
	if ref.IsQualified() {
		ns, ok := t.byNamespace[ref.Namespace]
		if !ok {
			return Symbol{}, cerr.At(cerr.ResolveError, ref.Pos.Line, ref.Pos.Column,
				"unknown namespace %q", ref.Namespace)
		}
		sym, ok := ns[ref.Name]
		if !ok {
			return Symbol{}, cerr.At(cerr.ResolveError, ref.Pos.Line, ref.Pos.Column,
				"unknown type %q in namespace %q", ref.Name, ref.Namespace)
		}
		return sym, nil
	}

	if ns, ok := t.byNamespace[enclosingNamespace]; ok {
		if sym, ok := ns[ref.Name]; ok {
			return sym, nil
		}
	}
	if enclosingNamespace != GlobalNamespace {
		if sym, ok := t.byNamespace[GlobalNamespace][ref.Name]; ok {
			return sym, nil
		}
	}
	return Symbol{}, cerr.At(cerr.ResolveError, ref.Pos.Line, ref.Pos.Column,
		"unknown type %q", ref.Name)
}

// LookupConst resolves a bare const identifier seen while evaluating an
// expression in enclosingNamespace: that namespace is checked first, then
// the global namespace, matching the unqualified TypeRef resolution rule.
// The schema builder wraps this in an eval.Lookup that also folds the
// returned ConstDef's own expression (consts may reference earlier consts).
func (t *Table) LookupConst(enclosingNamespace, name string) (*ast.ConstDef, bool) {
	if cd, ok := t.constsByNamespace[enclosingNamespace][name]; ok {
		return cd, true
	}
	if enclosingNamespace != GlobalNamespace {
		if cd, ok := t.constsByNamespace[GlobalNamespace][name]; ok {
			return cd, true
		}
	}
	return nil, false
}
