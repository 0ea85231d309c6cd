// Package doxygen reads the JavaScript data files that doxygen emits for its
// HTML output: the navigation tree (navtreedata.js and the files it
// references) and the search index shards (search/all_<n>.js).
package doxygen

import (
	"github.com/fwojciec/docnav"
	"github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"
)

// parseVars parses a data script and returns the initializers of its
// top-level variable declarations by name.
func parseVars(data []byte) (map[string]ast.Expr, error) {
	program, err := parser.ParseFile(string(data))
	if err != nil {
		return nil, docnav.WrapError(docnav.EPARSE, err, "parse data script")
	}

	vars := make(map[string]ast.Expr)
	for _, stmt := range program.Body {
		decl, ok := stmt.Stmt.(*ast.VariableDeclaration)
		if !ok {
			continue
		}
		for _, d := range decl.List {
			if d.Target == nil || d.Initializer == nil {
				continue
			}
			ident, ok := d.Target.Target.(*ast.Identifier)
			if !ok {
				continue
			}
			vars[ident.Name] = d.Initializer.Expr
		}
	}
	return vars, nil
}

func arrayElems(e ast.Expr) ([]ast.Expr, bool) {
	arr, ok := e.(*ast.ArrayLiteral)
	if !ok {
		return nil, false
	}
	elems := make([]ast.Expr, 0, len(arr.Value))
	for _, v := range arr.Value {
		elems = append(elems, v.Expr)
	}
	return elems, true
}

func stringValue(e ast.Expr) (string, bool) {
	s, ok := e.(*ast.StringLiteral)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func isNull(e ast.Expr) bool {
	if e == nil {
		return true
	}
	_, ok := e.(*ast.NullLiteral)
	return ok
}
