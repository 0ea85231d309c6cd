package doxygen

import (
	"encoding/hex"
	"html"
	"strings"

	"github.com/fwojciec/docnav"
	"github.com/t14raptor/go-fast/ast"
)

// ParseSearchData decodes a search shard file declaring searchData.
// Entries grouped under one id (overloads and same-named symbols in
// different scopes) are flattened into adjacent entries sharing a key.
func ParseSearchData(data []byte) ([]docnav.SearchEntry, error) {
	vars, err := parseVars(data)
	if err != nil {
		return nil, err
	}
	v, ok := vars["searchData"]
	if !ok {
		return nil, docnav.Errorf(docnav.EPARSE, "searchData not declared")
	}
	groups, ok := arrayElems(v)
	if !ok {
		return nil, docnav.Errorf(docnav.EPARSE, "searchData must be an array")
	}

	var entries []docnav.SearchEntry
	for _, g := range groups {
		entries, err = appendGroup(entries, g)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// appendGroup decodes [id, [name, [url, 1, scope], ...]].
func appendGroup(entries []docnav.SearchEntry, e ast.Expr) ([]docnav.SearchEntry, error) {
	fields, ok := arrayElems(e)
	if !ok || len(fields) != 2 {
		return nil, docnav.Errorf(docnav.EPARSE, "search group must be [id, [name, ...]]")
	}
	id, ok := stringValue(fields[0])
	if !ok {
		return nil, docnav.Errorf(docnav.EPARSE, "search group id must be a string")
	}
	key, err := DecodeSearchID(id)
	if err != nil {
		return nil, err
	}

	body, ok := arrayElems(fields[1])
	if !ok || len(body) < 2 {
		return nil, docnav.Errorf(docnav.EPARSE, "search group %q has no results", id)
	}
	name, ok := stringValue(body[0])
	if !ok {
		return nil, docnav.Errorf(docnav.EPARSE, "search group %q name must be a string", id)
	}

	return appendResults(entries, key, name, body[1:])
}

// appendResults decodes result tuples; names and scopes arrive HTML
// escaped. Older generators emit a null url followed by a nested list of
// tuples, which is flattened in place.
func appendResults(entries []docnav.SearchEntry, key, name string, results []ast.Expr) ([]docnav.SearchEntry, error) {
	for _, r := range results {
		if isNull(r) {
			continue
		}
		tuple, ok := arrayElems(r)
		if !ok || len(tuple) == 0 {
			return nil, docnav.Errorf(docnav.EPARSE, "malformed result for %q", name)
		}
		if _, nested := tuple[0].(*ast.ArrayLiteral); nested {
			var err error
			entries, err = appendResults(entries, key, name, tuple)
			if err != nil {
				return nil, err
			}
			continue
		}

		target, ok := stringValue(tuple[0])
		if !ok {
			return nil, docnav.Errorf(docnav.EPARSE, "result url for %q must be a string", name)
		}
		var scope string
		if len(tuple) > 2 {
			scope, _ = stringValue(tuple[2])
		}
		entries = append(entries, docnav.SearchEntry{
			Key:         key,
			DisplayName: html.UnescapeString(name),
			Target:      docnav.CleanLocation(target),
			Scope:       html.UnescapeString(scope),
		})
	}
	return entries, nil
}

// DecodeSearchID turns a search group id into its normalized key. The
// generator escapes every byte outside [a-z0-9] as _xx (hex) and appends
// _<ordinal>, so "version_201_2e0_20released_6" decodes to
// "version 1.0 released".
func DecodeSearchID(id string) (string, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 && isDigits(id[i+1:]) {
		id = id[:i]
	}

	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c != '_' {
			b.WriteByte(c)
			continue
		}
		if i+3 > len(id) {
			return "", docnav.Errorf(docnav.EPARSE, "truncated escape in search id %q", id)
		}
		var decoded [1]byte
		if _, err := hex.Decode(decoded[:], []byte(id[i+1:i+3])); err != nil {
			return "", docnav.WrapError(docnav.EPARSE, err, "bad escape in search id %q", id)
		}
		b.WriteByte(decoded[0])
		i += 2
	}
	return docnav.NormalizeQuery(b.String()), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
