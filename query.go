package docnav

import (
	"strings"
	"unicode/utf8"
)

// NormalizeQuery trims, lowercases and collapses internal whitespace.
func NormalizeQuery(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// ShardKeyFor returns the shard key addressing a normalized query or index
// key: its leading character. Both the index builder and the search engine
// use this derivation. Returns "" for an empty input.
func ShardKeyFor(normalized string) string {
	if normalized == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(normalized)
	if r == utf8.RuneError && size <= 1 {
		return normalized[:1]
	}
	return normalized[:size]
}

// CleanLocation strips whitespace and leading "./" or "../" segments so that
// locations emitted from different directories of the generated site
// compare equal.
func CleanLocation(loc string) string {
	loc = strings.TrimSpace(loc)
	for {
		switch {
		case strings.HasPrefix(loc, "../"):
			loc = loc[3:]
		case strings.HasPrefix(loc, "./"):
			loc = loc[2:]
		default:
			return loc
		}
	}
}
