// Package bloom provides probabilistic prefix membership for search index
// shards using Bloom filters.
package bloom

import (
	"unicode/utf8"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultMaxPrefix is the longest prefix, in runes, recorded per key.
const DefaultMaxPrefix = 8

// PrefixFilter records every prefix of a set of keys, up to a maximum
// length. A negative answer is definite, so a search can skip scanning a
// shard when no key can start with the query.
type PrefixFilter struct {
	f         *bloom.BloomFilter
	maxPrefix int
}

// NewPrefixFilter creates a filter sized for n keys with the given false
// positive rate. Prefixes longer than maxPrefix runes are truncated; a
// non-positive maxPrefix uses DefaultMaxPrefix.
func NewPrefixFilter(n uint, fpRate float64, maxPrefix int) *PrefixFilter {
	if maxPrefix <= 0 {
		maxPrefix = DefaultMaxPrefix
	}
	if n == 0 {
		n = 1
	}
	return &PrefixFilter{
		f:         bloom.NewWithEstimates(n*uint(maxPrefix), fpRate),
		maxPrefix: maxPrefix,
	}
}

// Add records all prefixes of key.
func (p *PrefixFilter) Add(key string) {
	runes := 0
	for i := range key {
		if i > 0 {
			p.f.AddString(key[:i])
			runes++
			if runes == p.maxPrefix {
				return
			}
		}
	}
	if key != "" {
		p.f.AddString(key)
	}
}

// MayHavePrefix reports whether some added key might start with prefix.
// False positives are possible; false negatives are not.
func (p *PrefixFilter) MayHavePrefix(prefix string) bool {
	if prefix == "" {
		return true
	}
	return p.f.TestString(truncateRunes(prefix, p.maxPrefix))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
