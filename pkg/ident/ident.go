// Package ident synthesizes collision-free, language-safe type identifiers
// from arbitrary human-authored names.
package ident

import (
	"errors"
	"fmt"
	"sort"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// fallbackName substitutes for sources with no identifier-legal runes.
	fallbackName = "Unnamed"
	// invalidStartPrefix guards identifiers that would begin with a digit.
	invalidStartPrefix = "N"
	// reservedPrefix guards exact-case collisions with reserved keywords.
	reservedPrefix = "Reserved"
)

// reservedWords is the fixed TypeScript reserved-word set, loaded once and
// never mutated. Membership is case-sensitive: a lowercase-reserved keyword
// does not block its Title-cased form.
var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "finally": true,
	"for": true, "function": true, "if": true, "implements": true,
	"import": true, "in": true, "instanceof": true, "interface": true,
	"let": true, "new": true, "null": true, "package": true,
	"private": true, "protected": true, "public": true, "return": true,
	"static": true, "super": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
}

// ToIdentifier converts source into a language-safe identifier.
//
// The source is NFKC-normalized, split into maximal runs of identifier-legal
// runes (letters, digits, underscore, dollar), and each run's first rune is
// title-cased before concatenation.
func ToIdentifier(source string) string {
	normalized := norm.NFKC.String(source)

	var out []rune
	startOfRun := true
	for _, r := range normalized {
		if !legalRune(r) {
			startOfRun = true
			continue
		}
		if startOfRun {
			r = unicode.ToUpper(r)
			startOfRun = false
		}
		out = append(out, r)
	}

	result := string(out)
	if result == "" {
		result = fallbackName
	}
	if unicode.IsDigit([]rune(result)[0]) {
		result = invalidStartPrefix + result
	}
	if reservedWords[result] {
		result = reservedPrefix + result
	}
	return result
}

func legalRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
}

// ErrDuplicateSource reports a contract violation: the one-identifier-per-
// source invariant cannot hold when the same source appears twice.
var ErrDuplicateSource = errors.New("ident: duplicate source")

// Pair associates a source string with its assigned identifier.
type Pair struct {
	Source     string
	Identifier string
}

// IdentifierMap holds collision-resolved identifiers keyed by source,
// preserving the caller's original input order.
type IdentifierMap struct {
	order    []string
	bySource map[string]string
}

// BuildIdentifierMap assigns a unique identifier to every source.
//
// Collision resolution is order-independent: indices are sorted bytewise by
// source value, and later (bytewise-greater) sources colliding on the same
// identifier receive __2, __3, ... suffixes. Duplicate sources are rejected.
func BuildIdentifierMap(sources []string) (*IdentifierMap, error) {
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSource, s)
		}
		seen[s] = true
	}

	// Sort indices, not the input, so results can be returned in input order.
	idx := make([]int, len(sources))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return sources[idx[a]] < sources[idx[b]]
	})

	bySource := make(map[string]string, len(sources))
	assigned := make(map[string]bool, len(sources))
	occurrences := make(map[string]int, len(sources))
	for _, i := range idx {
		base := ToIdentifier(sources[i])
		occurrences[base]++
		id := base
		if n := occurrences[base]; n > 1 {
			id = fmt.Sprintf("%s__%d", base, n)
		}
		// A literal source can preempt a suffixed form (or vice versa);
		// keep bumping the counter until the name is actually free.
		for assigned[id] {
			occurrences[base]++
			id = fmt.Sprintf("%s__%d", base, occurrences[base])
		}
		assigned[id] = true
		bySource[sources[i]] = id
	}

	order := make([]string, len(sources))
	copy(order, sources)
	return &IdentifierMap{order: order, bySource: bySource}, nil
}

// Sources returns the sources in original input order.
func (m *IdentifierMap) Sources() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Identifier returns the identifier assigned to source.
func (m *IdentifierMap) Identifier(source string) (string, bool) {
	id, ok := m.bySource[source]
	return id, ok
}

// Pairs returns source/identifier pairs in original input order.
func (m *IdentifierMap) Pairs() []Pair {
	out := make([]Pair, 0, len(m.order))
	for _, s := range m.order {
		out = append(out, Pair{Source: s, Identifier: m.bySource[s]})
	}
	return out
}
