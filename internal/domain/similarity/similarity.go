// Package similarity implements the per-attribute comparators. Every function
// is total and returns a value in [0,1], where 1 means identical.
package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/okian/reelsim/internal/domain/weights"
)

// Kind identifies which comparator applies to an attribute.
type Kind int

// Comparator kinds.
const (
	KindText Kind = iota
	KindSet
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSet:
		return "set"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Text returns 1 - levenshtein(a, b) / max(len(a), len(b)) over lowercased
// code points. Two empty strings are identical.
func Text(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return clamp(1 - float64(dist)/float64(longest))
}

// Set returns the Jaccard index |a ∩ b| / |a ∪ b| with case-insensitive
// membership. Two empty sets are identical; one empty set scores 0.
// Repeated members count once.
func Set(a, b []string) float64 {
	left := lowerSet(a)
	right := lowerSet(b)
	switch {
	case len(left) == 0 && len(right) == 0:
		return 1
	case len(left) == 0 || len(right) == 0:
		return 0
	}

	if len(left) > len(right) {
		left, right = right, left
	}
	inter := 0
	for v := range left {
		if _, ok := right[v]; ok {
			inter++
		}
	}
	union := len(left) + len(right) - inter
	return float64(inter) / float64(union)
}

// Numeric returns 1 - |a-b| / max(a, b, 1), clamped to [0,1]. NaN inputs
// score 0.
func Numeric(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0
	}
	if a == b {
		return 1
	}
	denom := math.Max(math.Max(a, b), 1)
	return clamp(1 - math.Abs(a-b)/denom)
}

func lowerSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[strings.ToLower(v)] = struct{}{}
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// KindOf returns the comparator kind used for attribute a.
func KindOf(a weights.Attribute) Kind {
	switch a {
	case weights.Title, weights.Homepage:
		return KindText
	case weights.Budget:
		return KindNumeric
	default:
		return KindSet
	}
}
