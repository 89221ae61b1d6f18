// Package weights defines the attribute weight configuration used to combine
// per-attribute similarities into one composite score.
package weights

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Attribute names a comparable field of a record.
type Attribute string

// Recognized attributes.
const (
	Genres              Attribute = "genres"
	Keywords            Attribute = "keywords"
	ProductionCompanies Attribute = "production_companies"
	Budget              Attribute = "budget"
	Title               Attribute = "title"
	Homepage            Attribute = "homepage"
)

// Attributes lists every recognized attribute in a fixed order.
var Attributes = []Attribute{Genres, Keywords, ProductionCompanies, Budget, Title, Homepage}

// ParseAttribute resolves a configuration key to an Attribute.
func ParseAttribute(name string) (Attribute, error) {
	a := Attribute(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Attributes {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
}

// Config is an immutable attribute -> weight mapping. Weights are
// non-negative and need not sum to one; aggregation divides by the total.
// The zero value has every weight at zero.
type Config struct {
	values [6]float64
}

// New builds a Config from a name -> weight map. Missing attributes weigh zero.
// Unknown names and negative or non-finite weights are rejected. An all-zero
// map is accepted here and reported by Validate, so callers decide when the
// configuration error surfaces.
func New(m map[string]float64) (Config, error) {
	var c Config
	for name, w := range m {
		a, err := ParseAttribute(name)
		if err != nil {
			return Config{}, err
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Config{}, fmt.Errorf("%w: %s=%v", ErrNegativeWeight, a, w)
		}
		c.values[index(a)] = w
	}
	return c, nil
}

// MustNew is New for static tables known to be valid.
func MustNew(m map[string]float64) Config {
	c, err := New(m)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the representative default weights.
func Default() Config {
	return MustNew(map[string]float64{
		string(Genres):              0.25,
		string(Keywords):            0.25,
		string(ProductionCompanies): 0.15,
		string(Budget):              0.10,
		string(Title):               0.15,
		string(Homepage):            0.10,
	})
}

// Weight returns the weight for a.
func (c Config) Weight(a Attribute) float64 {
	i := index(a)
	if i < 0 {
		return 0
	}
	return c.values[i]
}

// Total returns the sum of all weights.
func (c Config) Total() float64 {
	var sum float64
	for _, w := range c.values {
		sum += w
	}
	return sum
}

// Validate reports ErrAllZero when no attribute carries weight.
func (c Config) Validate() error {
	if c.Total() <= 0 {
		return ErrAllZero
	}
	return nil
}

// Active returns the attributes with a nonzero weight, in Attributes order.
func (c Config) Active() []Attribute {
	out := make([]Attribute, 0, len(Attributes))
	for i, a := range Attributes {
		if c.values[i] > 0 {
			out = append(out, a)
		}
	}
	return out
}

// Map returns a copy of the configuration keyed by attribute name.
func (c Config) Map() map[string]float64 {
	m := make(map[string]float64, len(Attributes))
	for i, a := range Attributes {
		m[string(a)] = c.values[i]
	}
	return m
}

// Hash returns a stable fingerprint of the weights, used in cache keys.
func (c Config) Hash() uint64 {
	names := make([]string, 0, len(Attributes))
	for _, a := range Attributes {
		names = append(names, string(a))
	}
	sort.Strings(names)

	d := xxhash.New()
	for _, name := range names {
		_, _ = d.WriteString(name)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(strconv.FormatFloat(c.Weight(Attribute(name)), 'g', -1, 64))
		_, _ = d.WriteString(";")
	}
	return d.Sum64()
}

// String renders the weights as name=value pairs.
func (c Config) String() string {
	parts := make([]string, 0, len(Attributes))
	for i, a := range Attributes {
		parts = append(parts, fmt.Sprintf("%s=%g", a, c.values[i]))
	}
	return strings.Join(parts, ",")
}

func index(a Attribute) int {
	for i, known := range Attributes {
		if a == known {
			return i
		}
	}
	return -1
}
