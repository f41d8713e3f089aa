// Package catalog parses worker-advertised model identifiers into
// descriptors and keeps them totally ordered by parameter count.
package catalog

import (
	"fmt"
	"math"
	"sort"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// Descriptor is one known model.
type Descriptor struct {
	Name           string
	Parameters     int64
	SizeGB         float64
	Complexity     int32
	SupportsVision bool
}

// Wire converts the descriptor to its RPC form.
func (d Descriptor) Wire() *lbv1.ModelInfo {
	return &lbv1.ModelInfo{
		Name:            d.Name,
		Parameters:      d.Parameters,
		SizeGB:          d.SizeGB,
		ComplexityScore: d.Complexity,
		SupportsVision:  d.SupportsVision,
	}
}

// Complexity buckets a parameter count into the 1-10 rank the
// assignment engine orders models by. Monotone non-decreasing.
func Complexity(params int64) int32 {
	switch {
	case params >= 70e9:
		return 10
	case params >= 30e9:
		return 9
	case params >= 13e9:
		return 8
	case params >= 8e9:
		return 7
	case params >= 7e9:
		return 6
	case params >= 3e9:
		return 5
	case params >= 1e9:
		return 4
	case params >= 500e6:
		return 3
	case params >= 100e6:
		return 2
	default:
		return 1
	}
}

// EstimateSizeGB assumes 2 bytes per parameter, rounded to 0.1 GB.
func EstimateSizeGB(params int64) float64 {
	return math.Round(float64(params)*2/1e9*10) / 10
}

// Parse builds a descriptor for one identifier. ok is false when no
// pattern matches; the caller logs and skips the model.
func Parse(name string) (Descriptor, bool) {
	params, vision, ok := parseParams(name)
	if !ok || params <= 0 {
		return Descriptor{}, false
	}
	return Descriptor{
		Name:           name,
		Parameters:     params,
		SizeGB:         EstimateSizeGB(params),
		Complexity:     Complexity(params),
		SupportsVision: vision,
	}, true
}

// FormatParameters renders a count the way prompts and processing
// footers show it: "8.0B" at billion scale, "500M" below.
func FormatParameters(params int64) string {
	if params >= 1e9 {
		return fmt.Sprintf("%.1fB", float64(params)/1e9)
	}
	return fmt.Sprintf("%.0fM", float64(params)/1e6)
}

// Catalog is the ordered set of models the coordinator knows. It is not
// safe for concurrent use; the registry serializes access under its own
// lock.
type Catalog struct {
	models []Descriptor
	index  map[string]int
}

func New() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Add parses name and inserts it. Reports whether name is in the
// catalog afterwards; false means the identifier was unparseable.
// Re-adding a known model is a no-op.
func (c *Catalog) Add(name string) bool {
	if _, ok := c.index[name]; ok {
		return true
	}
	desc, ok := Parse(name)
	if !ok {
		return false
	}
	c.insert(desc)
	return true
}

// AddCustom inserts a model with an explicit parameter count, bypassing
// the parse table. Existing entries with the same name are replaced.
func (c *Catalog) AddCustom(name string, params int64, vision bool) {
	c.insert(Descriptor{
		Name:           name,
		Parameters:     params,
		SizeGB:         EstimateSizeGB(params),
		Complexity:     Complexity(params),
		SupportsVision: vision,
	})
}

func (c *Catalog) insert(desc Descriptor) {
	if i, ok := c.index[desc.Name]; ok {
		c.models[i] = desc
	} else {
		c.models = append(c.models, desc)
	}
	sort.Slice(c.models, func(i, j int) bool {
		if c.models[i].Parameters != c.models[j].Parameters {
			return c.models[i].Parameters < c.models[j].Parameters
		}
		return c.models[i].Name < c.models[j].Name
	})
	for i, m := range c.models {
		c.index[m.Name] = i
	}
}

func (c *Catalog) Len() int {
	return len(c.models)
}

// Get looks a model up by identifier.
func (c *Catalog) Get(name string) (Descriptor, bool) {
	i, ok := c.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return c.models[i], true
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Models returns the catalog ascending by parameter count (copy).
func (c *Catalog) Models() []Descriptor {
	out := make([]Descriptor, len(c.models))
	copy(out, c.models)
	return out
}

// ByComplexity returns the catalog ordered for assignment: complexity
// rank descending, ties by parameter count descending, then identifier
// ascending.
func (c *Catalog) ByComplexity() []Descriptor {
	out := c.Models()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Complexity != out[j].Complexity {
			return out[i].Complexity > out[j].Complexity
		}
		if out[i].Parameters != out[j].Parameters {
			return out[i].Parameters > out[j].Parameters
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MaxComplexity returns the heaviest model, if any.
func (c *Catalog) MaxComplexity() (Descriptor, bool) {
	if len(c.models) == 0 {
		return Descriptor{}, false
	}
	return c.ByComplexity()[0], true
}

// Clone returns an independent copy.
func (c *Catalog) Clone() *Catalog {
	out := New()
	for _, m := range c.models {
		out.insert(m)
	}
	return out
}
