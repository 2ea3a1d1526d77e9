package controls

import (
	"fmt"
	"slices"

	"github.com/pankaj-dahiya-devops/soc2-scanner/internal/models"
)

// Catalogue is an ordered, immutable set of control definitions.
// NewCatalogue panics on duplicate IDs to catch wiring mistakes at startup.
type Catalogue struct {
	defs  []Definition
	index map[string]int
}

// NewCatalogue returns a catalogue holding defs in the given order.
func NewCatalogue(defs ...Definition) *Catalogue {
	c := &Catalogue{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if _, exists := c.index[d.ID]; exists {
			panic(fmt.Sprintf("duplicate control ID: %q", d.ID))
		}
		if d.Evaluate == nil {
			panic(fmt.Sprintf("control %q has no evaluator", d.ID))
		}
		c.index[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c
}

// Lookup returns the definition registered under id.
func (c *Catalogue) Lookup(id string) (Definition, bool) {
	i, ok := c.index[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// All returns every definition in registration order.
func (c *Catalogue) All() []Definition {
	return slices.Clone(c.defs)
}

// IDs returns every control ID in registration order.
func (c *Catalogue) IDs() []string {
	ids := make([]string, len(c.defs))
	for i, d := range c.defs {
		ids[i] = d.ID
	}
	return ids
}

// Requires reports whether any of the requested controls declares src.
// Unknown IDs are ignored.
func (c *Catalogue) Requires(ids []string, src models.EvidenceSource) bool {
	for _, id := range ids {
		d, ok := c.Lookup(id)
		if ok && slices.Contains(d.Sources, src) {
			return true
		}
	}
	return false
}
