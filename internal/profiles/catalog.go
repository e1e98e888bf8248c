// Package profiles implements the immutable profile catalog: identity,
// category, dependency, and meta-expansion bookkeeping for the checks the
// orchestrator can run against a domain.
package profiles

import (
	"fmt"
	"sort"

	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

// Category classifies a profile by what kind of data source it touches.
type Category string

const (
	CategoryCore         Category = "CORE"
	CategoryAnalysis     Category = "ANALYSIS"
	CategoryIntelligence Category = "INTELLIGENCE"
	CategoryMeta         Category = "META"
)

// categoryOrder gives the deterministic tie-break order the resolver uses:
// CORE < ANALYSIS < INTELLIGENCE.
var categoryOrder = map[Category]int{
	CategoryCore:         0,
	CategoryAnalysis:     1,
	CategoryIntelligence: 2,
}

// Order returns this category's position in the CORE < ANALYSIS <
// INTELLIGENCE tie-break sequence. META profiles never appear in an
// execution order, so they sort last.
func (c Category) Order() int {
	if n, ok := categoryOrder[c]; ok {
		return n
	}
	return len(categoryOrder)
}

// Profile is one named, reusable bundle of checks.
type Profile struct {
	Name         string
	Category     Category
	Dependencies []string // non-META only
	Members      []string // META only, non-empty
	Checks       []string

	Description       string
	EstimatedDuration string
}

// Catalog is the read-only, process-lifetime registry of profiles. It is
// safe for concurrent reads from any number of goroutines, which is the
// only access pattern it supports.
type Catalog struct {
	byName map[string]Profile
	names  []string // insertion order, for deterministic All()
}

// NewCatalog builds a Catalog from the given profiles and validates it.
// Profile names are matched case-exactly; callers are expected to have
// already lowercased user input (the resolver does this).
func NewCatalog(defs []Profile) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Profile, len(defs))}
	for _, p := range defs {
		c.byName[p.Name] = p
		c.names = append(c.names, p.Name)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the named profile, if known.
func (c *Catalog) Get(name string) (Profile, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// All returns every profile in catalog-construction order.
func (c *Catalog) All() []Profile {
	out := make([]Profile, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.byName[name])
	}
	return out
}

// ByCategory returns every profile of the given category, in
// catalog-construction order.
func (c *Catalog) ByCategory(cat Category) []Profile {
	var out []Profile
	for _, name := range c.names {
		if p := c.byName[name]; p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}

// Validate runs the four catalog invariants spec.md §4.1 requires. It is
// called once by NewCatalog; exported so tests and tooling can re-run it
// against a hand-built catalog.
func (c *Catalog) Validate() error {
	for _, name := range c.names {
		p := c.byName[name]

		if p.Category == CategoryMeta {
			if len(p.Members) == 0 {
				return dErrors.Newf(dErrors.CodeMalformed, "meta profile %q has no members", p.Name)
			}
			for _, m := range p.Members {
				if _, ok := c.byName[m]; !ok {
					return dErrors.Newf(dErrors.CodeUnknownProfile, "meta profile %q references unknown member %q", p.Name, m)
				}
			}
			continue
		}

		if p.Category == CategoryCore && len(p.Dependencies) != 0 {
			return dErrors.Newf(dErrors.CodeMalformed, "core profile %q must have no dependencies", p.Name)
		}
		for _, d := range p.Dependencies {
			if _, ok := c.byName[d]; !ok {
				return dErrors.Newf(dErrors.CodeUnknownProfile, "profile %q depends on unknown profile %q", p.Name, d)
			}
		}
	}

	if err := c.checkMetaTermination(); err != nil {
		return err
	}
	return c.checkDependencyAcyclic()
}

// checkMetaTermination verifies META expansion terminates: no META profile
// reaches itself through its (possibly nested) Members.
func (c *Catalog) checkMetaTermination() error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(c.names))

	var visit func(name string) error
	visit = func(name string) error {
		p, ok := c.byName[name]
		if !ok || p.Category != CategoryMeta {
			return nil
		}
		switch color[name] {
		case grey:
			return dErrors.Newf(dErrors.CodeMalformed, "meta profile cycle involving %q", name)
		case black:
			return nil
		}
		color[name] = grey
		for _, m := range p.Members {
			if err := visit(m); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, name := range c.names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// checkDependencyAcyclic verifies the transitive dependency closure of
// non-META profiles is a DAG, via DFS with grey/black marking.
func (c *Catalog) checkDependencyAcyclic() error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(c.names))

	var visit func(name string) error
	visit = func(name string) error {
		p, ok := c.byName[name]
		if !ok || p.Category == CategoryMeta {
			return nil
		}
		switch color[name] {
		case grey:
			return dErrors.Newf(dErrors.CodeCircularDependency, "dependency cycle involving %q", name)
		case black:
			return nil
		}
		color[name] = grey
		for _, d := range p.Dependencies {
			if err := visit(d); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, name := range c.names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// SortByTieBreak orders names by the resolver's deterministic tie-break rule:
// category order (CORE < ANALYSIS < INTELLIGENCE), then alphabetical by name.
func (c *Catalog) SortByTieBreak(names []string) []string {
	out := append([]string(nil), names...)
	sort.Slice(out, func(i, j int) bool {
		pi, pj := c.byName[out[i]], c.byName[out[j]]
		if pi.Category.Order() != pj.Category.Order() {
			return pi.Category.Order() < pj.Category.Order()
		}
		return pi.Name < pj.Name
	})
	return out
}

func (c *Catalog) String() string {
	return fmt.Sprintf("Catalog(%d profiles)", len(c.names))
}
