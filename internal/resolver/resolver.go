// Package resolver turns a requested profile set into an execution plan:
// META expansion, transitive dependency closure, topological sort, and
// parallel-group leveling.
package resolver

import (
	"sort"
	"strings"

	"github.com/ltdomains/domain-analyzer/internal/profiles"
	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

// Plan is the resolver's output: spec.md §3.2's Execution Plan.
type Plan struct {
	Requested    []string
	Expanded     []string
	Order        []string
	ParallelGroups [][]string

	CoreProfiles         []string
	AnalysisProfiles     []string
	IntelligenceProfiles []string

	EstimatedDuration string
}

// Resolver resolves requested profile names against a Catalog.
type Resolver struct {
	catalog *profiles.Catalog
}

// New builds a Resolver bound to catalog.
func New(catalog *profiles.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve implements spec.md §4.2's seven-step algorithm.
func (r *Resolver) Resolve(requestedCSV string) (*Plan, error) {
	requested, err := parseNames(requestedCSV)
	if err != nil {
		return nil, err
	}

	if err := r.validateKnown(requested); err != nil {
		return nil, err
	}

	expanded, err := r.expandMeta(requested)
	if err != nil {
		return nil, err
	}

	withDeps := r.addTransitiveDeps(expanded)

	order, err := r.topologicalSort(withDeps)
	if err != nil {
		return nil, err
	}

	groups := r.parallelGroups(order)

	plan := &Plan{
		Requested:      requested,
		Expanded:       expanded,
		Order:          order,
		ParallelGroups: groups,
	}
	r.partitionByCategory(plan)
	plan.EstimatedDuration = r.estimateDuration(order)

	return plan, nil
}

// estimateDuration is advisory only: it concatenates each profile's
// EstimatedDuration, since the catalog's estimates are free-text (e.g. "1s",
// "500ms") rather than a common unit the resolver could sum numerically.
func (r *Resolver) estimateDuration(order []string) string {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		if p, ok := r.catalog.Get(name); ok && p.EstimatedDuration != "" {
			parts = append(parts, p.EstimatedDuration)
		}
	}
	return strings.Join(parts, "+")
}

// parseNames implements step 1: split, lowercase, trim, reject empties.
func parseNames(csv string) ([]string, error) {
	raw := strings.Split(csv, ",")
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return nil, dErrors.New(dErrors.CodeUnknownProfile, "empty profile request")
	}
	return names, nil
}

// validateKnown implements step 2.
func (r *Resolver) validateKnown(names []string) error {
	for _, n := range names {
		if _, ok := r.catalog.Get(n); !ok {
			return dErrors.Newf(dErrors.CodeUnknownProfile, "unknown profile %q", n)
		}
	}
	return nil
}

// expandMeta implements step 3: DFS from each requested META, emitting only
// non-META profiles, preserving first-occurrence order, with a seen-set
// keyed by META name to terminate recursive META definitions.
func (r *Resolver) expandMeta(requested []string) ([]string, error) {
	seenMeta := make(map[string]bool)
	seenOut := make(map[string]bool)
	var out []string

	var expand func(name string) error
	expand = func(name string) error {
		p, ok := r.catalog.Get(name)
		if !ok {
			return dErrors.Newf(dErrors.CodeUnknownProfile, "unknown profile %q", name)
		}
		if p.Category != profiles.CategoryMeta {
			if !seenOut[name] {
				seenOut[name] = true
				out = append(out, name)
			}
			return nil
		}
		if seenMeta[name] {
			return nil
		}
		seenMeta[name] = true
		for _, m := range p.Members {
			if err := expand(m); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range requested {
		if err := expand(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// addTransitiveDeps implements step 4.
func (r *Resolver) addTransitiveDeps(expanded []string) []string {
	seen := make(map[string]bool)
	var out []string

	var add func(name string)
	add = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		p, ok := r.catalog.Get(name)
		if !ok {
			return
		}
		for _, d := range p.Dependencies {
			add(d)
		}
		out = append(out, name)
	}

	for _, name := range expanded {
		add(name)
	}
	return out
}

// topologicalSort implements step 5: Kahn's algorithm with the category,
// then alphabetical, tie-break.
func (r *Resolver) topologicalSort(names []string) ([]string, error) {
	inDegree := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	for _, n := range names {
		p, _ := r.catalog.Get(n)
		for _, d := range p.Dependencies {
			if !set[d] {
				continue
			}
			inDegree[n]++
			dependents[d] = append(dependents[d], n)
		}
	}

	ready := make([]string, 0)
	for _, n := range names {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	var order []string
	for len(ready) > 0 {
		ready = r.catalog.SortByTieBreak(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(names) {
		var stuck []string
		for _, n := range names {
			if inDegree[n] > 0 {
				stuck = append(stuck, n)
			}
		}
		sort.Strings(stuck)
		return nil, dErrors.Newf(dErrors.CodeCircularDependency, "dependency cycle among %v", stuck)
	}
	return order, nil
}

// parallelGroups implements step 6: the DAG's levels, iteratively peeling
// off nodes whose dependencies all lie in earlier groups.
func (r *Resolver) parallelGroups(order []string) [][]string {
	placed := make(map[string]int, len(order))
	var groups [][]string

	for _, name := range order {
		p, _ := r.catalog.Get(name)
		level := 0
		for _, d := range p.Dependencies {
			if l, ok := placed[d]; ok && l+1 > level {
				level = l + 1
			}
		}
		placed[name] = level
		for len(groups) <= level {
			groups = append(groups, nil)
		}
		groups[level] = append(groups[level], name)
	}
	return groups
}

// partitionByCategory implements step 7's category partitions.
func (r *Resolver) partitionByCategory(plan *Plan) {
	for _, name := range plan.Order {
		p, _ := r.catalog.Get(name)
		switch p.Category {
		case profiles.CategoryCore:
			plan.CoreProfiles = append(plan.CoreProfiles, name)
		case profiles.CategoryAnalysis:
			plan.AnalysisProfiles = append(plan.AnalysisProfiles, name)
		case profiles.CategoryIntelligence:
			plan.IntelligenceProfiles = append(plan.IntelligenceProfiles, name)
		}
	}
}
