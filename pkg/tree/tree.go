// Package tree keeps a graph of unit specifications and builds it into
// combinatorial units.
//
// Specs refer to their source units by ID. The graph must stay acyclic: a
// unit whose sources lead back to itself would never finish resolving a
// term, so Put rejects any spec that would close a cycle. Build resolves a
// spec depth-first and memoizes every unit it builds, so a source shared by
// several units is built once and referenced by all of them.
package tree

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mesh-intelligence/slowcomb/pkg/comb"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Tree is a set of unit specs keyed by ID. It is safe for concurrent use.
type Tree struct {
	mu    sync.Mutex
	specs map[string]types.UnitSpec
	order []string
	built map[string]*comb.Unit
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{
		specs: make(map[string]types.UnitSpec),
		built: make(map[string]*comb.Unit),
	}
}

// Put inserts spec or replaces the spec with the same ID. Sources may name
// units not yet in the tree; Build reports them. A spec whose sources would
// lead back to it is rejected with ErrCycle and the tree is left unchanged.
func (t *Tree) Put(spec types.UnitSpec) error {
	if spec.UnitID == "" {
		return types.ErrInvalidID
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("unit %s: %w", spec.UnitID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, src := range spec.SourceIDs() {
		if path := t.pathLocked(src, spec.UnitID); path != nil {
			return fmt.Errorf("%w: %s -> %s", types.ErrCycle, spec.UnitID, joinPath(path))
		}
	}

	if _, ok := t.specs[spec.UnitID]; !ok {
		t.order = append(t.order, spec.UnitID)
	}
	spec.Sources = slices.Clone(spec.Sources)
	t.specs[spec.UnitID] = spec
	// Any built unit may depend on the replaced spec.
	clear(t.built)
	return nil
}

// pathLocked returns the chain of IDs leading from 'from' to 'to' through
// source references, or nil if there is none.
func (t *Tree) pathLocked(from, to string) []string {
	seen := make(map[string]bool)
	var walk func(id string) []string
	walk = func(id string) []string {
		if id == to {
			return []string{id}
		}
		if seen[id] {
			return nil
		}
		seen[id] = true
		spec, ok := t.specs[id]
		if !ok {
			return nil
		}
		for _, next := range spec.SourceIDs() {
			if rest := walk(next); rest != nil {
				return append([]string{id}, rest...)
			}
		}
		return nil
	}
	return walk(from)
}

func joinPath(ids []string) string {
	return strings.Join(ids, " -> ")
}

// Get returns the spec stored under id.
func (t *Tree) Get(id string) (types.UnitSpec, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	spec, ok := t.specs[id]
	if !ok {
		return types.UnitSpec{}, fmt.Errorf("unit %s: %w", id, types.ErrNotFound)
	}
	return spec, nil
}

// Len returns the number of specs.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Specs returns every spec in insertion order.
func (t *Tree) Specs() []types.UnitSpec {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.UnitSpec, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.specs[id])
	}
	return out
}

// Roots returns the IDs of units that no other unit uses as a source, in
// insertion order.
func (t *Tree) Roots() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	used := make(map[string]bool)
	for _, spec := range t.specs {
		for _, id := range spec.SourceIDs() {
			used[id] = true
		}
	}
	var roots []string
	for _, id := range t.order {
		if !used[id] {
			roots = append(roots, id)
		}
	}
	return roots
}

// Users returns the IDs of units that use id as a source, in insertion
// order.
func (t *Tree) Users(id string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usersLocked(id)
}

func (t *Tree) usersLocked(id string) []string {
	var users []string
	for _, uid := range t.order {
		if slices.Contains(t.specs[uid].SourceIDs(), id) {
			users = append(users, uid)
		}
	}
	return users
}

// Sorted returns every spec with each unit after the units it uses as
// sources, otherwise in insertion order. Sources missing from the tree are
// ignored.
func (t *Tree) Sorted() []types.UnitSpec {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.UnitSpec, 0, len(t.order))
	done := make(map[string]bool, len(t.order))
	var visit func(id string)
	visit = func(id string) {
		spec, ok := t.specs[id]
		if !ok || done[id] {
			return
		}
		done[id] = true
		for _, src := range spec.SourceIDs() {
			visit(src)
		}
		out = append(out, spec)
	}
	for _, id := range t.order {
		visit(id)
	}
	return out
}

// Delete removes the spec stored under id. A unit still used as a source
// cannot be deleted.
func (t *Tree) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.specs[id]; !ok {
		return fmt.Errorf("unit %s: %w", id, types.ErrNotFound)
	}
	if users := t.usersLocked(id); len(users) > 0 {
		return fmt.Errorf("unit %s: %w: used by %v", id, types.ErrUnitInUse, users)
	}
	delete(t.specs, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
	delete(t.built, id)
	return nil
}

// Build returns the unit for id, building its sources first. Units are
// memoized until the tree changes.
func (t *Tree) Build(id string) (*comb.Unit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buildLocked(id, nil)
}

func (t *Tree) buildLocked(id string, path []string) (*comb.Unit, error) {
	if u, ok := t.built[id]; ok {
		return u, nil
	}
	if slices.Contains(path, id) {
		return nil, fmt.Errorf("%w: %s", types.ErrCycle, joinPath(append(path, id)))
	}
	spec, ok := t.specs[id]
	if !ok {
		if len(path) == 0 {
			return nil, fmt.Errorf("unit %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("unit %s: %w: %s", path[len(path)-1], types.ErrSourceNotFound, id)
	}
	u, err := t.buildSpecLocked(spec, path)
	if err != nil {
		return nil, err
	}
	t.built[id] = u
	return u, nil
}

// buildSpecLocked builds spec, resolving its unit sources through the tree.
// path holds the IDs of the units waiting on spec.
func (t *Tree) buildSpecLocked(spec types.UnitSpec, path []string) (*comb.Unit, error) {
	if len(path) >= comb.MaxDepth {
		return nil, fmt.Errorf("%w: %s", types.ErrDepthExceeded, joinPath(append(path, spec.UnitID)))
	}
	path = append(path, spec.UnitID)
	srcs := make([]types.Sequence, len(spec.Sources))
	for i, s := range spec.Sources {
		if !s.IsUnit() {
			srcs[i] = comb.Items(s.Items)
			continue
		}
		u, err := t.buildLocked(s.UnitID, path)
		if err != nil {
			return nil, err
		}
		srcs[i] = u
	}

	u, err := comb.New(spec.Family, spec.Width, srcs, comb.WithName(displayName(spec)))
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", spec.UnitID, err)
	}
	return u, nil
}

// Preview builds the unit spec describes against the units in the tree
// without adding spec. It reports the errors Put and Build would.
func (t *Tree) Preview(spec types.UnitSpec) (*comb.Unit, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("unit %s: %w", spec.UnitID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if spec.UnitID != "" {
		for _, src := range spec.SourceIDs() {
			if path := t.pathLocked(src, spec.UnitID); path != nil {
				return nil, fmt.Errorf("%w: %s -> %s", types.ErrCycle, spec.UnitID, joinPath(path))
			}
		}
	}
	return t.buildSpecLocked(spec, nil)
}

func displayName(spec types.UnitSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	return spec.UnitID
}
