package snapshot

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/units"
	"go.uber.org/zap"
)

// Load returns the array name for family f, or for the whole snapshot when
// f is empty, reading it from the shards on first use. A family request is
// served from an already loaded whole-snapshot array when there is one.
func (s *Snapshot) Load(name string, f family.Family) (*Array, error) {
	if a, ok := s.cached(name, f); ok {
		return a, nil
	}
	return s.Reload(name, f)
}

// Reload reads the array from the shards, replacing any cached copy.
func (s *Snapshot) Reload(name string, f family.Family) (*Array, error) {
	if !s.loadable(name, f) {
		return nil, fmt.Errorf("%s for %q: %w", name, f, ErrNotLoadable)
	}
	a, err := s.read(name, f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return s.keep(a), nil
}

// Get returns a loadable array as Load does, and otherwise computes it with
// the first matching entry of the derived-array registry.
func (s *Snapshot) Get(name string, f family.Family) (*Array, error) {
	if s.loadable(name, f) {
		return s.Load(name, f)
	}
	if a, ok := s.cached(name, f); ok {
		return a, nil
	}
	d, ok := s.registry.Lookup(name, f)
	if !ok {
		return nil, fmt.Errorf("%s for %q: %w", name, f, ErrNotLoadable)
	}
	s.log.Debug("deriving array", zap.String("name", name), zap.String("family", string(f)))
	a, err := d.Compute(s, f)
	if err != nil {
		return nil, fmt.Errorf("deriving %s: %w", name, err)
	}
	a.Name, a.Family = name, f
	return s.keep(a), nil
}

// Loaded reports whether an array is held in memory for f.
func (s *Snapshot) Loaded(name string, f family.Family) bool {
	_, ok := s.cached(name, f)
	return ok
}

// Drop forgets every in-memory copy of name.
func (s *Snapshot) Drop(name string) {
	for k := range s.arrays {
		if k.name == name {
			delete(s.arrays, k)
		}
	}
}

func (s *Snapshot) cached(name string, f family.Family) (*Array, bool) {
	if whole, ok := s.arrays[arrayKey{name, ""}]; ok {
		if f == "" {
			return whole, true
		}
		if r, ok := s.index.FamilyRange(f); ok {
			return whole.view(f, r.Start, r.Stop), true
		}
	}
	if f == "" {
		return nil, false
	}
	a, ok := s.arrays[arrayKey{name, f}]
	return a, ok
}

// keep caches a and returns the array callers should use. A family array
// is written through into a cached whole-snapshot array of the same name
// and returned as a view of it, so later requests see the fresh data.
func (s *Snapshot) keep(a *Array) *Array {
	if a.Family == "" {
		// family copies would go stale next to the whole array
		s.Drop(a.Name)
		s.arrays[arrayKey{a.Name, ""}] = a
		return a
	}
	wholeKey := arrayKey{a.Name, ""}
	if whole, ok := s.arrays[wholeKey]; ok {
		r, _ := s.index.FamilyRange(a.Family)
		if whole.Type == a.Type && whole.Dim == a.Dim && r.Len() == a.Len() {
			if err := container.CopyInto(whole.Data, r.Start*whole.Dim, a.Data); err == nil {
				return whole.view(a.Family, r.Start, r.Stop)
			}
		}
		delete(s.arrays, wholeKey)
	}
	s.arrays[arrayKey{a.Name, a.Family}] = a
	return a
}

// scope returns the families covered by f and the index of its first
// particle.
func (s *Snapshot) scope(f family.Family) ([]family.Family, int, int) {
	if f == "" {
		return s.index.Families(), 0, s.index.Len()
	}
	r, _ := s.index.FamilyRange(f)
	return []family.Family{f}, r.Start, r.Len()
}

func (s *Snapshot) read(name string, f family.Family) (*Array, error) {
	natives := s.names.ToNative(name)
	elem, dim, unit, err := s.probe(name, f, natives)
	if err != nil {
		return nil, err
	}
	if name == MassKey {
		elem = s.massType
	}
	if unit.IsNone() {
		unit = s.defaultUnit(name)
	}

	fams, base, n := s.scope(f)
	a := newArray(name, f, elem, n, dim, unit)
	for _, fam := range fams {
		for _, g := range s.index.Groups(fam) {
			for i := 0; i < s.shards.Len(); i++ {
				count := s.index.Count(g, i)
				if count == 0 {
					continue
				}
				root, err := s.shards.Shard(i)
				if err != nil {
					return nil, err
				}
				ds, err := s.find(root, g, natives, count)
				if err != nil {
					return nil, fmt.Errorf("shard %d: %w", i, err)
				}
				if size := container.Size(ds); size != count*dim {
					return nil, fmt.Errorf("%s has %d elements for %d particles of dimension %d: %w",
						ds.Path(), size, count, dim, ErrShape)
				}
				data, err := ds.Read()
				if err != nil {
					return nil, fmt.Errorf("reading %s: %w", ds.Path(), err)
				}
				r := s.index.Slice(g, i)
				if err := container.CopyInto(a.Data, (r.Start-base)*dim, data); err != nil {
					return nil, fmt.Errorf("%s: %w", ds.Path(), err)
				}
			}
		}
	}
	s.log.Debug("loaded array", zap.Stringer("array", a))
	return a, nil
}

// probe finds a representative dataset in the first group of the scope,
// trying shards in order until one holds data. Units are inferred from
// every real dataset met on the way, so the shard that first holds data
// decides them.
func (s *Snapshot) probe(name string, f family.Family, natives []string) (reflect.Type, int, units.Unit, error) {
	fams, _, _ := s.scope(f)
	if len(fams) == 0 {
		return nil, 0, units.NoUnit, fmt.Errorf("snapshot has no particles: %w", ErrNotLoadable)
	}
	group := s.index.Groups(fams[0])[0]

	var (
		rep      container.Dataset
		repCount int
		unit     = units.NoUnit
	)
	for i := 0; i < s.shards.Len(); i++ {
		root, err := s.shards.Shard(i)
		if err != nil {
			return nil, 0, unit, err
		}
		ds, err := s.find(root, group, natives, s.index.Count(group, i))
		if err != nil {
			continue
		}
		rep, repCount = ds, s.index.Count(group, i)
		if !container.IsConst(ds) {
			if unit, err = s.inferrer.Infer(ds, s.system); err != nil {
				return nil, 0, unit, fmt.Errorf("%s: %w", ds.Path(), err)
			}
		}
		if container.Len(ds) != 0 {
			break
		}
	}
	if rep == nil {
		return nil, 0, unit, fmt.Errorf("%s not present in %s: %w", name, group, ErrNotLoadable)
	}

	shape := rep.Shape()
	dim := 1
	for _, d := range shape[min(1, len(shape)):] {
		dim *= d
	}
	// some writers fold vector fields into flat 1-D datasets
	if n := container.Len(rep); repCount > 0 && n != repCount {
		dim = container.Size(rep) / repCount
	}
	if dim < 1 {
		return nil, 0, unit, fmt.Errorf("%s holds %d elements for %d particles: %w",
			rep.Path(), container.Size(rep), repCount, ErrShape)
	}
	return rep.Type(), dim, unit, nil
}

// find resolves the dataset for a native group in one shard: a synthetic
// constant for header masses and softening lengths, else the first native
// candidate present.
func (s *Snapshot) find(root container.Group, group string, natives []string, count int) (container.Dataset, error) {
	grp, err := root.OpenGroup(group)
	if err != nil {
		return nil, err
	}
	for _, n := range natives {
		path := container.JoinPath(grp.Path(), n)
		switch s.names.ToCanonical(n) {
		case MassKey:
			if m := massTable(root, group); m > 0 {
				return container.NewConst(path, m, count, s.massType), nil
			}
		case SofteningKey:
			if eps, ok := s.softening(group); ok {
				return container.NewConst(path, eps, count, s.massType), nil
			}
		}
		if ds, err := grp.OpenDataset(n); err == nil {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("none of %v in %s: %w", natives, grp.Path(), ErrNotLoadable)
}

// defaultUnit is the unit assumed for well-known arrays whose datasets carry
// no unit metadata.
func (s *Snapshot) defaultUnit(name string) units.Unit {
	switch name {
	case "pos", "smooth", SofteningKey:
		return s.system.Length
	case "vel":
		return s.system.Velocity
	case MassKey:
		return s.system.Mass
	case "temp":
		return s.system.Temperature
	}
	return units.NoUnit
}
