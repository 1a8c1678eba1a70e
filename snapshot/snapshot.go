// Package snapshot reads Gadget-family HDF5 simulation snapshots. A
// snapshot split over several shard files is presented as one set of
// particles, partitioned into families and laid out in one global index.
// Arrays are loaded on demand and carry the physical unit inferred from the
// file's metadata.
package snapshot

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/internal/config"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/internal/layout"
	"github.com/robert-malhotra/go-gadgethdf/internal/names"
	"github.com/robert-malhotra/go-gadgethdf/internal/shard"
	"github.com/robert-malhotra/go-gadgethdf/units"
	"go.uber.org/zap"
)

// Names of the arrays that may be synthesised from header metadata.
const (
	MassKey      = "mass"
	SofteningKey = "eps"
)

// Range is a half-open interval of the global particle index.
type Range = layout.Range

type arrayKey struct {
	name string
	fam  family.Family
}

// Snapshot is an open simulation snapshot. It is not safe for concurrent use.
type Snapshot struct {
	path     string
	variant  Variant
	cfg      *config.Config
	log      *zap.Logger
	shards   *shard.Set
	names    *names.Translator
	system   *units.System
	inferrer units.Inferrer
	index    *layout.Index
	registry *Registry

	familyKeys map[family.Family]map[string]bool
	globalKeys map[string]bool
	massType   reflect.Type
	props      Properties

	arrays map[arrayKey]*Array
}

// Open opens the snapshot at path: either a single file, or the base name
// of the shards path.0.hdf5, path.1.hdf5 and so on.
func Open(path string, opts ...Option) (*Snapshot, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.L()
	}
	log := o.log.Named("snapshot")

	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return nil, err
		}
	}

	var v Variant
	if o.variant != nil {
		v = *o.variant
	} else {
		var err error
		if v, err = Detect(path, o.backend); err != nil {
			return nil, err
		}
	}
	log.Debug("opening snapshot", zap.String("path", path), zap.Stringer("variant", v))

	shards, err := shard.Open(path, v.Shards, o.backend, log.Named("shard"))
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		path:     path,
		variant:  v,
		cfg:      cfg,
		log:      log,
		shards:   shards,
		names:    names.New(cfg.NameMapping),
		inferrer: v.Units.Inferrer(log.Named("units")),
		registry: o.registry,
		arrays:   make(map[arrayKey]*Array),
	}
	if err := s.init(); err != nil {
		shards.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Snapshot) init() error {
	root, err := s.shards.File(0)
	if err != nil {
		return err
	}
	particles, err := s.shards.Shard(0)
	if err != nil {
		return err
	}
	src := units.Source{
		Root:      root,
		Particles: particles,
		Names: units.CosmoNames{
			Length:   s.names.ToNative("pos"),
			Velocity: s.names.ToNative("vel"),
			Mass:     s.names.ToNative(MassKey),
		},
	}
	if s.system, err = units.ResolveSystem(src, s.cfg.DefaultUnits, s.log.Named("units")); err != nil {
		return err
	}

	fams, groups := s.cfg.Families()
	table := make([]layout.Candidates, 0, len(fams))
	for _, f := range fams {
		table = append(table, layout.Candidates{Family: f, Groups: groups[f]})
	}
	if s.index, err = layout.Build(table, s.shards, s.variant.Shards.SizeKey); err != nil {
		return err
	}
	if err := s.index.Check(); err != nil {
		return err
	}

	if err := s.initLoadableKeys(); err != nil {
		return err
	}
	if err := s.inferMassType(); err != nil {
		return err
	}
	return s.initProperties()
}

// initLoadableKeys collects, per family, the canonical names of every
// dataset below the family's groups, plus mass, plus eps when every group
// instance has softening metadata. The global set is the intersection over
// families.
func (s *Snapshot) initLoadableKeys() error {
	params, err := s.parameterAttrs()
	if err != nil {
		return err
	}
	s.familyKeys = make(map[family.Family]map[string]bool)
	for _, f := range s.index.Families() {
		keys := map[string]bool{MassKey: true}
		eps := true
		for _, g := range s.index.Groups(f) {
			err := s.shards.ParticleGroups(g, func(_ int, grp container.Group) error {
				natives, err := container.DatasetKeys(grp)
				if err != nil {
					return err
				}
				for _, n := range natives {
					keys[s.names.ToCanonical(n)] = true
				}
				eps = eps && s.haveSoftening(params, g)
				return nil
			})
			if err != nil {
				return err
			}
		}
		if eps {
			keys[SofteningKey] = true
		}
		s.familyKeys[f] = keys
	}

	s.globalKeys = make(map[string]bool)
	fams := s.index.Families()
	if len(fams) == 0 {
		return nil
	}
	for k := range s.familyKeys[fams[0]] {
		s.globalKeys[k] = true
	}
	for _, f := range fams[1:] {
		for k := range s.globalKeys {
			if !s.familyKeys[f][k] {
				delete(s.globalKeys, k)
			}
		}
	}
	return nil
}

// inferMassType picks the element type of the position datasets, so that
// masses read partly from the header and partly from datasets share one
// type. The last position dataset found wins; float64 without any.
func (s *Snapshot) inferMassType() error {
	s.massType = reflect.TypeOf(float64(0))
	pos := s.names.ToNative("pos")
	for _, g := range s.cfg.AllGroups() {
		err := s.shards.ParticleGroups(g, func(_ int, grp container.Group) error {
			for _, n := range pos {
				if ds, err := grp.OpenDataset(n); err == nil {
					s.massType = ds.Type()
					break
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Snapshot) parameterAttrs() (container.Attrs, error) {
	root, err := s.shards.File(0)
	if err != nil {
		return nil, err
	}
	return units.Source{Root: root}.ParameterAttrs(), nil
}

func (s *Snapshot) headerAttrs() (container.Attrs, error) {
	root, err := s.shards.File(0)
	if err != nil {
		return nil, err
	}
	h, err := root.OpenGroup("Header")
	if err != nil {
		return container.NoAttrs, nil
	}
	return h, nil
}

// Path is the path the snapshot was opened with.
func (s *Snapshot) Path() string { return s.path }

// Variant is the layout variant the snapshot was read as.
func (s *Snapshot) Variant() Variant { return s.variant }

// NumShards is the number of shard files.
func (s *Snapshot) NumShards() int { return s.shards.Len() }

// Families returns the families present, in layout order.
func (s *Snapshot) Families() []family.Family { return s.index.Families() }

// Groups returns the native particle groups of f, in layout order.
func (s *Snapshot) Groups(f family.Family) []string { return s.index.Groups(f) }

// Len is the total number of particles.
func (s *Snapshot) Len() int { return s.index.Len() }

// FamilyLen is the number of particles of f; zero for an absent family.
func (s *Snapshot) FamilyLen(f family.Family) int {
	r, _ := s.index.FamilyRange(f)
	return r.Len()
}

// Range returns the slice of the global index occupied by f.
func (s *Snapshot) Range(f family.Family) (Range, bool) { return s.index.FamilyRange(f) }

// GroupRange returns the slice of the global index occupied by a native group.
func (s *Snapshot) GroupRange(group string) (Range, bool) { return s.index.GroupRange(group) }

// Units is the base unit system of the snapshot.
func (s *Snapshot) Units() *units.System { return s.system }

// Properties returns the simulation properties read from the header.
func (s *Snapshot) Properties() Properties { return s.props }

// MassType is the element type every mass array is loaded with.
func (s *Snapshot) MassType() reflect.Type { return s.massType }

// LoadableKeys lists, sorted, the arrays Load accepts for f. With an empty
// family it lists the arrays common to every family.
func (s *Snapshot) LoadableKeys(f family.Family) []string {
	set := s.globalKeys
	if f != "" {
		set = s.familyKeys[f]
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Snapshot) loadable(name string, f family.Family) bool {
	if f == "" {
		return s.globalKeys[name]
	}
	return s.familyKeys[f][name]
}

// Close releases every shard file.
func (s *Snapshot) Close() error {
	return s.shards.Close()
}
