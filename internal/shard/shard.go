// Package shard manages the files a snapshot is split across. A snapshot
// stored at base path P is either the single container P or the series
// P.0.hdf5 ... P.(n-1).hdf5, with n recorded as an attribute of shard 0.
package shard

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"go.uber.org/zap"
)

// Common errors
var (
	// ErrFormat reports a missing shard 0 or an unreadable shard count.
	ErrFormat = errors.New("not a readable snapshot")
	// ErrIndex reports a shard index outside [0, Len()).
	ErrIndex  = errors.New("shard index out of range")
)

// Spec describes where a schema variant records its shard count and roots
// its particle groups.
type Spec struct {
	// CountGroup and CountAttr locate the shard count in shard 0.
	CountGroup string
	CountAttr  string
	// SubRoot, when set, is the group inside each file that holds the
	// particle groups.
	SubRoot string
	// SizeKey is the dataset whose length is a group's particle count.
	SizeKey string
}

// Gadget is the layout shared by Gadget, Arepo and Eagle-like snapshots.
var Gadget = Spec{CountGroup: "Header", CountAttr: "NumFilesPerSnapshot", SizeKey: "ParticleIDs"}

// SubFind is the layout of group catalogues with embedded particle data.
var SubFind = Spec{CountGroup: "FOF", CountAttr: "NTask", SubRoot: "FOF", SizeKey: "ParticleIDs"}

// Set is an ordered sequence of shard files opened lazily and cached.
// A Set is not safe for concurrent use.
type Set struct {
	path    string
	single  bool
	n       int
	spec    Spec
	backend container.Backend
	mode    container.Mode
	cache   *cache
	log     *zap.Logger
}

// Open opens the snapshot at path. Shard 0 is opened immediately; the
// remaining shards are opened on first access.
func Open(path string, spec Spec, backend container.Backend, log *zap.Logger) (*Set, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Set{
		path:    path,
		spec:    spec,
		backend: backend,
		mode:    container.ReadOnly,
		cache:   newCache(),
		log:     log,
	}

	if backend.IsContainer(path) {
		s.single = true
		s.n = 1
		if _, err := s.handle(0); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrFormat, err)
		}
		return s, nil
	}

	// provisional count so shard 0 passes the range check
	s.n = 1
	h, err := s.handle(0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrFormat, err)
	}
	countGroup, err := h.root.OpenGroup(spec.CountGroup)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w: no %s group", s.FilePath(0), ErrFormat, spec.CountGroup)
	}
	n, ok := container.Int(countGroup, spec.CountAttr)
	if !ok || n < 1 {
		s.Close()
		return nil, fmt.Errorf("%s: %w: no usable %s/%s attribute", s.FilePath(0), ErrFormat, spec.CountGroup, spec.CountAttr)
	}
	s.n = int(n)
	log.Debug("opened sharded snapshot", zap.String("path", path), zap.Int("shards", s.n))
	return s, nil
}

// Len is the number of shards.
func (s *Set) Len() int { return s.n }

// Mode is the access mode of the cached handles.
func (s *Set) Mode() container.Mode { return s.mode }

// Spec returns the layout the set was opened with.
func (s *Set) Spec() Spec { return s.spec }

// FilePath is the path of shard i.
func (s *Set) FilePath(i int) string {
	if s.single {
		return s.path
	}
	return fmt.Sprintf("%s.%d.hdf5", s.path, i)
}

// Shard returns the particle root of shard i: the configured sub-root
// group, or the file root.
func (s *Set) Shard(i int) (container.Group, error) {
	h, err := s.handle(i)
	if err != nil {
		return nil, err
	}
	return h.shard, nil
}

// File returns the root group of shard i, where headers and parameters live.
func (s *Set) File(i int) (container.Group, error) {
	h, err := s.handle(i)
	if err != nil {
		return nil, err
	}
	return h.root, nil
}

// Each calls fn for every shard in order, stopping at the first error.
func (s *Set) Each(fn func(i int, shard container.Group) error) error {
	for i := 0; i < s.n; i++ {
		g, err := s.Shard(i)
		if err != nil {
			return err
		}
		if err := fn(i, g); err != nil {
			return err
		}
	}
	return nil
}

// ParticleGroups calls fn with group name from every shard that has it
// and whose group holds the size dataset.
func (s *Set) ParticleGroups(name string, fn func(i int, g container.Group) error) error {
	return s.Each(func(i int, shard container.Group) error {
		g, err := shard.OpenGroup(name)
		if err != nil {
			return nil
		}
		if !container.HasDataset(g, s.spec.SizeKey) {
			return nil
		}
		return fn(i, g)
	})
}

// Reopen switches the access mode. Every cached handle is closed; shards
// are reopened in the new mode on next access.
func (s *Set) Reopen(mode container.Mode) error {
	if mode == s.mode {
		return nil
	}
	s.log.Debug("reopening shards", zap.Stringer("mode", mode))
	err := s.cache.invalidateAll()
	s.mode = mode
	return err
}

// Close closes every open shard.
func (s *Set) Close() error {
	return s.cache.invalidateAll()
}

func (s *Set) handle(i int) (*handle, error) {
	if i < 0 || i >= s.n {
		return nil, fmt.Errorf("shard %d of %d: %w", i, s.n, ErrIndex)
	}
	if h, ok := s.cache.get(i); ok {
		return h, nil
	}

	p := s.FilePath(i)
	s.log.Debug("opening shard", zap.Int("index", i), zap.String("path", p), zap.Stringer("mode", s.mode))
	f, err := s.backend.Open(p, s.mode)
	if err != nil {
		return nil, fmt.Errorf("opening shard %d: %w", i, err)
	}
	h := &handle{file: f, root: f.Root(), shard: f.Root()}
	if s.spec.SubRoot != "" {
		sub, err := h.root.OpenGroup(s.spec.SubRoot)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("shard %d: %w: no %s group", i, ErrFormat, s.spec.SubRoot)
		}
		h.shard = sub
	}
	s.cache.put(i, h)
	return h, nil
}
