package snapshot

import (
	"fmt"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"go.uber.org/zap"
)

// Store writes the in-memory array name for family f, or for every family
// when f is empty, back to the shards under its first native name. Missing
// datasets are created, with intermediate groups for nested names;
// existing ones must match the array's shape and type exactly. The shards
// are reopened read-write for the call and read-only again on return.
//
// Masses cannot be stored: they may live in the header mass table.
//
// The default HDF5 backend cannot rewrite datasets of an existing file, so
// with it Store fails with ErrUnsupported. Backends that support writing,
// such as the in-memory one, store normally.
func (s *Snapshot) Store(name string, f family.Family) (err error) {
	native := s.names.ToNative(name)[0]
	if name == MassKey || s.names.ToCanonical(native) == MassKey {
		return fmt.Errorf("%s: %w", name, ErrReadOnlyArray)
	}
	fams, _, _ := s.scope(f)
	arrays := make(map[family.Family]*Array, len(fams))
	for _, fam := range fams {
		a, ok := s.cached(name, fam)
		if !ok {
			return fmt.Errorf("%s for %q: %w", name, fam, ErrNotLoaded)
		}
		arrays[fam] = a
	}

	defer func() {
		if rerr := s.shards.Reopen(container.ReadOnly); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if err := s.shards.Reopen(container.ReadWrite); err != nil {
		return err
	}

	for _, fam := range fams {
		a := arrays[fam]
		r, _ := s.index.FamilyRange(fam)
		for _, g := range s.index.Groups(fam) {
			for i := 0; i < s.shards.Len(); i++ {
				count := s.index.Count(g, i)
				if count == 0 {
					continue
				}
				if err := s.storeSlice(a, r.Start, g, i, native); err != nil {
					return fmt.Errorf("storing %s: %w", name, err)
				}
			}
		}
	}
	s.log.Debug("stored array", zap.String("name", name), zap.String("family", string(f)))
	return nil
}

func (s *Snapshot) storeSlice(a *Array, base int, group string, i int, native string) error {
	root, err := s.shards.Shard(i)
	if err != nil {
		return err
	}
	grp, err := root.OpenGroup(group)
	if err != nil {
		return fmt.Errorf("shard %d: %w", i, err)
	}
	r := s.index.Slice(group, i)
	shape := []int{r.Len()}
	if a.Dim > 1 {
		shape = append(shape, a.Dim)
	}
	ds, err := container.RequireDatasetAt(grp, native, shape, a.Type)
	if err != nil {
		return fmt.Errorf("shard %d: %w", i, err)
	}
	return ds.Write(a.Rows(r.Start-base, r.Stop-base))
}
