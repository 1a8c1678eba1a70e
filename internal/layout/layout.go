// Package layout discovers which particle groups a snapshot contains and
// lays the families out as contiguous ranges of one global particle index.
package layout

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
)

// ErrInvariant reports a layout whose ranges do not partition [0, Len()).
var ErrInvariant = errors.New("index layout invariant violated")

// Range is the half-open interval [Start, Stop) of the global particle index.
type Range struct {
	Start, Stop int
}

// Len is the number of particles in the range.
func (r Range) Len() int { return r.Stop - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.Stop) }

// Candidates lists the native groups that may hold one family's particles.
type Candidates struct {
	Family family.Family
	Groups []string
}

// Shards is the view of a shard set needed to build an Index.
type Shards interface {
	Len() int
	Shard(i int) (container.Group, error)
}

// Index maps families and native groups to ranges of the global index.
type Index struct {
	families    []family.Family
	groups      map[family.Family][]string
	owner       map[string]family.Family
	familyRange map[family.Family]Range
	groupRange  map[string]Range
	counts      map[string][]int
	shards      int
	total       int
}

// Build probes every shard for the candidate groups. A group is present
// when it exists in any shard; its size is the summed length of sizeKey
// across shards, absent datasets counting zero. Families without a present
// group are dropped, and the rest are ordered by the type number of their
// first group.
func Build(table []Candidates, src Shards, sizeKey string) (*Index, error) {
	idx := &Index{
		groups:      make(map[family.Family][]string),
		owner:       make(map[string]family.Family),
		familyRange: make(map[family.Family]Range),
		groupRange:  make(map[string]Range),
		counts:      make(map[string][]int),
		shards:      src.Len(),
	}

	present := make(map[string]bool)
	for i := 0; i < src.Len(); i++ {
		root, err := src.Shard(i)
		if err != nil {
			return nil, err
		}
		for _, c := range table {
			for _, g := range c.Groups {
				if _, ok := idx.counts[g]; !ok {
					idx.counts[g] = make([]int, src.Len())
				}
				grp, err := root.OpenGroup(g)
				if err != nil {
					continue
				}
				present[g] = true
				if ds, err := grp.OpenDataset(sizeKey); err == nil {
					idx.counts[g][i] = container.Len(ds)
				}
			}
		}
	}

	for _, c := range table {
		var kept []string
		for _, g := range c.Groups {
			if present[g] {
				kept = append(kept, g)
				idx.owner[g] = c.Family
			}
		}
		if len(kept) == 0 {
			continue
		}
		if _, seen := idx.groups[c.Family]; !seen {
			idx.families = append(idx.families, c.Family)
		}
		idx.groups[c.Family] = append(idx.groups[c.Family], kept...)
	}

	sort.SliceStable(idx.families, func(i, j int) bool {
		return groupLess(idx.groups[idx.families[i]][0], idx.groups[idx.families[j]][0])
	})

	cursor := 0
	for _, f := range idx.families {
		start := cursor
		for _, g := range idx.groups[f] {
			n := 0
			for _, c := range idx.counts[g] {
				n += c
			}
			idx.groupRange[g] = Range{cursor, cursor + n}
			cursor += n
		}
		idx.familyRange[f] = Range{start, cursor}
	}
	idx.total = cursor

	for g := range idx.counts {
		if !present[g] {
			delete(idx.counts, g)
		}
	}
	return idx, nil
}

// TypeNumber parses the trailing integer of a group name such as "PartType4".
func TypeNumber(group string) (int, bool) {
	i := len(group)
	for i > 0 && group[i-1] >= '0' && group[i-1] <= '9' {
		i--
	}
	if i == len(group) {
		return 0, false
	}
	n, err := strconv.Atoi(group[i:])
	return n, err == nil
}

func groupLess(a, b string) bool {
	na, oka := TypeNumber(a)
	nb, okb := TypeNumber(b)
	switch {
	case oka && okb && na != nb:
		return na < nb
	case oka != okb:
		return oka
	}
	return a < b
}

// Families returns the present families in layout order.
func (x *Index) Families() []family.Family {
	return append([]family.Family(nil), x.families...)
}

// Groups returns the present native groups of f in layout order.
func (x *Index) Groups(f family.Family) []string {
	return append([]string(nil), x.groups[f]...)
}

// AllGroups returns every present native group in layout order.
func (x *Index) AllGroups() []string {
	var out []string
	for _, f := range x.families {
		out = append(out, x.groups[f]...)
	}
	return out
}

// Family returns the family a present group belongs to.
func (x *Index) Family(group string) (family.Family, bool) {
	f, ok := x.owner[group]
	return f, ok
}

// FamilyRange returns the range of f.
func (x *Index) FamilyRange(f family.Family) (Range, bool) {
	r, ok := x.familyRange[f]
	return r, ok
}

// GroupRange returns the range of a native group.
func (x *Index) GroupRange(group string) (Range, bool) {
	r, ok := x.groupRange[group]
	return r, ok
}

// Count is the number of particles of group stored in shard i.
func (x *Index) Count(group string, i int) int {
	c := x.counts[group]
	if i < 0 || i >= len(c) {
		return 0
	}
	return c[i]
}

// Slice is the range the particles of group in shard i occupy. Shards are
// laid out in order within a group.
func (x *Index) Slice(group string, i int) Range {
	start := x.groupRange[group].Start
	for j := 0; j < i; j++ {
		start += x.Count(group, j)
	}
	return Range{start, start + x.Count(group, i)}
}

// Len is the total number of particles.
func (x *Index) Len() int { return x.total }

// NumShards is the number of shards the index was built from.
func (x *Index) NumShards() int { return x.shards }

// Check verifies that the family ranges, and the group ranges within each
// family, are contiguous and cover [0, Len()).
func (x *Index) Check() error {
	cursor := 0
	for _, f := range x.families {
		fr := x.familyRange[f]
		if fr.Start != cursor {
			return fmt.Errorf("family %s starts at %d, want %d: %w", f, fr.Start, cursor, ErrInvariant)
		}
		for _, g := range x.groups[f] {
			gr := x.groupRange[g]
			if gr.Start != cursor || gr.Stop < gr.Start {
				return fmt.Errorf("group %s has range %s at cursor %d: %w", g, gr, cursor, ErrInvariant)
			}
			cursor = gr.Stop
		}
		if fr.Stop != cursor {
			return fmt.Errorf("family %s stops at %d, want %d: %w", f, fr.Stop, cursor, ErrInvariant)
		}
	}
	if cursor != x.total {
		return fmt.Errorf("ranges cover %d of %d particles: %w", cursor, x.total, ErrInvariant)
	}
	return nil
}
