package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/internal/shard"
	"github.com/robert-malhotra/go-gadgethdf/units"
)

// SofteningKeys name the parameter attributes holding per-type softening
// lengths: Class+N selects the softening class c of particle type N, and
// Comoving+c and MaxPhys+c give its comoving and maximum physical length.
type SofteningKeys struct {
	Class, Comoving, MaxPhys string
}

// Variant is one flavour of the Gadget HDF5 layout. Variants differ only in
// how they are recognised, where the shard count lives, the softening
// attribute names and the unit inference strategy.
type Variant struct {
	Name string
	// ProbeKey must exist in the file root. A trailing '?' is tried with
	// the type numbers 0 to 5.
	ProbeKey string
	// ProbeGroup and ProbeAttr, when set, name an attribute that must
	// also be present.
	ProbeGroup, ProbeAttr string

	Shards    shard.Spec
	Softening SofteningKeys
	Units     units.Strategy
}

var classSoftening = SofteningKeys{
	Class:    "SofteningClassOfPartType",
	Comoving: "SofteningComovingClass",
	MaxPhys:  "SofteningMaxPhysClass",
}

var (
	// SubFind snapshots carry their particles inside an FOF group catalogue.
	SubFind = Variant{
		Name:      "subfind",
		ProbeKey:  "FOF",
		Shards:    shard.SubFind,
		Softening: classSoftening,
		Units:     units.FromDescription,
	}

	// EagleLike snapshots record subhalo membership per particle.
	EagleLike = Variant{
		Name:      "eagle",
		ProbeKey:  "PartType1/SubGroupNumber",
		Shards:    shard.Gadget,
		Softening: classSoftening,
		Units:     units.FromDescription,
	}

	// Arepo snapshots declare their compile-time options in a Config group.
	Arepo = Variant{
		Name:       "arepo",
		ProbeKey:   "PartType?",
		ProbeGroup: "Config",
		ProbeAttr:  "VORONOI",
		Shards:     shard.Gadget,
		Softening: SofteningKeys{
			Class:    "SofteningTypeOfPartType",
			Comoving: "SofteningComovingType",
			MaxPhys:  "SofteningMaxPhysType",
		},
		Units: units.FromExponents,
	}

	// Gadget is the classic layout and matches any file with a PartType group.
	Gadget = Variant{
		Name:      "gadget",
		ProbeKey:  "PartType?",
		Shards:    shard.Gadget,
		Softening: classSoftening,
		Units:     units.FromDescription,
	}
)

// Variants lists the known variants in detection order, most specific first.
var Variants = []Variant{SubFind, EagleLike, Arepo, Gadget}

func (v Variant) String() string { return v.Name }

// Matches reports whether the file root carries the variant's probe key and
// probe attribute.
func (v Variant) Matches(root container.Group) bool {
	found := false
	if strings.HasSuffix(v.ProbeKey, "?") {
		prefix := strings.TrimSuffix(v.ProbeKey, "?")
		for p := 0; p < 6 && !found; p++ {
			found = container.Has(root, prefix+strconv.Itoa(p))
		}
	} else {
		found = container.Has(root, v.ProbeKey)
	}
	if !found {
		return false
	}
	if v.ProbeAttr == "" {
		return true
	}
	g, err := root.OpenGroup(v.ProbeGroup)
	if err != nil {
		return false
	}
	_, ok := g.Attr(v.ProbeAttr)
	return ok
}

// VariantByName looks a variant up by its Name.
func VariantByName(name string) (Variant, error) {
	for _, v := range Variants {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("variant %q: %w", name, ErrNoVariant)
}

// Detect opens the first file of the snapshot at path, the path itself or
// its ".0.hdf5" shard, and returns the first matching variant.
func Detect(path string, backend container.Backend) (Variant, error) {
	p := path
	if !backend.IsContainer(p) {
		p = path + ".0.hdf5"
		if !backend.IsContainer(p) {
			return Variant{}, fmt.Errorf("%s: %w", path, ErrFormat)
		}
	}
	f, err := backend.Open(p, container.ReadOnly)
	if err != nil {
		return Variant{}, fmt.Errorf("%s: %w: %v", p, ErrFormat, err)
	}
	defer f.Close()

	root := f.Root()
	for _, v := range Variants {
		if v.Matches(root) {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%s: %w", p, ErrNoVariant)
}

// CanLoad reports whether Open can read the snapshot at path.
func CanLoad(path string, backend container.Backend) bool {
	_, err := Detect(path, backend)
	return err == nil
}
