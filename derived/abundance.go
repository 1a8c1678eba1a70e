// Package derived registers quantities computed from the arrays of a
// snapshot: logarithmic abundance ratios relative to solar, and aliases for
// the hydrogen and helium mass fractions.
package derived

import (
	"errors"
	"fmt"
	"math"

	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/snapshot"
	"github.com/robert-malhotra/go-gadgethdf/units"
)

// ErrNoAbundance reports an element array without a single positive value.
var ErrNoAbundance = errors.New("no positive abundance")

// Solar mass fractions used by the Gadget-3 OWLS, Eagle and Smaug runs.
const (
	XSolH  = 0.70649785
	XSolHe = 0.28055534
	XSolC  = 2.0665436e-3
	XSolN  = 8.3562563e-4
	XSolO  = 5.4926244e-3
	XSolNe = 1.4144605e-3
	XSolMg = 5.907064e-4
	XSolSi = 6.825874e-4
	XSolS  = 4.0898522e-4
	XSolCa = 6.4355e-5
	XSolFe = 1.1032152e-3
)

// Ratio is log10(num/den) - log10(solarNum/solarDen). Zero abundances of
// num, and of den when FloorDen is set, are replaced by the smallest
// positive abundance of that element first. A ratio with Variant set is
// only computed for snapshots of that variant.
type Ratio struct {
	Name               string
	Num, Den           string
	SolarNum, SolarDen float64
	FloorDen           bool
	Variant            string
}

// Ratios is the abundance ratio table. The sixh, sxh, mgxh, nexh and hexh
// rows divide the element by itself, and nxh takes hydrogen as its solar
// numerator; both are kept as published for the runs above.
var Ratios = []Ratio{
	{Name: "feh", Num: "Fe", Den: "H", SolarNum: XSolFe, SolarDen: XSolH},
	{Name: "sixh", Num: "Si", Den: "Si", SolarNum: XSolSi, SolarDen: XSolH},
	{Name: "sxh", Num: "S", Den: "S", SolarNum: XSolS, SolarDen: XSolH},
	{Name: "mgxh", Num: "Mg", Den: "Mg", SolarNum: XSolMg, SolarDen: XSolH},
	{Name: "oxh", Num: "O", Den: "H", SolarNum: XSolO, SolarDen: XSolH},
	{Name: "nexh", Num: "Ne", Den: "Ne", SolarNum: XSolNe, SolarDen: XSolH},
	{Name: "hexh", Num: "He", Den: "He", SolarNum: XSolHe, SolarDen: XSolH, Variant: snapshot.SubFind.Name},
	{Name: "cxh", Num: "C", Den: "H", SolarNum: XSolC, SolarDen: XSolH},
	{Name: "caxh", Num: "Ca", Den: "H", SolarNum: XSolCa, SolarDen: XSolH},
	{Name: "nxh", Num: "N", Den: "H", SolarNum: XSolH, SolarDen: XSolH},
	{Name: "ofe", Num: "O", Den: "Fe", SolarNum: XSolO, SolarDen: XSolFe, FloorDen: true},
	{Name: "mgfe", Num: "Mg", Den: "Fe", SolarNum: XSolMg, SolarDen: XSolFe, FloorDen: true},
	{Name: "nefe", Num: "Ne", Den: "Fe", SolarNum: XSolNe, SolarDen: XSolFe, FloorDen: true},
	{Name: "sife", Num: "Si", Den: "Fe", SolarNum: XSolSi, SolarDen: XSolFe, FloorDen: true},
}

// Aliases maps derived names onto element arrays.
var Aliases = map[string]string{
	"hetot":    "He",
	"hydrogen": "H",
}

// Register adds the abundance ratios and aliases to reg.
func Register(reg *snapshot.Registry) {
	for _, r := range Ratios {
		reg.Register(snapshot.Derived{Name: r.Name, Compute: r.Compute})
	}
	for _, name := range []string{"hetot", "hydrogen"} {
		reg.Register(snapshot.Derived{Name: name, Compute: alias(Aliases[name])})
	}
}

// Compute evaluates the ratio for family f.
func (r Ratio) Compute(s *snapshot.Snapshot, f family.Family) (*snapshot.Array, error) {
	if r.Variant != "" && s.Variant().Name != r.Variant {
		return nil, fmt.Errorf("%s needs a %s snapshot: %w", r.Name, r.Variant, snapshot.ErrNotLoadable)
	}
	num, err := element(s, r.Num, f, true)
	if err != nil {
		return nil, err
	}
	den := num
	if r.Den != r.Num {
		if den, err = element(s, r.Den, f, r.FloorDen); err != nil {
			return nil, err
		}
	}
	solar := math.Log10(r.SolarNum / r.SolarDen)
	out := make([]float64, len(num))
	for i := range out {
		out[i] = math.Log10(num[i]/den[i]) - solar
	}
	return snapshot.NewFloatArray(r.Name, f, out, 1, units.Dimensionless), nil
}

// element returns a float64 copy of an element abundance, with zeros
// raised to the smallest positive value when floor is set.
func element(s *snapshot.Snapshot, name string, f family.Family, floor bool) ([]float64, error) {
	a, err := s.Get(name, f)
	if err != nil {
		return nil, err
	}
	v, err := a.Float64s()
	if err != nil {
		return nil, err
	}
	if !floor {
		return v, nil
	}
	least := math.Inf(1)
	for _, x := range v {
		if x > 0 && x < least {
			least = x
		}
	}
	if math.IsInf(least, 1) {
		return nil, fmt.Errorf("%s: %w", name, ErrNoAbundance)
	}
	for i, x := range v {
		if x == 0 {
			v[i] = least
		}
	}
	return v, nil
}

func alias(source string) snapshot.ComputeFunc {
	return func(s *snapshot.Snapshot, f family.Family) (*snapshot.Array, error) {
		a, err := s.Get(source, f)
		if err != nil {
			return nil, err
		}
		v, err := a.Float64s()
		if err != nil {
			return nil, err
		}
		return snapshot.NewFloatArray("", f, v, a.Dim, a.Unit), nil
	}
}
