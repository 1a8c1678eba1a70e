package units

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/robert-malhotra/go-gadgethdf/internal/config"
	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"go.uber.org/zap"
)

var (
	// ErrFormat reports unit metadata that is present but unusable.
	ErrFormat = errors.New("malformed unit metadata")
	// ErrInference reports a unit that contradicts the file's own cgs factor.
	ErrInference = errors.New("unit inference failed")
)

// Attribute names of the base unit block.
const (
	VelocityKey = "UnitVelocity_in_cm_per_s"
	LengthKey   = "UnitLength_in_cm"
	MassKey     = "UnitMass_in_g"
	TimeKey     = "UnitTime_in_s"
)

// Symbol is one entry of the table description strings are parsed against.
type Symbol struct {
	Name string
	Unit Unit
}

// System is the set of base units of one snapshot. Velocity, Length and
// Mass include the cosmological a and h factors of cosmological runs;
// Symbols holds the plain base units.
type System struct {
	Velocity, Length, Mass, Temperature, Time Unit

	Symbols      []Symbol
	Cosmological bool
	// Defaulted is set when the file carries no unit metadata.
	Defaulted bool
}

// Symbol looks up a description symbol.
func (s *System) Symbol(name string) (Unit, bool) {
	for _, sym := range s.Symbols {
		if sym.Name == name {
			return sym.Unit, true
		}
	}
	return Unit{}, false
}

// CosmoNames lists the native dataset names probed for cosmological
// exponents of each base quantity.
type CosmoNames struct {
	Length, Velocity, Mass []string
}

// Source is the part of shard 0 the unit system is read from.
type Source struct {
	// Root is the file root holding Units, Parameters and Header.
	Root container.Group
	// Particles is the group holding the PartType groups.
	Particles container.Group
	Names     CosmoNames
}

// ParameterAttrs returns the Parameters attributes, or the Header
// attributes when Parameters is missing or empty.
func (src Source) ParameterAttrs() container.Attrs {
	if g, err := src.Root.OpenGroup("Parameters"); err == nil && len(g.AttrNames()) > 0 {
		return g
	}
	if g, err := src.Root.OpenGroup("Header"); err == nil {
		return g
	}
	return container.NoAttrs
}

// ResolveSystem reads the base unit system. Unit attributes come from the
// Units group, else from the parameter attributes; without a velocity unit
// there the configured defaults apply. Cosmological runs (HubbleParam set)
// fold the a and h exponents of the position, velocity and mass datasets
// into the length, velocity and mass units.
func ResolveSystem(src Source, defaults config.DefaultUnits, log *zap.Logger) (*System, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var attrs container.Attrs
	if g, err := src.Root.OpenGroup("Units"); err == nil {
		attrs = g
	} else {
		attrs = src.ParameterAttrs()
		if _, ok := attrs.Attr(VelocityKey); !ok {
			log.Warn("no unit information found; using default units")
			return defaultSystem(defaults), nil
		}
	}

	length, ok := container.Float(attrs, LengthKey)
	if !ok {
		return nil, fmt.Errorf("%s: %w", LengthKey, ErrFormat)
	}
	mass, ok := container.Float(attrs, MassKey)
	if !ok {
		return nil, fmt.Errorf("%s: %w", MassKey, ErrFormat)
	}
	velocity, haveVelocity := container.Float(attrs, VelocityKey)
	timeUnit, haveTime := container.Float(attrs, TimeKey)
	switch {
	case haveTime && !haveVelocity:
		velocity = length / timeUnit
	case !haveTime && haveVelocity:
		timeUnit = length / velocity
	case !haveTime && !haveVelocity:
		return nil, fmt.Errorf("neither %s nor %s: %w", VelocityKey, TimeKey, ErrFormat)
	}

	sys := &System{
		Velocity:    CmPerSecond.Scale(velocity),
		Length:      Cm.Scale(length),
		Mass:        Gram.Scale(mass),
		Temperature: Kelvin,
		Time:        Second.Scale(timeUnit),
	}
	sys.Symbols = symbols(sys.Velocity, sys.Length, sys.Mass, sys.Time)

	if _, cosmo := src.ParameterAttrs().Attr("HubbleParam"); cosmo {
		sys.Cosmological = true
		sys.Length = sys.Length.Mul(cosmoFactor(src.Particles, src.Names.Length, false,
			ScaleFactor.Mul(Hubble.Pow(Int(-1))), "position", log))
		sys.Velocity = sys.Velocity.Mul(cosmoFactor(src.Particles, src.Names.Velocity, false,
			ScaleFactor.Pow(R(1, 2)), "velocity", log))
		sys.Mass = sys.Mass.Mul(cosmoFactor(src.Particles, src.Names.Mass, true,
			Hubble.Pow(Int(-1)), "mass", log))
	}
	return sys, nil
}

func defaultSystem(d config.DefaultUnits) *System {
	fromSpec := func(base Unit, s config.UnitSpec) Unit {
		u := base.Scale(s.CGS)
		if !nearZero(s.A) {
			u = u.Mul(ScaleFactor.Pow(LimitDefault(s.A)))
		}
		if !nearZero(s.H) {
			u = u.Mul(Hubble.Pow(LimitDefault(s.H)))
		}
		return u
	}
	sys := &System{
		Velocity:    fromSpec(CmPerSecond, d.Velocity),
		Length:      fromSpec(Cm, d.Length),
		Mass:        fromSpec(Gram, d.Mass),
		Temperature: Kelvin,
		Time:        Second.Scale(d.Length.CGS / d.Velocity.CGS),
		Defaulted:   true,
	}
	sys.Symbols = symbols(CmPerSecond.Scale(d.Velocity.CGS), Cm.Scale(d.Length.CGS), Gram.Scale(d.Mass.CGS), sys.Time)
	return sys
}

func symbols(velocity, length, mass, time Unit) []Symbol {
	return []Symbol{
		{"U_V", velocity},
		{"U_L", length},
		{"U_M", mass},
		{"U_T", time},
		{"[K]", Kelvin},
		{"SEC_PER_YEAR", Yr},
		{"SOLAR_MASS", Msol},
		{"solar masses / yr", Msol.Div(Yr)},
		{"BH smoothing", length},
	}
}

// cosmoFactor returns a^aexp h^hexp read from the first dataset below a
// PartType group of root whose name is one of natives. With no such dataset
// the factor is 1, except for mass which falls back to fallback with a
// warning. A dataset without exponent attributes also yields fallback.
func cosmoFactor(root container.Group, natives []string, isMass bool, fallback Unit, what string, log *zap.Logger) Unit {
	ds, ok := findParticleDataset(root, natives)
	if !ok {
		if isMass {
			log.Warn("masses are stored in the header or under another name; assuming cosmological factor",
				zap.Stringer("factor", fallback))
			return fallback
		}
		return Dimensionless
	}
	aexp, okA := firstFloat(ds, "aexp-scale-exponent", "a_scaling")
	hexp, okH := firstFloat(ds, "h-scale-exponent", "h_scaling")
	if !okA || !okH {
		log.Warn("unable to find cosmological factors; assuming default",
			zap.String("quantity", what), zap.String("dataset", ds.Path()), zap.Stringer("factor", fallback))
		return fallback
	}
	return ScaleFactor.Pow(LimitDefault(aexp)).Mul(Hubble.Pow(LimitDefault(hexp)))
}

func findParticleDataset(root container.Group, natives []string) (container.Dataset, bool) {
	if root == nil {
		return nil, false
	}
	groups, err := container.GroupsWithPrefix(root, "PartType")
	if err != nil {
		return nil, false
	}
	// first match in sorted key order, searching every particle group
	var paths []string
	for _, g := range groups {
		keys, err := container.DatasetKeys(g)
		if err != nil {
			continue
		}
		for _, k := range keys {
			_, base := container.SplitDir(k)
			for _, n := range natives {
				_, nbase := container.SplitDir(n)
				if base == nbase {
					paths = append(paths, g.Name()+"/"+k)
					break
				}
			}
		}
	}
	if len(paths) == 0 {
		return nil, false
	}
	sort.Strings(paths)
	ds, err := root.OpenDataset(paths[0])
	if err != nil {
		return nil, false
	}
	return ds, true
}

func firstFloat(a container.Attrs, names ...string) (float64, bool) {
	for _, n := range names {
		if v, ok := container.Float(a, n); ok {
			return v, true
		}
	}
	return 0, false
}

func nearZero(x float64) bool {
	return math.Abs(x) <= 1e-8
}
