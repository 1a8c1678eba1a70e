package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"go.uber.org/zap"
)

// Inferrer derives the unit of one dataset from its attributes.
type Inferrer interface {
	Infer(attrs container.Attrs, sys *System) (Unit, error)
}

// Strategy selects an Inferrer.
type Strategy int

const (
	// FromDescription parses the VarDescription text of Gadget, SubFind
	// and Eagle-like files.
	FromDescription Strategy = iota
	// FromExponents reads the numeric scaling attributes of Arepo files.
	FromExponents
)

func (s Strategy) String() string {
	if s == FromExponents {
		return "exponents"
	}
	return "description"
}

// Inferrer returns the strategy's implementation.
func (s Strategy) Inferrer(log *zap.Logger) Inferrer {
	if log == nil {
		log = zap.NewNop()
	}
	if s == FromExponents {
		return Exponents{log: log}
	}
	return Description{log: log}
}

const cgsTolerance = 1e-3

// Description infers units from a VarDescription string such as
// "Co-moving coordinates. Physical position: r = ax = Coordinates h^-1 a U_L [cm]".
//
// Each symbol of the system's table counts at its first occurrence only.
// A '/' right before it negates its power; a following '^' introduces an
// exponent, optionally signed with '-'.
type Description struct {
	log *zap.Logger
}

// Infer parses the VarDescription attribute against the symbols of sys.
func (d Description) Infer(attrs container.Attrs, sys *System) (Unit, error) {
	desc, ok := container.String(attrs, "VarDescription")
	if !ok {
		d.log.Warn("unable to infer units from attributes: no VarDescription")
		return NoUnit, nil
	}
	u, conversion, err := ParseDescription(desc, sys.Symbols)
	if err != nil {
		return NoUnit, err
	}
	if expected, ok := container.Float(attrs, "CGSConversionFactor"); ok {
		if !closeTo(conversion, expected, cgsTolerance) {
			return NoUnit, fmt.Errorf("inferred cgs conversion factor %g but file requires %g: %w",
				conversion, expected, ErrInference)
		}
	}
	if aexp, ok := container.Float(attrs, "aexp-scale-exponent"); ok && !nearZero(aexp) {
		u = u.Mul(ScaleFactor.Pow(LimitDefault(aexp)))
	}
	if hexp, ok := container.Float(attrs, "h-scale-exponent"); ok && !nearZero(hexp) {
		u = u.Mul(Hubble.Pow(LimitDefault(hexp)))
	}
	return u, nil
}

// ParseDescription multiplies together the symbols found in desc. It
// returns the unit and its pure cgs conversion factor.
func ParseDescription(desc string, table []Symbol) (Unit, float64, error) {
	u := Dimensionless
	conversion := 1.0
	for _, sym := range table {
		pos := strings.Index(desc, sym.Name)
		if pos < 0 {
			continue
		}
		power := 1.0
		if pos > 0 && desc[pos-1] == '/' {
			power = -power
		}
		after := pos + len(sym.Name)
		// a caret closing the string leaves the power at 1
		if after+1 < len(desc) && desc[after] == '^' {
			start := after + 1
			if desc[start] == '-' {
				power = -power
				start++
			}
			e, err := readExponent(desc, start)
			if err != nil {
				return NoUnit, 0, fmt.Errorf("symbol %s in %q: %w", sym.Name, desc, err)
			}
			power *= e
		}
		if nearZero(power) {
			continue
		}
		p := LimitDefault(power)
		u = u.Mul(sym.Unit.Pow(p))
		conversion *= math.Pow(sym.Unit.Factor, p.Float())
	}
	return u, conversion, nil
}

// readExponent reads the number at desc[start:], excluding the final
// character of desc (descriptions close with a bracketed unit), up to the
// next whitespace. When the exponent itself ends the string the final
// character is kept.
func readExponent(desc string, start int) (float64, error) {
	var field string
	if start < len(desc)-1 {
		if fields := strings.Fields(desc[start : len(desc)-1]); len(fields) > 0 {
			field = fields[0]
		}
	}
	if field == "" && start < len(desc) {
		if fields := strings.Fields(desc[start:]); len(fields) > 0 {
			field = fields[0]
		}
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("bad exponent %q: %w", field, ErrInference)
	}
	return v, nil
}

// Exponents infers units from the length_scaling, mass_scaling,
// velocity_scaling, a_scaling, h_scaling and to_cgs attributes. A to_cgs
// of zero marks a dimensionless quantity.
type Exponents struct {
	log *zap.Logger
}

// Infer builds the unit from the *_scaling and to_cgs attributes.
func (e Exponents) Infer(attrs container.Attrs, _ *System) (Unit, error) {
	l, ok := container.Float(attrs, "length_scaling")
	if !ok {
		e.log.Warn("unable to infer units from attributes: no length_scaling")
		return NoUnit, nil
	}
	m, _ := container.Float(attrs, "mass_scaling")
	v, _ := container.Float(attrs, "velocity_scaling")
	a, _ := container.Float(attrs, "a_scaling")
	h, _ := container.Float(attrs, "h_scaling")

	u := Dimensionless
	if toCGS, _ := container.Float(attrs, "to_cgs"); toCGS != 0 {
		u = Scalar(toCGS)
	}
	for _, f := range []struct {
		exp  float64
		base Unit
	}{
		{l, Cm}, {m, Gram}, {v, CmPerSecond}, {a, ScaleFactor}, {h, Hubble},
	} {
		if !nearZero(f.exp) {
			u = u.Mul(f.base.Pow(LimitDefault(f.exp)))
		}
	}
	return u, nil
}
