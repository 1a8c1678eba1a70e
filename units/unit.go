// Package units infers the physical units of snapshot arrays. A Unit is a
// cgs multiplier times rational powers of the base dimensions (cm, g, s, K)
// and of the cosmological scale factor a and reduced Hubble constant h.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Unit is Factor × cm^L g^M s^T K^K × a^A h^H. The zero value is not
// meaningful; start from Dimensionless or one of the base units.
type Unit struct {
	Factor     float64
	L, M, T, K Rat
	A, H       Rat
	none       bool
}

// Physical constants, cgs.
const (
	Year      = 3.1556926e7
	Gigayear  = 1e9 * Year
	SolarMass = 1.98847e33
)

var (
	// NoUnit marks an array whose unit could not be inferred. It absorbs
	// every product.
	NoUnit = Unit{none: true}

	Dimensionless = Unit{Factor: 1}
	Cm            = Unit{Factor: 1, L: Int(1)}
	Gram          = Unit{Factor: 1, M: Int(1)}
	Second        = Unit{Factor: 1, T: Int(1)}
	Kelvin        = Unit{Factor: 1, K: Int(1)}
	ScaleFactor   = Unit{Factor: 1, A: Int(1)}
	Hubble        = Unit{Factor: 1, H: Int(1)}
	CmPerSecond   = Unit{Factor: 1, L: Int(1), T: Int(-1)}
	Yr            = Unit{Factor: Year, T: Int(1)}
	Msol          = Unit{Factor: SolarMass, M: Int(1)}
)

// Scalar returns the dimensionless unit f.
func Scalar(f float64) Unit { return Unit{Factor: f} }

// IsNone reports whether u is NoUnit.
func (u Unit) IsNone() bool { return u.none }

// Scale multiplies the cgs factor by f.
func (u Unit) Scale(f float64) Unit {
	if u.none {
		return u
	}
	u.Factor *= f
	return u
}

// Mul returns u × v.
func (u Unit) Mul(v Unit) Unit {
	if u.none || v.none {
		return NoUnit
	}
	return Unit{
		Factor: u.Factor * v.Factor,
		L:      u.L.Add(v.L),
		M:      u.M.Add(v.M),
		T:      u.T.Add(v.T),
		K:      u.K.Add(v.K),
		A:      u.A.Add(v.A),
		H:      u.H.Add(v.H),
	}
}

// Div returns u / v.
func (u Unit) Div(v Unit) Unit {
	return u.Mul(v.Pow(Int(-1)))
}

// Pow returns u^p.
func (u Unit) Pow(p Rat) Unit {
	if u.none {
		return u
	}
	return Unit{
		Factor: math.Pow(u.Factor, p.Float()),
		L:      u.L.Mul(p),
		M:      u.M.Mul(p),
		T:      u.T.Mul(p),
		K:      u.K.Mul(p),
		A:      u.A.Mul(p),
		H:      u.H.Mul(p),
	}
}

// Eval returns the cgs factor of u for a given scale factor and reduced
// Hubble constant.
func (u Unit) Eval(a, h float64) float64 {
	if u.none {
		return math.NaN()
	}
	return u.Factor * math.Pow(a, u.A.Float()) * math.Pow(h, u.H.Float())
}

// SameDimensions reports whether u and v have identical powers.
func (u Unit) SameDimensions(v Unit) bool {
	if u.none || v.none {
		return u.none == v.none
	}
	return u.L.Eq(v.L) && u.M.Eq(v.M) && u.T.Eq(v.T) && u.K.Eq(v.K) && u.A.Eq(v.A) && u.H.Eq(v.H)
}

// Close reports whether u and v have the same powers and factors within
// relative tolerance rtol.
func (u Unit) Close(v Unit, rtol float64) bool {
	if !u.SameDimensions(v) {
		return false
	}
	if u.none {
		return true
	}
	return closeTo(u.Factor, v.Factor, rtol)
}

// closeTo follows the usual allclose rule with an absolute tolerance of 1e-8.
func closeTo(a, b, rtol float64) bool {
	return math.Abs(a-b) <= 1e-8+rtol*math.Abs(b)
}

// String renders u as e.g. "3.086e+21 cm a h**-1".
func (u Unit) String() string {
	if u.none {
		return "NoUnit()"
	}
	var parts []string
	if u.Factor != 1 {
		parts = append(parts, fmt.Sprintf("%.3e", u.Factor))
	}
	for _, p := range []struct {
		sym string
		pow Rat
	}{
		{"cm", u.L}, {"g", u.M}, {"s", u.T}, {"K", u.K}, {"a", u.A}, {"h", u.H},
	} {
		switch {
		case p.pow.IsZero():
		case p.pow.Eq(Int(1)):
			parts = append(parts, p.sym)
		default:
			parts = append(parts, p.sym+"**"+p.pow.String())
		}
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, " ")
}

// Quantity is a value carrying a unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// In returns the cgs value for a given scale factor and Hubble constant.
func (q Quantity) In(a, h float64) float64 {
	return q.Value * q.Unit.Eval(a, h)
}

func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}
