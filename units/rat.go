package units

import (
	"fmt"
	"math/big"
)

// MaxDenominator bounds the denominators produced by Limit.
const MaxDenominator = 1000000

// Rat is a reduced fraction with a positive denominator. The zero value is 0.
type Rat struct {
	Num, Den int64
}

// R returns num/den reduced.
func R(num, den int64) Rat {
	if den == 0 {
		panic("units: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Rat{num, den}
}

// Int returns n/1.
func Int(n int64) Rat { return Rat{n, 1} }

func (r Rat) norm() Rat {
	if r.Den == 0 {
		return Rat{r.Num, 1}
	}
	return r
}

// IsZero reports whether r is 0.
func (r Rat) IsZero() bool { return r.Num == 0 }

// Eq compares by value; the zero Rat equals 0/1.
func (r Rat) Eq(s Rat) bool {
	r, s = r.norm(), s.norm()
	return r.Num == s.Num && r.Den == s.Den
}

// Add returns r + s.
func (r Rat) Add(s Rat) Rat {
	r, s = r.norm(), s.norm()
	return R(r.Num*s.Den+s.Num*r.Den, r.Den*s.Den)
}

// Mul returns r × s.
func (r Rat) Mul(s Rat) Rat {
	r, s = r.norm(), s.norm()
	return R(r.Num*s.Num, r.Den*s.Den)
}

// Neg returns -r.
func (r Rat) Neg() Rat {
	r = r.norm()
	return Rat{-r.Num, r.Den}
}

// Float returns r as a float64.
func (r Rat) Float() float64 {
	r = r.norm()
	return float64(r.Num) / float64(r.Den)
}

// String formats r as "n" or "n/d".
func (r Rat) String() string {
	r = r.norm()
	if r.Den == 1 {
		return fmt.Sprint(r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Limit returns the fraction closest to x whose denominator is at most
// maxDen. x is first taken exactly, then reduced along its continued
// fraction expansion.
func Limit(x float64, maxDen int64) Rat {
	var exact big.Rat
	if exact.SetFloat64(x) == nil {
		panic(fmt.Sprintf("units: cannot take %v as a fraction", x))
	}
	maxD := big.NewInt(maxDen)
	if exact.Denom().Cmp(maxD) <= 0 {
		return R(exact.Num().Int64(), exact.Denom().Int64())
	}

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(exact.Num())
	d := new(big.Int).Set(exact.Denom())
	a, q2, t := new(big.Int), new(big.Int), new(big.Int)
	for {
		// floor division; d stays positive
		a.Div(n, d)
		q2.Add(q0, t.Mul(a, q1))
		if q2.Cmp(maxD) > 0 {
			break
		}
		np1 := new(big.Int).Add(p0, t.Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, np1, new(big.Int).Set(q2)
		rem := new(big.Int).Sub(n, t.Mul(a, d))
		n, d = d, rem
	}

	k := new(big.Int).Sub(maxD, q0)
	k.Div(k, q1)
	b1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	b2 := new(big.Rat).SetFrac(p1, q1)

	d1 := new(big.Rat).Sub(b1, &exact)
	d2 := new(big.Rat).Sub(b2, &exact)
	best := b1
	if d2.Abs(d2).Cmp(d1.Abs(d1)) <= 0 {
		best = b2
	}
	return R(best.Num().Int64(), best.Denom().Int64())
}

// LimitDefault is Limit with MaxDenominator.
func LimitDefault(x float64) Rat { return Limit(x, MaxDenominator) }

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
