package ellipint

import "math"

// EllipticRJ computes the symmetric elliptic integral of the third kind
//
//	R_J(x,y,z,p) = (3/2)\int_{0}^{\infty}{1/(s(t)(t+p))} dt,
//	s(t) = \sqrt{(t+x)(t+y)(t+z)},
//
// for 0 ≤ x,y,z, at most one of x,y,z zero, and p > 0. NaN is returned
// otherwise.
//
// The duplication scheme follows B.C. Carlson, Numerical computation of real
// or complex elliptic integrals, Numer. Algorithms 10 (1995) 13-26, and
// mirrors the structure of mathext.EllipticRD.
func EllipticRJ(x, y, z, p float64) float64 {
	const (
		lower = 4.8095540743116787026618007863123676393525016818363e-103 // (5*2^-1022)^(1/3)
		upper = 1 / lower
		tol   = 9.0351169339315770474760122547068324993857488849382e-03 // (ε/5)^(1/8)
	)
	if x < 0 || y < 0 || z < 0 || math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) || math.IsNaN(p) {
		return math.NaN()
	}
	if p < lower || upper < x || upper < y || upper < z || upper < p {
		return math.NaN()
	}
	if x+y < lower || y+z < lower || z+x < lower {
		return math.NaN()
	}

	A0 := (x + y + z + 2*p) / 5
	An := A0
	delta := (p - x) * (p - y) * (p - z)
	Q := math.Max(math.Max(math.Abs(A0-x), math.Abs(A0-y)), math.Max(math.Abs(A0-z), math.Abs(A0-p))) / tol
	xn, yn, zn, pn := x, y, z, p
	mul, s := 1.0, 0.0

	for Q >= mul*math.Abs(An) {
		xs, ys, zs, ps := math.Sqrt(xn), math.Sqrt(yn), math.Sqrt(zn), math.Sqrt(pn)
		lambda := xs*ys + ys*zs + zs*xs
		d := (ps + xs) * (ps + ys) * (ps + zs)
		e := delta / (mul * mul * mul * d * d)
		s += rcShifted(e) / (mul * d)
		An = (An + lambda) * 0.25
		xn = (xn + lambda) * 0.25
		yn = (yn + lambda) * 0.25
		zn = (zn + lambda) * 0.25
		pn = (pn + lambda) * 0.25
		mul *= 4
	}

	X := (A0 - x) / (mul * An)
	Y := (A0 - y) / (mul * An)
	Z := (A0 - z) / (mul * An)
	P := -(X + Y + Z) / 2
	E2 := X*Y + X*Z + Y*Z - 3*P*P
	E3 := X*Y*Z + 2*E2*P + 4*P*P*P
	E4 := (2*X*Y*Z + E2*P + 3*P*P*P) * P
	E5 := X * Y * Z * P * P

	// http://dlmf.nist.gov/19.36.E2
	return (1-3/14.0*E2+1/6.0*E3+9/88.0*E2*E2-3/22.0*E4-9/52.0*E2*E3+3/26.0*E5)/(mul*An*math.Sqrt(An)) + 6*s
}

// EllipticRC computes the degenerate integral R_C(x,y) = R_F(x,y,y) for x ≥ 0
// and y > 0 (http://dlmf.nist.gov/19.2.E17).
func EllipticRC(x, y float64) float64 {
	if x < 0 || y <= 0 || math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if x == 0 {
		return math.Pi / 2 / math.Sqrt(y)
	}
	return rcShifted(y/x-1) / math.Sqrt(x)
}

// rcShifted returns R_C(1, 1+e) for e > -1. The closed forms lose precision as
// e approaches zero, where the Taylor series takes over.
func rcShifted(e float64) float64 {
	switch {
	case math.Abs(e) < 1e-6:
		return 1 - e/3 + e*e/5
	case e > 0:
		r := math.Sqrt(e)
		return math.Atan(r) / r
	default:
		r := math.Sqrt(-e)
		return math.Atanh(r) / r
	}
}
