// Package ellipint supplies the complete and incomplete elliptic integrals used
// by the sphere/cylinder intersection volume.
//
// All functions use the parameter convention m = k², matching
// gonum.org/v1/gonum/mathext. Arguments outside the documented domain yield
// math.NaN() rather than an error, so callers on a hot path can decide how to
// treat them.
package ellipint

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// Provider is the set of special functions the volume computation needs.
// Implementations must be safe for concurrent use.
type Provider interface {
	// CompleteK is K(m), the complete integral of the first kind.
	CompleteK(m float64) float64

	// CompleteE is E(m), the complete integral of the second kind.
	CompleteE(m float64) float64

	// IncompleteK is F(phi|m), the incomplete integral of the first kind.
	IncompleteK(phi, m float64) float64

	// IncompleteE is E(phi|m), the incomplete integral of the second kind.
	IncompleteE(phi, m float64) float64

	// Pi is the complete integral of the third kind Π(n|m).
	Pi(n, m float64) float64
}

// Gonum is a Provider backed by gonum's mathext package. The third-kind
// integral, which mathext does not offer, is assembled from Carlson's
// symmetric forms.
type Gonum struct{}

// Default is the provider used when none is configured.
var Default Provider = Gonum{}

// CompleteK returns K(m) for 0 ≤ m ≤ 1 and +Inf at m = 1.
func (Gonum) CompleteK(m float64) float64 { return mathext.CompleteK(m) }

// CompleteE returns E(m) for 0 ≤ m ≤ 1.
func (Gonum) CompleteE(m float64) float64 { return mathext.CompleteE(m) }

// IncompleteK returns F(phi|m).
func (Gonum) IncompleteK(phi, m float64) float64 { return mathext.EllipticF(phi, m) }

// IncompleteE returns E(phi|m).
func (Gonum) IncompleteE(phi, m float64) float64 { return mathext.EllipticE(phi, m) }

// Pi returns the complete elliptic integral of the third kind
//
//	Π(n|m) = \int_{0}^{π/2} 1/((1-n\sin^2θ)\sqrt{1-m\sin^2θ}) dθ
//
// for 0 ≤ m ≤ 1 and n < 1, computed as
//
//	Π(n|m) = R_F(0,1-m,1) + (n/3) R_J(0,1-m,1,1-n)
//
// (http://dlmf.nist.gov/19.25.E2). Π diverges for m = 1 or n = 1 and +Inf is
// returned. The Cauchy principal value for n > 1 is not supported and yields
// NaN.
//
// For n < 0 the sum above cancels as n grows large, so Π is taken from
// Π(N|m) with N = (m-n)/(1-n) in [m, 1) (http://dlmf.nist.gov/19.7.E5),
// where every term is positive.
func (g Gonum) Pi(n, m float64) float64 {
	if math.IsNaN(n) || math.IsNaN(m) || m < 0 || m > 1 || n > 1 {
		return math.NaN()
	}
	if m == 1 || n == 1 {
		return math.Inf(1)
	}
	if n == 0 {
		return mathext.CompleteK(m)
	}
	if math.IsInf(n, -1) {
		return 0
	}
	y := 1 - m
	if n > 0 {
		return mathext.EllipticRF(0, y, 1) + n/3*EllipticRJ(0, y, 1, 1-n)
	}

	// 1-N, formed directly so that it does not round to zero
	p := y / (1 - n)
	piN := mathext.EllipticRF(0, y, 1) + (1-p)/3*EllipticRJ(0, y, 1, p)
	return (-n*p*piN + m*mathext.CompleteK(m)) / (m - n)
}

// ClampParameter folds a parameter that rounding pushed just outside [0,1]
// back onto the nearest bound. NaN is returned unchanged.
func ClampParameter(m float64) float64 {
	switch {
	case m < 0:
		return 0
	case m > 1:
		return 1
	}
	return m
}
