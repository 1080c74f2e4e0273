// Package intersect computes the exact volume shared by a sphere and an
// infinite cylinder.
//
// The sphere has radius rs, the cylinder radius rc, and the cylinder axis
// passes at distance b (the impact parameter) from the sphere centre. The
// closed forms follow F. Lamarche and C. Leroy, Evaluation of the volume of
// intersection of a sphere with a cylinder by elliptic integrals, Computer
// Physics Communications 59 (1990) 359-369.
//
// All functions are pure and safe for concurrent use.
package intersect

import (
	"errors"
	"fmt"
	"math"

	"tomokth/pkg/ellipint"
)

// ErrDomain is returned for negative or non-finite radii and impact parameters.
var ErrDomain = errors.New("intersect: argument out of domain")

// Calculator evaluates intersection volumes with a configurable special
// function provider and boundary tolerance. The zero value is ready to use
// and behaves like the package-level functions.
type Calculator struct {
	// Provider supplies the elliptic integrals. ellipint.Default is used when nil.
	Provider ellipint.Provider

	// Tolerance is the relative distance, in units of rs+rc, within which b is
	// snapped onto 0 or rc, rs onto b+rc, and b onto the tangent distance
	// rs+rc. Values below MinTolerance, zero included, use MinTolerance.
	Tolerance float64
}

// MinTolerance is the smallest snapping distance a Calculator applies, a few
// ulps of rs+rc. Inputs that differ from a boundary only by rounding, such as
// impact parameters computed from vectors, are evaluated on the boundary.
const MinTolerance = 4 * 0x1p-52

var std = &Calculator{}

// Volume returns the volume of intersection of a sphere of radius rs with a
// cylinder of radius rc whose axis lies at distance b from the sphere centre.
func Volume(rs, rc, b float64) (float64, error) {
	return std.Volume(rs, rc, b)
}

// Classify reports which closed form Volume uses for (rs, rc, b).
func Classify(rs, rc, b float64) (Class, error) {
	return std.Classify(rs, rc, b)
}

// SphereVolume returns (4/3)πr³.
func SphereVolume(r float64) float64 {
	return 4 * math.Pi / 3 * r * r * r
}

// Heaviside is the unit step with H(0) = 1/2.
func Heaviside(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return 0
	}
	return 0.5
}

// Classify reports which closed form Volume uses for (rs, rc, b).
func (c *Calculator) Classify(rs, rc, b float64) (Class, error) {
	if err := validate(rs, rc, b); err != nil {
		return Class{}, err
	}
	return c.classify(rs, rc, b).Class, nil
}

// Volume returns the volume of intersection of a sphere of radius rs with a
// cylinder of radius rc whose axis lies at distance b from the sphere centre.
//
// The result lies in [0, SphereVolume(rs)]. ErrDomain is returned, wrapped,
// when any argument is negative, NaN or infinite.
func (c *Calculator) Volume(rs, rc, b float64) (float64, error) {
	if err := validate(rs, rc, b); err != nil {
		return 0, err
	}
	return c.volume(c.classify(rs, rc, b)), nil
}

func (c *Calculator) classify(rs, rc, b float64) geometry {
	return classify(rs, rc, b, math.Max(c.Tolerance, MinTolerance)*(rs+rc))
}

func (c *Calculator) provider() ellipint.Provider {
	if c.Provider == nil {
		return ellipint.Default
	}
	return c.Provider
}

func (c *Calculator) volume(g geometry) float64 {
	vsph := SphereVolume(g.rs)

	switch g.Regime {
	case Disjoint:
		return 0
	case Coaxial:
		if g.rs < g.rc {
			return vsph
		}
		return vsph - SphereVolume(math.Sqrt(g.rs*g.rs-g.rc*g.rc))
	case Enclosed:
		return vsph
	}

	// The step term compensates the branch cut of the elliptic expression once
	// the sphere centre lies inside the cylinder.
	return c.partial(g) + vsph*Heaviside(g.rc-g.b)
}

// terms holds the auxiliary quantities of the Partial closed forms.
type terms struct {
	A, B, C, s, m float64
}

func newTerms(g geometry) terms {
	rs2 := g.rs * g.rs
	far2 := (g.b + g.rc) * (g.b + g.rc)
	// Singular geometries carry rc == b exactly, so C and s are zero.
	t := terms{
		A: math.Max(rs2, far2),
		B: math.Min(rs2, far2),
		C: (g.b - g.rc) * (g.b - g.rc),
		s: (g.b + g.rc) * (g.b - g.rc),
	}
	t.m = ellipint.ClampParameter((t.B - t.C) / (t.A - t.C))
	return t
}

func (c *Calculator) partial(g geometry) float64 {
	t := newTerms(g)

	switch g.Ordering {
	case Touching:
		return touching(g, t)
	case Straddling:
		if g.Singular {
			return c.straddlingSingular(t)
		}
		return c.straddling(t)
	default:
		if g.Singular {
			return c.piercingSingular(t)
		}
		return c.piercing(t)
	}
}

// touching handles rs == b+rc, where m == 1 and no elliptic integral survives.
func touching(g geometry, t terms) float64 {
	AC := t.A - t.C
	v := -4.0 / 3 * math.Sqrt(AC) * (t.s + 2.0/3*AC)
	if g.Singular {
		return v
	}
	rs3 := g.rs * g.rs * g.rs
	return v + 4.0/3*rs3*math.Atan(2*math.Sqrt(g.b*g.rc)/(g.b-g.rc))
}

func (c *Calculator) straddling(t terms) float64 {
	p := c.provider()
	A, B, C, s := t.A, t.B, t.C, t.s
	K, E := p.CompleteK(t.m), p.CompleteE(t.m)
	Pi := p.Pi(1-B/C, t.m)

	return 4.0 / 3 / math.Sqrt(A-C) *
		(Pi*B*B*s/C +
			K*(s*(A-2*B)+(A-B)*(3*B-C-2*A)/3) +
			E*(A-C)*(-s+(2*A+2*C-4*B)/3))
}

func (c *Calculator) straddlingSingular(t terms) float64 {
	p := c.provider()
	A, B := t.A, t.B
	K, E := p.CompleteK(t.m), p.CompleteE(t.m)

	return 4.0 / 3 / math.Sqrt(A) *
		(K*(A-B)*(3*B-2*A)/3 + E*A*(2*A-4*B)/3)
}

func (c *Calculator) piercing(t terms) float64 {
	p := c.provider()
	A, B, C, s := t.A, t.B, t.C, t.s
	K, E := p.CompleteK(t.m), p.CompleteE(t.m)
	Pi := p.Pi(1-B/C, t.m)

	return 4.0 / 3 / math.Sqrt(A-C) *
		(Pi*A*A*s/C -
			K*(A*s-(A-B)*(A-C)/3) -
			E*(A-C)*(s+(4*A-2*B-2*C)/3))
}

func (c *Calculator) piercingSingular(t terms) float64 {
	p := c.provider()
	A, B := t.A, t.B
	K, E := p.CompleteK(t.m), p.CompleteE(t.m)

	return 4.0 / 3 / math.Sqrt(A) *
		(K*(A-B)*A/3 - E*A*(4*A-2*B)/3)
}

func validate(rs, rc, b float64) error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s = %g", ErrDomain, name, v)
		}
		return nil
	}
	if err := check("sphere radius", rs); err != nil {
		return err
	}
	if err := check("cylinder radius", rc); err != nil {
		return err
	}
	return check("impact parameter", b)
}
