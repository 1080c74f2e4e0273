package intersect

import (
	"fmt"
	"math"
)

// Regime is the geometric relationship between a sphere and a cylinder.
// Regimes are tested in declaration order and the first match wins.
type Regime int

const (
	// Disjoint: b >= rs+rc. Tangency counts as disjoint.
	Disjoint Regime = iota

	// Coaxial: b == 0, the cylinder axis passes through the sphere centre.
	Coaxial

	// Enclosed: rc > rs+b, the sphere lies entirely inside the cylinder.
	Enclosed

	// Partial is every other configuration, evaluated with elliptic integrals.
	Partial
)

func (r Regime) String() string {
	switch r {
	case Disjoint:
		return "disjoint"
	case Coaxial:
		return "coaxial"
	case Enclosed:
		return "enclosed"
	case Partial:
		return "partial"
	}
	return fmt.Sprintf("Regime(%d)", int(r))
}

// Ordering compares the sphere radius with the far edge of the cylinder,
// rs against b+rc. It selects the closed form within the Partial regime.
type Ordering int

const (
	// NoOrdering is used outside the Partial regime.
	NoOrdering Ordering = iota

	// Touching: rs == b+rc, the far cylinder wall is tangent to the sphere.
	Touching

	// Straddling: rs < b+rc, the cylinder wall leaves the sphere on the far side.
	Straddling

	// Piercing: rs > b+rc, the cylinder passes clean through the sphere.
	Piercing
)

func (o Ordering) String() string {
	switch o {
	case NoOrdering:
		return "none"
	case Touching:
		return "touching"
	case Straddling:
		return "straddling"
	case Piercing:
		return "piercing"
	}
	return fmt.Sprintf("Ordering(%d)", int(o))
}

// Class is the full dispatch key of a (rs, rc, b) triple.
type Class struct {
	Regime   Regime
	Ordering Ordering

	// Singular is set in the Partial regime when b == rc. The cylinder wall then
	// passes through the sphere centre, (b-rc)² vanishes and the third-kind
	// term drops out of the closed form.
	Singular bool
}

func (c Class) String() string {
	if c.Regime != Partial {
		return c.Regime.String()
	}
	if c.Singular {
		return fmt.Sprintf("%s/%s/singular", c.Regime, c.Ordering)
	}
	return fmt.Sprintf("%s/%s", c.Regime, c.Ordering)
}

// geometry is a classified input triple. The radii and impact parameter may
// differ from the caller's values by at most the calculator tolerance.
type geometry struct {
	Class
	rs, rc, b float64
}

// classify sorts (rs, rc, b) into its Class. eps is an absolute tolerance; with
// eps == 0 every comparison is exact, except that b-rc is treated as zero once
// its square underflows.
func classify(rs, rc, b, eps float64) geometry {
	g := geometry{rs: rs, rc: rc, b: b}

	switch {
	case b >= rs+rc-eps:
		g.Regime = Disjoint
		return g
	case b <= eps:
		g.Regime = Coaxial
		g.b = 0
		return g
	case rc > rs+b:
		g.Regime = Enclosed
		return g
	}

	g.Regime = Partial
	if d := b - rc; math.Abs(d) <= eps || d*d == 0 {
		g.Singular = true
		g.rc = b
	}

	far := g.b + g.rc
	switch {
	case math.Abs(rs-far) <= eps:
		g.Ordering = Touching
	case rs < far:
		g.Ordering = Straddling
	default:
		g.Ordering = Piercing
	}
	return g
}
