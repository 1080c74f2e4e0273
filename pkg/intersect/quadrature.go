package intersect

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// QuadratureVolume integrates the sphere/cylinder intersection volume
// numerically with an n-point Gauss-Legendre rule per smooth segment. It is
// an independent check on Volume and is much slower.
//
// With the cylinder axis along z and passing through (b, 0), the slab at
// abscissa x cuts the sphere in a disk of radius w = sqrt(rs²-x²) and the
// cylinder in the band |y| <= sqrt(rc²-(x-b)²). The area of the disk inside
// the band has a closed form, which leaves a one-dimensional integral over x.
// The integrand has a kink where the two half-widths cross, so the interval is
// split there.
func QuadratureVolume(rs, rc, b float64, n int) (float64, error) {
	if err := validate(rs, rc, b); err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: quadrature order n = %d", ErrDomain, n)
	}

	lo := math.Max(-rs, b-rc)
	hi := math.Min(rs, b+rc)
	if hi <= lo {
		return 0, nil
	}

	slab := func(x float64) float64 {
		w2 := rs*rs - x*x
		yc2 := rc*rc - (x-b)*(x-b)
		if w2 <= 0 || yc2 <= 0 {
			return 0
		}
		w := math.Sqrt(w2)
		y := math.Min(math.Sqrt(yc2), w)
		return 2 * (y*math.Sqrt(math.Max(0, w2-y*y)) + w2*math.Asin(y/w))
	}

	cuts := []float64{lo}
	if b > 0 {
		if x := (rs*rs - rc*rc + b*b) / (2 * b); x > lo && x < hi {
			cuts = append(cuts, x)
		}
	}
	cuts = append(cuts, hi)

	var v float64
	for i := 1; i < len(cuts); i++ {
		v += quad.Fixed(slab, cuts[i-1], cuts[i], n, quad.Legendre{}, 0)
	}
	return v, nil
}
