// Package los relates camera pixels to reconstruction voxels along the pixel
// line of sight.
//
// A pixel sees the world through a cylinder of radius rp whose axis passes
// through the pixel centre along the projection normal; a voxel is a sphere of
// radius rv. The weight of a (pixel, voxel) pair is the volume the two share,
// divided by the voxel's own volume.
package los

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"tomokth/pkg/intersect"
)

// ErrZeroNormal is returned when the projection normal has zero length.
var ErrZeroNormal = errors.New("los: projection normal is the zero vector")

// Distance returns the impact parameter of voxel with respect to the line of
// sight through pixel along normal:
//
//	b = |(voxel - pixel) × normal| / |normal|
//
// normal need not be of unit length but must not be zero.
func Distance(pixel, voxel, normal r3.Vec) (float64, error) {
	for _, v := range [...]r3.Vec{pixel, voxel, normal} {
		if !finite(v) {
			return 0, fmt.Errorf("%w: non-finite vector %v", intersect.ErrDomain, v)
		}
	}
	n := r3.Norm(normal)
	if n == 0 {
		return 0, ErrZeroNormal
	}
	return r3.Norm(r3.Cross(r3.Sub(voxel, pixel), normal)) / n, nil
}

func finite(v r3.Vec) bool {
	for _, x := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Weigher turns impact parameters into normalised weights. The normalisation
// V(rv, rv, 0) depends only on the voxel radius and is computed once per
// radius. A Weigher is safe for concurrent use.
type Weigher struct {
	calc  *intersect.Calculator
	norms sync.Map // voxel radius -> self-intersection volume
}

// NewWeigher returns a Weigher evaluating volumes with calc. A nil calc uses
// the exact intersect defaults.
func NewWeigher(calc *intersect.Calculator) *Weigher {
	if calc == nil {
		calc = &intersect.Calculator{}
	}
	return &Weigher{calc: calc}
}

// Calculator returns the volume calculator used by w.
func (w *Weigher) Calculator() *intersect.Calculator { return w.calc }

// Normalization returns the self-intersection volume of a voxel of radius rv,
// which equals the full sphere volume.
func (w *Weigher) Normalization(rv float64) (float64, error) {
	if v, ok := w.norms.Load(rv); ok {
		return v.(float64), nil
	}
	if !(rv > 0) || math.IsInf(rv, 1) {
		return 0, fmt.Errorf("%w: voxel radius %g must be positive and finite", intersect.ErrDomain, rv)
	}
	v, err := w.calc.Volume(rv, rv, 0)
	if err != nil {
		return 0, err
	}
	actual, _ := w.norms.LoadOrStore(rv, v)
	return actual.(float64), nil
}

// WeightAt returns the weight of a voxel of radius rv whose centre lies at
// impact parameter b from the axis of a pixel cylinder of radius rp.
func (w *Weigher) WeightAt(rp, rv, b float64) (float64, error) {
	norm, err := w.Normalization(rv)
	if err != nil {
		return 0, err
	}
	v, err := w.calc.Volume(rv, rp, b)
	if err != nil {
		return 0, err
	}
	return v / norm, nil
}

// Weight returns the weight of the voxel of radius rv centred at voxel for the
// pixel of radius rp centred at pixel, with lines of sight along normal.
func (w *Weigher) Weight(rp float64, pixel r3.Vec, rv float64, voxel, normal r3.Vec) (float64, error) {
	b, err := Distance(pixel, voxel, normal)
	if err != nil {
		return 0, err
	}
	return w.WeightAt(rp, rv, b)
}

var std = NewWeigher(nil)

// Weight is Weigher.Weight on a shared exact Weigher.
func Weight(rp float64, pixel r3.Vec, rv float64, voxel, normal r3.Vec) (float64, error) {
	return std.Weight(rp, pixel, rv, voxel, normal)
}
