package visualization

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"tomokth/pkg/intersect"
)

// Profile samples the intersection volume at n+1 evenly spaced impact
// parameters from 0 to rs+rc, where the volume reaches zero.
func Profile(rs, rc float64, n int) (plotter.XYs, error) {
	if n < 1 {
		return nil, fmt.Errorf("profile needs at least one step, got %d", n)
	}
	pts := make(plotter.XYs, 0, n+1)
	span := rs + rc
	for i := 0; i <= n; i++ {
		b := span * float64(i) / float64(n)
		v, err := intersect.Volume(rs, rc, b)
		if err != nil {
			return nil, fmt.Errorf("b=%g: %w", b, err)
		}
		pts = append(pts, plotter.XY{X: b, Y: v})
	}
	return pts, nil
}

// PlotProfile plots the intersection volume of a sphere of radius rs and a
// cylinder of radius rc against the impact parameter, with the numerical
// quadrature overlaid, and saves it to path. The image format follows the
// file extension.
func PlotProfile(rs, rc float64, n int, path string) error {
	analytic, err := Profile(rs, rc, n)
	if err != nil {
		return err
	}
	numeric := make(plotter.XYs, len(analytic))
	for i, pt := range analytic {
		v, err := intersect.QuadratureVolume(rs, rc, pt.X, 64)
		if err != nil {
			return fmt.Errorf("quadrature at b=%g: %w", pt.X, err)
		}
		numeric[i] = plotter.XY{X: pt.X, Y: v}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Sphere-cylinder intersection, rs=%g rc=%g", rs, rc)
	p.X.Label.Text = "impact parameter b"
	p.Y.Label.Text = "volume"

	if err := plotutil.AddLinePoints(p, "analytic", analytic, "quadrature", numeric); err != nil {
		return fmt.Errorf("adding lines: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
