package projection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"tomokth/internal/models"
	"tomokth/pkg/los"
)

// Camera is a parallel-projection camera: every pixel looks along the same
// normal.
type Camera struct {
	// Normal is the common line-of-sight direction. It need not be a unit vector.
	Normal r3.Vec

	// Pixels are the sensor pixels in row-major order
	Pixels []models.Pixel

	// Width and Height are the sensor dimensions in pixels
	Width, Height int
}

// NewCamera lays out a width x height sensor centred on centre, in the plane
// perpendicular to normal. Pixel centres are pitch apart and every pixel sees
// through a cylinder of radius pixelRadius.
//
// The in-plane axes are chosen deterministically from normal: the sensor x
// axis is normal × ŷ, or normal × x̂ when normal is close to the y axis.
func NewCamera(width, height int, pitch, pixelRadius float64, centre, normal r3.Vec) (*Camera, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: sensor size %dx%d", ErrDimension, width, height)
	}
	if !(pitch > 0) || !(pixelRadius > 0) {
		return nil, fmt.Errorf("%w: pitch %g and pixel radius %g must be positive", ErrDimension, pitch, pixelRadius)
	}
	if r3.Norm(normal) == 0 {
		return nil, los.ErrZeroNormal
	}

	n := r3.Unit(normal)
	helper := r3.Vec{Y: 1}
	if math.Abs(n.Y) > 0.9 {
		helper = r3.Vec{X: 1}
	}
	u := r3.Unit(r3.Cross(n, helper))
	v := r3.Cross(n, u)

	cam := &Camera{
		Normal: normal,
		Pixels: make([]models.Pixel, width*height),
		Width:  width,
		Height: height,
	}

	x0 := -float64(width-1) / 2
	y0 := -float64(height-1) / 2
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			idx := j*width + i
			offset := r3.Add(
				r3.Scale((x0+float64(i))*pitch, u),
				r3.Scale((y0+float64(j))*pitch, v),
			)
			cam.Pixels[idx] = models.Pixel{
				Index:    idx,
				Position: r3.Add(centre, offset),
				Radius:   pixelRadius,
			}
		}
	}
	return cam, nil
}

// maxPixelRadius returns the widest line of sight of the camera.
func (c *Camera) maxPixelRadius() float64 {
	var r float64
	for _, p := range c.Pixels {
		r = math.Max(r, p.Radius)
	}
	return r
}
