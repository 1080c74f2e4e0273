package models

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Pixel is a camera pixel seen as the entry of a cylindrical line of sight
type Pixel struct {
	// Index is the position of this pixel in row-major image order
	Index int

	// Position is the pixel centre in world coordinates
	Position r3.Vec

	// Radius is the radius of the line-of-sight cylinder through the pixel
	Radius float64
}

// Voxel is a reconstruction volume element modelled as a sphere
type Voxel struct {
	// Index is the position of this voxel in the flattened volume
	Index int

	// Position is the voxel centre in world coordinates
	Position r3.Vec

	// Radius is the radius of the sphere standing in for the voxel
	Radius float64
}

// Grid describes a regular cubic lattice of voxels
type Grid struct {
	// Width, Height, Depth are the number of voxels along x, y and z
	Width, Height, Depth int

	// Spacing is the distance between neighbouring voxel centres
	Spacing float64

	// Origin is the centre of voxel (0, 0, 0)
	Origin r3.Vec
}

// Len returns the number of voxels in the grid
func (g Grid) Len() int { return g.Width * g.Height * g.Depth }

// Index returns the row-major index of voxel (x, y, z)
func (g Grid) Index(x, y, z int) int {
	return z*g.Width*g.Height + y*g.Width + x
}

// Coords is the inverse of Index
func (g Grid) Coords(idx int) (x, y, z int) {
	x = idx % g.Width
	y = (idx / g.Width) % g.Height
	z = idx / (g.Width * g.Height)
	return x, y, z
}

// Centre returns the world position of voxel (x, y, z)
func (g Grid) Centre(x, y, z int) r3.Vec {
	return r3.Add(g.Origin, r3.Vec{
		X: float64(x) * g.Spacing,
		Y: float64(y) * g.Spacing,
		Z: float64(z) * g.Spacing,
	})
}

// Voxels lists every voxel of the grid, all with the given radius, in index order
func (g Grid) Voxels(radius float64) []Voxel {
	voxels := make([]Voxel, g.Len())
	for i := range voxels {
		x, y, z := g.Coords(i)
		voxels[i] = Voxel{Index: i, Position: g.Centre(x, y, z), Radius: radius}
	}
	return voxels
}

// Volume holds per-voxel values of a grid, e.g. a back-projected intensity
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order
	Data []float64

	// Width, Height, Depth are the dimensions in voxels
	Width, Height, Depth int
}

// NewVolume allocates a zeroed volume shaped like g
func NewVolume(g Grid) *Volume {
	return &Volume{
		Data:   make([]float64, g.Len()),
		Width:  g.Width,
		Height: g.Height,
		Depth:  g.Depth,
	}
}

// Image holds per-pixel intensities of a camera frame in row-major order
type Image struct {
	Data          []float64
	Width, Height int
}
