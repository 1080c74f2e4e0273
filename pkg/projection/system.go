// Package projection assembles the sparse pixel-voxel weight system of a
// parallel-projection camera and uses it to move intensity between image and
// volume.
//
// Forward projection sums voxel values into pixels, image = W·v; back
// projection spreads pixel values over voxels, v = Wᵀ·image. W holds one
// los weight per (pixel, voxel) pair whose cylinder and sphere overlap.
package projection

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"tomokth/internal/models"
	"tomokth/pkg/intersect"
	"tomokth/pkg/los"
)

// ErrDimension is returned when inputs do not match the shape of a system.
var ErrDimension = errors.New("projection: dimension mismatch")

// Params holds the system assembly parameters.
type Params struct {
	// NumCores specifies how many goroutines evaluate weights. Zero or a
	// negative value uses every available CPU.
	NumCores int

	// Tolerance is passed on to intersect.Calculator.Tolerance. Zero uses
	// intersect.MinTolerance.
	Tolerance float64

	// Verbose prints assembly progress to stdout.
	Verbose bool
}

// Entry is one non-zero element of the weight system.
type Entry struct {
	Pixel, Voxel int
	Weight       float64
}

// System is the sparse weight matrix W in coordinate form, sorted by pixel
// and then by voxel.
type System struct {
	// Pixels and Voxels are the number of rows and columns of W
	Pixels, Voxels int

	Entries []Entry
}

// Builder assembles weight systems.
type Builder struct {
	params  *Params
	weigher *los.Weigher
}

// NewBuilder creates a builder with the provided parameters. A nil params
// uses the defaults.
func NewBuilder(params *Params) *Builder {
	if params == nil {
		params = &Params{}
	}
	calc := &intersect.Calculator{Tolerance: params.Tolerance}
	return &Builder{
		params:  params,
		weigher: los.NewWeigher(calc),
	}
}

// Build evaluates the weight of every overlapping (pixel, voxel) pair.
//
// Pixel centres and voxel centres are projected onto the plane perpendicular
// to the camera normal, where the distance between projections is the impact
// parameter. A k-d tree over the projected pixels limits each voxel to the
// pixels within reach of its sphere, and voxels are spread over
// Params.NumCores goroutines.
func (b *Builder) Build(cam *Camera, voxels []models.Voxel) (*System, error) {
	if cam == nil || len(cam.Pixels) == 0 {
		return nil, fmt.Errorf("%w: camera has no pixels", ErrDimension)
	}
	if r3.Norm(cam.Normal) == 0 {
		return nil, los.ErrZeroNormal
	}
	for _, v := range voxels {
		if _, err := b.weigher.Normalization(v.Radius); err != nil {
			return nil, fmt.Errorf("voxel %d: %w", v.Index, err)
		}
	}

	n := r3.Unit(cam.Normal)
	points := make(planePoints, len(cam.Pixels))
	for i, p := range cam.Pixels {
		points[i] = project(p.Position, n, i)
	}
	tree := kdtree.New(points, false)
	reach := cam.maxPixelRadius()
	// keeps pairs whose projected distance rounds just past the reach
	const margin = 1 + 1e-9

	numCores := b.params.NumCores
	if numCores <= 0 {
		numCores = runtime.NumCPU()
	}
	if numCores > len(voxels) {
		numCores = len(voxels)
	}

	type chunkResult struct {
		entries []Entry
		err     error
	}
	resultChan := make(chan chunkResult)

	chunk := 0
	if numCores > 0 {
		chunk = (len(voxels) + numCores - 1) / numCores
	}
	totalTasks := 0
	for start := 0; start < len(voxels); start += chunk {
		end := start + chunk
		if end > len(voxels) {
			end = len(voxels)
		}
		totalTasks++

		go func(start, end int) {
			var entries []Entry
			for j := start; j < end; j++ {
				vox := voxels[j]
				q := project(vox.Position, n, j)
				for _, i := range within(tree, q, (vox.Radius+reach)*margin) {
					pix := cam.Pixels[i]
					w, err := b.weigher.Weight(pix.Radius, pix.Position, vox.Radius, vox.Position, cam.Normal)
					if err != nil {
						resultChan <- chunkResult{err: fmt.Errorf("pixel %d, voxel %d: %w", i, j, err)}
						return
					}
					if w > 0 {
						entries = append(entries, Entry{Pixel: i, Voxel: j, Weight: w})
					}
				}
			}
			resultChan <- chunkResult{entries: entries}
		}(start, end)
	}

	sys := &System{Pixels: len(cam.Pixels), Voxels: len(voxels)}
	var firstErr error
	for completedTasks := 0; completedTasks < totalTasks; completedTasks++ {
		res := <-resultChan
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		sys.Entries = append(sys.Entries, res.entries...)

		if b.params.Verbose {
			progress := float64(completedTasks+1) / float64(totalTasks) * 100
			fmt.Printf("\rAssembling weight system: %.1f%% complete", progress)
		}
	}
	if b.params.Verbose && totalTasks > 0 {
		fmt.Println()
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(sys.Entries, func(i, j int) bool {
		ei, ej := sys.Entries[i], sys.Entries[j]
		if ei.Pixel != ej.Pixel {
			return ei.Pixel < ej.Pixel
		}
		return ei.Voxel < ej.Voxel
	})
	return sys, nil
}

// Forward projects the voxel values v onto the pixels, returning W·v.
func (s *System) Forward(v mat.Vector) (*mat.VecDense, error) {
	if v.Len() != s.Voxels {
		return nil, fmt.Errorf("%w: %d voxel values for %d voxels", ErrDimension, v.Len(), s.Voxels)
	}
	out := make([]float64, s.Pixels)
	for _, e := range s.Entries {
		out[e.Pixel] += e.Weight * v.AtVec(e.Voxel)
	}
	return mat.NewVecDense(s.Pixels, out), nil
}

// Back spreads the pixel values img over the voxels, returning Wᵀ·img.
func (s *System) Back(img mat.Vector) (*mat.VecDense, error) {
	if img.Len() != s.Pixels {
		return nil, fmt.Errorf("%w: %d pixel values for %d pixels", ErrDimension, img.Len(), s.Pixels)
	}
	out := make([]float64, s.Voxels)
	for _, e := range s.Entries {
		out[e.Voxel] += e.Weight * img.AtVec(e.Pixel)
	}
	return mat.NewVecDense(s.Voxels, out), nil
}

// BackVolume back projects an image into a volume shaped like g.
func (s *System) BackVolume(img *models.Image, g models.Grid) (*models.Volume, error) {
	if g.Len() != s.Voxels {
		return nil, fmt.Errorf("%w: grid of %d voxels for a system of %d", ErrDimension, g.Len(), s.Voxels)
	}
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDimension)
	}
	v, err := s.Back(mat.NewVecDense(len(img.Data), img.Data))
	if err != nil {
		return nil, err
	}
	vol := models.NewVolume(g)
	copy(vol.Data, v.RawVector().Data)
	return vol, nil
}

// Dense returns W as a dense matrix. Intended for small systems.
func (s *System) Dense() *mat.Dense {
	d := mat.NewDense(s.Pixels, s.Voxels, nil)
	for _, e := range s.Entries {
		d.Set(e.Pixel, e.Voxel, e.Weight)
	}
	return d
}

// Stats summarises a weight system.
type Stats struct {
	// NonZero is the number of stored weights
	NonZero int

	// Density is NonZero over Pixels*Voxels
	Density float64

	// MeanWeight and StdWeight describe the stored weights
	MeanWeight, StdWeight float64

	// MeanCoverage is the mean row sum of W, the number of voxel volumes a
	// pixel sees on average
	MeanCoverage float64

	// Blind is the number of pixels that see no voxel
	Blind int
}

// Stats computes summary statistics of s.
func (s *System) Stats() Stats {
	st := Stats{NonZero: len(s.Entries)}
	if s.Pixels > 0 && s.Voxels > 0 {
		st.Density = float64(st.NonZero) / (float64(s.Pixels) * float64(s.Voxels))
	}
	if st.NonZero == 0 {
		st.Blind = s.Pixels
		return st
	}

	weights := make([]float64, len(s.Entries))
	rows := make([]float64, s.Pixels)
	for i, e := range s.Entries {
		weights[i] = e.Weight
		rows[e.Pixel] += e.Weight
	}
	if len(weights) > 1 {
		st.MeanWeight, st.StdWeight = stat.MeanStdDev(weights, nil)
	} else {
		st.MeanWeight = weights[0]
	}
	st.MeanCoverage = floats.Sum(rows) / float64(s.Pixels)
	for _, r := range rows {
		if r == 0 {
			st.Blind++
		}
	}
	return st
}
