package projection

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"tomokth/internal/models"
	"tomokth/pkg/intersect"
	"tomokth/pkg/los"
)

// testSetup creates a small oblique camera looking at a 4x4x4 voxel grid.
func testSetup(t *testing.T) (*Camera, models.Grid, []models.Voxel) {
	t.Helper()
	grid := models.Grid{
		Width: 4, Height: 4, Depth: 4,
		Spacing: 1,
		Origin:  r3.Vec{X: -1.5, Y: -1.5, Z: -1.5},
	}
	normal := r3.Vec{X: 0.2, Y: -0.1, Z: 1}
	cam, err := NewCamera(6, 5, 0.8, 0.35, r3.Vec{Z: -10}, normal)
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}
	return cam, grid, grid.Voxels(0.6)
}

func TestNewCamera(t *testing.T) {
	normal := r3.Vec{X: 1, Y: 2, Z: 2}
	centre := r3.Vec{X: 5, Y: -1, Z: 0.5}
	cam, err := NewCamera(3, 2, 0.5, 0.2, centre, normal)
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}
	if len(cam.Pixels) != 6 {
		t.Fatalf("Expected 6 pixels, got %d", len(cam.Pixels))
	}

	n := r3.Unit(normal)
	var mean r3.Vec
	for i, p := range cam.Pixels {
		if p.Index != i {
			t.Errorf("Pixel %d carries index %d", i, p.Index)
		}
		if d := r3.Dot(r3.Sub(p.Position, centre), n); math.Abs(d) > 1e-12 {
			t.Errorf("Pixel %d lies %g off the sensor plane", i, d)
		}
		mean = r3.Add(mean, p.Position)
	}
	mean = r3.Scale(1/float64(len(cam.Pixels)), mean)
	if r3.Norm(r3.Sub(mean, centre)) > 1e-12 {
		t.Errorf("Expected the sensor to be centred on %v, got %v", centre, mean)
	}

	// Row neighbours are pitch apart.
	if d := r3.Norm(r3.Sub(cam.Pixels[1].Position, cam.Pixels[0].Position)); math.Abs(d-0.5) > 1e-12 {
		t.Errorf("Expected pitch 0.5 along a row, got %g", d)
	}
	if d := r3.Norm(r3.Sub(cam.Pixels[3].Position, cam.Pixels[0].Position)); math.Abs(d-0.5) > 1e-12 {
		t.Errorf("Expected pitch 0.5 along a column, got %g", d)
	}

	if _, err := NewCamera(3, 2, 0.5, 0.2, centre, r3.Vec{}); !errors.Is(err, los.ErrZeroNormal) {
		t.Errorf("Expected ErrZeroNormal, got %v", err)
	}
	if _, err := NewCamera(0, 2, 0.5, 0.2, centre, normal); !errors.Is(err, ErrDimension) {
		t.Errorf("Expected ErrDimension, got %v", err)
	}
}

// TestBuildMatchesBruteForce compares the culled system against evaluating
// every pair.
func TestBuildMatchesBruteForce(t *testing.T) {
	cam, _, voxels := testSetup(t)

	sys, err := NewBuilder(&Params{NumCores: 3}).Build(cam, voxels)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	dense := sys.Dense()

	nonZero := 0
	for i, p := range cam.Pixels {
		for j, v := range voxels {
			want, err := los.Weight(p.Radius, p.Position, v.Radius, v.Position, cam.Normal)
			if err != nil {
				t.Fatalf("Weight failed: %v", err)
			}
			if want > 0 {
				nonZero++
			}
			if got := dense.At(i, j); got != want {
				t.Errorf("W[%d][%d] = %g, expected %g", i, j, got, want)
			}
		}
	}
	if nonZero == 0 {
		t.Fatal("Test setup produced an empty system")
	}
	if len(sys.Entries) != nonZero {
		t.Errorf("Expected %d entries, got %d", nonZero, len(sys.Entries))
	}
}

// TestBuildTiltedCameraWeights uses a tilted camera whose pixel lines pass at
// exactly one pixel radius, or exactly at the touching distance, from many
// voxel centres. The computed impact parameters land a few ulps either side of
// those boundaries, and every weight must still match the numerical volume.
func TestBuildTiltedCameraWeights(t *testing.T) {
	const (
		voxelRadius = 1.0
		pixelRadius = 0.6
	)
	grid := models.Grid{
		Width: 6, Height: 6, Depth: 6,
		Spacing: 1,
		Origin:  r3.Vec{X: -2.5, Y: -2.5, Z: -2.5},
	}
	normal := r3.Vec{X: 0.6, Z: 0.8}
	cam, err := NewCamera(8, 6, 1, pixelRadius, r3.Vec{X: -6, Z: -8}, normal)
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}
	voxels := grid.Voxels(voxelRadius)

	sys, err := NewBuilder(nil).Build(cam, voxels)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(sys.Entries) == 0 {
		t.Fatal("Test setup produced an empty system")
	}

	vsph := intersect.SphereVolume(voxelRadius)
	nearSingular := 0
	for _, e := range sys.Entries {
		pix, vox := cam.Pixels[e.Pixel], voxels[e.Voxel]
		b, err := los.Distance(pix.Position, vox.Position, cam.Normal)
		if err != nil {
			t.Fatalf("Distance failed: %v", err)
		}
		if math.Abs(b-pixelRadius) < 1e-12 {
			nearSingular++
		}

		if e.Weight < 0 || e.Weight > 1 {
			t.Errorf("W[%d][%d] = %g at b=%.17g, outside [0, 1]", e.Pixel, e.Voxel, e.Weight, b)
		}
		q, err := intersect.QuadratureVolume(voxelRadius, pixelRadius, b, 128)
		if err != nil {
			t.Fatalf("QuadratureVolume failed: %v", err)
		}
		if want := q / vsph; math.Abs(e.Weight-want) > 1e-5 {
			t.Errorf("W[%d][%d] = %g at b=%.17g, expected %g", e.Pixel, e.Voxel, e.Weight, b, want)
		}
	}
	if nearSingular == 0 {
		t.Error("Expected pairs at one pixel radius from the voxel centre")
	}
}

func TestBuildIndependentOfCores(t *testing.T) {
	cam, _, voxels := testSetup(t)

	one, err := NewBuilder(&Params{NumCores: 1}).Build(cam, voxels)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	many, err := NewBuilder(&Params{NumCores: 7}).Build(cam, voxels)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(one.Entries) != len(many.Entries) {
		t.Fatalf("Entry count differs: %d vs %d", len(one.Entries), len(many.Entries))
	}
	for i := range one.Entries {
		if one.Entries[i] != many.Entries[i] {
			t.Errorf("%d) %+v != %+v", i, one.Entries[i], many.Entries[i])
		}
	}
}

// TestBackIsTranspose checks <W v, u> == <v, Wᵀ u>.
func TestBackIsTranspose(t *testing.T) {
	cam, _, voxels := testSetup(t)
	sys, err := NewBuilder(nil).Build(cam, voxels)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	v := mat.NewVecDense(sys.Voxels, nil)
	for i := 0; i < sys.Voxels; i++ {
		v.SetVec(i, math.Sin(float64(i)))
	}
	u := mat.NewVecDense(sys.Pixels, nil)
	for i := 0; i < sys.Pixels; i++ {
		u.SetVec(i, math.Cos(float64(3*i)))
	}

	Wv, err := sys.Forward(v)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	WTu, err := sys.Back(u)
	if err != nil {
		t.Fatalf("Back failed: %v", err)
	}

	lhs, rhs := mat.Dot(Wv, u), mat.Dot(v, WTu)
	if math.Abs(lhs-rhs) > 1e-12*math.Max(1, math.Abs(lhs)) {
		t.Errorf("Expected <Wv,u> == <v,WTu>, got %g and %g", lhs, rhs)
	}

	// Dense products agree with the sparse ones.
	var want mat.VecDense
	want.MulVec(sys.Dense(), v)
	if !mat.EqualApprox(&want, Wv, 1e-12) {
		t.Error("Forward disagrees with the dense product")
	}
}

func TestProjectionDimensionErrors(t *testing.T) {
	sys := &System{Pixels: 3, Voxels: 2}

	if _, err := sys.Forward(mat.NewVecDense(3, nil)); !errors.Is(err, ErrDimension) {
		t.Errorf("Forward: expected ErrDimension, got %v", err)
	}
	if _, err := sys.Back(mat.NewVecDense(2, nil)); !errors.Is(err, ErrDimension) {
		t.Errorf("Back: expected ErrDimension, got %v", err)
	}

	grid := models.Grid{Width: 3, Height: 1, Depth: 1, Spacing: 1}
	img := &models.Image{Data: make([]float64, 3), Width: 3, Height: 1}
	if _, err := sys.BackVolume(img, grid); !errors.Is(err, ErrDimension) {
		t.Errorf("BackVolume: expected ErrDimension, got %v", err)
	}

	if _, err := NewBuilder(nil).Build(&Camera{}, nil); !errors.Is(err, ErrDimension) {
		t.Errorf("Build: expected ErrDimension for an empty camera, got %v", err)
	}
}

func TestBuildRejectsBadVoxels(t *testing.T) {
	cam, _, _ := testSetup(t)
	voxels := []models.Voxel{{Index: 0, Radius: 0}}
	if _, err := NewBuilder(nil).Build(cam, voxels); err == nil {
		t.Error("Expected an error for a zero voxel radius")
	}
}

func TestBackVolume(t *testing.T) {
	cam, grid, voxels := testSetup(t)
	sys, err := NewBuilder(nil).Build(cam, voxels)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	img := &models.Image{Data: make([]float64, sys.Pixels), Width: cam.Width, Height: cam.Height}
	for i := range img.Data {
		img.Data[i] = 1
	}
	vol, err := sys.BackVolume(img, grid)
	if err != nil {
		t.Fatalf("BackVolume failed: %v", err)
	}
	if vol.Width != 4 || vol.Height != 4 || vol.Depth != 4 {
		t.Errorf("Unexpected volume shape %dx%dx%d", vol.Width, vol.Height, vol.Depth)
	}

	// With a uniform image every voxel receives its column sum.
	colSums := make([]float64, sys.Voxels)
	for _, e := range sys.Entries {
		colSums[e.Voxel] += e.Weight
	}
	for j, want := range colSums {
		if math.Abs(vol.Data[j]-want) > 1e-12 {
			t.Errorf("Voxel %d: expected %g, got %g", j, want, vol.Data[j])
		}
	}
}

func TestStats(t *testing.T) {
	sys := &System{
		Pixels: 3, Voxels: 2,
		Entries: []Entry{
			{Pixel: 0, Voxel: 0, Weight: 0.25},
			{Pixel: 0, Voxel: 1, Weight: 0.75},
			{Pixel: 2, Voxel: 1, Weight: 0.5},
		},
	}
	st := sys.Stats()

	if st.NonZero != 3 {
		t.Errorf("Expected 3 non-zero entries, got %d", st.NonZero)
	}
	if math.Abs(st.Density-0.5) > 1e-15 {
		t.Errorf("Expected density 0.5, got %g", st.Density)
	}
	if math.Abs(st.MeanWeight-0.5) > 1e-15 {
		t.Errorf("Expected mean weight 0.5, got %g", st.MeanWeight)
	}
	if math.Abs(st.StdWeight-0.25) > 1e-15 {
		t.Errorf("Expected weight std 0.25, got %g", st.StdWeight)
	}
	if math.Abs(st.MeanCoverage-0.5) > 1e-15 {
		t.Errorf("Expected mean coverage 0.5, got %g", st.MeanCoverage)
	}
	if st.Blind != 1 {
		t.Errorf("Expected 1 blind pixel, got %d", st.Blind)
	}

	empty := (&System{Pixels: 4, Voxels: 4}).Stats()
	if empty.Blind != 4 || empty.NonZero != 0 {
		t.Errorf("Unexpected stats for an empty system: %+v", empty)
	}
}

func BenchmarkBuild(b *testing.B) {
	grid := models.Grid{Width: 16, Height: 16, Depth: 16, Spacing: 1}
	voxels := grid.Voxels(0.6)
	cam, err := NewCamera(24, 24, 0.75, 0.35, r3.Vec{X: 7.5, Y: 7.5, Z: -20}, r3.Vec{Z: 1})
	if err != nil {
		b.Fatal(err)
	}
	builder := NewBuilder(nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(cam, voxels); err != nil {
			b.Fatal(err)
		}
	}
}
