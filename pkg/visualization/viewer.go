// Package visualization renders back-projected volumes as grey-level slices
// and plots intersection volume profiles.
package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"tomokth/internal/models"
)

// ErrAxis is returned for an axis other than x, y or z.
var ErrAxis = errors.New("visualization: invalid axis (must be x, y, or z)")

// Viewer extracts slices and regions of a voxel volume. Values are scaled by
// the largest magnitude in the volume so that the brightest voxel is white.
type Viewer struct {
	vol *models.Volume

	// scale maps volume values onto [0, 1]
	scale float64
}

// NewViewer creates a viewer over vol.
func NewViewer(vol *models.Volume) *Viewer {
	var peak float64
	for _, v := range vol.Data {
		peak = math.Max(peak, math.Abs(v))
	}
	scale := 0.0
	if peak > 0 {
		scale = 1 / peak
	}
	return &Viewer{vol: vol, scale: scale}
}

// extent returns the number of slices along axis.
func (v *Viewer) extent(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return v.vol.Width, nil
	case "y", "Y":
		return v.vol.Height, nil
	case "z", "Z":
		return v.vol.Depth, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrAxis, axis)
}

func (v *Viewer) gray(x, y, z int) color.Gray16 {
	idx := z*v.vol.Width*v.vol.Height + y*v.vol.Width + x
	if idx >= len(v.vol.Data) {
		return color.Gray16{}
	}
	value := math.Max(0, math.Min(1, v.vol.Data[idx]*v.scale))
	return color.Gray16{Y: uint16(value * 65535)}
}

// ExtractSlice extracts the 2D slice at position along axis. An x slice is
// depth wide and height tall, a y slice width by depth, a z slice width by
// height.
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray16, error) {
	n, err := v.extent(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, fmt.Errorf("position %d outside [0, %d) along %s", position, n, axis)
	}

	w, h := v.vol.Width, v.vol.Height
	var at func(i, j int) color.Gray16
	switch axis {
	case "x", "X":
		w, h = v.vol.Depth, v.vol.Height
		at = func(i, j int) color.Gray16 { return v.gray(position, j, i) }
	case "y", "Y":
		w, h = v.vol.Width, v.vol.Depth
		at = func(i, j int) color.Gray16 { return v.gray(i, position, j) }
	default:
		at = func(i, j int) color.Gray16 { return v.gray(i, j, position) }
	}

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			img.SetGray16(i, j, at(i, j))
		}
	}
	return img, nil
}

// ExtractRegion copies the box of size (sx, sy, sz) starting at (x0, y0, z0)
// into a new volume.
func (v *Viewer) ExtractRegion(x0, y0, z0, sx, sy, sz int) (*models.Volume, error) {
	if x0 < 0 || y0 < 0 || z0 < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}
	if sx <= 0 || sy <= 0 || sz <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}
	if x0+sx > v.vol.Width || y0+sy > v.vol.Height || z0+sz > v.vol.Depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := models.NewVolume(models.Grid{Width: sx, Height: sy, Depth: sz})
	for z := 0; z < sz; z++ {
		for y := 0; y < sy; y++ {
			src := (z0+z)*v.vol.Width*v.vol.Height + (y0+y)*v.vol.Width + x0
			dst := z*sx*sy + y*sx
			copy(region.Data[dst:dst+sx], v.vol.Data[src:src+sx])
		}
	}
	return region, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts every slice along axis and writes them to
// outputDir as slice_<axis>_NNN.jpg.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	n, err := v.extent(axis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := SaveSlice(img, filename); err != nil {
			return fmt.Errorf("saving %s: %w", filename, err)
		}
	}
	return nil
}
