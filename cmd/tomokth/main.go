package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"tomokth/internal/models"
	"tomokth/pkg/config"
	"tomokth/pkg/intersect"
	"tomokth/pkg/projection"
	"tomokth/pkg/visualization"
)

func main() {
	rs := flag.Float64("rs", 1, "Sphere (voxel) radius")
	rc := flag.Float64("rc", -1, "Cylinder (line of sight) radius; a negative value skips the single volume")
	b := flag.Float64("b", 0, "Impact parameter: distance from the sphere centre to the cylinder axis")
	tolerance := flag.Float64("tolerance", 0, "Relative tolerance for snapping near-degenerate geometry (minimum intersect.MinTolerance)")
	configPath := flag.String("config", "", "YAML configuration describing a voxel grid and camera")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeConfig)
		return
	}

	switch {
	case *rc >= 0:
		calc := &intersect.Calculator{Tolerance: *tolerance}
		if err := printVolume(calc, *rs, *rc, *b); err != nil {
			log.Fatalf("Volume failed: %v", err)
		}
	case *configPath != "":
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := runSystem(cfg); err != nil {
			log.Fatalf("Projection failed: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func printVolume(calc *intersect.Calculator, rs, rc, b float64) error {
	class, err := calc.Classify(rs, rc, b)
	if err != nil {
		return err
	}
	v, err := calc.Volume(rs, rc, b)
	if err != nil {
		return err
	}
	fmt.Printf("rs=%g rc=%g b=%g\n", rs, rc, b)
	fmt.Printf("Case: %s\n", class)
	fmt.Printf("Intersection volume: %.10g\n", v)
	fmt.Printf("Fraction of sphere:  %.6f\n", v/intersect.SphereVolume(rs))
	return nil
}

func runSystem(cfg *config.Config) error {
	grid := cfg.ModelGrid()
	voxels := grid.Voxels(cfg.Grid.VoxelRadius)
	cam, err := cfg.NewCamera()
	if err != nil {
		return err
	}

	fmt.Printf("Grid: %dx%dx%d voxels of radius %g\n", grid.Width, grid.Height, grid.Depth, cfg.Grid.VoxelRadius)
	fmt.Printf("Camera: %dx%d pixels of radius %g\n", cam.Width, cam.Height, cfg.Camera.PixelRadius)

	startTime := time.Now()
	sys, err := projection.NewBuilder(cfg.ProjectionParams()).Build(cam, voxels)
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	st := sys.Stats()
	fmt.Printf("\nWeight system assembled in %.2f seconds\n", elapsed.Seconds())
	fmt.Printf("=======================================\n")
	fmt.Printf("Non-zero weights: %d (density %.4f%%)\n", st.NonZero, 100*st.Density)
	fmt.Printf("Weight: mean %.6f, std %.6f\n", st.MeanWeight, st.StdWeight)
	fmt.Printf("Mean pixel coverage: %.4f voxels\n", st.MeanCoverage)
	fmt.Printf("Blind pixels: %d of %d\n", st.Blind, sys.Pixels)

	if dir := cfg.Output.SlicesDir; dir != "" {
		img := &models.Image{Data: make([]float64, sys.Pixels), Width: cam.Width, Height: cam.Height}
		for i := range img.Data {
			img.Data[i] = 1
		}
		vol, err := sys.BackVolume(img, grid)
		if err != nil {
			return err
		}

		viewer := visualization.NewViewer(vol)
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(dir, axis)
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)
			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			}
		}
	}

	if path := cfg.Output.ProfilePlot; path != "" {
		if err := visualization.PlotProfile(cfg.Grid.VoxelRadius, cfg.Camera.PixelRadius, 100, path); err != nil {
			return err
		}
		fmt.Printf("Volume profile saved to: %s\n", path)
	}
	return nil
}
