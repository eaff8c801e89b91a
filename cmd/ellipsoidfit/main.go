package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ellipsoidfit/pkg/analysis"
	"ellipsoidfit/pkg/config"
	"ellipsoidfit/pkg/fitting"
	"ellipsoidfit/pkg/geometry"
	"ellipsoidfit/pkg/seeding"
	"ellipsoidfit/pkg/voxel"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing binary slice images (JPEG/PNG)")
	configPath := flag.String("config", "ellipsoidfit.yaml", "Path to YAML configuration file")
	outputCSV := flag.String("output", "", "Optional CSV file for the fitted ellipsoids")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load the slice stack into a binary volume
	scale := voxel.Scale{
		X: cfg.Input.VoxelSize.X,
		Y: cfg.Input.VoxelSize.Y,
		Z: cfg.Input.VoxelSize.Z,
	}
	volume, err := voxel.LoadImageDir(*inputDir, cfg.Input.Threshold, scale)
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}
	fmt.Printf("Loaded volume %dx%dx%d (%d foreground voxels)\n",
		volume.Width(), volume.Height(), volume.Depth(), volume.ForegroundCount())

	// Generate seed points
	seeds := seeding.InteriorSeeds(volume, cfg.Seeding.Stride)
	seeds = seeding.Thin(volume, seeds, cfg.Seeding.MinSpacing)
	if len(seeds) == 0 {
		log.Fatal("No interior seed points found; is the volume empty or too thin?")
	}
	fmt.Printf("Generated %d seed points (stride %d, min spacing %.2f)\n",
		len(seeds), cfg.Seeding.Stride, cfg.Seeding.MinSpacing)

	// Run the batch fit
	optimizer := fitting.NewOptimizer(volume, cfg.FittingParams())
	optimizer.SetVerbose(cfg.Runner.Verbose)

	fmt.Printf("Fitting ellipsoids on %d workers...\n", cfg.Runner.NumWorkers)
	startTime := time.Now()
	ellipsoids := optimizer.FitAll(seeds, cfg.Runner.NumWorkers, cfg.Runner.RngSeed)
	elapsed := time.Since(startTime)

	fmt.Printf("\nFitted %d of %d seeds in %.2f seconds\n",
		len(ellipsoids), len(seeds), elapsed.Seconds())
	if len(ellipsoids) == 0 {
		log.Fatal("No ellipsoids survived fitting")
	}

	// Summary statistics
	summary := analysis.Summarize(ellipsoids)
	fmt.Println("\nBatch summary:")
	fmt.Println("==============")
	fmt.Printf("Ellipsoids:        %d\n", summary.Count)
	fmt.Printf("Volume mean/median/std:  %.3f / %.3f / %.3f\n",
		summary.MeanVolume, summary.MedianVolume, summary.StdDevVolume)
	fmt.Printf("EF mean/median/std:      %.3f / %.3f / %.3f\n",
		summary.MeanFactor, summary.MedianFactor, summary.StdDevFactor)

	largest := ellipsoids[0]
	radii := largest.SortedRadii()
	fmt.Printf("Largest ellipsoid: volume %.3f, radii (%.3f, %.3f, %.3f) at %v\n",
		largest.Volume(), radii[0], radii[1], radii[2], largest.Centre())

	if *outputCSV != "" {
		if err := writeCSV(*outputCSV, ellipsoids); err != nil {
			log.Fatalf("Failed to write CSV: %v", err)
		}
		fmt.Printf("Ellipsoids written to %s\n", *outputCSV)
	}
}

// writeCSV dumps the fitted ellipsoids, one row each, in descending volume
// order: centroid, sorted radii, volume, ellipsoid factor.
func writeCSV(path string, ellipsoids []*geometry.Ellipsoid) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"cx", "cy", "cz", "a", "b", "c", "volume", "ef"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, e := range ellipsoids {
		centre := e.Centre()
		radii := e.SortedRadii()
		row := []string{
			formatFloat(centre.X),
			formatFloat(centre.Y),
			formatFloat(centre.Z),
			formatFloat(radii[0]),
			formatFloat(radii[1]),
			formatFloat(radii[2]),
			formatFloat(e.Volume()),
			formatFloat(analysis.EllipsoidFactor(e)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
