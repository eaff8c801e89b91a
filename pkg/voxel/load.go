package voxel

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LoadImageDir reads a directory of grayscale slice images (JPEG or PNG),
// sorts them by the numeric part of their filenames to preserve slice
// order, and thresholds them into a binary volume. Pixels whose normalised
// intensity exceeds threshold become foreground.
func LoadImageDir(dir string, threshold float64, scale Scale) (*Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading slice directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	// Sort by the numbers embedded in the filenames so slice order matches
	// anatomical order regardless of zero padding.
	sort.Slice(names, func(i, j int) bool {
		return extractNumber(names[i]) < extractNumber(names[j])
	})

	var volume *Volume
	for z, name := range names {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading slice %s: %w", name, err)
		}
		bounds := img.Bounds()

		if volume == nil {
			volume, err = New(bounds.Dx(), bounds.Dy(), len(names), scale)
			if err != nil {
				return nil, err
			}
		} else if bounds.Dx() != volume.width || bounds.Dy() != volume.height {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d",
				name, bounds.Dx(), bounds.Dy(), volume.width, volume.height)
		}

		for y := 0; y < volume.height; y++ {
			for x := 0; x < volume.width; x++ {
				r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				if float64(r)/65535.0 > threshold {
					volume.SetForeground(x, y, z, true)
				}
			}
		}
	}

	return volume, nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// extractNumber pulls the digits out of a filename so slices sort by their
// sequence number.
func extractNumber(filename string) int {
	numStr := ""
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}
