// Package worldfile renders ESRI world files for a raster stretched over a
// display extent.
package worldfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kiesman99/mapimage/pkg/geo"
)

var ErrNoOutput = errors.New("can't write a worldfile without an image path")

// PixelSize returns the size of one image pixel in extent units
func PixelSize(extent geo.Extent, width, height int) (px, py float64) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	return extent.Width() / float64(width), extent.Height() / float64(height)
}

// Generate renders the six world file lines: pixel size x, two rotation
// terms, negative pixel size y, then the top left corner.
func Generate(extent geo.Extent, width, height int) []byte {
	px, py := PixelSize(extent, width, height)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%24.10f\n", px)
	fmt.Fprintf(&buf, "%24.10f\n", 0.0)
	fmt.Fprintf(&buf, "%24.10f\n", 0.0)
	fmt.Fprintf(&buf, "%24.10f\n", -py)
	fmt.Fprintf(&buf, "%24.10f\n", extent.MinX())
	fmt.Fprintf(&buf, "%24.10f\n", extent.MaxY())
	return buf.Bytes()
}

// Extension returns the conventional world file extension for an image format
// as reported by image.DecodeConfig.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return ".pgw"
	case "jpeg", "jpg":
		return ".jgw"
	case "gif":
		return ".gfw"
	case "tiff", "tif":
		return ".tfw"
	case "bmp":
		return ".bpw"
	default:
		return ".wld"
	}
}

// PathFor replaces the extension of an image path with the world file one
func PathFor(imagePath, format string) string {
	ext := Extension(format)
	if idx := strings.LastIndex(imagePath, "."); idx != -1 && !strings.Contains(imagePath[idx:], "/") {
		return imagePath[:idx] + ext
	}
	return imagePath + ext
}

// Write stores a world file next to imagePath and returns its path
func Write(imagePath, format string, extent geo.Extent, width, height int) (string, error) {
	if imagePath == "" {
		return "", ErrNoOutput
	}

	name := PathFor(imagePath, format)
	if err := os.WriteFile(name, Generate(extent, width, height), 0o644); err != nil {
		return "", err
	}
	return name, nil
}
