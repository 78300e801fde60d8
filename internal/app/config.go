package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kiesman99/mapimage/internal/bootstrap"
	"github.com/kiesman99/mapimage/pkg/geo"
)

// Config holds everything needed to build an Application
type Config struct {
	// Image is a URL, data URL or file path
	Image string
	// LayerURL is what the image layer points renderers at. Defaults to Image.
	LayerURL string
	// Bbox is the initial polygon extent in EPSG:4326
	Bbox        geo.Extent
	LoadTimeout time.Duration
	UserAgent   string

	BasemapURL string
	Center     [2]float64
	Zoom       float64
}

// DefaultConfig mirrors the demo map: a 20 degree square at the origin over
// OpenStreetMap, viewed at zoom 2.
func DefaultConfig() Config {
	return Config{
		Bbox:        geo.Extent{0, 0, 20, 20},
		LoadTimeout: bootstrap.DefaultTimeout,
		UserAgent:   bootstrap.DefaultUserAgent,
		BasemapURL:  "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Zoom:        2,
	}
}

// Validate checks the config before any loading happens
func (c Config) Validate() error {
	if c.Image == "" {
		return errors.New("image source is required")
	}
	if c.Bbox.Empty() || c.Bbox.Width() == 0 || c.Bbox.Height() == 0 {
		return fmt.Errorf("bbox %s must have min < max on both axes", c.Bbox)
	}
	if c.Bbox.MinX() < -180 || c.Bbox.MaxX() > 180 || c.Bbox.MinY() < -90 || c.Bbox.MaxY() > 90 {
		return fmt.Errorf("bbox %s is outside of EPSG:4326 bounds", c.Bbox)
	}
	if c.Zoom < 0 || c.Zoom > 28 {
		return fmt.Errorf("zoom must be between 0 and 28, got %v", c.Zoom)
	}
	return nil
}

// ParseBbox parses "minLon,minLat,maxLon,maxLat"
func ParseBbox(s string) (geo.Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Extent{}, fmt.Errorf("bbox must be in format 'min-lon,min-lat,max-lon,max-lat'")
	}

	names := [4]string{"min-lon", "min-lat", "max-lon", "max-lat"}
	values := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Extent{}, fmt.Errorf("invalid %s in bbox: %v", names[i], err)
		}
		values = append(values, v)
	}
	return geo.ExtentFromSlice(values)
}

// ParseCenter parses "lon,lat"
func ParseCenter(s string) ([2]float64, error) {
	c, err := parsePair(s)
	if err != nil {
		return [2]float64{}, fmt.Errorf("center must be in format 'lon,lat': %v", err)
	}
	return c, nil
}

// ParseOffset parses "dx,dy" in degrees
func ParseOffset(s string) (dx, dy float64, err error) {
	v, err := parsePair(s)
	if err != nil {
		return 0, 0, fmt.Errorf("offset must be in format 'dx,dy': %v", err)
	}
	return v[0], v[1], nil
}

func parsePair(s string) ([2]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("expected 2 values, got %d", len(parts))
	}

	var v [2]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [2]float64{}, err
		}
		v[i] = f
	}
	return v, nil
}
