package overlay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kiesman99/mapimage/pkg/geo"
)

// Feature is the draggable boundary polygon. It is shared by reference
// between interactions, which mutate it, and the overlay, which only reads
// it. Every mutation bumps the revision.
type Feature struct {
	mu       sync.RWMutex
	id       string
	geometry orb.Polygon
	revision uint64
}

// NewFeature wraps a copy of polygon
func NewFeature(polygon orb.Polygon) *Feature {
	return &Feature{
		id:       uuid.NewString(),
		geometry: polygon.Clone(),
	}
}

func (f *Feature) ID() string {
	return f.id
}

// Geometry returns a copy of the current polygon, nil once it was removed
func (f *Feature) Geometry() orb.Polygon {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.geometry.Clone()
}

// Revision counts the mutations applied so far
func (f *Feature) Revision() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.revision
}

// SetGeometry replaces the polygon. A nil polygon removes the geometry.
func (f *Feature) SetGeometry(polygon orb.Polygon) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geometry = polygon.Clone()
	f.revision++
}

// Translate moves every vertex by dx, dy in place
func (f *Feature) Translate(dx, dy float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ring := range f.geometry {
		for i := range ring {
			ring[i][0] += dx
			ring[i][1] += dy
		}
	}
	f.revision++
}

// Bounds returns the bounding box of the polygon together with the revision
// it was read at. ok is false when the geometry is missing or has no points.
func (f *Feature) Bounds() (e geo.Extent, revision uint64, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.geometry) == 0 || len(f.geometry[0]) == 0 {
		return geo.Extent{}, f.revision, false
	}

	e = geo.FromBound(f.geometry.Bound())
	return e, f.revision, !e.Empty()
}

// Extent returns the polygon's bounding box in geographic coordinates
func (f *Feature) Extent() (geo.Extent, bool) {
	e, _, ok := f.Bounds()
	return e, ok
}

// GeoJSON renders the feature with its id as a property
func (f *Feature) GeoJSON() *geojson.Feature {
	f.mu.RLock()
	polygon, revision := f.geometry.Clone(), f.revision
	f.mu.RUnlock()

	var g orb.Geometry = orb.Polygon{}
	if polygon != nil {
		g = polygon
	}
	gf := geojson.NewFeature(g)
	gf.ID = f.id
	gf.Properties["revision"] = revision
	return gf
}
