package overlay

import (
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/kiesman99/mapimage/pkg/geo"
)

// Static is an image source stretched over a fixed extent in the display
// projection. Sources are immutable; moving the image means replacing it.
type Static struct {
	URL         string
	Projection  geo.Projection
	ImageExtent geo.Extent
}

// ImageLayer renders a single Static source
type ImageLayer struct {
	mu        sync.RWMutex
	source    *Static
	revision  uint64
	listeners map[int]func(*Static)
	nextID    int
}

// NewImageLayer creates a layer showing source
func NewImageLayer(source *Static) *ImageLayer {
	return &ImageLayer{
		source:    source,
		listeners: map[int]func(*Static){},
	}
}

// Source returns the current source
func (l *ImageLayer) Source() *Static {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source
}

// Current returns the source together with the revision it was set at
func (l *ImageLayer) Current() (*Static, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source, l.revision
}

// Revision counts source replacements
func (l *ImageLayer) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// SetSource replaces the source and notifies listeners, which the renderer
// treats as a re-render request.
func (l *ImageLayer) SetSource(source *Static) {
	l.mu.Lock()
	l.source = source
	l.revision++
	listeners := make([]func(*Static), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(source)
	}
}

// OnChange registers fn for source replacements. The returned func removes it.
func (l *ImageLayer) OnChange(fn func(*Static)) (remove func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// VectorLayer holds the features interactions attach to
type VectorLayer struct {
	features []*Feature
}

func NewVectorLayer(features ...*Feature) *VectorLayer {
	return &VectorLayer{features: features}
}

func (l *VectorLayer) Features() []*Feature {
	return append([]*Feature(nil), l.features...)
}

// FeatureCollection renders the layer as GeoJSON
func (l *VectorLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.features {
		fc.Append(f.GeoJSON())
	}
	return fc
}
