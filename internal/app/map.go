package app

import (
	"github.com/kiesman99/mapimage/internal/overlay"
	"github.com/kiesman99/mapimage/pkg/geo"
)

// Layer identifiers, in draw order
const (
	LayerBackground = "background"
	LayerImage      = "image"
	LayerClip       = "clip"
)

// LayerKind tells a renderer how to draw a layer
type LayerKind string

const (
	KindTile   LayerKind = "tile"
	KindImage  LayerKind = "image"
	KindVector LayerKind = "vector"
)

// LayerInfo describes one map layer as a renderer needs it
type LayerInfo struct {
	ID         string
	Kind       LayerKind
	ClassName  string
	URL        string
	Projection string
	Extent     *geo.Extent
	Revision   uint64
}

// View is the initial map view. Center is in EPSG:4326.
type View struct {
	Center     [2]float64
	Zoom       float64
	Projection string
}

// Map is the layer stack: the basemap under the overlay image under the
// clip polygon.
type Map struct {
	view       View
	basemapURL string
	overlay    *overlay.Overlay
}

func newMap(cfg Config, o *overlay.Overlay) *Map {
	return &Map{
		view: View{
			Center:     cfg.Center,
			Zoom:       cfg.Zoom,
			Projection: overlay.DisplayProjection,
		},
		basemapURL: cfg.BasemapURL,
		overlay:    o,
	}
}

func (m *Map) View() View {
	return m.view
}

// Layers lists the layers in draw order
func (m *Map) Layers() []LayerInfo {
	layers := make([]LayerInfo, 0, 3)
	for _, id := range []string{LayerBackground, LayerImage, LayerClip} {
		info, _ := m.Layer(id)
		layers = append(layers, info)
	}
	return layers
}

// Layer describes a single layer by id
func (m *Map) Layer(id string) (LayerInfo, bool) {
	switch id {
	case LayerBackground:
		return LayerInfo{
			ID:         LayerBackground,
			Kind:       KindTile,
			ClassName:  "background",
			URL:        m.basemapURL,
			Projection: overlay.DisplayProjection,
		}, true
	case LayerImage:
		src, revision := m.overlay.Layer().Current()
		extent := src.ImageExtent
		return LayerInfo{
			ID:         LayerImage,
			Kind:       KindImage,
			URL:        src.URL,
			Projection: src.Projection.Code,
			Extent:     &extent,
			Revision:   revision,
		}, true
	case LayerClip:
		bbox, revision, ok := m.overlay.Feature().Bounds()
		info := LayerInfo{
			ID:         LayerClip,
			Kind:       KindVector,
			Projection: overlay.SourceProjection,
			Revision:   revision,
		}
		if ok {
			info.Extent = &bbox
		}
		return info, true
	}
	return LayerInfo{}, false
}
