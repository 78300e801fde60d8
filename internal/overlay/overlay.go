// Package overlay keeps a georeferenced image layer aligned with the polygon
// users drag around the map.
package overlay

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/internal/metrics"
	"github.com/kiesman99/mapimage/pkg/geo"
)

// Polygon coordinates are geographic, the map is displayed in web mercator.
var (
	SourceProjection  = geo.EPSG4326.Code
	DisplayProjection = geo.EPSG3857.Code
)

var (
	ErrMissingGeometry   = errors.New("polygon has no geometry to take an extent from")
	ErrInvalidProjection = errors.New("image projection must be a pixel projection with a non-empty extent")
)

// State of the display extent relative to the polygon
type State int

const (
	Unsynced State = iota
	Synced
)

func (s State) String() string {
	if s == Synced {
		return "synced"
	}
	return "unsynced"
}

// Overlay is an image georeferenced by the bounding box of a polygon
type Overlay struct {
	url        string
	projection geo.Projection
	feature    *Feature
	layer      *ImageLayer
	clipLayer  *VectorLayer

	// feature revision the layer extent was computed from
	syncedRevision atomic.Uint64
}

// Create builds the overlay for url, mapped through projection, displayed over
// the bounding box of rings.
func Create(url string, projection geo.Projection, rings orb.Polygon) (*Overlay, error) {
	if !projection.IsPixel() || projection.Extent.Empty() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProjection, projection.Code)
	}

	feature := NewFeature(rings)
	o := &Overlay{
		url:        url,
		projection: projection,
		feature:    feature,
		clipLayer:  NewVectorLayer(feature),
	}

	source, revision, err := o.source()
	if err != nil {
		return nil, err
	}
	o.layer = NewImageLayer(source)
	o.syncedRevision.Store(revision)

	return o, nil
}

// source computes a Static source for the polygon's current position
func (o *Overlay) source() (*Static, uint64, error) {
	bbox, revision, ok := o.feature.Bounds()
	if !ok {
		return nil, revision, ErrMissingGeometry
	}

	extent, err := geo.TransformExtent(bbox, SourceProjection, DisplayProjection)
	if err != nil {
		return nil, revision, err
	}
	if extent.Empty() {
		return nil, revision, fmt.Errorf("%w: extent %s", ErrMissingGeometry, extent)
	}

	return &Static{
		URL:         o.url,
		Projection:  o.projection,
		ImageExtent: extent,
	}, revision, nil
}

// ResyncExtent republishes the image layer's extent from the polygon's
// current bounding box. With no usable geometry it returns
// ErrMissingGeometry and leaves the layer untouched.
func (o *Overlay) ResyncExtent() error {
	source, revision, err := o.source()
	if err != nil {
		metrics.Resyncs.WithLabelValues("skipped").Inc()
		log.Debug("resync skipped", zap.String("feature", o.feature.ID()), zap.Error(err))
		return err
	}

	o.layer.SetSource(source)
	o.syncedRevision.Store(revision)
	metrics.Resyncs.WithLabelValues("synced").Inc()
	log.Debug("resynced display extent",
		zap.String("feature", o.feature.ID()),
		zap.Uint64("revision", revision),
		zap.Stringer("extent", source.ImageExtent))

	return nil
}

// State reports whether the layer extent reflects the polygon's last mutation
func (o *Overlay) State() State {
	if o.feature.Revision() == o.syncedRevision.Load() {
		return Synced
	}
	return Unsynced
}

// DisplayExtent is the extent currently published on the image layer
func (o *Overlay) DisplayExtent() geo.Extent {
	return o.layer.Source().ImageExtent
}

func (o *Overlay) URL() string                { return o.url }
func (o *Overlay) Projection() geo.Projection { return o.projection }
func (o *Overlay) Feature() *Feature          { return o.feature }
func (o *Overlay) Layer() *ImageLayer         { return o.layer }
func (o *Overlay) ClipLayer() *VectorLayer    { return o.clipLayer }
