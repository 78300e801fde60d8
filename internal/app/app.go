// Package app wires the overlay, its map and its interactions into one
// Application built at startup.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/kiesman99/mapimage/internal/bootstrap"
	"github.com/kiesman99/mapimage/internal/interaction"
	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/internal/overlay"
	"github.com/kiesman99/mapimage/pkg/geo"
	"github.com/kiesman99/mapimage/pkg/worldfile"
)

// Application owns the overlay and everything that talks to it. Its methods
// are serialized, so drag ticks and resyncs never interleave.
type Application struct {
	mu sync.Mutex

	image     *bootstrap.Image
	overlay   *overlay.Overlay
	mapView   *Map
	selection *interaction.Select
	translate *interaction.Translate

	removeListener func()
	closed         bool
}

// Snapshot is a consistent view of the overlay state
type Snapshot struct {
	Source          string
	Format          string
	Width, Height   int
	Projection      geo.Projection
	DisplayExtent   geo.Extent
	Bbox            *geo.Extent
	State           overlay.State
	LayerRevision   uint64
	FeatureRevision uint64
	Dragging        bool
}

// New loads the configured image and builds the overlay on top of it. If the
// image cannot be loaded the *bootstrap.ImageLoadError is returned and
// nothing else is created.
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := bootstrap.New(bootstrap.Options{
		Timeout:   cfg.LoadTimeout,
		UserAgent: cfg.UserAgent,
	})
	img, err := b.Initialize(ctx, cfg.Image)
	if err != nil {
		return nil, err
	}

	return NewWithImage(cfg, img)
}

// NewWithImage builds the application around an already loaded image
func NewWithImage(cfg Config, img *bootstrap.Image) (*Application, error) {
	layerURL := cfg.LayerURL
	if layerURL == "" {
		layerURL = cfg.Image
	}

	o, err := overlay.Create(layerURL, img.Projection, cfg.Bbox.Bound().ToPolygon())
	if err != nil {
		return nil, fmt.Errorf("create overlay: %w", err)
	}

	sel := interaction.NewSelect()
	sel.Add(o.Feature())

	a := &Application{
		image:     img,
		overlay:   o,
		mapView:   newMap(cfg, o),
		selection: sel,
		translate: interaction.NewTranslate(sel, o),
	}
	a.removeListener = o.Layer().OnChange(func(s *overlay.Static) {
		log.Debug("image layer source replaced", zap.Stringer("extent", s.ImageExtent))
	})

	log.Info("overlay ready",
		zap.String("projection", img.Projection.Code),
		zap.Stringer("bbox", cfg.Bbox),
		zap.Stringer("extent", o.DisplayExtent()))

	return a, nil
}

func (a *Application) Image() *bootstrap.Image  { return a.image }
func (a *Application) Overlay() *overlay.Overlay { return a.overlay }

// View returns the initial map view
func (a *Application) View() View {
	return a.mapView.View()
}

// Layers lists the map layers in draw order
func (a *Application) Layers() []LayerInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mapView.Layers()
}

// Layer describes a single map layer by id
func (a *Application) Layer(id string) (LayerInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mapView.Layer(id)
}

// ClipFeatures renders the clip layer as GeoJSON
func (a *Application) ClipFeatures() *geojson.FeatureCollection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.overlay.ClipLayer().FeatureCollection()
}

// Snapshot reads the overlay state
func (a *Application) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		Source:          a.image.Source.String(),
		Format:          a.image.Format,
		Width:           a.image.Width,
		Height:          a.image.Height,
		Projection:      a.overlay.Projection(),
		DisplayExtent:   a.overlay.DisplayExtent(),
		State:           a.overlay.State(),
		LayerRevision:   a.overlay.Layer().Revision(),
		FeatureRevision: a.overlay.Feature().Revision(),
		Dragging:        a.translate.Active(),
	}
	if bbox, ok := a.overlay.Feature().Extent(); ok {
		s.Bbox = &bbox
	}
	return s
}

// ReplacePolygon swaps the boundary polygon and resyncs the overlay
func (a *Application) ReplacePolygon(p orb.Polygon) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overlay.Feature().SetGeometry(p)
	return a.overlay.ResyncExtent()
}

// Resync republishes the display extent
func (a *Application) Resync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.overlay.ResyncExtent()
}

func (a *Application) TranslateStart(p orb.Point) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.translate.Start(p)
}

func (a *Application) TranslateMove(p orb.Point) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.translate.Move(p)
}

func (a *Application) TranslateEnd(p orb.Point) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.translate.End(p)
}

// Nudge moves the selection by dx, dy degrees outside of a drag
func (a *Application) Nudge(dx, dy float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.translate.TranslateBy(dx, dy)
}

// WorldFile renders the world file for the current display extent along
// with its conventional extension.
func (a *Application) WorldFile() ([]byte, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data := worldfile.Generate(a.overlay.DisplayExtent(), a.image.Width, a.image.Height)
	return data, worldfile.Extension(a.image.Format)
}

// Close detaches listeners and drops the selection. It is safe to call more
// than once.
func (a *Application) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.removeListener != nil {
		a.removeListener()
	}
	a.selection.Clear()
	return nil
}
