package interaction

import (
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/internal/metrics"
	"github.com/kiesman99/mapimage/internal/overlay"
)

var (
	ErrNotTranslating     = errors.New("no translate in progress")
	ErrAlreadyTranslating = errors.New("translate already in progress")
)

// Resyncer is anything that must follow feature moves, typically an overlay
type Resyncer interface {
	ResyncExtent() error
}

// ResyncFunc adapts a function to Resyncer
type ResyncFunc func() error

func (f ResyncFunc) ResyncExtent() error { return f() }

// FeatureSource supplies the features a translate moves
type FeatureSource interface {
	Features() []*overlay.Feature
}

// Translate drags the features of a FeatureSource. Every position update
// moves them by the delta since the previous position, then calls each
// Resyncer in order.
type Translate struct {
	mu        sync.Mutex
	features  FeatureSource
	resyncers []Resyncer
	active    bool
	last      orb.Point
}

func NewTranslate(features FeatureSource, resyncers ...Resyncer) *Translate {
	return &Translate{
		features:  features,
		resyncers: resyncers,
	}
}

// Start begins a drag at coordinate p
func (t *Translate) Start(p orb.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return ErrAlreadyTranslating
	}
	t.active = true
	t.last = p
	log.Debug("translate start", zap.Float64("x", p[0]), zap.Float64("y", p[1]))
	return nil
}

// Move drags the selection to p
func (t *Translate) Move(p orb.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return ErrNotTranslating
	}
	dx, dy := p[0]-t.last[0], p[1]-t.last[1]
	t.last = p
	return t.apply(dx, dy)
}

// End applies the final position and finishes the drag
func (t *Translate) End(p orb.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return ErrNotTranslating
	}
	dx, dy := p[0]-t.last[0], p[1]-t.last[1]
	t.active = false
	log.Debug("translate end", zap.Float64("x", p[0]), zap.Float64("y", p[1]))
	if dx == 0 && dy == 0 {
		return nil
	}
	return t.apply(dx, dy)
}

// TranslateBy moves the selection by dx, dy outside of a drag
func (t *Translate) TranslateBy(dx, dy float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apply(dx, dy)
}

// Active reports whether a drag is in progress
func (t *Translate) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Translate) apply(dx, dy float64) error {
	features := t.features.Features()
	for _, f := range features {
		f.Translate(dx, dy)
	}
	metrics.TranslateTicks.Inc()

	var errs []error
	for i, r := range t.resyncers {
		if err := r.ResyncExtent(); err != nil {
			errs = append(errs, fmt.Errorf("resyncer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
