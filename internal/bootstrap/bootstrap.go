// Package bootstrap loads an overlay image and derives the pixel projection
// it is georeferenced with.
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/internal/metrics"
	"github.com/kiesman99/mapimage/pkg/geo"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "mapimage/1.0.0"
)

// Options configures a Bootstrapper
type Options struct {
	// Timeout bounds the wait for the load signal. Zero means DefaultTimeout.
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

// Image is a loaded overlay image
type Image struct {
	Source      Source
	Data        []byte
	Format      string
	ContentType string
	Width       int
	Height      int
	Projection  geo.Projection
}

// Bootstrapper turns image sources into pixel projections
type Bootstrapper struct {
	timeout time.Duration
	fetcher *fetcher
}

// New creates a bootstrapper
func New(opts Options) *Bootstrapper {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	return &Bootstrapper{
		timeout: timeout,
		fetcher: &fetcher{client: client, userAgent: userAgent},
	}
}

// Load starts loading raw in the background. The returned future resolves
// when the image is decoded or loading fails; it is not bounded by the
// bootstrapper timeout, only by ctx.
func (b *Bootstrapper) Load(ctx context.Context, raw string) *Future[*Image] {
	src := ParseSource(raw)

	return Go(ctx, func(ctx context.Context) (*Image, error) {
		data, err := b.fetcher.fetch(ctx, src)
		if err != nil {
			return nil, err
		}

		width, height, format, err := dimensions(ctx, data)
		if err != nil {
			return nil, err
		}

		proj, err := geo.NewPixelProjection(width, height)
		if err != nil {
			return nil, err
		}

		return &Image{
			Source:      src,
			Data:        data,
			Format:      format,
			ContentType: ContentType(format),
			Width:       width,
			Height:      height,
			Projection:  proj,
		}, nil
	})
}

// Initialize loads raw and waits for it, at most for the configured timeout.
// Every failure is returned as an *ImageLoadError.
func (b *Bootstrapper) Initialize(ctx context.Context, raw string) (*Image, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	src := ParseSource(raw)
	log.Debug("loading image", zap.Stringer("source", src), zap.Stringer("kind", src.Kind), zap.Duration("timeout", b.timeout))

	img, err := b.Load(ctx, raw).Wait(ctx)
	metrics.ImageLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
		metrics.ImageLoads.WithLabelValues(result).Inc()
		log.Debug("image load failed", zap.Stringer("source", src), zap.Error(err))
		return nil, &ImageLoadError{Source: src.String(), Err: err}
	}

	metrics.ImageLoads.WithLabelValues("ok").Inc()
	log.Info("image loaded",
		zap.Stringer("source", src),
		zap.String("format", img.Format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.String("projection", img.Projection.Code))

	return img, nil
}

// Initialize bootstraps raw with default options and returns only its pixel
// projection.
func Initialize(ctx context.Context, raw string) (geo.Projection, error) {
	img, err := New(Options{}).Initialize(ctx, raw)
	if err != nil {
		return geo.Projection{}, err
	}
	return img.Projection, nil
}
