package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImageLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapimage",
		Subsystem: "bootstrap",
		Name:      "image_loads_total",
		Help:      "Total image loads by result",
	}, []string{"result"})

	ImageLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapimage",
		Subsystem: "bootstrap",
		Name:      "image_load_duration_seconds",
		Help:      "Time spent waiting for an image to load",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	Resyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapimage",
		Subsystem: "overlay",
		Name:      "resyncs_total",
		Help:      "Total display extent resyncs by result",
	}, []string{"result"})

	TranslateTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapimage",
		Subsystem: "interaction",
		Name:      "translate_ticks_total",
		Help:      "Total translate position updates applied",
	})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
