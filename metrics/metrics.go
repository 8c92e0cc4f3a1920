package metrics

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tile cache metrics
	TileCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovideo",
		Subsystem: "tiles",
		Name:      "cache_hits_total",
		Help:      "Tiles served from the tile store",
	}, []string{"provider"})

	TileCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovideo",
		Subsystem: "tiles",
		Name:      "cache_misses_total",
		Help:      "Tiles not found in the tile store",
	}, []string{"provider"})

	TileFetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovideo",
		Subsystem: "tiles",
		Name:      "fetch_attempts_total",
		Help:      "Network fetch attempts, including retries",
	}, []string{"provider"})

	TileFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovideo",
		Subsystem: "tiles",
		Name:      "fetch_failures_total",
		Help:      "Tiles that exhausted every retry",
	}, []string{"provider"})

	// Frame metrics
	FramesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovideo",
		Subsystem: "render",
		Name:      "frames_total",
		Help:      "Frames rendered by the compositor",
	}, []string{"variant"})

	FrameRenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geovideo",
		Subsystem: "render",
		Name:      "frame_duration_seconds",
		Help:      "Time spent rendering a single frame",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"variant"})
)

// Serve exposes the default registry on addr until the returned stop func is called.
// An empty addr disables exposition.
func Serve(addr string) (stop func()) {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return func() { _ = srv.Close() }
}
