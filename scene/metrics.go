package scene

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveResources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scene_live_resources",
		Help: "The number of allocated scene resources that are not disposed.",
	}, []string{"kind"})

	rebuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scene_rebuild_seconds",
		Help:    "The time taken to rebuild a part of a scene.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"part", "strategy"})
)

func instrumentLiveResources(kind Kind, delta float64) {
	liveResources.WithLabelValues(kind.String()).Add(delta)
}

func instrumentRebuild(part, strategy string, start time.Time) {
	rebuildDuration.
		WithLabelValues(part, strategy).
		Observe(time.Since(start).Seconds())
}
