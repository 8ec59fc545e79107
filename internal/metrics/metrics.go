package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imageenhancer_uploads_total",
		Help: "Upload attempts by result.",
	}, []string{"result"})

	Enhancements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imageenhancer_enhancements_total",
		Help: "Enhancement attempts by result.",
	}, []string{"result"})

	EnhancementSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imageenhancer_enhancement_seconds",
		Help:    "Wall time of the enhancement pipeline.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)
