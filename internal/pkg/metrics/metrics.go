package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrforge_generations_total",
		Help: "QR generation attempts by mode and status.",
	}, []string{"mode", "status"})

	GenerationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qrforge_generation_seconds",
		Help:    "End-to-end duration of a single QR generation.",
		Buckets: prometheus.DefBuckets,
	})

	BatchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrforge_batch_items_total",
		Help: "Batch items by outcome (success, failure, timeout).",
	}, []string{"outcome"})

	LogoEmbedFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrforge_logo_embed_failures_total",
		Help: "Logo embeds that fell back to the plain QR image.",
	})
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
