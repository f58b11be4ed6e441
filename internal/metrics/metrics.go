// Package metrics exposes Prometheus collectors for the matching
// service on a dedicated registry, keeping default Go collectors out
// of the scrape.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pm"

// Recorder owns the service collectors. A nil Recorder is valid and
// records nothing, so callers never need to guard their observe calls.
type Recorder struct {
	registry *prometheus.Registry

	matchTotal        *prometheus.CounterVec
	matchDuration     prometheus.Histogram
	qualityConfidence prometheus.Histogram
	galleryPeople     prometheus.Gauge
}

// NewRecorder creates all collectors on a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Recorder{
		registry: registry,
		matchTotal: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_total",
			Help:      "Match decisions by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		matchDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Wall time of a single match decision.",
			Buckets:   prometheus.DefBuckets,
		}),
		qualityConfidence: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_confidence",
			Help:      "Distribution of assessed face quality confidence.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		galleryPeople: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_people",
			Help:      "Number of people currently enrolled in the gallery.",
		}),
	}
}

// ObserveMatch records one match decision and how long it took.
func (r *Recorder) ObserveMatch(strategy string, matched bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "no_match"
	if matched {
		outcome = "match"
	}
	r.matchTotal.WithLabelValues(strategy, outcome).Inc()
	r.matchDuration.Observe(elapsed.Seconds())
}

// ObserveQuality records one assessed quality confidence.
func (r *Recorder) ObserveQuality(confidence float64) {
	if r == nil {
		return
	}
	r.qualityConfidence.Observe(confidence)
}

// SetGallerySize updates the enrolled-people gauge.
func (r *Recorder) SetGallerySize(n int) {
	if r == nil {
		return
	}
	r.galleryPeople.Set(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
