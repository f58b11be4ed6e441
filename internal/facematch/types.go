// Package facematch decides whether an unknown face encoding belongs to
// a known person. It offers a distance-only strategy, a relaxed fallback
// and a hybrid of the two, all sharing one injected distance function so
// that results are deterministic and safe to compute concurrently.
package facematch

import (
	"math"

	"github.com/17hemanthkumar/pm/internal/quality"
)

// Encoding is a face descriptor produced by an external encoder,
// conventionally 128 values.
type Encoding []float64

// DistanceFunc computes a non-negative distance between two encodings.
// Implementations must be deterministic.
type DistanceFunc func(a, b Encoding) float64

// EuclideanDistance is the default DistanceFunc, the L2 norm of a-b.
// Encodings of different lengths are infinitely far apart.
func EuclideanDistance(a, b Encoding) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Alternative is a non-best gallery candidate that still fell inside
// the widened reporting cutoff.
type Alternative struct {
	PersonID string  `json:"person_id"`
	Distance float64 `json:"distance"`
}

// MatchResult is the outcome of matching one unknown encoding against a
// gallery. Distance is +Inf when the gallery was empty.
type MatchResult struct {
	PersonID         string
	Matched          bool
	Distance         float64
	Confidence       float64
	StrategyUsed     string
	Quality          *quality.Metrics
	ThresholdApplied float64
	Alternatives     []Alternative
}

// Record is the serializable projection of a MatchResult. PersonID is
// null when nothing matched and MatchDistance is null when the gallery
// was empty, since an infinite distance has no JSON representation.
type Record struct {
	PersonID           *string          `json:"person_id"`
	Matched            bool             `json:"matched"`
	MatchDistance      *float64         `json:"match_distance"`
	Confidence         float64          `json:"confidence"`
	StrategyUsed       string           `json:"strategy_used"`
	QualityMetrics     *quality.Metrics `json:"quality_metrics,omitempty"`
	ThresholdApplied   float64          `json:"threshold_applied"`
	AlternativeMatches []Alternative    `json:"alternative_matches"`
}

// Record converts the result into its serializable form.
func (r MatchResult) Record() Record {
	rec := Record{
		Matched:            r.Matched,
		Confidence:         r.Confidence,
		StrategyUsed:       r.StrategyUsed,
		QualityMetrics:     r.Quality,
		ThresholdApplied:   r.ThresholdApplied,
		AlternativeMatches: r.Alternatives,
	}
	if r.Matched {
		id := r.PersonID
		rec.PersonID = &id
	}
	if !math.IsInf(r.Distance, 1) {
		d := r.Distance
		rec.MatchDistance = &d
	}
	if rec.AlternativeMatches == nil {
		rec.AlternativeMatches = []Alternative{}
	}
	return rec
}
