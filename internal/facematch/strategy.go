package facematch

import (
	"math"
	"sort"

	"github.com/17hemanthkumar/pm/internal/quality"
)

// Strategy names accepted by the factory.
const (
	StrategyDistance  = "distance"
	StrategyLandmarks = "landmarks"
	StrategyHybrid    = "hybrid"
)

// alternativeCutoffFactor widens the match threshold when collecting
// non-best candidates worth reporting.
const alternativeCutoffFactor = 1.2

// landmarkAdjustFactor relaxes the threshold for the landmark fallback.
const landmarkAdjustFactor = 1.1

// Strategy is a face matching policy. Implementations hold no mutable
// state and are safe for concurrent use.
type Strategy interface {
	// Match compares unknown against the gallery. known and ids are
	// parallel slices of equal length. qm is optional and is carried
	// into the result untouched.
	Match(unknown Encoding, known []Encoding, ids []string, tolerance float64, qm *quality.Metrics) MatchResult

	// Name returns the name the factory knows the strategy by.
	Name() string
}

type distanceStrategy struct {
	distance DistanceFunc
}

func newDistanceStrategy(fn DistanceFunc) *distanceStrategy {
	if fn == nil {
		fn = EuclideanDistance
	}
	return &distanceStrategy{distance: fn}
}

func (s *distanceStrategy) Name() string { return StrategyDistance }

func (s *distanceStrategy) Match(unknown Encoding, known []Encoding, ids []string, tolerance float64, qm *quality.Metrics) MatchResult {
	if len(known) == 0 {
		return emptyGalleryResult(s.Name(), tolerance, qm)
	}

	distances := pairwiseDistances(s.distance, unknown, known)
	best, bestIdx := closestCandidate(distances)

	result := MatchResult{
		Distance:         best,
		StrategyUsed:     s.Name(),
		Quality:          qm,
		ThresholdApplied: tolerance,
		Alternatives:     collectAlternatives(distances, ids, bestIdx, tolerance*alternativeCutoffFactor),
	}
	if best <= tolerance {
		result.PersonID = ids[bestIdx]
		result.Matched = true
		result.Confidence = linearConfidence(best, tolerance)
	}
	return result
}

// landmarkStrategy stands in for a geometric landmark comparison. Raw
// landmark points are not exposed by the encoder, so it compares vector
// distances against a relaxed threshold instead.
type landmarkStrategy struct {
	distance DistanceFunc
}

func newLandmarkStrategy(fn DistanceFunc) *landmarkStrategy {
	if fn == nil {
		fn = EuclideanDistance
	}
	return &landmarkStrategy{distance: fn}
}

func (s *landmarkStrategy) Name() string { return StrategyLandmarks }

func (s *landmarkStrategy) Match(unknown Encoding, known []Encoding, ids []string, tolerance float64, qm *quality.Metrics) MatchResult {
	if len(known) == 0 {
		return emptyGalleryResult(s.Name(), tolerance, qm)
	}

	adjusted := clamp01(tolerance * landmarkAdjustFactor)

	distances := pairwiseDistances(s.distance, unknown, known)
	best, bestIdx := closestCandidate(distances)

	result := MatchResult{
		Distance:         best,
		StrategyUsed:     s.Name(),
		Quality:          qm,
		ThresholdApplied: adjusted,
		Alternatives:     collectAlternatives(distances, ids, bestIdx, adjusted*alternativeCutoffFactor),
	}
	if best <= adjusted {
		result.PersonID = ids[bestIdx]
		result.Matched = true
		result.Confidence = linearConfidence(best, adjusted)
	}
	return result
}

// emptyGalleryResult is the immediate answer for a gallery with nothing
// in it, identical across strategies apart from the name.
func emptyGalleryResult(name string, tolerance float64, qm *quality.Metrics) MatchResult {
	return MatchResult{
		Distance:         math.Inf(1),
		StrategyUsed:     name,
		Quality:          qm,
		ThresholdApplied: tolerance,
		Alternatives:     []Alternative{},
	}
}

func pairwiseDistances(fn DistanceFunc, unknown Encoding, known []Encoding) []float64 {
	distances := make([]float64, len(known))
	for i, enc := range known {
		distances[i] = fn(unknown, enc)
	}
	return distances
}

// closestCandidate returns the minimum distance and its index, taking
// the first index on ties.
func closestCandidate(distances []float64) (float64, int) {
	bestIdx := 0
	for i, d := range distances {
		if d < distances[bestIdx] {
			bestIdx = i
		}
	}
	return distances[bestIdx], bestIdx
}

// collectAlternatives gathers every candidate other than the best one
// whose distance falls within cutoff, sorted by distance. The sort is
// stable so equal distances keep their gallery order.
func collectAlternatives(distances []float64, ids []string, bestIdx int, cutoff float64) []Alternative {
	alternatives := []Alternative{}
	for i, d := range distances {
		if i != bestIdx && d <= cutoff {
			alternatives = append(alternatives, Alternative{PersonID: ids[i], Distance: d})
		}
	}
	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].Distance < alternatives[j].Distance
	})
	return alternatives
}

// linearConfidence maps a distance onto [0,1]: 1 at distance zero,
// falling linearly to 0 at the threshold. A non-positive threshold
// admits only a perfect distance of zero.
func linearConfidence(distance, threshold float64) float64 {
	if threshold <= 0 {
		if distance <= 0 {
			return 1.0
		}
		return 0.0
	}
	return clamp01(1.0 - distance/threshold)
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
