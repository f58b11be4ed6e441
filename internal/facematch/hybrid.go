package facematch

import (
	"math"

	"github.com/17hemanthkumar/pm/internal/quality"
)

// Disambiguation and blending parameters for the hybrid strategy.
const (
	// closeAlternativeFactor: an alternative trailing the winner by
	// less than this fraction of the tolerance makes the match
	// ambiguous.
	closeAlternativeFactor = 0.1
	// nearThresholdFactor: a winning distance beyond this fraction of
	// the tolerance is too close to the cutoff to trust outright.
	nearThresholdFactor = 0.8

	agreementBoost      = 1.2
	disagreementPenalty = 0.8
)

// hybridStrategy runs the distance strategy first and consults the
// landmark fallback only when the distance result is ambiguous.
type hybridStrategy struct {
	distance Strategy
	landmark Strategy
}

func newHybridStrategy(fn DistanceFunc) *hybridStrategy {
	return &hybridStrategy{
		distance: newDistanceStrategy(fn),
		landmark: newLandmarkStrategy(fn),
	}
}

func (s *hybridStrategy) Name() string { return StrategyHybrid }

func (s *hybridStrategy) Match(unknown Encoding, known []Encoding, ids []string, tolerance float64, qm *quality.Metrics) MatchResult {
	if len(known) == 0 {
		return emptyGalleryResult(s.Name(), tolerance, qm)
	}

	primary := s.distance.Match(unknown, known, ids, tolerance, qm)
	if !needsDisambiguation(primary, tolerance) {
		primary.StrategyUsed = s.Name()
		return primary
	}

	secondary := s.landmark.Match(unknown, known, ids, tolerance, qm)
	return s.combine(primary, secondary, tolerance, qm)
}

// needsDisambiguation reports whether the distance result alone is too
// ambiguous to trust: a rival candidate sits close behind the winner,
// or the winning distance is near the threshold itself. An unmatched
// result is never disambiguated.
func needsDisambiguation(r MatchResult, tolerance float64) bool {
	if !r.Matched {
		return false
	}
	for _, alt := range r.Alternatives {
		if alt.Distance-r.Distance < tolerance*closeAlternativeFactor {
			return true
		}
	}
	return r.Distance > tolerance*nearThresholdFactor
}

// combine blends the two results. The distance result's weight grows
// with measured face quality, from 0.5 at confidence 0 up to 0.9 at
// confidence 1; without metrics it gets a slight 0.6 edge.
func (s *hybridStrategy) combine(primary, secondary MatchResult, tolerance float64, qm *quality.Metrics) MatchResult {
	distanceWeight := 0.6
	if qm != nil {
		distanceWeight = 0.5 + 0.4*qm.Confidence
	}
	landmarkWeight := 1.0 - distanceWeight

	if primary.PersonID == secondary.PersonID {
		blended := distanceWeight*primary.Confidence + landmarkWeight*secondary.Confidence
		return MatchResult{
			PersonID:         primary.PersonID,
			Matched:          true,
			Distance:         math.Min(primary.Distance, secondary.Distance),
			Confidence:       clamp01(blended * agreementBoost),
			StrategyUsed:     s.Name(),
			Quality:          qm,
			ThresholdApplied: tolerance,
			Alternatives:     primary.Alternatives,
		}
	}

	chosen := primary
	if landmarkWeight*secondary.Confidence > distanceWeight*primary.Confidence {
		chosen = secondary
	}
	return MatchResult{
		PersonID:         chosen.PersonID,
		Matched:          chosen.Matched,
		Distance:         chosen.Distance,
		Confidence:       clamp01(chosen.Confidence * disagreementPenalty),
		StrategyUsed:     s.Name(),
		Quality:          qm,
		ThresholdApplied: tolerance,
		Alternatives:     chosen.Alternatives,
	}
}
