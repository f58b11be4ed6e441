package facematch

import (
	"image"
	"log/slog"
	"time"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/metrics"
	"github.com/17hemanthkumar/pm/internal/quality"
)

// Engine runs the full decision pipeline shared by the API and the
// CLI: quality assessment, adaptive tolerance, strategy selection and
// the match itself, with metrics and logging on the way out.
type Engine struct {
	cfg      *config.Config
	assessor *quality.Assessor
	factory  *Factory
	rec      *metrics.Recorder
	log      *slog.Logger
}

// NewEngine wires the pipeline together. fn may be nil to use
// EuclideanDistance, rec may be nil to skip metrics and log may be nil
// to use the default logger.
func NewEngine(cfg *config.Config, fn DistanceFunc, rec *metrics.Recorder, log *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Load()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		assessor: quality.NewAssessor(cfg),
		factory:  NewFactory(fn),
		rec:      rec,
		log:      log,
	}
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() *config.Config { return e.cfg }

// Assess measures the quality of a face region within img.
func (e *Engine) Assess(img image.Image, box quality.Box) quality.Metrics {
	m := e.assessor.Assess(img, box)
	e.rec.ObserveQuality(m.Confidence)
	return m
}

// Match decides whether unknown belongs to anyone in the gallery,
// using the recognition tolerance. qm may be nil when no image was
// available for assessment.
func (e *Engine) Match(unknown Encoding, known []Encoding, ids []string, qm *quality.Metrics) (MatchResult, error) {
	return e.match(unknown, known, ids, e.cfg.RecognitionTolerance, qm)
}

// MatchForLearning matches with the stricter learning tolerance, used
// to decide whether a new encoding duplicates an enrolled person.
func (e *Engine) MatchForLearning(unknown Encoding, known []Encoding, ids []string, qm *quality.Metrics) (MatchResult, error) {
	return e.match(unknown, known, ids, e.cfg.LearningTolerance, qm)
}

func (e *Engine) match(unknown Encoding, known []Encoding, ids []string, base float64, qm *quality.Metrics) (MatchResult, error) {
	tolerance := e.effectiveTolerance(base, qm)

	strategy, err := e.factory.SelectByQuality(qm, e.cfg)
	if err != nil {
		return MatchResult{}, err
	}

	start := time.Now()
	result := strategy.Match(unknown, known, ids, tolerance, qm)
	elapsed := time.Since(start)

	e.rec.ObserveMatch(result.StrategyUsed, result.Matched, elapsed)

	if e.cfg.LogMatchDetails {
		attrs := []any{
			slog.String("strategy", result.StrategyUsed),
			slog.Bool("matched", result.Matched),
			slog.Float64("distance", result.Distance),
			slog.Float64("confidence", result.Confidence),
			slog.Float64("threshold", result.ThresholdApplied),
			slog.Int("gallery_size", len(known)),
			slog.Int("alternatives", len(result.Alternatives)),
			slog.Duration("elapsed", elapsed),
		}
		if result.Matched {
			attrs = append(attrs, slog.String("person_id", result.PersonID))
		}
		e.log.Info("match decision", attrs...)
	}

	return result, nil
}

// effectiveTolerance tightens the base tolerance for poor-quality
// faces when adaptive tolerance is enabled. High-confidence faces and
// faces without metrics keep the base value.
func (e *Engine) effectiveTolerance(base float64, qm *quality.Metrics) float64 {
	if qm == nil || !e.cfg.AdaptiveToleranceEnabled {
		return base
	}
	if !e.assessor.ShouldUseAdaptiveThreshold(*qm) {
		return base
	}
	return e.assessor.AdaptiveTolerance(base, *qm)
}
