package facematch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/quality"
)

// ErrUnknownStrategy is returned for a strategy name outside the
// registered set.
var ErrUnknownStrategy = errors.New("unknown matching strategy")

// highQualityCutoff is the quality confidence at or above which the
// plain distance strategy is trusted without the hybrid machinery.
const highQualityCutoff = 0.8

// Factory builds matching strategies around one shared distance
// function, resolved once at construction.
type Factory struct {
	distance DistanceFunc
}

// NewFactory creates a factory. A nil fn selects EuclideanDistance.
func NewFactory(fn DistanceFunc) *Factory {
	if fn == nil {
		fn = EuclideanDistance
	}
	return &Factory{distance: fn}
}

// New creates a strategy by name. Names are matched case-insensitively.
func (f *Factory) New(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case StrategyDistance:
		return newDistanceStrategy(f.distance), nil
	case StrategyLandmarks:
		return newLandmarkStrategy(f.distance), nil
	case StrategyHybrid:
		return newHybridStrategy(f.distance), nil
	default:
		return nil, fmt.Errorf("%w %q: valid strategies are %q, %q and %q",
			ErrUnknownStrategy, name, StrategyDistance, StrategyLandmarks, StrategyHybrid)
	}
}

// SelectByQuality picks a strategy for a face of measured quality.
// With fallback disabled the configured primary strategy is always
// used. Otherwise high-quality faces (or faces with no metrics at all)
// match on distance alone and everything else goes through hybrid.
func (f *Factory) SelectByQuality(m *quality.Metrics, cfg *config.Config) (Strategy, error) {
	if cfg != nil && !cfg.EnableFallback {
		return f.New(cfg.PrimaryStrategy)
	}
	if m == nil || m.Confidence >= highQualityCutoff {
		return newDistanceStrategy(f.distance), nil
	}
	return newHybridStrategy(f.distance), nil
}

// SelectByConfig returns the configured primary strategy, or the
// distance strategy when no config is supplied.
func (f *Factory) SelectByConfig(cfg *config.Config) (Strategy, error) {
	if cfg == nil {
		return newDistanceStrategy(f.distance), nil
	}
	return f.New(cfg.PrimaryStrategy)
}
