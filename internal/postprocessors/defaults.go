package postprocessors

import (
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/postprocessors/dedup"
	"github.com/custodia-labs/labtriage/internal/postprocessors/noisefilter"
)

// DefaultProcessors is the processor order used when config names none.
var DefaultProcessors = []string{noisefilter.Name, dedup.Name}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(noisefilter.Name, buildNoiseFilter)
	r.Register(dedup.Name, buildDedup)
}

// NewDefaultPipeline returns the noise filter followed by dedup, with the
// given confidence floor.
func NewDefaultPipeline(minConfidence float64) *Pipeline {
	return NewPipeline(
		noisefilter.New(noisefilter.WithMinConfidence(minConfidence)),
		dedup.New(),
	)
}

// buildNoiseFilter creates a noise filter from generic config.
// Supported config keys:
//   - min_confidence (number): confidence floor (default: 40)
func buildNoiseFilter(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []noisefilter.Option
	if v, ok := getFloatFromConfig(cfg, "min_confidence"); ok {
		opts = append(opts, noisefilter.WithMinConfidence(v))
	}
	return noisefilter.New(opts...), nil
}

func buildDedup(_ map[string]any) (driven.PostProcessor, error) {
	return dedup.New(), nil
}

// getFloatFromConfig extracts a number from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getFloatFromConfig(cfg map[string]any, key string) (float64, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
