package mcp

import (
	"github.com/custodia-labs/labtriage/internal/core/ports/driving"
	"github.com/custodia-labs/labtriage/internal/ratelimit"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analysis runs the lab report pipeline.
	Analysis driving.AnalysisService

	// Reference answers marker lookups. Optional; lookup_marker is only
	// registered when set.
	Reference driving.ReferenceService

	// Limiter throttles tool calls. Optional.
	Limiter *ratelimit.Limiter
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Analysis == nil {
		return ErrMissingAnalysisService
	}
	return nil
}
