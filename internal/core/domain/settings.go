package domain

import (
	"fmt"
	"time"
)

// Default pipeline tuning.
const (
	DefaultMinConfidence    = 40.0
	DefaultReviewConfidence = 70.0
)

// PipelineSettings tunes extraction and post-processing.
type PipelineSettings struct {
	// MinConfidence is the noise filter floor; candidates below it are dropped.
	MinConfidence float64

	// ReviewConfidence flags accepted results below it for manual review.
	ReviewConfidence float64

	// Processors is the ordered list of post-processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (p *PipelineSettings) GetProcessorConfig(name string) map[string]any {
	if p.ProcessorConfigs == nil {
		return nil
	}
	return p.ProcessorConfigs[name]
}

// RefDataSettings selects where reference tables come from.
type RefDataSettings struct {
	// Dir overrides the built-in TOML files when set.
	Dir string

	// Database loads reference data from a SQLite file when set.
	// It takes precedence over Dir.
	Database string

	// Watch reloads Dir on change.
	Watch bool
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string

	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit float64
	Burst     int

	// ReadTimeout bounds reading one request, upload included.
	ReadTimeout time.Duration

	// MaxUploadBytes bounds one uploaded document.
	MaxUploadBytes int64
}

// MCPSettings configures the MCP server.
type MCPSettings struct {
	// RateLimit is tool calls per second; 0 disables it.
	RateLimit float64
	Burst     int
}

// LogSettings configures logging.
type LogSettings struct {
	Verbose bool
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Pipeline PipelineSettings
	RefData  RefDataSettings
	Server   ServerSettings
	MCP      MCPSettings
	Log      LogSettings
}

// DefaultAppSettings returns the configuration used when nothing is set.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Pipeline: PipelineSettings{
			MinConfidence:    DefaultMinConfidence,
			ReviewConfidence: DefaultReviewConfidence,
			Processors:       []string{"noise_filter", "dedup"},
		},
		Server: ServerSettings{
			Addr:           "127.0.0.1:8080",
			RateLimit:      20,
			Burst:          40,
			ReadTimeout:    30 * time.Second,
			MaxUploadBytes: 20 << 20,
		},
		MCP: MCPSettings{
			RateLimit: 5,
			Burst:     10,
		},
	}
}

// Validate checks ranges that would make the pipeline misbehave.
func (s *AppSettings) Validate() error {
	if s.Pipeline.MinConfidence < 0 || s.Pipeline.MinConfidence > 100 {
		return fmt.Errorf("%w: pipeline.min_confidence %g outside 0-100", ErrInvalidConfiguration, s.Pipeline.MinConfidence)
	}
	if s.Pipeline.ReviewConfidence < 0 || s.Pipeline.ReviewConfidence > 100 {
		return fmt.Errorf("%w: pipeline.review_confidence %g outside 0-100", ErrInvalidConfiguration, s.Pipeline.ReviewConfidence)
	}
	if s.Server.RateLimit < 0 || s.MCP.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate limit", ErrInvalidConfiguration)
	}
	if s.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: server.max_upload_bytes must be positive", ErrInvalidConfiguration)
	}
	return nil
}
