package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyMinConfidence    = "pipeline.min_confidence"
	KeyReviewConfidence = "pipeline.review_confidence"
	KeyProcessors       = "pipeline.processors"
	KeyRefDataDir       = "refdata.dir"
	KeyRefDataDatabase  = "refdata.database"
	KeyRefDataWatch     = "refdata.watch"
	KeyLogVerbose       = "log.verbose"
	KeyServerAddr       = "server.addr"
	KeyServerRateLimit  = "server.rate_limit"
	KeyServerBurst      = "server.burst"
	KeyServerTimeout    = "server.read_timeout"
	KeyServerMaxUpload  = "server.max_upload_bytes"
	KeyMCPRateLimit     = "mcp.rate_limit"
	KeyMCPBurst         = "mcp.burst"

	processorPrefix = "postprocessors."
)

type keyKind int

const (
	kindString keyKind = iota
	kindFloat
	kindInt
	kindBool
	kindList
	kindDuration
)

var keyKinds = map[string]keyKind{
	KeyMinConfidence:    kindFloat,
	KeyReviewConfidence: kindFloat,
	KeyProcessors:       kindList,
	KeyRefDataDir:       kindString,
	KeyRefDataDatabase:  kindString,
	KeyRefDataWatch:     kindBool,
	KeyLogVerbose:       kindBool,
	KeyServerAddr:       kindString,
	KeyServerRateLimit:  kindFloat,
	KeyServerBurst:      kindInt,
	KeyServerTimeout:    kindDuration,
	KeyServerMaxUpload:  kindInt,
	KeyMCPRateLimit:     kindFloat,
	KeyMCPBurst:         kindInt,
}

// processorKeys are the per-processor options read from
// postprocessors.<name>.<key>.
var processorKeys = map[string]keyKind{
	"min_confidence": kindFloat,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns stored settings over defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Pipeline: domain.PipelineSettings{
			MinConfidence:    s.getFloat(KeyMinConfidence, d.Pipeline.MinConfidence),
			ReviewConfidence: s.getFloat(KeyReviewConfidence, d.Pipeline.ReviewConfidence),
			Processors:       d.Pipeline.Processors,
		},
		RefData: domain.RefDataSettings{
			Dir:      s.configStore.GetString(KeyRefDataDir),
			Database: s.configStore.GetString(KeyRefDataDatabase),
			Watch:    s.getBool(KeyRefDataWatch, d.RefData.Watch),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(KeyServerAddr, d.Server.Addr),
			RateLimit:      s.getFloat(KeyServerRateLimit, d.Server.RateLimit),
			Burst:          s.getInt(KeyServerBurst, d.Server.Burst),
			ReadTimeout:    s.getDuration(KeyServerTimeout, d.Server.ReadTimeout),
			MaxUploadBytes: int64(s.getInt(KeyServerMaxUpload, int(d.Server.MaxUploadBytes))),
		},
		MCP: domain.MCPSettings{
			RateLimit: s.getFloat(KeyMCPRateLimit, d.MCP.RateLimit),
			Burst:     s.getInt(KeyMCPBurst, d.MCP.Burst),
		},
		Log: domain.LogSettings{
			Verbose: s.getBool(KeyLogVerbose, d.Log.Verbose),
		},
	}

	if processors := s.configStore.GetStringSlice(KeyProcessors); len(processors) > 0 {
		settings.Pipeline.Processors = processors
	}
	for _, name := range settings.Pipeline.Processors {
		cfg := s.loadProcessorConfig(processorPrefix + name + ".")
		if len(cfg) == 0 {
			continue
		}
		if settings.Pipeline.ProcessorConfigs == nil {
			settings.Pipeline.ProcessorConfigs = make(map[string]map[string]any)
		}
		settings.Pipeline.ProcessorConfigs[name] = cfg
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := kindOf(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	var err error
	switch kind {
	case kindString:
		parsed = value
	case kindFloat:
		parsed, err = strconv.ParseFloat(value, 64)
	case kindInt:
		parsed, err = strconv.ParseInt(value, 10, 64)
	case kindBool:
		parsed, err = strconv.ParseBool(value)
	case kindDuration:
		_, err = time.ParseDuration(value)
		parsed = value
	case kindList:
		var list []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		parsed = list
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return s.configStore.Set(key, parsed)
}

// Keys lists the top-level setting keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the config file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func kindOf(key string) (keyKind, bool) {
	if k, ok := keyKinds[key]; ok {
		return k, true
	}
	if rest, ok := strings.CutPrefix(key, processorPrefix); ok {
		if i := strings.LastIndexByte(rest, '.'); i > 0 {
			k, ok := processorKeys[rest[i+1:]]
			return k, ok
		}
	}
	return 0, false
}

// loadProcessorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadProcessorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)
	for key := range processorKeys {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}
	return cfg
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if str := s.configStore.GetString(key); str != "" {
		if d, err := time.ParseDuration(str); err == nil {
			return d
		}
	}
	return defaultVal
}
