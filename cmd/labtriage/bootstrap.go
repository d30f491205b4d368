package main

import (
	"context"
	"fmt"

	"github.com/custodia-labs/labtriage/internal/adapters/driven/config/file"
	"github.com/custodia-labs/labtriage/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/labtriage/internal/adapters/driving/cli"
	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/core/services"
	"github.com/custodia-labs/labtriage/internal/decoders"
	"github.com/custodia-labs/labtriage/internal/decoders/pdf"
	"github.com/custodia-labs/labtriage/internal/decoders/plaintext"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
	"github.com/custodia-labs/labtriage/internal/postprocessors"
	"github.com/custodia-labs/labtriage/internal/postprocessors/noisefilter"
	"github.com/custodia-labs/labtriage/internal/refdata"
)

// bootstrap wires the driven adapters into the core services.
func bootstrap(configDir string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	app, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if app.Log.Verbose {
		logger.SetVerbose(true)
	}

	source, store, err := referenceSource(app.RefData)
	if err != nil {
		return nil, err
	}
	closeStore := func() error {
		if store == nil {
			return nil
		}
		return store.Close()
	}

	refs, err := refdata.NewManager(context.Background(), source)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("loading reference data from %s: %w", source.Name(), err)
	}
	logger.Debug("reference data %s from %s", refs.Current().Version(), source.Name())

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(app.Pipeline.Processors, processorConfigs(app.Pipeline))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("building post-processors: %w", err)
	}

	analysis := services.NewAnalysisService(
		decoders.NewRegistry(pdf.New(), plaintext.New()),
		labtext.New(),
		refs,
		pipeline,
		services.WithReviewConfidence(app.Pipeline.ReviewConfidence),
	)

	refDir := ""
	if app.RefData.Database == "" {
		refDir = app.RefData.Dir
	}

	return &cli.Services{
		Analysis:  analysis,
		Reference: services.NewReferenceService(refs),
		Settings:  settingsService,
		App:       app,
		Refs:      refs,
		RefDir:    refDir,
		Close:     closeStore,
	}, nil
}

// processorConfigs applies pipeline.min_confidence to the noise filter
// unless its own table overrides it.
func processorConfigs(p domain.PipelineSettings) map[string]map[string]any {
	configs := make(map[string]map[string]any, len(p.ProcessorConfigs)+1)
	for name, cfg := range p.ProcessorConfigs {
		configs[name] = cfg
	}
	nf := map[string]any{"min_confidence": p.MinConfidence}
	for k, v := range p.GetProcessorConfig(noisefilter.Name) {
		nf[k] = v
	}
	configs[noisefilter.Name] = nf
	return configs
}

// referenceSource picks the database, then the directory, then the
// built-in tables. An empty database falls back to the next choice.
func referenceSource(cfg domain.RefDataSettings) (driven.ReferenceSource, *sqlite.Store, error) {
	var files driven.ReferenceSource = refdata.EmbeddedSource{}
	if cfg.Dir != "" {
		files = refdata.NewDirSource(cfg.Dir)
	}
	if cfg.Database == "" {
		return files, nil, nil
	}

	store, err := sqlite.NewStore(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening reference database: %w", err)
	}
	return refdata.FallbackSource{Primary: store, Fallback: files}, store, nil
}
