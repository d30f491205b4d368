// Package cli implements the labtriage command line with cobra.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driving"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/refdata"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services holds everything the commands drive. It is built once per
// invocation, after flags are parsed.
type Services struct {
	Analysis  driving.AnalysisService
	Reference driving.ReferenceService
	Settings  driving.SettingsService

	// App is the effective configuration.
	App *domain.AppSettings

	// Refs is the live reference manager; long-running commands watch it.
	Refs *refdata.Manager

	// RefDir is the reference directory to watch, empty when reference
	// data comes from the embedded default or a database.
	RefDir string

	// Close releases resources such as database handles. Optional.
	Close func() error
}

// Bootstrap builds Services from the config directory ("" for default).
// The CLI closes them through Services.Close when the command returns.
type Bootstrap func(configDir string) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	configDir string
	verbose    bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "labtriage",
	Short: "Triage Chilean clinical lab reports",
	Long: `labtriage extracts results from Chilean laboratory reports (PDF or text),
checks them against reference ranges and critical thresholds, and ranks
each report by clinical priority.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory holding config.toml (default ~/.labtriage)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the service factory used before each command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
	services = nil
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	logger.SetOutput(cmd.ErrOrStderr())

	if !needsServices(cmd) || services != nil || bootstrap == nil {
		return nil
	}

	s, err := bootstrap(configDir)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	if s.App != nil && s.App.Log.Verbose {
		logger.SetVerbose(true)
	}
	services = s
	return nil
}

// needsServices reports whether cmd uses the injected services.
func needsServices(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationNoServices] == ""
}

// annotationNoServices marks commands that run without bootstrapping.
const annotationNoServices = "labtriage/no-services"

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("closing services: %v", err)
	}
}

func requireServices() (*Services, error) {
	if services == nil {
		return nil, errors.New("services not configured")
	}
	return services, nil
}

func requireAnalysis() (driving.AnalysisService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	if s.Analysis == nil {
		return nil, errors.New("analysis service not configured")
	}
	return s.Analysis, nil
}

func requireReference() (driving.ReferenceService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	if s.Reference == nil {
		return nil, errors.New("reference service not configured")
	}
	return s.Reference, nil
}

func requireSettings() (driving.SettingsService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	if s.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return s.Settings, nil
}

func appSettings() *domain.AppSettings {
	if services != nil && services.App != nil {
		return services.App
	}
	d := domain.DefaultAppSettings()
	return &d
}
