package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change pipeline, reference data, server and MCP settings.

Settings are stored in config.toml under ~/.labtriage, or under the
directory given with --config.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Run 'labtriage settings keys' for the list of keys.

Examples:
  labtriage settings set pipeline.review_confidence 75
  labtriage settings set refdata.dir /etc/labtriage/refdata
  labtriage settings set pipeline.processors noise_filter,dedup
  labtriage settings set postprocessors.noise_filter.min_confidence 50`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("  File: %s\n", svc.Path())
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Min confidence:    %g\n", settings.Pipeline.MinConfidence)
	cmd.Printf("  Review confidence: %g\n", settings.Pipeline.ReviewConfidence)
	cmd.Printf("  Processors:        %s\n", strings.Join(settings.Pipeline.Processors, ", "))
	for _, name := range sortedKeys(settings.Pipeline.ProcessorConfigs) {
		cmd.Printf("  [%s] %s\n", name, formatConfig(settings.Pipeline.ProcessorConfigs[name]))
	}
	cmd.Println()

	cmd.Println("[Reference Data]")
	cmd.Printf("  Directory: %s\n", orNone(settings.RefData.Dir))
	cmd.Printf("  Database:  %s\n", orNone(settings.RefData.Database))
	cmd.Printf("  Watch:     %s\n", yesNo(settings.RefData.Watch))
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address:      %s\n", settings.Server.Addr)
	cmd.Printf("  Rate limit:   %s\n", formatRate(settings.Server.RateLimit, settings.Server.Burst))
	cmd.Printf("  Read timeout: %s\n", settings.Server.ReadTimeout)
	cmd.Printf("  Max upload:   %d bytes\n", settings.Server.MaxUploadBytes)
	cmd.Println()

	cmd.Println("[MCP]")
	cmd.Printf("  Rate limit: %s\n", formatRate(settings.MCP.RateLimit, settings.MCP.Burst))
	cmd.Println()

	cmd.Println("[Log]")
	cmd.Printf("  Verbose: %s\n", yesNo(settings.Log.Verbose))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	if err := svc.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	for _, k := range svc.Keys() {
		cmd.Println(k)
	}
	return nil
}

// Helper functions.

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatRate(perSecond float64, burst int) string {
	if perSecond <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%g/s (burst %d)", perSecond, burst)
}

func formatConfig(cfg map[string]any) string {
	parts := make([]string, 0, len(cfg))
	for _, k := range sortedKeys(cfg) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, cfg[k]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
