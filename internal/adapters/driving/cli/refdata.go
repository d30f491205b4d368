package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labtriage/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/refdata"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Manage marker and critical threshold tables",
	Long: `Reference data is the marker vocabulary (markers.toml) and the critical
thresholds (thresholds.toml). The built-in tables are used unless
refdata.dir or refdata.database is configured.`,
}

var refdataValidateCmd = &cobra.Command{
	Use:         "validate [dir]",
	Short:       "Check reference files for errors",
	Long:        `Load markers.toml and thresholds.toml from dir (or the built-in tables) and report every problem found.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationNoServices: "true"},
	RunE:        runRefdataValidate,
}

var refdataImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import reference files into the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefdataImport,
}

var refdataExportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write the active reference tables as TOML files",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefdataExport,
}

var refdataStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active reference data version",
	RunE:  runRefdataStatus,
}

func init() {
	refdataImportCmd.Flags().String("db", "", "database path (default refdata.database or ~/.labtriage/data/refdata.db)")
	refdataStatusCmd.Flags().String("db", "", "also list the import history of this database")

	refdataCmd.AddCommand(refdataValidateCmd)
	refdataCmd.AddCommand(refdataImportCmd)
	refdataCmd.AddCommand(refdataExportCmd)
	refdataCmd.AddCommand(refdataStatusCmd)
	rootCmd.AddCommand(refdataCmd)
}

func loadRefdata(ctx context.Context, args []string) (*domain.ReferenceData, string, error) {
	if len(args) == 0 {
		data, err := refdata.EmbeddedSource{}.Load(ctx)
		return data, "built-in tables", err
	}
	src := refdata.NewDirSource(args[0])
	data, err := src.Load(ctx)
	return data, src.Name(), err
}

func runRefdataValidate(cmd *cobra.Command, args []string) error {
	data, name, err := loadRefdata(cmd.Context(), args)
	if err != nil {
		return err
	}

	snap, err := refdata.Build(data)
	if err != nil {
		cmd.Printf("%s: invalid\n", name)
		for _, e := range unjoin(err) {
			cmd.Printf("  - %v\n", e)
		}
		return fmt.Errorf("%s: %w", name, domain.ErrInvalidConfiguration)
	}

	cmd.Printf("%s: ok\n", name)
	cmd.Printf("  Version:    %s\n", snap.Version())
	cmd.Printf("  Markers:    %d (%d aliases)\n", snap.Vocabulary.Len(), snap.Vocabulary.AliasCount())
	cmd.Printf("  Thresholds: %d\n", snap.Critical.Len())
	return nil
}

func runRefdataImport(cmd *cobra.Command, args []string) error {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = appSettings().RefData.Database
	}
	if dbPath == "" {
		if dbPath, err = sqlite.DefaultPath(); err != nil {
			return err
		}
	}

	data, name, err := loadRefdata(cmd.Context(), args)
	if err != nil {
		return err
	}
	if err := refdata.Validate(data); err != nil {
		return err
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(cmd.Context(), data, name); err != nil {
		return err
	}
	cmd.Printf("Imported version %s (%d markers, %d thresholds) into %s\n",
		data.Version, len(data.Markers), len(data.Thresholds), dbPath)
	return nil
}

func runRefdataExport(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}
	if s.Refs == nil {
		return errors.New("reference data not configured")
	}

	snap := s.Refs.Current()
	dst := refdata.NewDirSource(args[0])
	if err := dst.Save(cmd.Context(), snap.Data); err != nil {
		return err
	}
	cmd.Printf("Exported version %s to %s\n", snap.Version(), args[0])
	return nil
}

func runRefdataStatus(cmd *cobra.Command, _ []string) error {
	ref, err := requireReference()
	if err != nil {
		return err
	}

	cmd.Println("Reference Data")
	cmd.Println("==============")
	cmd.Printf("  Version:    %s\n", ref.Version())
	if services.Refs != nil {
		cmd.Printf("  Source:     %s\n", services.Refs.Source().Name())
	}
	cmd.Printf("  Markers:    %d\n", len(ref.Markers()))
	cmd.Printf("  Thresholds: %d\n", len(ref.Thresholds()))

	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = appSettings().RefData.Database
	}
	if dbPath == "" {
		return nil
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.Imports(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Println()
	cmd.Printf("Imports (%s)\n", dbPath)
	for _, rec := range history {
		cmd.Printf("  %s  %-10s %3d markers %3d thresholds  %s\n",
			rec.ImportedAt.Format("2006-01-02 15:04"), rec.Version, rec.MarkerCount, rec.ThresholdCount, rec.Source)
	}
	return nil
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
