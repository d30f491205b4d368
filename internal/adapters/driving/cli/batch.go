package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/logger"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Triage many lab reports",
	Long: `Analyse several lab reports concurrently and list them from the most
to the least urgent. A report that fails to decode is listed with its error
and does not stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntP("workers", "w", runtime.NumCPU(), "maximum concurrent analyses")
	batchCmd.Flags().Bool("json", false, "print one JSON analysis per line")
	rootCmd.AddCommand(batchCmd)
}

// batchItem is one file of a batch.
type batchItem struct {
	Path     string           `json:"path"`
	Analysis *domain.Analysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	analysis, err := requireAnalysis()
	if err != nil {
		return err
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	items := make([]batchItem, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)

	for i, path := range args {
		items[i].Path = path
		g.Go(func() error {
			raw, err := readReport(nil, path, "")
			if err == nil {
				items[i].Analysis, err = analysis.Analyze(ctx, raw, nil)
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("batch: %s: %v", path, err)
				items[i].Error = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sortBatch(items)

	if asJSON {
		for i := range items {
			if err := writeJSONLine(cmd.OutOrStdout(), items[i]); err != nil {
				return err
			}
		}
		return nil
	}
	renderBatch(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), items)

	failed := 0
	for i := range items {
		if items[i].Error != "" {
			failed++
		}
	}
	if failed == len(items) {
		return fmt.Errorf("all %d reports failed", failed)
	}
	return nil
}

// sortBatch orders by priority score, highest first; failures go last.
func sortBatch(items []batchItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Analysis, items[j].Analysis
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		if a.Priority.TotalScore != b.Priority.TotalScore {
			return a.Priority.TotalScore > b.Priority.TotalScore
		}
		return a.Summary.CriticalCount > b.Summary.CriticalCount
	})
}

func writeJSONLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func renderBatch(w io.Writer, st *Styles, items []batchItem) {
	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf("%-8s %7s %4s %4s  %-14s %s", "PRIORITY", "SCORE", "CRIT", "ABN", "RUT", "FILE")))
	for i := range items {
		it := &items[i]
		if it.Analysis == nil {
			fmt.Fprintf(w, "%s %7s %4s %4s  %-14s %s %s\n",
				st.Alert.Render(fmt.Sprintf("%-8s", "ERROR")), "-", "-", "-", "-", it.Path, st.Muted.Render(it.Error))
			continue
		}
		a := it.Analysis
		rut := "-"
		if a.Identity != nil {
			rut = a.Identity.FormattedValue
		}
		fmt.Fprintf(w, "%s %7.1f %4d %4d  %-14s %s\n",
			st.Priority(a.Priority.Level, fmt.Sprintf("%-8s", a.Priority.Level)),
			a.Priority.TotalScore, a.Summary.CriticalCount, a.Summary.AbnormalCount, rut, it.Path)
	}
}
