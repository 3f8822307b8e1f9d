package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ragdocs/internal/service"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector collection from the documentation server",
	Long: `Drops and recreates the configured collection, crawls the listing tree,
then chunks, embeds and upserts every recognised document. Documents that
cannot be fetched are skipped; any other failure aborts the run and leaves
the collection partially populated.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the run report as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	st, err := newStack(appCfg)
	if err != nil {
		return err
	}
	ix, err := st.indexer()
	if err != nil {
		return err
	}
	report, err := ix.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	if indexJSON {
		return printJSON(cmd, report)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, r *service.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Indexed %d of %d documents (%d skipped)\n", r.Indexed, r.Discovered, r.Skipped)
	fmt.Fprintf(w, "  Chunks: %d\n", r.Chunks)
	fmt.Fprintf(w, "  Points in collection: %d\n", r.PointCount)
	fmt.Fprintf(w, "  Elapsed: %s\n", r.Elapsed.Round(time.Millisecond))
}
