package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragdocs/internal/tui"
)

var tuiLimit int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse search results interactively",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiLimit, "limit", "n", 10, "results per query")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	st, err := newStack(appCfg)
	if err != nil {
		return err
	}
	r := st.retriever()

	summary := fmt.Sprintf("collection %q", appCfg.VectorStore.Collection)
	if listing, err := r.ListDocuments(cmd.Context()); err != nil {
		logger.Warn().Err(err).Msg("could not read index size")
	} else {
		summary = fmt.Sprintf("%d documents, %d chunks in %q", listing.TotalDocuments, listing.TotalChunks, appCfg.VectorStore.Collection)
	}

	p := tea.NewProgram(tui.New(r, tuiLimit, summary), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
