package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	getJSON  bool
	listJSON bool
)

var getCmd = &cobra.Command{
	Use:   "get [path]",
	Short: "Print the full content of a document",
	Long: `Fetches a document from the documentation server by its relative path,
for example "api/authentication.md". Paths escaping the document root are
rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "output the document as JSON")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output the listing as JSON")
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	st, err := newStack(appCfg)
	if err != nil {
		return err
	}
	doc, err := st.retriever().GetDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if getJSON {
		return printJSON(cmd, doc)
	}
	fmt.Fprint(cmd.OutOrStdout(), doc.Content)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	st, err := newStack(appCfg)
	if err != nil {
		return err
	}
	listing, err := st.retriever().ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if listJSON {
		return printJSON(cmd, listing)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d documents, %d chunks\n", listing.TotalDocuments, listing.TotalChunks)
	for _, p := range listing.FlatList {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
	}
	return nil
}
