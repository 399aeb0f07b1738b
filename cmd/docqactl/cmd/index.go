package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/app"
	"github.com/kailas-cloud/docqa/internal/usecase/indexing"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the chunk store and the vector index from passages",
	Long: `Reads pre-chunked passages (JSON Lines, one passage per line), replaces
the SQLite chunk table and its full-text index, embeds every passage and
rebuilds the vector index.

Examples:
  docqactl index --passages data/passages.jsonl`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().String("passages", "data/passages.jsonl", "JSON Lines file of passages")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("passages")

	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	passages, err := indexing.ReadPassages(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		report, err := a.Indexing.Rebuild(cmd.Context(), passages)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d passages in %d batches (%d tokens) in %s\n",
			report.Passages, report.Batches, report.Tokens, report.Duration.Round(time.Millisecond))
		return nil
	})
}
