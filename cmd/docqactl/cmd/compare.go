package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/app"
	"github.com/kailas-cloud/docqa/internal/domain/mode"
	"github.com/kailas-cloud/docqa/internal/output"
	"github.com/kailas-cloud/docqa/internal/usecase/compare"
	"github.com/kailas-cloud/docqa/internal/usecase/training"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare baseline, hybrid and learned retrieval on a question set",
	Long: `Asks every question in every retrieval mode and prints, per mode, the
answer (or "Abstained") and the top document with its score. Optionally
exports the same table as CSV.

Examples:
  docqactl compare
  docqactl compare --modes hybrid,learned --top-k 10
  docqactl compare --csv reranker_comparison.csv`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("questions", "data/questions.yaml", "YAML list of questions")
	compareCmd.Flags().StringSlice("modes", nil, "modes to compare (default: all)")
	compareCmd.Flags().Int("top-k", 0, "contexts per query (default: retrieval.default_top_k)")
	compareCmd.Flags().String("csv", "", "also write the table to this CSV file")
	compareCmd.Flags().Int("width", 60, "wrap table cells at this width (0 disables)")
}

func runCompare(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("questions")
	modeNames, _ := cmd.Flags().GetStringSlice("modes")
	topK, _ := cmd.Flags().GetInt("top-k")
	csvPath, _ := cmd.Flags().GetString("csv")
	width, _ := cmd.Flags().GetInt("width")

	modes := make([]mode.Mode, 0, len(modeNames))
	for _, name := range modeNames {
		m, err := mode.Parse(name)
		if err != nil {
			return err
		}
		modes = append(modes, m)
	}

	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	items, err := training.ReadQueries(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	questions := make([]string, len(items))
	for i, it := range items {
		questions[i] = it.Query
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		svc := compare.New(a.Ask, modes, topK, logger)
		rows, err := svc.Run(cmd.Context(), questions)
		if err != nil {
			return err
		}

		header := compare.Header(svc.Modes())
		records := compare.Records(rows)

		table := output.NewTable(cmd.OutOrStdout(), header, width)
		table.AddRows(records)
		if err := table.Render(); err != nil {
			return err
		}

		if csvPath == "" {
			return nil
		}
		out, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", csvPath, err)
		}
		if err := output.WriteCSV(out, header, records); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("close %s: %w", csvPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nComparison table exported to %s\n", csvPath)
		return nil
	})
}
