package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/app"
	"github.com/kailas-cloud/docqa/internal/usecase/training"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the relevance model from keyword-labelled queries",
	Long: `For every training query, retrieves hybrid candidates, labels a candidate
relevant when its content mentions any of the query's keywords, fits the
logistic-regression relevance model and saves it to reranker.model_path.
A running server picks the model up on restart.

Examples:
  docqactl train --queries data/training_queries.yaml`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("queries", "data/training_queries.yaml", "YAML list of {query, keywords, doc_title}")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("queries")

	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	queries, err := training.ReadQueries(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		report, err := a.Training.Train(cmd.Context(), queries)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"Trained relevance model on %d samples from %d queries (%d relevant), saved to %s\n",
			report.Samples, report.Queries, report.Positives, cfg.Reranker.ModelPath)
		return nil
	})
}
