package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/output"
	docqa "github.com/kailas-cloud/docqa/pkg/sdk"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a running docqa server a question",
	Long: `Sends the question to POST /ask on a running server and prints the answer
(or the abstention reason) followed by the ranked contexts.

Examples:
  docqactl ask "What are the high-risk machinery categories?"
  docqactl ask --mode learned --top-k 3 "Which PL is required for a guard interlock?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the health report of a running docqa server",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(askCmd, healthCmd)

	for _, c := range []*cobra.Command{askCmd, healthCmd} {
		c.Flags().String("server", "", "server base URL (default: http://localhost:<http.port>)")
		c.Flags().Duration("timeout", 30*time.Second, "request timeout")
	}
	askCmd.Flags().String("mode", "", "baseline, hybrid or learned (default: server default)")
	askCmd.Flags().Int("top-k", 0, "contexts to return (default: server default)")
	askCmd.Flags().Int("width", 80, "wrap context cells at this width (0 disables)")
}

func newClient(cmd *cobra.Command) (*docqa.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if server == "" {
		server = "http://localhost:" + strconv.Itoa(cfg.HTTP.Port)
	}
	return docqa.New(server, docqa.WithTimeout(timeout), docqa.WithUserAgent("docqactl"))
}

func runAsk(cmd *cobra.Command, args []string) error {
	modeName, _ := cmd.Flags().GetString("mode")
	topK, _ := cmd.Flags().GetInt("top-k")
	width, _ := cmd.Flags().GetInt("width")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	ans, err := client.Ask(cmd.Context(), docqa.AskRequest{
		Query: strings.Join(args, " "),
		TopK:  topK,
		Mode:  docqa.Mode(strings.ToLower(strings.TrimSpace(modeName))),
	})
	if err != nil {
		return err
	}
	return printAnswer(cmd.OutOrStdout(), ans, width)
}

func printAnswer(w io.Writer, ans docqa.Answer, width int) error {
	if ans.Abstained() {
		fmt.Fprintf(w, "Abstained (%s)", ans.Reason)
		if ans.Details != "" {
			fmt.Fprintf(w, ": %s", ans.Details)
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "Answer [%s]: %s\n", ans.Mode, *ans.Text)
	}
	if len(ans.Contexts) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	table := output.NewTable(w, []string{"#", "Document", "Page", "Score", "Content"}, width)
	rows := make([][]string, len(ans.Contexts))
	for i, c := range ans.Contexts {
		doc := c.DocTitle
		if doc == "" {
			doc = c.DocName
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			doc,
			strconv.Itoa(c.PageNum),
			strconv.FormatFloat(c.Score, 'f', 3, 64),
			c.Content,
		}
	}
	table.AddRows(rows)
	return table.Render()
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	hs, err := client.Health(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %s\n", hs.Status)
	names := make([]string, 0, len(hs.Checks))
	for name := range hs.Checks {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-16s %s\n", name, hs.Checks[name])
	}
	if !hs.OK() {
		return fmt.Errorf("server is %s", hs.Status)
	}
	return nil
}
