package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JNZader/codesentry/internal/history"
	"github.com/JNZader/codesentry/internal/issue"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored review runs",
	Long: `History reads the runs saved by "review --save-history" (or with
history.enabled set) from the SQLite database at history.path.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent review runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the issues of a run",
	Long: `Show the issues stored for a run.

Examples:
  # Show every issue of a run
  codesentry history show 3f1c...

  # Only high and critical issues
  codesentry history show 3f1c... --severity high`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search stored issues across runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistorySearch,
}

var (
	historyListLimit   int
	historySearchLimit int
	historySeverity    string
	historyFile        string
	historyRule        string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySearchCmd)

	historyListCmd.Flags().IntVarP(&historyListLimit, "limit", "n", 20, "maximum runs to list")
	historyShowCmd.Flags().StringVarP(&historySeverity, "severity", "s", "", "minimum severity to show")
	historySearchCmd.Flags().StringVar(&historyFile, "file", "", "file path filter (* is a wildcard)")
	historySearchCmd.Flags().StringVar(&historyRule, "rule", "", "rule id filter")
	historySearchCmd.Flags().IntVarP(&historySearchLimit, "limit", "n", 100, "maximum results")
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, _, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	store, err := history.NewStore(history.StoreConfig{Path: cfg.History.Path})
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), historyListLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tBASE\tFILES\tISSUES\tCRITICAL\tHIGH")
	for _, r := range runs {
		base := r.BaseRef
		if base == "" {
			base = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), base, r.Files, r.Issues, r.Critical, r.High)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	var minSeverity issue.Severity
	if historySeverity != "" {
		s, err := issue.ParseSeverity(historySeverity)
		if err != nil {
			return err
		}
		minSeverity = s
	}

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.RunIssues(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	shown := 0
	for _, rec := range records {
		if minSeverity != "" && !rec.Severity.AtLeast(minSeverity) {
			continue
		}
		printRecord(cmd, rec)
		shown++
	}
	fmt.Fprintf(out, "%d issues\n", shown)
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	q := history.SearchQuery{File: historyFile, RuleID: historyRule, Limit: historySearchLimit}
	if len(args) == 1 {
		q.Text = args[0]
	}

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	for _, rec := range records {
		printRecord(cmd, rec)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d issues\n", len(records))
	return nil
}

func printRecord(cmd *cobra.Command, rec history.Record) {
	fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s:%d:%d %s %s\n",
		rec.Severity.Label(), rec.FilePath, rec.Line, rec.Column, rec.RuleID, rec.Message)
}
