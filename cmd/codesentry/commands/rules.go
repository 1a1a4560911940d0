package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JNZader/codesentry/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect custom rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the custom rules a review would use",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check rule files for errors",
	Long: `Validate parses each YAML rule file and compiles every rule in it.

Examples:
  codesentry rules validate .codesentry/rules/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRulesValidate,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesValidateCmd)

	rulesListCmd.Flags().StringSlice("rules", nil, "Additional rule files (YAML)")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, map[string]string{"rules.files": "rules"})
	if err != nil {
		return err
	}
	registry, err := loadRules(cfg)
	if err != nil {
		return err
	}

	list := registry.Snapshot().Rules()
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No custom rules loaded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tCATEGORY\tLANGUAGES\tMESSAGE")
	for _, r := range list {
		langs := "all"
		if len(r.Languages) > 0 {
			names := make([]string, len(r.Languages))
			for i, l := range r.Languages {
				names[i] = string(l)
			}
			langs = strings.Join(names, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Category, langs, r.Message)
	}
	return tw.Flush()
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		n, err := validateRuleFile(path)
		if err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d rules)\n", path, n)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rule files are invalid", failed, len(args))
	}
	return nil
}

func validateRuleFile(path string) (int, error) {
	defs, err := rules.LoadFile(path)
	if err != nil {
		return 0, err
	}
	registry := rules.NewRegistry()
	for _, d := range defs {
		if err := registry.AddDefinition(d); err != nil {
			return 0, err
		}
	}
	return len(defs), nil
}
