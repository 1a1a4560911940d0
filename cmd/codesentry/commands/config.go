package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JNZader/codesentry/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage codesentry configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, merged from the config file,
CODESENTRY_* environment variables and defaults.

Examples:
  # Show config in YAML format
  codesentry config show

  # Show config as JSON
  codesentry config show --json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowJSON bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output as JSON")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, loader, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if configShowJSON {
		return outputConfigJSON(out, cfg)
	}

	if !quiet {
		if used := loader.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "# Config file: %s\n\n", used)
		} else {
			fmt.Fprintf(out, "# No config file found, using defaults\n\n")
		}
	}
	return outputConfigYAML(out, cfg)
}

func outputConfigJSON(w io.Writer, cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func outputConfigYAML(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return enc.Close()
}
