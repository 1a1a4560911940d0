package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JNZader/codesentry/internal/cache"
	"github.com/JNZader/codesentry/internal/config"
	"github.com/JNZader/codesentry/internal/git"
	"github.com/JNZader/codesentry/internal/history"
	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
	"github.com/JNZader/codesentry/internal/logger"
	"github.com/JNZader/codesentry/internal/metrics"
	"github.com/JNZader/codesentry/internal/profiler"
	"github.com/JNZader/codesentry/internal/report"
	"github.com/JNZader/codesentry/internal/review"
	"github.com/JNZader/codesentry/internal/rules"
)

var reviewCmd = &cobra.Command{
	Use:   "review [paths...]",
	Short: "Review files or the changes of a branch",
	Long: `Review source files and print a report.

With no arguments, the files changed against the base ref (review.base_ref,
default "main") are reviewed, including untracked files. Paths may be files
or directories; directories are walked for files of a known language.

Examples:
  # Review changes against main
  codesentry review

  # Review changes against another ref
  codesentry review --base origin/develop

  # Review specific files
  codesentry review app.py lib/util.js

  # Output as JSON
  codesentry review --format json

  # Save report to file, failing the build on high severity issues
  codesentry review -o report.sarif --fail-on high`,
	RunE: runReview,
}

// reviewBinds maps config keys to review flags.
var reviewBinds = map[string]string{
	"review.base_ref":        "base",
	"review.max_concurrency": "concurrency",
	"output.format":          "format",
	"output.file":            "output",
	"output.pretty":          "pretty",
	"output.fail_on":         "fail-on",
	"rules.files":            "rules",
	"cache.dir":              "cache-dir",
	"history.enabled":        "save-history",
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	// Input flags
	reviewCmd.Flags().String("base", "", "Base ref for changed files (default review.base_ref)")

	// Output flags
	reviewCmd.Flags().StringP("format", "f", "markdown", "Output format (markdown, json, sarif)")
	reviewCmd.Flags().StringP("output", "o", "", "Write report to file")
	reviewCmd.Flags().Bool("pretty", false, "Render the markdown report for the terminal")
	reviewCmd.Flags().String("fail-on", "", "Exit with code 1 if an issue at or above this severity is found")
	reviewCmd.Flags().Bool("metrics", false, "Print metrics in Prometheus text format to stderr")

	// Behavior flags
	reviewCmd.Flags().StringSlice("rules", nil, "Custom rule files (YAML)")
	reviewCmd.Flags().Int("concurrency", 0, "Max concurrent file reviews (0=auto)")
	reviewCmd.Flags().Bool("no-cache", false, "Disable the result cache")
	reviewCmd.Flags().String("cache-dir", "", "Keep cached results in this directory between runs")
	reviewCmd.Flags().Bool("save-history", false, "Store this run in the history database")

	// Profiling flags
	reviewCmd.Flags().String("cpuprofile", "", "Write a CPU profile to file")
	reviewCmd.Flags().String("memprofile", "", "Write a heap profile to file")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, reviewBinds)
	if err != nil {
		return err
	}
	applyReviewFlags(cmd, cfg)

	var failOn issue.Severity
	if cfg.Output.FailOn != "" {
		if failOn, err = issue.ParseSeverity(cfg.Output.FailOn); err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
	}

	reporter, err := report.NewReporter(cfg.Output.Format)
	if err != nil {
		return err
	}
	if s, ok := reporter.(*report.SARIFReporter); ok {
		s.ToolVersion = Version
	}

	registry, err := loadRules(cfg)
	if err != nil {
		return err
	}

	collector := metrics.Global()
	opts := []review.Option{review.WithCollector(collector)}
	disk, err := openDiskCache(cfg)
	if err != nil {
		return err
	}
	if disk != nil {
		defer disk.Close()
		front := cache.NewLRU[*review.ReviewResult](cfg.Cache.MaxEntries, cfg.Cache.TTL)
		opts = append(opts, review.WithCache(cache.NewLayered[*review.ReviewResult](front, disk)))
	}
	engine := review.NewEngine(cfg, registry, opts...)

	prof, err := startProfiler(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	batch, baseRef, err := runBatch(ctx, cfg, engine, args)
	if perr := stopProfiler(prof); perr != nil && err == nil {
		err = perr
	}
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	output, err := reporter.Generate(batch.Results)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}
	if cfg.Output.Pretty && cfg.Output.File == "" && reporter.Format() == "markdown" {
		output = renderPretty(output)
	}
	if err := WriteOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), output, cfg.Output.File); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	for _, s := range batch.Skipped {
		fmt.Fprintf(stderr, "skipped %s: %v\n", s.Path, s.Err)
	}
	if !quiet {
		printSummary(stderr, batch, cfg.Output.Color)
	}

	if cfg.History.Enabled {
		if err := saveHistory(ctx, cmd, cfg, baseRef, batch); err != nil {
			return err
		}
	}

	if showMetrics, _ := cmd.Flags().GetBool("metrics"); showMetrics {
		fmt.Fprint(stderr, collector.ExportPrometheus())
	}

	if failOn != "" && worstOf(batch).AtLeast(failOn) {
		return ErrIssuesFound
	}
	return nil
}

func startProfiler(cmd *cobra.Command) (*profiler.Profiler, error) {
	cpu, _ := cmd.Flags().GetString("cpuprofile")
	mem, _ := cmd.Flags().GetString("memprofile")
	cfg := profiler.Config{CPUProfile: cpu, MemProfile: mem}
	if !cfg.Enabled() {
		return nil, nil
	}
	return profiler.Start(cfg)
}

func stopProfiler(p *profiler.Profiler) error {
	if p == nil {
		return nil
	}
	err := p.Stop()
	logger.Default().Debug("review took %s, %s", p.Duration(), profiler.Stats())
	return err
}

// applyReviewFlags handles flags that do not map onto a single config key.
func applyReviewFlags(cmd *cobra.Command, cfg *config.Config) {
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if !cmd.Flags().Changed("format") && cfg.Output.File != "" {
		if format := DetectFormatFromPath(cfg.Output.File); format != "" {
			cfg.Output.Format = format
		}
	}
}

// openDiskCache returns nil when the cache is off or kept in memory only.
func openDiskCache(cfg *config.Config) (*cache.Disk[*review.ReviewResult], error) {
	if !cfg.Cache.Enabled || cfg.Cache.Dir == "" {
		return nil, nil
	}
	disk, err := cache.OpenDisk[*review.ReviewResult](cache.DiskOptions{Dir: cfg.Cache.Dir, TTL: cfg.Cache.TTL})
	if err != nil {
		return nil, err
	}
	logger.Default().Debug("using result cache in %s", cfg.Cache.Dir)
	return disk, nil
}

func loadRules(cfg *config.Config) (*rules.Registry, error) {
	registry := rules.NewRegistry()
	n, err := rules.NewLoader(cfg.Rules.Files, cfg.Rules.Dirs, cfg.Rules.IncludeDefaults).LoadInto(registry)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	logger.Default().Debug("loaded %d custom rules", n)
	return registry, nil
}

// runBatch reviews args, or the changed files of the repository when args
// is empty. The returned base ref is empty for explicit paths.
func runBatch(ctx context.Context, cfg *config.Config, engine *review.Engine, args []string) (*review.Batch, string, error) {
	if len(args) == 0 {
		repo, err := git.NewRepo(ctx, cfg.Review.RepoPath)
		if err != nil {
			return nil, "", fmt.Errorf("initializing git: %w", err)
		}
		batch, err := engine.ReviewChangedFiles(ctx, repo, cfg.Review.BaseRef)
		return batch, cfg.Review.BaseRef, err
	}

	paths, err := expandPaths(args, cfg.Review.IgnorePatterns)
	if err != nil {
		return nil, "", err
	}
	batch, err := engine.ReviewBatch(ctx, paths)
	return batch, "", err
}

// expandPaths walks directory arguments for files of a known language,
// skipping hidden directories and ignored paths. File arguments are kept
// as given, including ones that do not exist, so the batch reports them.
func expandPaths(args, ignore []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				if p != arg && ignored(ignore, p+"/") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || ignored(ignore, p) || lang.Detect(p) == lang.Unknown {
				return nil
			}
			paths = append(paths, p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return paths, nil
}

func ignored(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if review.MatchIgnore(pattern, p) {
			return true
		}
	}
	return false
}

func renderPretty(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func allIssues(batch *review.Batch) []issue.Issue {
	var all []issue.Issue
	for _, res := range batch.Results {
		all = append(all, res.Issues...)
	}
	return all
}

func worstOf(batch *review.Batch) issue.Severity {
	return issue.Worst(allIssues(batch))
}

// printSummary writes a one-line summary colored by the worst severity.
func printSummary(w io.Writer, batch *review.Batch, useColor bool) {
	all := allIssues(batch)
	counts := issue.Counts(all)

	c := color.New(color.FgGreen)
	switch issue.Worst(all) {
	case issue.SeverityCritical, issue.SeverityHigh:
		c = color.New(color.FgRed, color.Bold)
	case issue.SeverityMedium:
		c = color.New(color.FgYellow)
	}
	if !useColor {
		c.DisableColor()
	}

	line := fmt.Sprintf("%d files reviewed, %d issues (%d critical, %d high)",
		len(batch.Results), len(all), counts[issue.SeverityCritical], counts[issue.SeverityHigh])
	if len(batch.Skipped) > 0 {
		line += fmt.Sprintf(", %d skipped", len(batch.Skipped))
	}
	c.Fprintln(w, line)
}

func saveHistory(ctx context.Context, cmd *cobra.Command, cfg *config.Config, baseRef string, batch *review.Batch) error {
	if dir := filepath.Dir(cfg.History.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating history directory: %w", err)
		}
	}

	store, err := history.NewStore(history.StoreConfig{Path: cfg.History.Path})
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	files := make([]history.File, 0, len(batch.Results))
	for _, res := range batch.Results {
		files = append(files, history.File{Path: res.FilePath, Language: string(res.Language), Issues: res.Issues})
	}

	run, err := store.SaveRun(ctx, baseRef, files)
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", run.ID)
	}
	return nil
}
