// Package review runs the analysis pipeline over files: language
// detection, the per-tier analyzer, the security scanner and custom rules,
// merged into one sorted ReviewResult per file.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JNZader/codesentry/internal/analyzer"
	"github.com/JNZader/codesentry/internal/cache"
	"github.com/JNZader/codesentry/internal/config"
	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
	"github.com/JNZader/codesentry/internal/logger"
	"github.com/JNZader/codesentry/internal/metrics"
	"github.com/JNZader/codesentry/internal/rules"
	"github.com/JNZader/codesentry/internal/security"
)

var (
	// ErrFileNotFound is returned for a path that does not exist. It also
	// matches os.ErrNotExist.
	ErrFileNotFound = fmt.Errorf("file not found: %w", os.ErrNotExist)
	// ErrFileTooLarge is returned for files above review.max_file_size.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNotRegularFile is returned for directories and devices.
	ErrNotRegularFile = errors.New("not a regular file")
)

// resultSchema changes whenever cached results would no longer match what
// the analyzers produce.
const resultSchema = "r1"

// Engine reviews files. It holds no per-file state; the only shared
// mutable piece is the rule registry, read through a snapshot per call.
type Engine struct {
	cfg        config.ReviewConfig
	registry   *rules.Registry
	classifier *lang.Classifier
	analyzers  *analyzer.Set
	scanner    *security.Scanner
	cache      cache.Cache[*ReviewResult]
	cacheSalt  string
	collector  *metrics.Collector
	log        *logger.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache caches results by path, content, rule set and analyzer
// thresholds. The cache may be shared between runs.
func WithCache(c cache.Cache[*ReviewResult]) Option {
	return func(e *Engine) { e.cache = c }
}

// WithCollector records review metrics into c instead of metrics.Global().
func WithCollector(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithLogger replaces the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClassifier replaces the extension table used for language detection.
func WithClassifier(c *lang.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithClock sets the source of ReviewedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. A nil cfg means config.DefaultConfig() and
// a nil registry starts empty. When cfg enables the cache and no WithCache
// option is given, an in-memory LRU is used.
func NewEngine(cfg *config.Config, registry *rules.Registry, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if registry == nil {
		registry = rules.NewRegistry()
	}

	e := &Engine{
		cfg:        cfg.Review,
		registry:   registry,
		classifier: lang.NewClassifier(),
		analyzers: analyzer.NewSet(analyzer.Options{
			ComplexityThreshold: cfg.Review.ComplexityThreshold,
			MaxNesting:          cfg.Review.MaxNesting,
			MaxLineLength:       cfg.Review.MaxLineLength,
		}),
		scanner:   security.NewScanner(),
		cacheSalt: fmt.Sprintf("%s/%d/%d/%d", resultSchema,
			cfg.Review.ComplexityThreshold, cfg.Review.MaxNesting, cfg.Review.MaxLineLength),
		collector: metrics.Global(),
		log:       logger.Default().WithPrefix("REVIEW"),
		now:       time.Now,
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[*ReviewResult](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.MaxFileSize <= 0 {
		e.cfg.MaxFileSize = config.DefaultMaxFileSize
	}
	return e
}

// Registry returns the engine's custom rule registry.
func (e *Engine) Registry() *rules.Registry {
	return e.registry
}

// RegisterRule adds or replaces a custom rule. Call it before starting a
// batch; a running batch keeps the rules it started with.
func (e *Engine) RegisterRule(id, pattern string, severity issue.Severity, category issue.Category, message, suggestion string) error {
	return e.registry.Register(id, pattern, severity, category, message, suggestion)
}

// ReviewFile reads path and reviews its content.
func (e *Engine) ReviewFile(ctx context.Context, path string) (*ReviewResult, error) {
	return e.reviewFile(ctx, path, e.registry.Snapshot())
}

// ReviewSource reviews content as if it had been read from path. The path
// only drives language detection and issue attribution.
func (e *Engine) ReviewSource(ctx context.Context, path string, content []byte) *ReviewResult {
	return e.review(ctx, path, content, e.registry.Snapshot())
}

func (e *Engine) reviewFile(ctx context.Context, path string, snap *rules.Snapshot) (*ReviewResult, error) {
	content, err := e.readFile(path)
	if err != nil {
		return nil, err
	}
	return e.review(ctx, path, content, snap), nil
}

// readFile reads at most MaxFileSize+1 bytes so an oversized file is
// rejected without being loaded whole.
func (e *Engine) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if info.Size() > e.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %s (%d bytes, max %d)", ErrFileTooLarge, path, info.Size(), e.cfg.MaxFileSize)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, e.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(content)) > e.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %s (max %d bytes)", ErrFileTooLarge, path, e.cfg.MaxFileSize)
	}
	return content, nil
}

func (e *Engine) review(ctx context.Context, path string, content []byte, snap *rules.Snapshot) *ReviewResult {
	timer := e.collector.Timer(metrics.MetricFileReview).Start()
	defer timer.Stop()

	var key string
	if e.cache != nil {
		key = cache.Key(path, content, e.cacheSalt+"/"+snap.Fingerprint())
		if cached, ok := e.cache.Get(key); ok {
			e.collector.Counter(metrics.MetricCacheHits).Inc()
			res := cached.clone()
			res.ReviewedAt = e.now()
			e.recordReviewed(res)
			e.log.Debug("cache hit for %s", path)
			return res
		}
		e.collector.Counter(metrics.MetricCacheMisses).Inc()
	}

	l := e.classifier.Detect(path)
	in := analyzer.NewInput(path, l, content)

	analysis := e.analyzers.For(l).Analyze(ctx, in)
	if analysis.ParseError != nil {
		e.collector.Counter(metrics.MetricParseFailures).Inc()
		e.log.WithField("file", path).Warn("parse failed: %s", analysis.ParseError.Message)
	}

	issues := make([]issue.Issue, 0, len(analysis.Issues))
	issues = append(issues, analysis.Issues...)
	issues = append(issues, e.scanner.Scan(path, in.Lines)...)
	issues = append(issues, snap.Scan(path, l, in.Lines)...)
	issue.Sort(issues)
	issues = issue.Dedupe(issues)

	res := &ReviewResult{
		FilePath:              path,
		Language:              l,
		Issues:                issues,
		Metrics:               analysis.Metrics,
		ReviewedAt:            e.now(),
		SuggestedImprovements: SuggestImprovements(analysis.Metrics, issues),
	}

	if e.cache != nil {
		e.cache.Set(key, res.clone())
	}
	e.recordReviewed(res)
	e.log.Debug("reviewed %s: language=%s issues=%d", path, l, len(issues))
	return res
}

func (e *Engine) recordReviewed(res *ReviewResult) {
	e.collector.Counter(metrics.MetricFilesReviewed).Inc()
	e.collector.Counter(metrics.MetricIssues).Add(int64(len(res.Issues)))
	for sev, n := range issue.Counts(res.Issues) {
		e.collector.CounterWith(metrics.MetricIssuesBySeverity, metrics.Labels{"severity": string(sev)}).Add(int64(n))
	}
}
