package review

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/JNZader/codesentry/internal/metrics"
	"github.com/JNZader/codesentry/internal/worker"
)

// ChangeLister supplies the files changed relative to a base ref.
// *git.Repo implements it.
type ChangeLister interface {
	ChangedFiles(ctx context.Context, baseRef string) ([]string, error)
}

// Skip records a file that could not be reviewed.
type Skip struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Batch is the outcome of reviewing several files. Results keep the order
// of the input paths; every input path is either in Results or in Skipped.
type Batch struct {
	Results []*ReviewResult `json:"results"`
	Skipped []Skip          `json:"skipped,omitempty"`
}

// ReviewBatch reviews paths concurrently on a bounded worker pool. A file
// that cannot be read is skipped; only cancellation of ctx fails the batch.
// Every file is reviewed against the rules registered when the call began.
func (e *Engine) ReviewBatch(ctx context.Context, paths []string) (*Batch, error) {
	batch := &Batch{Results: make([]*ReviewResult, 0, len(paths))}
	if len(paths) == 0 {
		return batch, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := e.now()
	snap := e.registry.Snapshot()
	results := make([]*ReviewResult, len(paths))
	errs := make([]error, len(paths))

	pool := worker.New[*ReviewResult](ctx, worker.Config{
		Workers:   e.cfg.MaxConcurrency,
		QueueSize: len(paths),
	})
	e.log.Debug("reviewing %d files with %d workers", len(paths), pool.Stats().Workers)
	submitted := 0
	for i, p := range paths {
		job := worker.Job[*ReviewResult]{
			Index: i,
			Name:  p,
			Run: func(ctx context.Context) (*ReviewResult, error) {
				return e.reviewFile(ctx, p, snap)
			},
		}
		if err := pool.Submit(job); err != nil {
			errs[i] = fmt.Errorf("submitting %s: %w", p, err)
			continue
		}
		submitted++
	}

	// Outcomes are buffered for every path, so nothing blocks before this.
	for received := 0; received < submitted; received++ {
		select {
		case out := <-pool.Outcomes():
			results[out.Index], errs[out.Index] = out.Value, out.Err
		case <-ctx.Done():
			e.log.Warn("review cancelled: %v", ctx.Err())
			pool.Abort()
			return nil, ctx.Err()
		}
	}
	pool.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, p := range paths {
		if results[i] != nil {
			batch.Results = append(batch.Results, results[i])
			continue
		}
		err := errs[i]
		if err == nil {
			err = fmt.Errorf("review of %s produced no result", p)
		}
		batch.Skipped = append(batch.Skipped, Skip{Path: p, Err: err})
		e.collector.Counter(metrics.MetricFilesSkipped).Inc()
		e.log.Warn("skipping %s: %v", p, err)
	}

	e.log.Info("reviewed %d files, skipped %d in %s (%s)",
		len(batch.Results), len(batch.Skipped), e.now().Sub(start).Round(time.Millisecond), pool.Stats())
	return batch, nil
}

// ReviewChangedFiles reviews the files lister reports as changed against
// baseRef, minus those matching review.ignore_patterns. An empty baseRef
// means review.base_ref.
func (e *Engine) ReviewChangedFiles(ctx context.Context, lister ChangeLister, baseRef string) (*Batch, error) {
	if baseRef == "" {
		baseRef = e.cfg.BaseRef
	}

	changed, err := lister.ChangedFiles(ctx, baseRef)
	if err != nil {
		return nil, fmt.Errorf("listing changed files: %w", err)
	}

	paths := make([]string, 0, len(changed))
	for _, p := range changed {
		if e.ignored(p) {
			e.log.Debug("ignoring %s", p)
			continue
		}
		paths = append(paths, p)
	}
	e.log.Info("%d changed files against %s, %d to review", len(changed), baseRef, len(paths))

	return e.ReviewBatch(ctx, paths)
}

func (e *Engine) ignored(p string) bool {
	for _, pattern := range e.cfg.IgnorePatterns {
		if MatchIgnore(pattern, p) {
			return true
		}
	}
	return false
}

// MatchIgnore reports whether p matches an ignore pattern. A pattern is
// matched against the whole slash-separated path and against its base
// name; "dir/*" also matches anything below a "dir" path element.
func MatchIgnore(pattern, p string) bool {
	p = filepath.ToSlash(p)
	if ok, _ := path.Match(pattern, p); ok {
		return true
	}
	if ok, _ := path.Match(pattern, path.Base(p)); ok {
		return true
	}
	if dir, ok := strings.CutSuffix(pattern, "/*"); ok && dir != "" {
		return strings.HasPrefix(p, dir+"/") || strings.Contains(p, "/"+dir+"/")
	}
	return false
}
