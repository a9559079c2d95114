package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tournx/webaudit/internal/model"
)

// BatchProcessor audits multiple sites concurrently.
//
// Design decision: Each target gets its own pipeline instance from the
// factory. Steps hold per-run state (spiders, analyzer caches), so
// sharing one pipeline across goroutines would race.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each target.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of simultaneous audits.
	concurrency int

	// logger for structured logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchConcurrency sets the maximum number of simultaneous audits.
// Values below one are coerced to one.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n < 1 {
			n = 1
		}
		b.concurrency = n
	}
}

// WithBatchLogger sets a custom logger for the batch processor.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// NewBatchProcessor creates a batch processor. The factory is called
// once per target to build that target's pipeline.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ProcessBatch audits every target URL and returns one report per
// target, in input order. Individual audit failures are recorded on
// the report rather than aborting the batch; only context cancellation
// stops the run early.
func (b *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.AuditReport, error) {
	return b.process(ctx, targets, nil)
}

// ProcessBatchWithCallback is ProcessBatch with a per-report callback,
// invoked as each audit finishes. The callback may run concurrently
// from multiple goroutines when concurrency is above one.
func (b *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, targets []string, callback func(*model.AuditReport)) ([]*model.AuditReport, error) {
	return b.process(ctx, targets, callback)
}

func (b *BatchProcessor) process(ctx context.Context, targets []string, callback func(*model.AuditReport)) ([]*model.AuditReport, error) {
	results := make([]*model.AuditReport, len(targets))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			report := model.NewAuditReport(target, hostOf(target))

			b.logger.Info("audit started", "site", target)
			if err := b.pipelineFactory().Execute(ctx, report); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Failure is already recorded on the report
				b.logger.Warn("audit failed", "site", target, "error", err)
			} else {
				b.logger.Info("audit finished", "site", target)
			}

			mu.Lock()
			results[i] = report
			mu.Unlock()

			if callback != nil {
				callback(report)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// hostOf extracts the hostname from a target URL, falling back to the
// raw string when it does not parse.
func hostOf(target string) string {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil || u.Hostname() == "" {
		return target
	}
	return u.Hostname()
}
