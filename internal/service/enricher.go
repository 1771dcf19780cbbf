package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gptenrich/internal/enrich"
	"gptenrich/internal/keys"
	"gptenrich/internal/models"
	"gptenrich/internal/recipe"
)

// Runner runs a recipe over a table.
type Runner interface {
	Params() recipe.Params
	Run(ctx context.Context, in *enrich.Table) (*enrich.Output, error)
}

// DatasetWriter stores enriched outputs.
type DatasetWriter interface {
	WriteTable(ctx context.Context, bucket, key string, t *enrich.Table) error
	WriteDescriptions(ctx context.Context, bucket, key string, d map[string]string) error
}

// RunRecorder keeps the run ledger.
type RunRecorder interface {
	Record(ctx context.Context, s *models.RunSummary) error
}

// Publisher announces finished runs.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Enricher runs the recipe on a loaded dataset, writes the result to the
// output bucket and records the run. An empty output bucket means the source
// bucket.
type Enricher struct {
	runner       Runner
	writer       DatasetWriter
	ledger       RunRecorder
	publisher    Publisher
	outputBucket string
	mode         enrich.ErrorHandling
	logger       *slog.Logger
	now          func() time.Time
}

// NewEnricher wires the collaborators. ledger and publisher may be nil.
func NewEnricher(runner Runner, writer DatasetWriter, ledger RunRecorder, publisher Publisher, outputBucket string, mode enrich.ErrorHandling) *Enricher {
	return &Enricher{
		runner:       runner,
		writer:       writer,
		ledger:       ledger,
		publisher:    publisher,
		outputBucket: outputBucket,
		mode:         mode,
		logger:       slog.Default().With("component", "enricher"),
		now:          time.Now,
	}
}

// Process enriches one dataset. An aborted run is recorded and returned as an
// error; nothing is written for it. Ledger and publish failures are logged.
func (e *Enricher) Process(ctx context.Context, bucket, key string, table *enrich.Table) (*models.RunSummary, error) {
	summary := models.NewRunSummary(string(e.runner.Params().Kind), string(e.mode), e.now())
	summary.SourceBucket, summary.SourceKey = bucket, key
	logger := e.logger.With("run_id", summary.ID, "bucket", bucket, "key", key)

	out, runErr := e.runner.Run(ctx, table)
	if runErr == nil {
		runErr = e.write(ctx, bucket, key, out)
	}
	if runErr == nil {
		summary.OutputKey = keys.Output(key)
		summary.Finish(out.Table.Len(), out.Succeeded, out.Failed, nil, e.now())
		logger.Info("dataset enriched", "output", summary.OutputKey, "succeeded", out.Succeeded, "failed", out.Failed)
	} else {
		summary.Finish(table.Len(), 0, 0, runErr, e.now())
		logger.Error("dataset enrichment aborted", "error", runErr)
	}

	if ctx.Err() == nil {
		e.report(ctx, logger, summary)
	}
	return summary, runErr
}

func (e *Enricher) write(ctx context.Context, bucket, key string, out *enrich.Output) error {
	if e.outputBucket != "" {
		bucket = e.outputBucket
	}
	if err := e.writer.WriteTable(ctx, bucket, keys.Output(key), out.Table); err != nil {
		return fmt.Errorf("write output table: %w", err)
	}
	if err := e.writer.WriteDescriptions(ctx, bucket, keys.Descriptions(key), out.Descriptions); err != nil {
		return fmt.Errorf("write column descriptions: %w", err)
	}
	return nil
}

func (e *Enricher) report(ctx context.Context, logger *slog.Logger, s *models.RunSummary) {
	if e.ledger != nil {
		if err := e.ledger.Record(ctx, s); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, s.ID.String(), s); err != nil {
			logger.Warn("failed to publish run event", "error", err)
		}
	}
}
