package audit

import (
	"context"
	"log/slog"
	"time"

	"donorhub/internal/platform/metrics"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 100
)

// OutboxSource is the slice of the store the worker needs.
type OutboxSource interface {
	NextBatch(ctx context.Context, limit int) ([]OutboxRow, error)
	MarkPublished(ctx context.Context, seqs []int64) error
}

// Worker drains unpublished outbox rows to the sink. Failures are logged and
// retried on the next tick; rows are only marked published after the sink
// accepts them.
type Worker struct {
	outbox   OutboxSource
	sink     Sink
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	batch    int
}

func NewWorker(outbox OutboxSource, sink Sink, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		outbox:   outbox,
		sink:     sink,
		logger:   logger,
		metrics:  m,
		interval: defaultPollInterval,
		batch:    defaultBatchSize,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain publishes one batch. Rows after the first failure stay in the outbox
// so per-user ordering survives a flaky broker.
func (w *Worker) drain(ctx context.Context) {
	rows, err := w.outbox.NextBatch(ctx, w.batch)
	if err != nil {
		w.logger.ErrorContext(ctx, "audit outbox read failed", "error", err.Error())
		return
	}
	if len(rows) == 0 {
		return
	}

	published := make([]int64, 0, len(rows))
	for _, row := range rows {
		if err := w.sink.Publish(ctx, row.Event); err != nil {
			w.logger.ErrorContext(ctx, "audit publish failed",
				"error", err.Error(),
				"seq", row.Seq,
				"action", row.Event.Action,
			)
			w.metrics.IncAuditFailed()
			break
		}
		published = append(published, row.Seq)
		w.metrics.IncAuditPublished()
	}

	if len(published) == 0 {
		return
	}
	if err := w.outbox.MarkPublished(ctx, published); err != nil {
		w.logger.ErrorContext(ctx, "audit outbox mark failed", "error", err.Error())
	}
}
