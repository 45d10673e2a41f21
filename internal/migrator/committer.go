package migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/socialdb/migrator/internal/common"
	"github.com/socialdb/migrator/internal/metrics"
	"github.com/socialdb/migrator/internal/storage"
)

// ProgressObserver is told about every committed batch as the half-open
// range [rangeStart, rangeEnd) of a dataset of total items.
type ProgressObserver func(kind common.EntityKind, rangeStart int, rangeEnd int, total int)

// ChunkedCommitter writes a dataset in batches of chunkSize items. Unlike
// fetching, batches are submitted strictly one after another: the destination
// appends them in arrival order.
type ChunkedCommitter struct {
	mutator   Mutator
	chunkSize int
	gas       uint64
	progress  storage.IProgressStorage
	observer  ProgressObserver
	logger    zerolog.Logger
}

func NewChunkedCommitter(mutator Mutator, chunkSize int, gas uint64) *ChunkedCommitter {
	return &ChunkedCommitter{
		mutator:   mutator,
		chunkSize: chunkSize,
		gas:       gas,
		logger:    log.Logger,
	}
}

func (c *ChunkedCommitter) WithLogger(logger zerolog.Logger) *ChunkedCommitter {
	c.logger = logger
	return c
}

// WithProgressStorage makes the committer record the end offset of every
// committed batch.
func (c *ChunkedCommitter) WithProgressStorage(progress storage.IProgressStorage) *ChunkedCommitter {
	c.progress = progress
	return c
}

func (c *ChunkedCommitter) WithObserver(observer ProgressObserver) *ChunkedCommitter {
	c.observer = observer
	return c
}

// CommitJob describes one dataset to write. Each batch is sent as
// {ArgsKey: batch} to Method on Account.
type CommitJob[T any] struct {
	Account string
	Kind    common.EntityKind
	Method  string
	ArgsKey string
	Items   []T
	// StartOffset skips items committed by a previous run
	StartOffset int
}

// CommitInChunks submits job.Items from job.StartOffset on. The first failing
// batch stops the loop; batches before it stay committed.
func CommitInChunks[T any](ctx context.Context, c *ChunkedCommitter, job CommitJob[T]) error {
	if c.chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.chunkSize)
	}
	if job.StartOffset < 0 {
		return fmt.Errorf("start offset must not be negative, got %d", job.StartOffset)
	}
	total := len(job.Items)
	if job.StartOffset > 0 {
		c.logger.Info().Int("offset", job.StartOffset).Int("total", total).Msgf("Resuming %s commit", job.Kind)
	}

	if job.StartOffset >= total {
		return nil
	}

	from := job.StartOffset
	for _, batch := range common.SliceToChunks(job.Items[from:], c.chunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		to := from + len(batch)

		start := time.Now()
		err := c.mutator.Mutate(ctx, job.Account, job.Method, map[string][]T{job.ArgsKey: batch}, c.gas)
		if err != nil {
			return &RemoteMutationError{Account: job.Account, Method: job.Method, RangeStart: from, RangeEnd: to, Err: err}
		}
		metrics.BatchCommitDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())
		metrics.BatchesCommitted.WithLabelValues(string(job.Kind)).Inc()
		metrics.ItemsCommitted.WithLabelValues(string(job.Kind)).Add(float64(len(batch)))
		metrics.LastCommittedOffset.WithLabelValues(string(job.Kind)).Set(float64(to))

		if c.progress != nil {
			if err := c.progress.SetCommittedOffset(job.Account, job.Kind, to); err != nil {
				return fmt.Errorf("batch [%d, %d) committed but progress was not saved: %w", from, to, err)
			}
		}
		c.logProgress(job.Kind, from, to, total)
		if c.observer != nil {
			c.observer(job.Kind, from, to, total)
		}
		from = to
	}
	return nil
}

func (c *ChunkedCommitter) logProgress(kind common.EntityKind, rangeStart int, rangeEnd int, total int) {
	c.logger.Info().
		Str("kind", string(kind)).
		Int("from", rangeStart).
		Int("to", rangeEnd).
		Int("total", total).
		Msgf("Initialized %s from %d to %d out of %d", kind, rangeStart, rangeEnd, total)
}
