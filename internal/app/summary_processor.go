package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"feedback_portal/internal/domain/summary"
	"feedback_portal/internal/domain/summaryjob"
	"feedback_portal/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Regenerator builds the snapshot of one target and stores it separately, so
// the slow build never holds a database transaction.
type Regenerator interface {
	Build(ctx context.Context, key summaryjob.Key) (*summary.Snapshot, error)
	Store(ctx context.Context, s *summary.Snapshot) error
	Mode() string
}

// CycleReport summarises one poll iteration.
type CycleReport struct {
	CycleID   string
	Pending   int
	Batches   int
	Completed int
	Failed    int
}

// SummaryProcessor executes one poll iteration of the summary queue.
type SummaryProcessor struct {
	jobRepo   summaryjob.Repository
	generator Regenerator
	tx        Transactor
	log       *logrus.Entry
	now       func() time.Time
}

func NewSummaryProcessor(jobRepo summaryjob.Repository, generator Regenerator, tx Transactor, log *logrus.Entry) *SummaryProcessor {
	return &SummaryProcessor{
		jobRepo:   jobRepo,
		generator: generator,
		tx:        tx,
		log:       log,
		now:       time.Now,
	}
}

// RunCycle reads all pending jobs, groups them by target and runs each group.
// A failing group never stops its siblings. The returned error covers only
// failures outside per-batch handling.
func (p *SummaryProcessor) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{CycleID: uuid.NewString()}
	cycleLog := p.log.WithField("cycle_id", report.CycleID)

	pending, err := p.jobRepo.ListByStatus(ctx, summaryjob.StatusPending, 0)
	if err != nil {
		return report, fmt.Errorf("failed to list pending summary jobs: %w", err)
	}
	report.Pending = len(pending)
	if len(pending) == 0 {
		return report, nil
	}

	batches := GroupPending(pending)
	report.Batches = len(batches)
	cycleLog.WithFields(logrus.Fields{"pending": len(pending), "batches": len(batches)}).Info("Processing pending summary jobs")

	for _, batch := range batches {
		batchLog := cycleLog.WithFields(logrus.Fields{
			"kind":       batch.Key.Kind,
			"target":     batch.Key.Target,
			"batch_size": len(batch.Jobs),
		})

		runErr, finalizeErr := p.processBatch(ctx, batch)
		if finalizeErr != nil {
			return report, finalizeErr
		}
		if runErr != nil {
			report.Failed += len(batch.Jobs)
			metrics.Batches.WithLabelValues(string(batch.Key.Kind), "failed").Inc()
			metrics.JobsProcessed.WithLabelValues(string(batch.Key.Kind), string(summaryjob.StatusFailed)).Add(float64(len(batch.Jobs)))
			batchLog.WithError(runErr).Error("Summary batch failed")
			continue
		}
		report.Completed += len(batch.Jobs)
		metrics.Batches.WithLabelValues(string(batch.Key.Kind), "complete").Inc()
		metrics.JobsProcessed.WithLabelValues(string(batch.Key.Kind), string(summaryjob.StatusComplete)).Add(float64(len(batch.Jobs)))
		batchLog.Info("Summary batch complete")
	}
	return report, nil
}

// processBatch returns runErr when the batch itself failed and was marked
// failed, and finalizeErr when even the status bookkeeping could not be saved.
func (p *SummaryProcessor) processBatch(ctx context.Context, batch Batch) (runErr error, finalizeErr error) {
	ids := batch.IDs()

	if err := p.jobRepo.UpdateStatus(ctx, ids, summaryjob.StatusProcessing); err != nil {
		return nil, fmt.Errorf("failed to mark %s jobs processing: %w", batch.Key, err)
	}

	snap, runErr := p.build(ctx, batch.Key)
	if runErr == nil {
		// The snapshot and the complete status commit together.
		runErr = p.tx.WithinTx(ctx, func(txCtx context.Context) error {
			if err := p.generator.Store(txCtx, snap); err != nil {
				return err
			}
			return p.jobRepo.UpdateStatus(txCtx, ids, summaryjob.StatusComplete)
		})
	}
	if runErr == nil {
		return nil, nil
	}

	if err := p.jobRepo.UpdateStatus(ctx, ids, summaryjob.StatusFailed); err != nil {
		return runErr, fmt.Errorf("failed to mark %s jobs failed after %v: %w", batch.Key, runErr, err)
	}
	return runErr, nil
}

// build runs the generator outside any transaction and turns a panic into an error.
func (p *SummaryProcessor) build(ctx context.Context, key summaryjob.Key) (snap *summary.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while regenerating %s: %v\n%s", key, r, debug.Stack())
		}
	}()
	return p.generator.Build(ctx, key)
}

// RequeueStale puts processing jobs untouched for longer than olderThan back to pending.
func (p *SummaryProcessor) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := p.jobRepo.RequeueStale(ctx, p.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.StaleRequeued.Add(float64(n))
		p.log.WithField("requeued", n).Warn("Requeued stale processing summary jobs")
	}
	return n, nil
}
