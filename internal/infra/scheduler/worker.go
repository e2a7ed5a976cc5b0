package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"feedback_portal/internal/app"
	"feedback_portal/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// CycleRunner is one poll iteration plus stale-job recovery.
type CycleRunner interface {
	RunCycle(ctx context.Context) (app.CycleReport, error)
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SummaryWorker owns the background poll loop. Start and Stop are its only
// mutators; stop requests are honoured between iterations and during sleep,
// never in the middle of a batch.
type SummaryWorker struct {
	runner          CycleRunner
	pollInterval    time.Duration
	failureCooldown time.Duration
	staleAfter      time.Duration
	log             *logrus.Entry

	mu     sync.Mutex
	state  app.WorkerState
	stopCh chan struct{}
	done   chan struct{}
}

func NewSummaryWorker(runner CycleRunner, pollInterval, failureCooldown, staleAfter time.Duration, log *logrus.Entry) *SummaryWorker {
	return &SummaryWorker{
		runner:          runner,
		pollInterval:    pollInterval,
		failureCooldown: failureCooldown,
		staleAfter:      staleAfter,
		log:             log,
		state:           app.WorkerStopped,
	}
}

var _ app.WorkerController = (*SummaryWorker)(nil)

func (w *SummaryWorker) State() app.WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start launches the loop. It returns false if the worker is not stopped.
// Cancelling ctx does not interrupt the loop; use Stop.
func (w *SummaryWorker) Start(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != app.WorkerStopped {
		return false
	}

	w.state = app.WorkerRunning
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	metrics.WorkerRunning.Set(1)

	go w.loop(context.WithoutCancel(ctx), w.stopCh, w.done)
	w.log.WithField("poll_interval", w.pollInterval).Info("Summary worker started")
	return true
}

// Stop signals the loop and waits for the current iteration to finish.
func (w *SummaryWorker) Stop() {
	w.mu.Lock()
	switch w.state {
	case app.WorkerStopped:
		w.mu.Unlock()
		return
	case app.WorkerRunning:
		w.state = app.WorkerStopping
		close(w.stopCh)
	}
	done := w.done
	w.mu.Unlock()

	<-done

	w.mu.Lock()
	if w.state == app.WorkerStopping {
		w.state = app.WorkerStopped
		metrics.WorkerRunning.Set(0)
		w.log.Info("Summary worker stopped")
	}
	w.mu.Unlock()
}

// Restart stops the worker if needed and starts it again.
func (w *SummaryWorker) Restart(ctx context.Context) bool {
	w.Stop()
	return w.Start(ctx)
}

func (w *SummaryWorker) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if _, err := w.runner.RequeueStale(ctx, w.staleAfter); err != nil {
		w.log.WithError(err).Error("Failed to requeue stale summary jobs on start")
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		wait := w.pollInterval
		if err := w.iterate(ctx); err != nil {
			metrics.CatastrophicFailures.Inc()
			w.log.WithError(err).WithField("cooldown", w.failureCooldown).Error("Summary worker iteration failed, cooling down")
			wait = w.failureCooldown
		}

		if !sleep(stop, wait) {
			return
		}
	}
}

// iterate runs one cycle and turns a panic into an error so the loop survives.
func (w *SummaryWorker) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in summary worker: %v\n%s", r, debug.Stack())
		}
	}()

	report, err := w.runner.RunCycle(ctx)
	if err != nil {
		return err
	}
	if report.Batches > 0 {
		w.log.WithFields(logrus.Fields{
			"cycle_id":  report.CycleID,
			"batches":   report.Batches,
			"completed": report.Completed,
			"failed":    report.Failed,
		}).Info("Summary cycle finished")
	}
	return nil
}

// sleep waits for d or a stop signal. It returns false when stopped.
func sleep(stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
