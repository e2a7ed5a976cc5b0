package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StaleRequeuer puts stuck processing jobs back to pending.
type StaleRequeuer interface {
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// MonthEndDigester generates the monthly digest on the last day of a month.
type MonthEndDigester interface {
	RunIfMonthEnd(ctx context.Context, now time.Time) (bool, error)
}

// MaintenanceScheduler runs periodic housekeeping next to the summary worker.
type MaintenanceScheduler struct {
	cronEngine     *cron.Cron
	requeuer       StaleRequeuer
	digester       MonthEndDigester
	logger         *logrus.Entry
	cronSpecStale  string
	cronSpecDigest string // runs daily, the job checks for the last day of month
	staleAfter     time.Duration
	jobTimeout     time.Duration
}

func NewMaintenanceScheduler(
	requeuer StaleRequeuer,
	digester MonthEndDigester,
	logger *logrus.Entry,
	cronSpecStale string, // e.g. "*/10 * * * *"
	cronSpecDigest string, // e.g. "0 * * * *"
	staleAfter time.Duration,
	jobTimeout time.Duration,
) *MaintenanceScheduler {
	cronLog := cronLogger{entry: logger}
	return &MaintenanceScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		requeuer:       requeuer,
		digester:       digester,
		logger:         logger,
		cronSpecStale:  cronSpecStale,
		cronSpecDigest: cronSpecDigest,
		staleAfter:     staleAfter,
		jobTimeout:     jobTimeout,
	}
}

func (s *MaintenanceScheduler) Start() error {
	s.logger.Info("Starting maintenance scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecStale, s.sweepStale); err != nil {
		return fmt.Errorf("could not add stale job sweep: %w", err)
	}
	if _, err := s.cronEngine.AddFunc(s.cronSpecDigest, func() { s.checkMonthEnd(time.Now()) }); err != nil {
		return fmt.Errorf("could not add monthly digest job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Maintenance scheduler started.")
	return nil
}

func (s *MaintenanceScheduler) sweepStale() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.requeuer.RequeueStale(ctx, s.staleAfter)
	if err != nil {
		s.logger.WithError(err).Error("Stale summary job sweep failed")
		return
	}
	s.logger.WithField("requeued", n).Debug("Stale summary job sweep finished")
}

func (s *MaintenanceScheduler) checkMonthEnd(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	created, err := s.digester.RunIfMonthEnd(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("Monthly digest generation failed")
		return
	}
	if created {
		s.logger.WithField("month", now.Format("2006-01")).Info("Monthly digest generated")
	} else {
		s.logger.WithField("day", now.Day()).Debug("No monthly digest due")
	}
}

// Stop stops the cron engine and waits for running jobs to complete.
func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("Stopping maintenance scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler stopped.")
}

// cronLogger routes cron's own messages into logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
