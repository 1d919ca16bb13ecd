package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one poll cycle.
type Job func(ctx context.Context)

// PollScheduler runs the poll cycle on a cron schedule instead of a fixed
// sleep. A run that is still in progress when the next one is due makes the
// scheduler skip that tick, so cycles never overlap.
type PollScheduler struct {
	cronEngine *cron.Cron
	job        Job
	spec       string
	jobTimeout time.Duration
	logger     *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
}

func NewPollScheduler(job Job, spec string, jobTimeout time.Duration, logger *logrus.Entry) *PollScheduler {
	cronLog := cronLogger{entry: logger}
	return &PollScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		job:        job,
		spec:       spec,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start registers the poll job and starts the cron engine. It fails on an
// invalid spec.
func (s *PollScheduler) Start(ctx context.Context) error {
	s.logger.WithField("spec", s.spec).Info("Starting poll scheduler...")
	s.ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.cronEngine.AddFunc(s.spec, func() {
		jobCtx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
		defer cancel()
		s.job(jobCtx)
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("invalid poll schedule %q: %w", s.spec, err)
	}

	s.cronEngine.Start()
	s.logger.Info("Poll scheduler started.")
	return nil
}

// Stop prevents new runs and waits for a running cycle to finish.
func (s *PollScheduler) Stop() {
	s.logger.Info("Stopping poll scheduler...")
	stopCtx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-stopCtx.Done()
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Poll scheduler gracefully stopped.")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).WithError(err).Error(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
