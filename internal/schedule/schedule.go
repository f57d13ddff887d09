package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	logx "regwatch/pkg/logx"
)

// Service runs the monitoring job under an internal cron trigger.
// Overlapping runs are skipped, honoring the single-instance assumption
// of the state file.
type Service struct {
	cron *cron.Cron
	log  logx.Logger
}

func New(log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cl := cronLogger{log: log}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cl),
		cron.Recover(cl),
	))
	return &Service{cron: c, log: log}
}

// Start registers the job under spec (standard 5-field cron expression)
// and starts the trigger loop.
func (s *Service) Start(spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("cron spec %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", logx.String("spec", spec))
	return nil
}

// Stop halts the trigger and waits for a running job, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with a job still running")
	}
}

// cronLogger adapts logx to cron's logging interface.
type cronLogger struct {
	log logx.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	fields := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		fields = append(fields, logx.Any(k, kv[i+1]))
	}
	return fields
}
