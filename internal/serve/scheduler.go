package serve

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mkpages/mkpages/internal/logfields"
)

// Scheduler runs the periodic rebuild job. The schedule spec is either a
// five-field cron expression or "@every <duration>".
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Schedule registers fn under the given spec. Panics inside the job are
// recovered and logged so one bad run cannot kill the daemon.
func (s *Scheduler) Schedule(spec string, fn func()) error {
	task := gocron.NewTask(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled job panic", slog.Any("panic", r))
			}
		}()
		fn()
	})

	var def gocron.JobDefinition
	if after, ok := strings.CutPrefix(spec, "@every "); ok {
		d, err := time.ParseDuration(strings.TrimSpace(after))
		if err != nil {
			return fmt.Errorf("invalid @every duration %q: %w", after, err)
		}
		def = gocron.DurationJob(d)
	} else {
		def = gocron.CronJob(spec, false)
	}

	job, err := s.scheduler.NewJob(def, task, gocron.WithName("rebuild"))
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	s.logger.Info("rebuild schedule registered",
		slog.String("spec", spec), slog.String("job", job.ID().String()))
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() { s.scheduler.Start() }

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("scheduler shutdown", logfields.Error(err))
		return err
	}
	return nil
}
