package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/service"
)

// Scheduler runs the periodic SLA breach sweep on a cron spec with seconds
// precision.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New wires the sweep job. Each run gets its own timeout so a stuck database
// cannot pile up overlapping sweeps forever.
func New(cfg config.SchedulerConfig, slaService *service.SLAService, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds())

	timeout := time.Duration(cfg.SweepTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	_, err := c.AddFunc(cfg.SweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		flagged, err := slaService.SweepBreaches(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("sla sweep failed", zap.Error(err))
			return
		}
		if flagged > 0 {
			logger.Info("sla sweep flagged tickets", zap.Int("count", flagged))
		}
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
