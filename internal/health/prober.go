package health

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Prober runs readiness checks on a cron schedule so the health gauge stays
// current even when nobody scrapes /readyz.
type Prober struct {
	checker *Checker
	sched   cron.Schedule
	logger  *slog.Logger
}

func NewProber(checker *Checker, spec string, logger *slog.Logger) (*Prober, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse probe schedule %q: %w", spec, err)
	}
	return &Prober{
		checker: checker,
		sched:   sched,
		logger:  logger.With("component", "health_prober"),
	}, nil
}

// Start blocks until ctx is done.
func (p *Prober) Start(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(p.sched, cron.FuncJob(func() { p.Probe(ctx) }))
	c.Start()

	p.logger.Info("health prober started")
	<-ctx.Done()

	<-c.Stop().Done()
	p.logger.Info("health prober stopped")
}

// Probe runs one readiness check.
func (p *Prober) Probe(ctx context.Context) HealthResult {
	result := p.checker.Readiness(ctx)
	if result.Status != "up" {
		p.logger.Warn("readiness probe down", "checks", result.Checks)
	}
	return result
}
