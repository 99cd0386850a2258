// Package scheduler drives unattended statement generation. A ticker
// fires every interval; the scheduler attempts generation once per day
// at the configured off-peak hour and leaves the decision of whether
// anything should actually be generated to the statement service's
// eligibility gate.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/inkworks/atelier/internal/clock"
	"github.com/inkworks/atelier/internal/config"
	"github.com/inkworks/atelier/internal/extrato/domain"
	"github.com/inkworks/atelier/internal/requestctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Cfg        config.Config
	Studio     *config.StudioConfigHolder
	ExtratoSvc domain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	clock      clock.Clock
	appCfg     config.Config
	studio     *config.StudioConfigHolder
	extratoSvc domain.Service
	cfg        Config

	lastAttemptDay string
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Studio == nil || p.ExtratoSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:      p.Clock,
		appCfg:     p.Cfg,
		studio:     p.Studio,
		extratoSvc: p.ExtratoSvc,
		cfg:        p.Config.withDefaults(),
	}, nil
}

// RunOnce performs a single tick: if the studio-local time is inside
// the configured hour and no attempt was made today, invoke generation
// for the previous month. Idempotency lives in the service, not here.
func (s *Scheduler) RunOnce(parent context.Context) error {
	loc := s.studio.Get().Location()
	now := s.clock.Now().In(loc)

	if now.Hour() != s.appCfg.SchedulerHour {
		return nil
	}
	day := now.Format("2006-01-02")
	if s.lastAttemptDay == day {
		return nil
	}
	s.lastAttemptDay = day

	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()
	ctx = requestctx.WithActor(ctx, requestctx.Actor{Type: "system", ID: "scheduler"})

	res, err := s.extratoSvc.Generate(ctx, domain.GenerateRequest{Trigger: domain.TriggerScheduled})
	if err != nil {
		s.log.Error("scheduled generation failed",
			zap.String("stage", string(res.Stage)),
			zap.String("correlation_id", res.CorrelationID),
			zap.Error(err),
		)
		return err
	}

	s.log.Info("scheduled generation attempt finished",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("mes", res.Mes),
		zap.Int("ano", res.Ano),
		zap.String("message", res.Message),
	)
	return nil
}

// RunForever ticks until the context is cancelled. Errors from a tick
// are logged inside RunOnce and never stop the loop; a transient
// failure today retries naturally tomorrow.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started",
		zap.Duration("tick_interval", s.cfg.TickInterval),
		zap.Int("hour", s.appCfg.SchedulerHour),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}
