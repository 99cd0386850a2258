package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/inkworks/atelier/internal/clock"
	"github.com/inkworks/atelier/internal/config"
	"github.com/inkworks/atelier/internal/extrato/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStatementService struct {
	calls  []domain.GenerateRequest
	result domain.Result
	err    error
}

func (s *stubStatementService) Generate(_ context.Context, req domain.GenerateRequest) (domain.Result, error) {
	s.calls = append(s.calls, req)
	return s.result, s.err
}

func (s *stubStatementService) Get(context.Context, int, int) (*domain.Extrato, error) {
	return nil, domain.ErrNotFound
}

func (s *stubStatementService) ListPeriods(context.Context) ([]domain.Periodo, error) {
	return nil, nil
}

func (s *stubStatementService) Recompute(context.Context, int, int) (domain.Totals, error) {
	return domain.Totals{}, domain.ErrNotFound
}

func newTestScheduler(t *testing.T, now time.Time, hour int, svc domain.Service) (*Scheduler, *clock.FakeClock) {
	t.Helper()
	fakeClock := clock.NewFakeClock(now)
	sched, err := New(Params{
		Log:        zap.NewNop(),
		Clock:      fakeClock,
		Cfg:        config.Config{SchedulerHour: hour},
		Studio:     config.NewStaticStudioConfigHolder(config.StudioConfig{TimeZone: "UTC", MinDayThreshold: 2}),
		ExtratoSvc: svc,
	})
	require.NoError(t, err)
	return sched, fakeClock
}

func TestRunOnceOutsideConfiguredHourDoesNothing(t *testing.T) {
	svc := &stubStatementService{result: domain.Result{Outcome: domain.OutcomeGenerated}}
	sched, _ := newTestScheduler(t, time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC), 4, svc)

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Empty(t, svc.calls)
}

func TestRunOnceAtConfiguredHourAttemptsOnce(t *testing.T) {
	svc := &stubStatementService{result: domain.Result{Outcome: domain.OutcomeGenerated}}
	sched, fakeClock := newTestScheduler(t, time.Date(2025, time.March, 2, 4, 0, 0, 0, time.UTC), 4, svc)

	require.NoError(t, sched.RunOnce(context.Background()))
	require.Len(t, svc.calls, 1)
	assert.Equal(t, domain.TriggerScheduled, svc.calls[0].Trigger)
	assert.False(t, svc.calls[0].Force)

	// Later ticks within the same hour do not attempt again.
	fakeClock.Advance(5 * time.Minute)
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Len(t, svc.calls, 1)
}

func TestRunOnceAttemptsAgainNextDay(t *testing.T) {
	svc := &stubStatementService{result: domain.Result{Outcome: domain.OutcomeSkipped}}
	sched, fakeClock := newTestScheduler(t, time.Date(2025, time.March, 2, 4, 0, 0, 0, time.UTC), 4, svc)

	require.NoError(t, sched.RunOnce(context.Background()))
	fakeClock.Advance(24 * time.Hour)
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Len(t, svc.calls, 2)
}

func TestRunOnceSurfacesGenerationError(t *testing.T) {
	svc := &stubStatementService{
		result: domain.Result{Outcome: domain.OutcomeFailed, Stage: domain.StageBackup},
		err:    domain.ErrBackupMissing,
	}
	sched, _ := newTestScheduler(t, time.Date(2025, time.March, 2, 4, 30, 0, 0, time.UTC), 4, svc)

	err := sched.RunOnce(context.Background())
	assert.ErrorIs(t, err, domain.ErrBackupMissing)
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
