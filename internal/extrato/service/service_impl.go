package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/inkworks/atelier/internal/audit/domain"
	"github.com/inkworks/atelier/internal/backup"
	"github.com/inkworks/atelier/internal/clock"
	"github.com/inkworks/atelier/internal/config"
	"github.com/inkworks/atelier/internal/events"
	"github.com/inkworks/atelier/internal/extrato/aggregate"
	"github.com/inkworks/atelier/internal/extrato/domain"
	obsmetrics "github.com/inkworks/atelier/internal/observability/metrics"
	"github.com/inkworks/atelier/internal/period"
	"github.com/inkworks/atelier/internal/record"
	"github.com/inkworks/atelier/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Studio   *config.StudioConfigHolder
	Repo     domain.Repository
	Verifier backup.Verifier
	AuditSvc auditdomain.Service
	Events   events.Publisher            `optional:"true"`
	Metrics  *obsmetrics.StatementMetrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.Config
	studio   *config.StudioConfigHolder
	repo     domain.Repository
	verifier backup.Verifier
	auditSvc auditdomain.Service
	events   events.Publisher
	metrics  *obsmetrics.StatementMetrics
}

func NewService(p Params) (domain.Service, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Studio == nil || p.Repo == nil || p.Verifier == nil || p.AuditSvc == nil {
		return nil, domain.ErrInvalidConfig
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("extrato.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Cfg,
		studio:   p.Studio,
		repo:     p.Repo,
		verifier: p.Verifier,
		auditSvc: p.AuditSvc,
		events:   p.Events,
		metrics:  p.Metrics,
	}, nil
}

// Generate runs the statement pipeline: eligibility, backup
// verification, aggregation, then persistence inside one storage
// transaction. Concurrent invocations for the same month are resolved
// by the unique index on (mes, ano); the losing insert is translated
// into a skip, never surfaced as an error.
func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Result, error) {
	loc := s.studio.Get().Location()
	now := s.clock.Now().In(loc)

	mes, ano := req.Mes, req.Ano
	if mes == 0 && ano == 0 {
		mes, ano = period.PreviousMonth(now, loc)
	}

	res := domain.Result{
		Outcome:        domain.OutcomeFailed,
		Mes:            mes,
		Ano:            ano,
		Force:          req.Force,
		CorrelationID:  uuid.NewString(),
		BackupRequired: s.cfg.BackupRequired,
	}

	if mes < 1 || mes > 12 || ano < 2000 || ano > 2100 {
		res.Stage = domain.StageEligibility
		res.Message = fmt.Sprintf("invalid period %d/%d", mes, ano)
		return res, domain.ErrInvalidPeriod
	}

	log := s.log.With(
		zap.Int("mes", mes),
		zap.Int("ano", ano),
		zap.String("trigger", string(req.Trigger)),
		zap.Bool("force", req.Force),
		zap.String("correlation_id", res.CorrelationID),
	)

	// Stage 1: eligibility. The gate is the primary idempotency path;
	// the unique index below is only the race backstop.
	stageStart := s.clock.Now()
	if !req.Force {
		proceed, reason, err := s.checkEligibility(ctx, req.Trigger, now, mes, ano)
		if err != nil {
			return s.fail(ctx, res, req.Trigger, domain.StageEligibility, err, log)
		}
		if !proceed {
			return s.skip(ctx, res, req.Trigger, reason, log), nil
		}
	}
	s.observeStage(domain.StageEligibility, stageStart)

	// Stage 2: backup verification.
	stageStart = s.clock.Now()
	if s.cfg.BackupRequired {
		exists, err := s.verifier.BackupExists(ctx, ano, mes)
		if err != nil {
			return s.fail(ctx, res, req.Trigger, domain.StageBackup, err, log)
		}
		res.BackupExists = exists
		if !exists {
			err := fmt.Errorf("%w: no backup found for %02d/%d; create one or disable the backup requirement", domain.ErrBackupMissing, mes, ano)
			return s.fail(ctx, res, req.Trigger, domain.StageBackup, err, log)
		}
	}
	s.observeStage(domain.StageBackup, stageStart)

	// Stage 3: load and aggregate. Reads are a best-effort
	// point-in-time view; no snapshot isolation is needed here.
	stageStart = s.clock.Now()
	start, end := period.RangeOf(mes, ano, loc)
	data, err := s.repo.LoadMonth(ctx, s.db, start, end)
	if err != nil {
		return s.fail(ctx, res, req.Trigger, domain.StageAggregation, err, log)
	}

	payments, sessions, commissions, expenses := aggregate.FromMonthData(data)
	totals := aggregate.ComputeTotals(payments, sessions, commissions, expenses, log)

	extrato, err := s.buildExtrato(mes, ano, data, totals)
	if err != nil {
		return s.fail(ctx, res, req.Trigger, domain.StageAggregation, err, log)
	}
	s.observeStage(domain.StageAggregation, stageStart)

	// Stage 4: persist statement and success run log atomically.
	stageStart = s.clock.Now()
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if req.Force {
			if err := s.repo.DeleteExtrato(ctx, tx, mes, ano); err != nil {
				return err
			}
		}
		if err := s.repo.InsertExtrato(ctx, tx, extrato); err != nil {
			return err
		}
		return s.repo.AppendRunLog(ctx, tx, &domain.RunLog{
			ID:       s.genID.Generate(),
			Mes:      mes,
			Ano:      ano,
			Status:   domain.RunStatusSuccess,
			Mensagem: fmt.Sprintf("statement generated (trigger=%s correlation=%s)", req.Trigger, res.CorrelationID),
			CriadoEm: s.clock.Now().UTC(),
		})
	})
	if txErr != nil {
		if db.IsDuplicateKeyErr(txErr) {
			// Lost the race against a concurrent run for the same
			// month. The winner's statement stands; this is a skip.
			return s.skip(ctx, res, req.Trigger, "statement already generated by a concurrent run", log), nil
		}
		return s.fail(ctx, res, req.Trigger, domain.StagePersistence, txErr, log)
	}
	s.observeStage(domain.StagePersistence, stageStart)

	res.Outcome = domain.OutcomeGenerated
	res.Stage = ""
	res.Message = fmt.Sprintf("statement generated for %02d/%d", mes, ano)

	s.recordAudit(ctx, res, req.Trigger, "success", nil)
	s.publish(ctx, res)
	s.incRun(req.Trigger, domain.OutcomeGenerated)
	log.Info("statement generated",
		zap.Int("pagamentos", len(data.Pagamentos)),
		zap.Int("comissoes", len(data.Comissoes)),
		zap.Int("gastos", len(data.Gastos)),
	)
	return res, nil
}

func (s *Service) Get(ctx context.Context, mes, ano int) (*domain.Extrato, error) {
	if mes < 1 || mes > 12 || ano < 2000 || ano > 2100 {
		return nil, domain.ErrInvalidPeriod
	}
	extrato, err := s.repo.FindExtrato(ctx, s.db, mes, ano)
	if err != nil {
		return nil, err
	}
	if extrato == nil {
		return nil, domain.ErrNotFound
	}
	return extrato, nil
}

func (s *Service) ListPeriods(ctx context.Context) ([]domain.Periodo, error) {
	return s.repo.ListPeriods(ctx, s.db)
}

// Recompute re-derives totals from the stored collections. The stored
// totals must always match; this is the determinism check reporting
// consumers rely on.
func (s *Service) Recompute(ctx context.Context, mes, ano int) (domain.Totals, error) {
	extrato, err := s.Get(ctx, mes, ano)
	if err != nil {
		return domain.Totals{}, err
	}

	payments, err := recordsFromJSON(extrato.Pagamentos, s.log)
	if err != nil {
		return domain.Totals{}, err
	}
	sessions, err := recordsFromJSON(extrato.Sessoes, s.log)
	if err != nil {
		return domain.Totals{}, err
	}
	commissions, err := recordsFromJSON(extrato.Comissoes, s.log)
	if err != nil {
		return domain.Totals{}, err
	}
	expenses, err := recordsFromJSON(extrato.Gastos, s.log)
	if err != nil {
		return domain.Totals{}, err
	}

	return aggregate.ComputeTotals(payments, sessions, commissions, expenses, s.log), nil
}

// checkEligibility decides whether an unforced run should proceed.
// Scheduled runs respect the settling-day threshold plus the run log;
// manual runs only check whether the statement already exists.
func (s *Service) checkEligibility(ctx context.Context, trigger domain.Trigger, now time.Time, mes, ano int) (bool, string, error) {
	if trigger == domain.TriggerScheduled || trigger == domain.TriggerPageView {
		threshold := s.studio.Get().MinDayThreshold
		if now.Day() < threshold {
			return false, fmt.Sprintf("waiting for settling buffer (day %d < %d)", now.Day(), threshold), nil
		}
		hasRun, err := s.repo.HasSuccessRun(ctx, s.db, mes, ano)
		if err != nil {
			return false, "", err
		}
		if hasRun {
			return false, fmt.Sprintf("statement for %02d/%d already generated", mes, ano), nil
		}
		return true, "", nil
	}

	existing, err := s.repo.FindExtrato(ctx, s.db, mes, ano)
	if err != nil {
		return false, "", err
	}
	if existing != nil {
		return false, fmt.Sprintf("statement for %02d/%d already exists; use force to regenerate", mes, ano), nil
	}
	return true, "", nil
}

func (s *Service) buildExtrato(mes, ano int, data domain.MonthData, totals domain.Totals) (*domain.Extrato, error) {
	pagamentos, err := marshalCollection(data.Pagamentos)
	if err != nil {
		return nil, err
	}
	sessoes, err := marshalCollection(data.Sessoes)
	if err != nil {
		return nil, err
	}
	comissoes, err := marshalCollection(data.Comissoes)
	if err != nil {
		return nil, err
	}
	gastos, err := marshalCollection(data.Gastos)
	if err != nil {
		return nil, err
	}
	totais, err := json.Marshal(totals)
	if err != nil {
		return nil, err
	}

	return &domain.Extrato{
		ID:         s.genID.Generate(),
		Mes:        mes,
		Ano:        ano,
		Pagamentos: pagamentos,
		Sessoes:    sessoes,
		Comissoes:  comissoes,
		Gastos:     gastos,
		Totais:     totais,
		CriadoEm:   s.clock.Now().UTC(),
	}, nil
}

// skip records an idempotency skip: a successful no-op, distinguishable
// from both success-with-work and failure.
func (s *Service) skip(ctx context.Context, res domain.Result, trigger domain.Trigger, reason string, log *zap.Logger) domain.Result {
	res.Outcome = domain.OutcomeSkipped
	res.Stage = ""
	res.Message = reason

	s.appendRunLogDetached(ctx, res.Mes, res.Ano, domain.RunStatusSkipped, reason, log)
	s.recordAudit(ctx, res, trigger, "skipped", nil)
	s.incRun(trigger, domain.OutcomeSkipped)
	log.Info("statement generation skipped", zap.String("reason", reason))
	return res
}

// fail records a failure run log outside any rolled-back transaction
// and returns the failure result carrying the stage name.
func (s *Service) fail(ctx context.Context, res domain.Result, trigger domain.Trigger, stage domain.Stage, err error, log *zap.Logger) (domain.Result, error) {
	res.Outcome = domain.OutcomeFailed
	res.Stage = stage
	res.Message = err.Error()

	detail := fmt.Sprintf("stage=%s correlation=%s: %v", stage, res.CorrelationID, err)
	s.appendRunLogDetached(ctx, res.Mes, res.Ano, domain.RunStatusFailure, detail, log)
	s.recordAudit(ctx, res, trigger, "failure", map[string]any{"error": err.Error()})
	s.incRun(trigger, domain.OutcomeFailed)
	log.Error("statement generation failed", zap.String("stage", string(stage)), zap.Error(err))
	return res, err
}

// appendRunLogDetached writes a run log entry on the shared handle,
// outside any transaction, so the attempt trail survives rollbacks.
func (s *Service) appendRunLogDetached(ctx context.Context, mes, ano int, status domain.RunStatus, message string, log *zap.Logger) {
	entry := &domain.RunLog{
		ID:       s.genID.Generate(),
		Mes:      mes,
		Ano:      ano,
		Status:   status,
		Mensagem: message,
		CriadoEm: s.clock.Now().UTC(),
	}
	if err := s.repo.AppendRunLog(ctx, s.db, entry); err != nil {
		log.Warn("failed to append run log", zap.Error(err))
	}
}

func (s *Service) recordAudit(ctx context.Context, res domain.Result, trigger domain.Trigger, status string, extra map[string]any) {
	metadata := map[string]any{
		"correlation_id": res.CorrelationID,
		"trigger":        string(trigger),
		"force":          res.Force,
	}
	if res.Stage != "" {
		metadata["stage"] = string(res.Stage)
	}
	for k, v := range extra {
		metadata[k] = v
	}
	// Best-effort by contract; the audit service logs its own failures.
	_ = s.auditSvc.Record(ctx, "extrato", fmt.Sprintf("%04d-%02d", res.Ano, res.Mes), "extrato.generate", status, metadata)
}

func (s *Service) publish(ctx context.Context, res domain.Result) {
	if s.events == nil {
		return
	}
	err := s.events.StatementGenerated(ctx, events.StatementGeneratedMessage{
		Mes:           res.Mes,
		Ano:           res.Ano,
		Force:         res.Force,
		CorrelationID: res.CorrelationID,
		Timestamp:     s.clock.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("failed to publish statement event", zap.Error(err))
	}
}

func (s *Service) incRun(trigger domain.Trigger, outcome domain.Outcome) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncRun(string(trigger), string(outcome))
}

func (s *Service) observeStage(stage domain.Stage, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveStage(string(stage), s.clock.Now().Sub(start))
}

func marshalCollection(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		raw = []byte("[]")
	}
	return datatypes.JSON(raw), nil
}

func recordsFromJSON(raw datatypes.JSON, log *zap.Logger) ([]record.FinancialRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode stored collection: %w", err)
	}
	return record.FromMaps(rows, log), nil
}
