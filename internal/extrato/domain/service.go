package domain

import (
	"context"
	"errors"
)

// Trigger identifies which surface started a generation attempt.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
	TriggerService   Trigger = "service"
	TriggerPageView  Trigger = "pageview"
)

// Outcome is the terminal state of one generation attempt.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Stage names the pipeline step a failure occurred in.
type Stage string

const (
	StageEligibility Stage = "eligibility"
	StageBackup      Stage = "backup"
	StageAggregation Stage = "aggregation"
	StagePersistence Stage = "persistence"
)

// GenerateRequest asks for a statement for one month. Mes/Ano zero means
// "previous month". Force replaces an existing statement wholesale.
type GenerateRequest struct {
	Mes     int
	Ano     int
	Force   bool
	Trigger Trigger
}

// Result is returned from every Generate call so each caller sees its
// own run's diagnostics; there is deliberately no shared last-run state.
type Result struct {
	Outcome       Outcome `json:"outcome"`
	Mes           int     `json:"mes"`
	Ano           int     `json:"ano"`
	Force         bool    `json:"force"`
	Stage         Stage   `json:"stage,omitempty"`
	Message       string  `json:"message,omitempty"`
	CorrelationID string  `json:"correlation_id"`

	BackupRequired bool `json:"backup_required"`
	BackupExists   bool `json:"backup_exists"`
}

var (
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrBackupMissing = errors.New("backup_missing")
	ErrNotFound      = errors.New("extrato_not_found")
	ErrInvalidConfig = errors.New("invalid_service_config")
)

type Service interface {
	// Generate runs the full statement pipeline for one month. The
	// returned Result is populated on skips and failures too; err is
	// non-nil only for real failures.
	Generate(ctx context.Context, req GenerateRequest) (Result, error)

	// Get returns the stored statement for a month.
	Get(ctx context.Context, mes, ano int) (*Extrato, error)

	// ListPeriods returns every month with a stored statement.
	ListPeriods(ctx context.Context) ([]Periodo, error)

	// Recompute re-derives totals from the stored collections of an
	// existing statement. Used to verify determinism of the stored
	// totals; it never writes.
	Recompute(ctx context.Context, mes, ano int) (Totals, error)
}
