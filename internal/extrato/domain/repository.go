package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// MonthData is one month of source rows, loaded together so the
// statement freezes a single best-effort point-in-time view.
type MonthData struct {
	Pagamentos []Pagamento
	Sessoes    []Sessao
	Comissoes  []Comissao
	Gastos     []Gasto
}

// Repository is the storage contract for statements and run logs. The
// *gorm.DB parameter lets the service pass either the shared handle or
// an open transaction.
type Repository interface {
	LoadMonth(ctx context.Context, db *gorm.DB, start, end time.Time) (MonthData, error)

	FindExtrato(ctx context.Context, db *gorm.DB, mes, ano int) (*Extrato, error)
	InsertExtrato(ctx context.Context, db *gorm.DB, extrato *Extrato) error
	DeleteExtrato(ctx context.Context, db *gorm.DB, mes, ano int) error
	ListPeriods(ctx context.Context, db *gorm.DB) ([]Periodo, error)

	AppendRunLog(ctx context.Context, db *gorm.DB, entry *RunLog) error
	HasSuccessRun(ctx context.Context, db *gorm.DB, mes, ano int) (bool, error)
}
