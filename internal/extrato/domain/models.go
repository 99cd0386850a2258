// Package domain contains the monthly statement models and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Pagamento is a payment recorded by the studio's front desk.
type Pagamento struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	Data           time.Time       `gorm:"not null;index" json:"data"`
	Valor          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valor"`
	FormaPagamento string          `gorm:"type:text" json:"forma_pagamento"`
	Artista        string          `gorm:"type:text" json:"artista"`
	Cliente        string          `gorm:"type:text" json:"cliente"`
}

func (Pagamento) TableName() string { return "pagamentos" }

// Sessao is a tattoo session. Sessions are carried in the statement for
// reporting but do not feed the monetary totals; revenue comes from
// payments only.
type Sessao struct {
	ID      int64           `gorm:"primaryKey" json:"id"`
	Data    time.Time       `gorm:"not null;index" json:"data"`
	Valor   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valor"`
	Artista string          `gorm:"type:text" json:"artista"`
	Cliente string          `gorm:"type:text" json:"cliente"`
	Status  string          `gorm:"type:text" json:"status"`
}

func (Sessao) TableName() string { return "sessoes" }

// Comissao is an artist's cut of one payment. Rows are only created for
// artists with a positive commission percentage.
type Comissao struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	PagamentoID int64           `gorm:"not null;index" json:"pagamento_id"`
	Artista     string          `gorm:"type:text;not null" json:"artista"`
	Percentual  decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percentual"`
	Valor       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valor"`
	CriadoEm    time.Time       `gorm:"not null;index" json:"criado_em"`
}

func (Comissao) TableName() string { return "comissoes" }

// Gasto is a studio expense.
type Gasto struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	Data           time.Time       `gorm:"not null;index" json:"data"`
	Valor          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valor"`
	Descricao      string          `gorm:"type:text" json:"descricao"`
	FormaPagamento string          `gorm:"type:text" json:"forma_pagamento"`
}

func (Gasto) TableName() string { return "gastos" }

// Extrato is the immutable monthly financial statement: one row per
// (mes, ano), enforced by a unique index at the storage layer. The four
// collections are the source rows frozen at generation time; Totais is
// derived from them and must always be reproducible from them.
type Extrato struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"-"`
	Mes        int            `gorm:"not null;uniqueIndex:ux_extratos_periodo" json:"mes"`
	Ano        int            `gorm:"not null;uniqueIndex:ux_extratos_periodo" json:"ano"`
	Pagamentos datatypes.JSON `gorm:"not null" json:"pagamentos"`
	Sessoes    datatypes.JSON `gorm:"not null" json:"sessoes"`
	Comissoes  datatypes.JSON `gorm:"not null" json:"comissoes"`
	Gastos     datatypes.JSON `gorm:"not null" json:"gastos"`
	Totais     datatypes.JSON `gorm:"not null" json:"totais"`
	CriadoEm   time.Time      `gorm:"not null" json:"criado_em"`
}

func (Extrato) TableName() string { return "extratos" }

// RunStatus is the outcome recorded for one generation attempt.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailure RunStatus = "failure"
	RunStatusSkipped RunStatus = "skipped"
)

// RunLog is one generation attempt. Append-only; the eligibility gate
// reads it to answer "was this month already generated?" without
// touching the heavier statement row.
type RunLog struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	Mes      int          `gorm:"not null;index:ix_run_logs_periodo"`
	Ano      int          `gorm:"not null;index:ix_run_logs_periodo"`
	Status   RunStatus    `gorm:"type:text;not null"`
	Mensagem string       `gorm:"type:text"`
	CriadoEm time.Time    `gorm:"not null"`
}

func (RunLog) TableName() string { return "extrato_run_logs" }

// Periodo identifies one statement month.
type Periodo struct {
	Mes int `json:"mes"`
	Ano int `json:"ano"`
}

// Totals is the derived monetary summary of one month.
type Totals struct {
	ReceitaTotal      decimal.Decimal `json:"receita_total"`
	ComissoesTotal    decimal.Decimal `json:"comissoes_total"`
	DespesasTotal     decimal.Decimal `json:"despesas_total"`
	ReceitaLiquida    decimal.Decimal `json:"receita_liquida"`
	PorArtista        []ArtistTotal   `json:"por_artista"`
	PorFormaPagamento []MethodTotal   `json:"por_forma_pagamento"`
}

// ArtistTotal is one artist's slice of the month. An artist appears here
// only with a strictly positive commission; their payments still count
// toward ReceitaTotal either way.
type ArtistTotal struct {
	Artista  string          `json:"artista"`
	Receita  decimal.Decimal `json:"receita"`
	Comissao decimal.Decimal `json:"comissao"`
}

// MethodTotal groups payment values by payment method.
type MethodTotal struct {
	Forma string          `json:"forma"`
	Total decimal.Decimal `json:"total"`
}
