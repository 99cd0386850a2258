// Package domain defines the operational audit ledger: a generic
// append-only trail of structured events for cross-cutting traceability.
// Writers treat it as best-effort; a failed audit write never fails the
// operation being audited.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	EntityType string            `gorm:"type:text;not null;index" json:"entity_type"`
	EntityID   string            `gorm:"type:text;index" json:"entity_id"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	Status     string            `gorm:"type:text;not null" json:"status"`
	Metadata   datatypes.JSONMap `gorm:"not null" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

var ErrInvalidAction = errors.New("invalid_action")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

type ListFilter struct {
	EntityType string
	EntityID   string
	Action     string
	Limit      int
}

type Service interface {
	// Record appends one event. Errors are returned for observability
	// but callers are expected to ignore them.
	Record(ctx context.Context, entityType, entityID, action, status string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]AuditLog, error)
}
