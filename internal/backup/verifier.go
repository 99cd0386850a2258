// Package backup consumes the external backup subsystem's output. This
// service never creates backups; it only answers whether one exists for
// a month before a statement may be generated.
package backup

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Backup is a marker row written by the external backup subsystem once
// a month's historical data has been safely archived.
type Backup struct {
	ID       int64     `gorm:"primaryKey"`
	Ano      int       `gorm:"not null;index:ix_backups_periodo"`
	Mes      int       `gorm:"not null;index:ix_backups_periodo"`
	CriadoEm time.Time `gorm:"not null"`
}

func (Backup) TableName() string { return "backups" }

// Verifier reports whether a backup exists for a month.
type Verifier interface {
	BackupExists(ctx context.Context, ano, mes int) (bool, error)
}

type verifier struct {
	db *gorm.DB
}

func NewVerifier(db *gorm.DB) Verifier {
	return &verifier{db: db}
}

func (v *verifier) BackupExists(ctx context.Context, ano, mes int) (bool, error) {
	var count int64
	err := v.db.WithContext(ctx).
		Model(&Backup{}).
		Where("ano = ? AND mes = ?", ano, mes).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
