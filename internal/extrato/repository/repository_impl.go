package repository

import (
	"context"
	"errors"
	"time"

	"github.com/inkworks/atelier/internal/extrato/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LoadMonth(ctx context.Context, db *gorm.DB, start, end time.Time) (domain.MonthData, error) {
	var data domain.MonthData

	if err := db.WithContext(ctx).
		Where("data >= ? AND data < ?", start, end).
		Order("data asc, id asc").
		Find(&data.Pagamentos).Error; err != nil {
		return domain.MonthData{}, err
	}

	if err := db.WithContext(ctx).
		Where("data >= ? AND data < ?", start, end).
		Order("data asc, id asc").
		Find(&data.Sessoes).Error; err != nil {
		return domain.MonthData{}, err
	}

	if err := db.WithContext(ctx).
		Where("criado_em >= ? AND criado_em < ?", start, end).
		Order("criado_em asc, id asc").
		Find(&data.Comissoes).Error; err != nil {
		return domain.MonthData{}, err
	}

	if err := db.WithContext(ctx).
		Where("data >= ? AND data < ?", start, end).
		Order("data asc, id asc").
		Find(&data.Gastos).Error; err != nil {
		return domain.MonthData{}, err
	}

	return data, nil
}

func (r *repo) FindExtrato(ctx context.Context, db *gorm.DB, mes, ano int) (*domain.Extrato, error) {
	var extrato domain.Extrato
	err := db.WithContext(ctx).
		Where("mes = ? AND ano = ?", mes, ano).
		First(&extrato).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &extrato, nil
}

func (r *repo) InsertExtrato(ctx context.Context, db *gorm.DB, extrato *domain.Extrato) error {
	if extrato == nil {
		return nil
	}
	return db.WithContext(ctx).Create(extrato).Error
}

func (r *repo) DeleteExtrato(ctx context.Context, db *gorm.DB, mes, ano int) error {
	return db.WithContext(ctx).
		Where("mes = ? AND ano = ?", mes, ano).
		Delete(&domain.Extrato{}).Error
}

func (r *repo) ListPeriods(ctx context.Context, db *gorm.DB) ([]domain.Periodo, error) {
	var periods []domain.Periodo
	err := db.WithContext(ctx).
		Model(&domain.Extrato{}).
		Select("mes, ano").
		Order("ano desc, mes desc").
		Scan(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}

func (r *repo) AppendRunLog(ctx context.Context, db *gorm.DB, entry *domain.RunLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) HasSuccessRun(ctx context.Context, db *gorm.DB, mes, ano int) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.RunLog{}).
		Where("mes = ? AND ano = ? AND status = ?", mes, ano, domain.RunStatusSuccess).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
