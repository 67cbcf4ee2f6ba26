package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-clock/backend/internal/model"
)

// ShiftAuditRepository 班次审计数据访问接口（只追加）
type ShiftAuditRepository interface {
	BatchCreate(ctx context.Context, audits []model.ShiftAudit) error
	ListByShift(ctx context.Context, shiftID string) ([]model.ShiftAudit, error)
	ListLatest(ctx context.Context, limit int) ([]model.ShiftAudit, error)
}

type shiftAuditRepo struct {
	db *gorm.DB
}

// NewShiftAuditRepo 创建 ShiftAuditRepository 实例
func NewShiftAuditRepo(db *gorm.DB) ShiftAuditRepository {
	return &shiftAuditRepo{db: db}
}

func (r *shiftAuditRepo) BatchCreate(ctx context.Context, audits []model.ShiftAudit) error {
	if len(audits) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&audits).Error
}

func (r *shiftAuditRepo) ListByShift(ctx context.Context, shiftID string) ([]model.ShiftAudit, error) {
	var audits []model.ShiftAudit
	err := r.db.WithContext(ctx).
		Preload("Editor").
		Where("shift_id = ?", shiftID).
		Order("edited_at DESC").
		Find(&audits).Error
	return audits, err
}

func (r *shiftAuditRepo) ListLatest(ctx context.Context, limit int) ([]model.ShiftAudit, error) {
	if limit <= 0 {
		limit = 200
	}
	var audits []model.ShiftAudit
	err := r.db.WithContext(ctx).
		Preload("Editor").
		Preload("Shift.Employee").
		Preload("Shift.Location").
		Order("edited_at DESC").
		Limit(limit).
		Find(&audits).Error
	return audits, err
}
