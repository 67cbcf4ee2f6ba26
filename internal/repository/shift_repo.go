package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shift-clock/backend/internal/model"
	pkgerrors "shift-clock/backend/pkg/errors"
)

// ShiftRepository 班次数据访问接口
//
// Create 在违反“每名员工最多一条进行中班次”唯一索引时返回 gorm.ErrDuplicatedKey；
// Close / Update 以 version 做乐观锁，冲突时返回 pkgerrors.ErrOptimisticLock。
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	GetByIDWithDetails(ctx context.Context, id string) (*model.Shift, error)
	FindOpenByEmployee(ctx context.Context, employeeID string) (*model.Shift, error)
	ListOpenByLocation(ctx context.Context, locationID string) ([]model.Shift, error)
	ListOverlapping(ctx context.Context, from, to time.Time) ([]model.Shift, error)
	ListByClockInRange(ctx context.Context, from, to time.Time, offset, limit int) ([]model.Shift, int64, error)
	ListByEmployeeClockInRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.Shift, error)
	Close(ctx context.Context, shift *model.Shift, clockOut time.Time) error
	Update(ctx context.Context, shift *model.Shift) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetByIDWithDetails(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Location").
		Preload("Device").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// FindOpenByEmployee 查询员工进行中的班次并加行锁
func (r *shiftRepo) FindOpenByEmployee(ctx context.Context, employeeID string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND clock_out_time IS NULL", employeeID).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) ListOpenByLocation(ctx context.Context, locationID string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("location_id = ? AND clock_out_time IS NULL", locationID).
		Order("clock_in_time DESC").
		Find(&shifts).Error
	return shifts, err
}

// ListOverlapping 与 [from, to) 相交的班次（含进行中）
func (r *shiftRepo) ListOverlapping(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("clock_in_time < ? AND (clock_out_time IS NULL OR clock_out_time > ?)", to, from).
		Order("clock_in_time DESC").
		Find(&shifts).Error
	return shifts, err
}

// ListByClockInRange 上班时间落在 [from, to) 的班次，预加载员工、门店、终端
// limit <= 0 时不分页
func (r *shiftRepo) ListByClockInRange(ctx context.Context, from, to time.Time, offset, limit int) ([]model.Shift, int64, error) {
	var (
		shifts []model.Shift
		total  int64
	)
	db := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("clock_in_time >= ? AND clock_in_time < ?", from, to).
		Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := db.Preload("Employee").
		Preload("Location").
		Preload("Device").
		Order("clock_in_time DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&shifts).Error; err != nil {
		return nil, 0, err
	}
	return shifts, total, nil
}

func (r *shiftRepo) ListByEmployeeClockInRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("employee_id = ? AND clock_in_time >= ? AND clock_in_time < ?", employeeID, from, to).
		Order("clock_in_time ASC").
		Find(&shifts).Error
	return shifts, err
}

// Close 结束进行中的班次
func (r *shiftRepo) Close(ctx context.Context, shift *model.Shift, clockOut time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND version = ? AND clock_out_time IS NULL", shift.ShiftID, shift.LockVersion()).
		Updates(map[string]interface{}{
			"clock_out_time": clockOut,
			"version":        shift.NextVersion(),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	shift.ClockOutTime = &clockOut
	shift.Bump()
	return nil
}

// Update 写回人工修改后的班次字段
func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND version = ?", shift.ShiftID, shift.LockVersion()).
		Updates(map[string]interface{}{
			"clock_in_time":  shift.ClockInTime,
			"clock_out_time": shift.ClockOutTime,
			"edited":         shift.Edited,
			"edit_reason":    shift.EditReason,
			"edited_by":      shift.EditedBy,
			"version":        shift.NextVersion(),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Bump()
	return nil
}
