package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Employee   EmployeeRepository
	Location   LocationRepository
	Device     DeviceRepository
	Shift      ShiftRepository
	ShiftAudit ShiftAuditRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Employee:   NewEmployeeRepo(db),
		Location:   NewLocationRepo(db),
		Device:     NewDeviceRepo(db),
		Shift:      NewShiftRepo(db),
		ShiftAudit: NewShiftAuditRepo(db),
		db:         db,
	}
}

// WithTx 返回绑定到事务 tx 的 Repository
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在同一数据库事务内执行 fn，fn 返回错误时整体回滚
// 未绑定数据库（单元测试中直接组装的 Repository）时直接在当前实例上执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Ping 检查数据库连通性
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
