package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-clock/backend/internal/model"
)

// EmployeeRepository 员工数据访问接口
type EmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context, includeInactive bool) ([]model.Employee, error)
	ListActiveByRole(ctx context.Context, role string) ([]model.Employee, error)
	Update(ctx context.Context, employee *model.Employee) error
	UpdatePINHash(ctx context.Context, id, pinHash string) error
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepo) List(ctx context.Context, includeInactive bool) ([]model.Employee, error) {
	var employees []model.Employee
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("LOWER(name) ASC, employee_id ASC").Find(&employees).Error
	return employees, err
}

// ListActiveByRole role 为空时返回全部在职员工
func (r *employeeRepo) ListActiveByRole(ctx context.Context, role string) ([]model.Employee, error) {
	var employees []model.Employee
	db := r.db.WithContext(ctx).Where("is_active = ?", true)
	if role != "" {
		db = db.Where("role = ?", role)
	}
	err := db.Order("created_at ASC").Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) Update(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("employee_id = ?", employee.EmployeeID).
		Updates(map[string]interface{}{
			"name":       employee.Name,
			"role":       employee.Role,
			"is_active":  employee.IsActive,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *employeeRepo) UpdatePINHash(ctx context.Context, id, pinHash string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("employee_id = ?", id).
		Updates(map[string]interface{}{
			"pin_hash":   pinHash,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
