package model

// 员工角色
const (
	RoleEmployee   = "EMPLOYEE"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Employee 员工表，对应 employees
type Employee struct {
	EmployeeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	PINHash    string `gorm:"type:varchar(100);not null"                     json:"-"`
	Role       string `gorm:"type:varchar(20);not null;default:'EMPLOYEE'"   json:"role"`
	IsActive   bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// IsSuperAdmin 是否为超级管理员
func (e *Employee) IsSuperAdmin() bool { return e.Role == RoleSuperAdmin }
