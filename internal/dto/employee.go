package dto

// ── 员工模块 DTO ──

// CreateEmployeeRequest 创建员工请求
type CreateEmployeeRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Role string `json:"role" binding:"omitempty,oneof=EMPLOYEE SUPER_ADMIN"`
}

// UpdateEmployeeRequest 更新员工请求
type UpdateEmployeeRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=1,max=100"`
	Role     *string `json:"role"      binding:"omitempty,oneof=EMPLOYEE SUPER_ADMIN"`
	IsActive *bool   `json:"is_active"`
}

// EmployeeListRequest 员工列表查询参数
type EmployeeListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// EmployeeResponse 员工信息响应（不含 PIN）
type EmployeeResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// EmployeePINResponse 创建员工或重置 PIN 的响应，明文 PIN 只返回这一次
type EmployeePINResponse struct {
	Employee EmployeeResponse `json:"employee"`
	PIN      string           `json:"pin"`
}
