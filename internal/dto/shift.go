package dto

import "time"

// ── 班次模块 DTO ──

// ShiftListRequest 班次列表查询参数，日期为闭区间，缺省为最近 7 天
type ShiftListRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
	PaginationRequest
}

// EditShiftRequest 管理员修改班次请求
// clock_out_time 为 null 表示重新打开班次
type EditShiftRequest struct {
	ClockInTime  time.Time  `json:"clock_in_time"  binding:"required"`
	ClockOutTime *time.Time `json:"clock_out_time"`
	Reason       string     `json:"reason"`
}

// AuditListRequest 审计列表查询参数
type AuditListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// ShiftResponse 班次信息响应
type ShiftResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	LocationID    string  `json:"location_id"`
	LocationName  string  `json:"location_name,omitempty"`
	DeviceID      string  `json:"device_id"`
	ComputerName  string  `json:"computer_name,omitempty"`
	ClockInTime   string  `json:"clock_in_time"`
	ClockOutTime  *string `json:"clock_out_time"`
	Open          bool    `json:"open"`
	WorkedSeconds int64   `json:"worked_seconds"`
	Worked        string  `json:"worked"` // H:MM
	Edited        bool    `json:"edited"`
	EditReason    *string `json:"edit_reason,omitempty"`
	EditedBy      *string `json:"edited_by,omitempty"`
	Version       int     `json:"version"`
}

// ShiftAuditResponse 审计记录响应
type ShiftAuditResponse struct {
	ID           string  `json:"id"`
	ShiftID      string  `json:"shift_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	LocationName string  `json:"location_name,omitempty"`
	EditedBy     string  `json:"edited_by"`
	EditorName   string  `json:"editor_name,omitempty"`
	EditedAt     string  `json:"edited_at"`
	FieldName    string  `json:"field_name"`
	OldValue     *string `json:"old_value"`
	NewValue     *string `json:"new_value"`
}

// EditShiftResponse 修改班次响应
type EditShiftResponse struct {
	Shift  ShiftResponse        `json:"shift"`
	Audits []ShiftAuditResponse `json:"audits"`
}
