package dto

// ── 报表模块 DTO ──

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

// WeeklyReportRequest 周报查询参数，week_start 可为当周任意一天，缺省为本周
type WeeklyReportRequest struct {
	WeekStart string `form:"week_start"`
}

// RangeReportRequest 区间报表查询参数，日期闭区间，缺省为最近 7 天
type RangeReportRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// ExportReportRequest 报表导出参数
type ExportReportRequest struct {
	Kind      string `form:"kind"       binding:"omitempty,oneof=weekly range"`
	Format    string `form:"format"     binding:"omitempty,oneof=xlsx csv"`
	WeekStart string `form:"week_start"`
	From      string `form:"from"`
	To        string `form:"to"`
}

// EmployeeTotalsResponse 员工汇总
type EmployeeTotalsResponse struct {
	EmployeeID       string `json:"employee_id"`
	EmployeeName     string `json:"employee_name"`
	CompletedSeconds int64  `json:"completed_seconds"`
	LiveSeconds      int64  `json:"live_seconds"`
	Completed        string `json:"completed"` // H:MM
	Live             string `json:"live"`      // H:MM
}

// ReportShiftRow 报表明细行
type ReportShiftRow struct {
	ShiftID       string  `json:"shift_id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	Day           string  `json:"day"`
	ClockInTime   string  `json:"clock_in_time"`
	ClockOutTime  *string `json:"clock_out_time"`
	WorkedSeconds int64   `json:"worked_seconds"`
	Worked        string  `json:"worked"`
	Completed     bool    `json:"completed"`
}

// ReportResponse 周报 / 区间报表
type ReportResponse struct {
	From      string                   `json:"from"` // 首日
	To        string                   `json:"to"`   // 末日（含）
	ServerNow string                   `json:"server_now"`
	Totals    []EmployeeTotalsResponse `json:"totals"`
	Shifts    []ReportShiftRow         `json:"shifts"`
}

// EmployeeHoursResponse 已完成工时
type EmployeeHoursResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	TotalSeconds int64  `json:"total_seconds"`
	Total        string `json:"total"`
}

// WeeklyHoursResponse 周已完成工时（不含进行中班次）
type WeeklyHoursResponse struct {
	WeekStart string                  `json:"week_start"`
	WeekEnd   string                  `json:"week_end"`
	Employees []EmployeeHoursResponse `json:"employees"`
}
