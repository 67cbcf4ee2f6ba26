package dto

// ── 打卡终端 DTO ──

// 终端状态
const (
	ClockStatusClockedIn    = "CLOCKED_IN"
	ClockStatusNotClockedIn = "NOT_CLOCKED_IN"
)

// ClockRequest 上下班打卡请求
type ClockRequest struct {
	PIN string `json:"pin"`
}

// ClockInResponse 上班打卡响应
type ClockInResponse struct {
	ShiftID      string `json:"shift_id"`
	EmployeeName string `json:"employee_name"`
	ClockInTime  string `json:"clock_in_time"`
}

// ClockOutResponse 下班打卡响应
type ClockOutResponse struct {
	EmployeeName string `json:"employee_name"`
	ClockInTime  string `json:"clock_in_time"`
	ClockOutTime string `json:"clock_out_time"`
	Worked       string `json:"worked"` // HH:MM:SS
}

// OpenShiftResponse 进行中的班次
type OpenShiftResponse struct {
	ShiftID      string `json:"shift_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	ClockInTime  string `json:"clock_in_time"`
	RunningTime  string `json:"running_time"`
}

// ClockStatusResponse 终端首页状态
type ClockStatusResponse struct {
	LocationID   string              `json:"location_id"`
	LocationName string              `json:"location_name"`
	Status       string              `json:"status"`
	ServerTime   string              `json:"server_time"`
	OpenShifts   []OpenShiftResponse `json:"open_shifts"`

	// 最近一条进行中班次
	EmployeeName string `json:"employee_name,omitempty"`
	ClockInTime  string `json:"clock_in_time,omitempty"`
	RunningTime  string `json:"running_time,omitempty"`
	HoursToday   string `json:"hours_today,omitempty"`
}

// LocationOpenShifts 某门店当前进行中的班次
type LocationOpenShifts struct {
	LocationID   string              `json:"location_id"`
	LocationName string              `json:"location_name"`
	Shifts       []OpenShiftResponse `json:"shifts"`
}

// OpenShiftsSnapshot 管理端实时看板数据
type OpenShiftsSnapshot struct {
	ServerTime string               `json:"server_time"`
	Locations  []LocationOpenShifts `json:"locations"`
}
