package handler

import (
	"shift-clock/backend/config"
	"shift-clock/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Clock    *ClockHandler
	Employee *EmployeeHandler
	Location *LocationHandler
	Device   *DeviceHandler
	Shift    *ShiftHandler
	Report   *ReportHandler
	Export   *ExportHandler
	Stream   *StreamHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, events EventSource) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Clock:    NewClockHandler(svc.Clock, &cfg.Clock),
		Employee: NewEmployeeHandler(svc.Employee, svc.Calendar),
		Location: NewLocationHandler(svc.Location),
		Device:   NewDeviceHandler(svc.Device, &cfg.Clock),
		Shift:    NewShiftHandler(svc.Shift),
		Report:   NewReportHandler(svc.Report),
		Export:   NewExportHandler(svc.Export),
		Stream:   NewStreamHandler(events),
	}
}
