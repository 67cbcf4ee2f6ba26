package service

import (
	"go.uber.org/zap"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/notify"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/pkg/clock"
	"shift-clock/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Credential CredentialVerifier
	Auth       AuthService
	Employee   EmployeeService
	Location   LocationService
	Device     DeviceService
	Shift      ShiftService
	Clock      ClockService
	Report     ReportService
	Export     ExportService
	Calendar   CalendarService
	Bootstrap  BootstrapService
}

// Deps 组装 Service 所需的依赖
type Deps struct {
	Config       *config.Config
	Repo         *repository.Repository
	JWT          *jwt.Manager
	KioskLimiter lockout.Limiter // 终端 PIN，按终端标识限流
	AdminLimiter lockout.Limiter // 管理端登录，按客户端 IP 限流
	Publisher    notify.Publisher
	Blacklist    TokenBlacklist
	Clock        clock.Clock
	Logger       *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	clk := d.Clock
	if clk == nil {
		clk = clock.System{}
	}

	creds := NewCredentialVerifier(d.Repo, d.Config.Clock.PINLength, 0, d.Logger)
	devices := NewDeviceService(d.Repo, clk, d.Logger)
	shifts := NewShiftService(d.Repo, d.Publisher, clk, d.Logger)
	reports := NewReportService(d.Repo, clk, d.Logger)

	return &Service{
		Credential: creds,
		Auth:       NewAuthService(d.Repo, creds, d.AdminLimiter, d.JWT, d.Blacklist, d.Logger),
		Employee:   NewEmployeeService(d.Repo, creds, d.Logger),
		Location:   NewLocationService(d.Repo, d.Logger),
		Device:     devices,
		Shift:      shifts,
		Clock:      NewClockService(d.Repo, devices, creds, d.KioskLimiter, shifts, clk, d.Logger),
		Report:     reports,
		Export:     NewExportService(reports, clk, d.Logger),
		Calendar:   NewCalendarService(d.Repo, clk, d.Logger),
		Bootstrap:  NewBootstrapService(&d.Config.Bootstrap, d.Repo, creds, d.Logger),
	}
}
