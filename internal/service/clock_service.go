package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/internal/timecalc"
	"shift-clock/backend/pkg/clock"
)

// ClockService 门店打卡终端流程
//
// 终端 Cookie → 已登记终端 → 按终端限流 → PIN 校验 → 班次生命周期。
// PIN 错误计入失败次数；PIN 为空不计入。
type ClockService interface {
	Status(ctx context.Context, deviceUUID string) (*dto.ClockStatusResponse, error)
	ClockIn(ctx context.Context, deviceUUID string, req *dto.ClockRequest) (*dto.ClockInResponse, error)
	ClockOut(ctx context.Context, deviceUUID string, req *dto.ClockRequest) (*dto.ClockOutResponse, error)
}

type clockService struct {
	repo    *repository.Repository
	devices DeviceService
	creds   CredentialVerifier
	limiter lockout.Limiter
	shifts  ShiftService
	clock   clock.Clock
	logger  *zap.Logger
}

// NewClockService 创建 ClockService 实例
func NewClockService(
	repo *repository.Repository,
	devices DeviceService,
	creds CredentialVerifier,
	limiter lockout.Limiter,
	shifts ShiftService,
	clk clock.Clock,
	logger *zap.Logger,
) ClockService {
	if clk == nil {
		clk = clock.System{}
	}
	return &clockService{
		repo:    repo,
		devices: devices,
		creds:   creds,
		limiter: limiter,
		shifts:  shifts,
		clock:   clk,
		logger:  logger,
	}
}

// ────────────────────── Status ──────────────────────

func (s *clockService) Status(ctx context.Context, deviceUUID string) (*dto.ClockStatusResponse, error) {
	device, err := s.devices.RequireActive(ctx, deviceUUID)
	if err != nil {
		return nil, err
	}

	open, err := s.repo.Shift.ListOpenByLocation(ctx, device.LocationID)
	if err != nil {
		s.logger.Error("查询门店进行中班次失败", zap.String("location_id", device.LocationID), zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	resp := &dto.ClockStatusResponse{
		LocationID: device.LocationID,
		Status:     dto.ClockStatusNotClockedIn,
		ServerTime: formatTime(now),
		OpenShifts: toOpenShiftResponses(open, now),
	}
	if device.Location != nil {
		resp.LocationName = device.Location.Name
	}
	if len(open) == 0 {
		return resp, nil
	}

	// 列表按上班时间倒序，取最近一条
	latest := open[0]
	resp.Status = dto.ClockStatusClockedIn
	resp.ClockInTime = formatTime(latest.ClockInTime)
	resp.RunningTime = timecalc.FormatHMS(now.Sub(latest.ClockInTime))
	if latest.Employee != nil {
		resp.EmployeeName = latest.Employee.Name
	}

	worked, err := s.hoursToday(ctx, latest.EmployeeID, now)
	if err != nil {
		return nil, err
	}
	resp.HoursToday = timecalc.FormatHM(worked)
	return resp, nil
}

// hoursToday 当天（UTC）上班的所有班次时长之和，进行中班次计到 now
func (s *clockService) hoursToday(ctx context.Context, employeeID string, now time.Time) (time.Duration, error) {
	start, end := timecalc.DayWindow(now)
	shifts, err := s.repo.Shift.ListByEmployeeClockInRange(ctx, employeeID, start, end)
	if err != nil {
		s.logger.Error("查询员工当日班次失败", zap.String("employee_id", employeeID), zap.Error(err))
		return 0, err
	}

	var total time.Duration
	for _, sh := range shifts {
		out := now
		if sh.ClockOutTime != nil {
			out = *sh.ClockOutTime
		}
		if out.After(sh.ClockInTime) {
			total += out.Sub(sh.ClockInTime)
		}
	}
	return total, nil
}

// ────────────────────── ClockIn ──────────────────────

func (s *clockService) ClockIn(ctx context.Context, deviceUUID string, req *dto.ClockRequest) (*dto.ClockInResponse, error) {
	device, err := s.devices.RequireActive(ctx, deviceUUID)
	if err != nil {
		return nil, err
	}

	emp, err := s.authenticate(ctx, device, req.PIN)
	if err != nil {
		return nil, err
	}

	result, err := s.shifts.ClockIn(ctx, ClockInCommand{
		EmployeeID: emp.EmployeeID,
		DeviceID:   device.DeviceID,
		LocationID: device.LocationID,
		Now:        s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &dto.ClockInResponse{
		ShiftID:      result.Shift.ShiftID,
		EmployeeName: result.EmployeeName,
		ClockInTime:  formatTime(result.ClockInTime),
	}, nil
}

// ────────────────────── ClockOut ──────────────────────

func (s *clockService) ClockOut(ctx context.Context, deviceUUID string, req *dto.ClockRequest) (*dto.ClockOutResponse, error) {
	device, err := s.devices.RequireActive(ctx, deviceUUID)
	if err != nil {
		return nil, err
	}

	emp, err := s.authenticate(ctx, device, req.PIN)
	if err != nil {
		return nil, err
	}

	result, err := s.shifts.ClockOut(ctx, ClockOutCommand{
		EmployeeID: emp.EmployeeID,
		DeviceID:   device.DeviceID,
		Now:        s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &dto.ClockOutResponse{
		EmployeeName: result.EmployeeName,
		ClockInTime:  formatTime(result.ClockInTime),
		ClockOutTime: formatTime(result.ClockOutTime),
		Worked:       timecalc.FormatHMS(result.ClockOutTime.Sub(result.ClockInTime)),
	}, nil
}

// authenticate 按终端限流后校验 PIN
func (s *clockService) authenticate(ctx context.Context, device *model.Device, pin string) (*model.Employee, error) {
	key := device.DeviceUUID
	if err := s.limiter.CheckAllowed(ctx, key); err != nil {
		if !errors.Is(err, lockout.ErrLocked) {
			s.logger.Error("检查 PIN 限流失败", zap.String("device_uuid", key), zap.Error(err))
		}
		return nil, err
	}

	emp, err := s.creds.Verify(ctx, pin)
	if err != nil {
		if errors.Is(err, ErrInvalidPIN) {
			if rerr := s.limiter.RecordFailure(ctx, key); rerr != nil {
				s.logger.Warn("记录 PIN 失败次数失败", zap.String("device_uuid", key), zap.Error(rerr))
			}
			s.logger.Info("终端 PIN 校验失败", zap.String("device_uuid", key))
		}
		return nil, err
	}

	if err := s.limiter.RecordSuccess(ctx, key); err != nil {
		s.logger.Warn("重置 PIN 失败次数失败", zap.String("device_uuid", key), zap.Error(err))
	}
	return emp, nil
}
