package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/pkg/clock"
)

// ── 终端模块业务错误 ──

var (
	ErrDeviceNotRegistered = errors.New("此电脑未登记为打卡终端，请联系管理员")
	ErrDeviceNotFound      = errors.New("终端不存在")
)

// DeviceService 打卡终端业务接口
type DeviceService interface {
	// RequireActive 按 Cookie 中的终端标识查找已登记且启用的终端
	RequireActive(ctx context.Context, deviceUUID string) (*model.Device, error)
	// Register 将终端登记到门店，已登记的终端会被移动到新门店并重新启用
	Register(ctx context.Context, deviceUUID string, req *dto.RegisterDeviceRequest) (*dto.DeviceResponse, error)
	List(ctx context.Context) ([]dto.DeviceResponse, error)
	ToggleActive(ctx context.Context, id string) (*dto.DeviceResponse, error)
}

type deviceService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) DeviceService {
	if clk == nil {
		clk = clock.System{}
	}
	return &deviceService{repo: repo, clock: clk, logger: logger}
}

// ────────────────────── RequireActive ──────────────────────

func (s *deviceService) RequireActive(ctx context.Context, deviceUUID string) (*model.Device, error) {
	if strings.TrimSpace(deviceUUID) == "" {
		return nil, ErrDeviceNotRegistered
	}

	device, err := s.repo.Device.GetByUUID(ctx, deviceUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotRegistered
		}
		s.logger.Error("查询终端失败", zap.String("device_uuid", deviceUUID), zap.Error(err))
		return nil, err
	}
	if !device.IsActive {
		return nil, ErrDeviceNotRegistered
	}
	return device, nil
}

// ────────────────────── Register ──────────────────────

func (s *deviceService) Register(ctx context.Context, deviceUUID string, req *dto.RegisterDeviceRequest) (*dto.DeviceResponse, error) {
	loc, err := s.repo.Location.GetByID(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		s.logger.Error("查询门店失败", zap.String("id", req.LocationID), zap.Error(err))
		return nil, err
	}

	var computerName *string
	if name := strings.TrimSpace(req.ComputerName); name != "" {
		computerName = &name
	}
	now := s.clock.Now()

	device, err := s.repo.Device.GetByUUID(ctx, deviceUUID)
	switch {
	case err == nil:
		device.LocationID = loc.LocationID
		device.ComputerName = computerName
		device.IsActive = true
		device.RegisteredAt = now
		if err := s.repo.Device.Update(ctx, device); err != nil {
			s.logger.Error("更新终端失败", zap.String("device_uuid", deviceUUID), zap.Error(err))
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		device = &model.Device{
			DeviceUUID:   deviceUUID,
			LocationID:   loc.LocationID,
			ComputerName: computerName,
			IsActive:     true,
			RegisteredAt: now,
		}
		if err := s.repo.Device.Create(ctx, device); err != nil {
			s.logger.Error("登记终端失败", zap.String("device_uuid", deviceUUID), zap.Error(err))
			return nil, err
		}
	default:
		s.logger.Error("查询终端失败", zap.String("device_uuid", deviceUUID), zap.Error(err))
		return nil, err
	}
	device.Location = loc

	s.logger.Info("终端已登记",
		zap.String("device_uuid", deviceUUID),
		zap.String("location_id", loc.LocationID),
	)
	resp := toDeviceResponse(device)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *deviceService) List(ctx context.Context) ([]dto.DeviceResponse, error) {
	devices, err := s.repo.Device.List(ctx)
	if err != nil {
		s.logger.Error("列出终端失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.DeviceResponse, 0, len(devices))
	for i := range devices {
		list = append(list, toDeviceResponse(&devices[i]))
	}
	return list, nil
}

// ────────────────────── ToggleActive ──────────────────────

func (s *deviceService) ToggleActive(ctx context.Context, id string) (*dto.DeviceResponse, error) {
	device, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("查询终端失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	device.IsActive = !device.IsActive
	if err := s.repo.Device.Update(ctx, device); err != nil {
		s.logger.Error("更新终端失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toDeviceResponse(device)
	return &resp, nil
}

func toDeviceResponse(d *model.Device) dto.DeviceResponse {
	resp := dto.DeviceResponse{
		ID:           d.DeviceID,
		DeviceUUID:   d.DeviceUUID,
		LocationID:   d.LocationID,
		IsActive:     d.IsActive,
		RegisteredAt: formatTime(d.RegisteredAt),
	}
	if d.ComputerName != nil {
		resp.ComputerName = *d.ComputerName
	}
	if d.Location != nil {
		resp.LocationName = d.Location.Name
	}
	return resp
}
