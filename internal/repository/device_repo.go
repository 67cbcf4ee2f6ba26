package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-clock/backend/internal/model"
)

// DeviceRepository 打卡终端数据访问接口
type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByID(ctx context.Context, id string) (*model.Device, error)
	GetByUUID(ctx context.Context, deviceUUID string) (*model.Device, error)
	List(ctx context.Context) ([]model.Device, error)
	Update(ctx context.Context, device *model.Device) error
}

type deviceRepo struct {
	db *gorm.DB
}

// NewDeviceRepo 创建 DeviceRepository 实例
func NewDeviceRepo(db *gorm.DB) DeviceRepository {
	return &deviceRepo{db: db}
}

func (r *deviceRepo) Create(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

func (r *deviceRepo) GetByID(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("device_id = ?", id).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByUUID 按终端 Cookie 中的 UUID 查询，预加载门店
func (r *deviceRepo) GetByUUID(ctx context.Context, deviceUUID string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("device_uuid = ?", deviceUUID).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepo) List(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := r.db.WithContext(ctx).
		Preload("Location").
		Order("registered_at DESC").
		Find(&devices).Error
	return devices, err
}

func (r *deviceRepo) Update(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("device_id = ?", device.DeviceID).
		Updates(map[string]interface{}{
			"location_id":   device.LocationID,
			"computer_name": device.ComputerName,
			"is_active":     device.IsActive,
			"registered_at": device.RegisteredAt,
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
}
