package dto

// ── 终端模块 DTO ──

// RegisterDeviceRequest 将当前浏览器所在电脑登记到门店
type RegisterDeviceRequest struct {
	LocationID   string `json:"location_id"   binding:"required,uuid"`
	ComputerName string `json:"computer_name" binding:"omitempty,max=100"`
}

// DeviceResponse 终端信息响应
type DeviceResponse struct {
	ID           string `json:"id"`
	DeviceUUID   string `json:"device_uuid"`
	ComputerName string `json:"computer_name,omitempty"`
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name,omitempty"`
	IsActive     bool   `json:"is_active"`
	RegisteredAt string `json:"registered_at"`
}
