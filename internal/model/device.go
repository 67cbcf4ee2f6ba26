package model

import "time"

// Device 打卡终端表，对应 devices
// DeviceUUID 来自终端浏览器 Cookie，一台终端只绑定一个门店
type Device struct {
	DeviceID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"device_id"`
	DeviceUUID   string    `gorm:"type:varchar(64);not null;uniqueIndex"          json:"device_uuid"`
	LocationID   string    `gorm:"type:uuid;not null"                             json:"location_id"`
	ComputerName *string   `gorm:"type:varchar(100)"                              json:"computer_name,omitempty"`
	IsActive     bool      `gorm:"not null;default:true"                          json:"is_active"`
	RegisteredAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"registered_at"`
	BaseModel

	// 关联
	Location *Location `gorm:"foreignKey:LocationID;references:LocationID" json:"location,omitempty"`
}

// TableName 指定表名
func (Device) TableName() string { return "devices" }
