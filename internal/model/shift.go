package model

import "time"

// Shift 班次表，对应 shifts
// ClockOutTime 为 nil 表示班次进行中；每名员工最多一条进行中班次（部分唯一索引保证）
type Shift struct {
	ShiftID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	EmployeeID   string     `gorm:"type:uuid;not null"                             json:"employee_id"`
	LocationID   string     `gorm:"type:uuid;not null"                             json:"location_id"`
	DeviceID     string     `gorm:"type:uuid;not null"                             json:"device_id"`
	ClockInTime  time.Time  `gorm:"not null"                                       json:"clock_in_time"`
	ClockOutTime *time.Time `json:"clock_out_time,omitempty"`
	Edited       bool       `gorm:"not null;default:false"                         json:"edited"`
	EditReason   *string    `gorm:"type:text"                                      json:"edit_reason,omitempty"`
	EditedBy     *string    `gorm:"type:uuid"                                      json:"edited_by,omitempty"`
	VersionedModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
	Location *Location `gorm:"foreignKey:LocationID;references:LocationID" json:"location,omitempty"`
	Device   *Device   `gorm:"foreignKey:DeviceID;references:DeviceID"     json:"device,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// IsOpen 班次是否仍在进行中
func (s *Shift) IsOpen() bool { return s.ClockOutTime == nil }
