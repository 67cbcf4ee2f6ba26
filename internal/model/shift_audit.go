package model

import "time"

// 审计字段名
const (
	AuditFieldClockIn    = "clockInTime"
	AuditFieldClockOut   = "clockOutTime"
	AuditFieldEditReason = "editReason"
)

// ShiftAudit 班次修改审计表，对应 shift_audits（只追加）
type ShiftAudit struct {
	AuditID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_id"`
	ShiftID   string    `gorm:"type:uuid;not null;index"                       json:"shift_id"`
	EditedBy  string    `gorm:"type:uuid;not null"                             json:"edited_by"`
	EditedAt  time.Time `gorm:"not null"                                       json:"edited_at"`
	FieldName string    `gorm:"type:varchar(32);not null"                      json:"field_name"`
	OldValue  *string   `gorm:"type:text"                                      json:"old_value"`
	NewValue  *string   `gorm:"type:text"                                      json:"new_value"`

	// 关联
	Shift  *Shift    `gorm:"foreignKey:ShiftID;references:ShiftID"     json:"shift,omitempty"`
	Editor *Employee `gorm:"foreignKey:EditedBy;references:EmployeeID" json:"editor,omitempty"`
}

// TableName 指定表名
func (ShiftAudit) TableName() string { return "shift_audits" }
