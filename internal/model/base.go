package model

import "time"

// BaseModel 记录创建与更新时间（UTC，由数据库默认值与 GORM 自动维护）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime" json:"updated_at"`
}

// VersionedModel 乐观锁版本号，每次条件更新成功后加一
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// LockVersion 条件更新时 WHERE 子句使用的当前版本
func (m *VersionedModel) LockVersion() int { return m.Version }

// NextVersion 条件更新要写入的版本
func (m *VersionedModel) NextVersion() int { return m.Version + 1 }

// Bump 条件更新成功后同步内存中的版本号
func (m *VersionedModel) Bump() { m.Version++ }
