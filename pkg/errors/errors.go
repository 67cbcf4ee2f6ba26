// Package errors 仓储层与业务层共用的冲突类错误
package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ErrOptimisticLock 乐观锁冲突：班次已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// IsUniqueViolation 唯一约束冲突
// 依赖 gorm.Config.TranslateError 把驱动错误翻译为 gorm.ErrDuplicatedKey
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsConflict 并发写入冲突：乐观锁失败或唯一约束冲突
func IsConflict(err error) bool {
	return errors.Is(err, ErrOptimisticLock) || IsUniqueViolation(err)
}
