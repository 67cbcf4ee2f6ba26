// Package audit 计算班次人工修改的字段级差异
package audit

import (
	"time"

	"shift-clock/backend/internal/model"
)

// Snapshot 班次可被人工修改的三个字段
type Snapshot struct {
	ClockIn  *time.Time
	ClockOut *time.Time
	Reason   *string
}

// SnapshotOf 从班次取快照
func SnapshotOf(s *model.Shift) Snapshot {
	in := s.ClockInTime
	return Snapshot{ClockIn: &in, ClockOut: s.ClockOutTime, Reason: s.EditReason}
}

// Diff 比较修改前后的快照，每个发生变化的字段生成一条审计记录
// 未变化的字段不产生记录；时间统一序列化为 RFC3339 UTC
func Diff(shiftID, editorID string, editedAt time.Time, before, after Snapshot) []model.ShiftAudit {
	var out []model.ShiftAudit

	add := func(field string, oldValue, newValue *string) {
		if equalStrings(oldValue, newValue) {
			return
		}
		out = append(out, model.ShiftAudit{
			ShiftID:   shiftID,
			EditedBy:  editorID,
			EditedAt:  editedAt.UTC(),
			FieldName: field,
			OldValue:  oldValue,
			NewValue:  newValue,
		})
	}

	add(model.AuditFieldClockIn, FormatInstant(before.ClockIn), FormatInstant(after.ClockIn))
	add(model.AuditFieldClockOut, FormatInstant(before.ClockOut), FormatInstant(after.ClockOut))
	add(model.AuditFieldEditReason, before.Reason, after.Reason)

	return out
}

// FormatInstant 时间序列化为 RFC3339 UTC，nil 保持 nil
func FormatInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func equalStrings(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
