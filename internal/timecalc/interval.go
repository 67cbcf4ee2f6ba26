// Package timecalc 班次区间聚合计算（纯函数，不依赖存储与当前时间源）
package timecalc

import "time"

// Interval 参与聚合的一段班次区间
// ClockOut 为 nil 表示班次尚未结束
type Interval struct {
	ShiftID      string
	EmployeeID   string
	EmployeeName string
	ClockIn      time.Time
	ClockOut     *time.Time
}

// IsOpen 班次是否仍在进行中
func (iv Interval) IsOpen() bool { return iv.ClockOut == nil }

// Overlaps 判断区间是否与 [start, end) 相交
// 与仓储层查询条件保持一致：clock_in < end AND (clock_out IS NULL OR clock_out > start)
func Overlaps(clockIn time.Time, clockOut *time.Time, start, end time.Time) bool {
	if !clockIn.Before(end) {
		return false
	}
	return clockOut == nil || clockOut.After(start)
}

// Clip 将 [from, to) 裁剪到窗口 [start, end) 内，返回裁剪后的时长
// 裁剪结果为空或倒置时返回 0
func Clip(from, to, start, end time.Time) time.Duration {
	clipStart := from
	if start.After(clipStart) {
		clipStart = start
	}
	clipEnd := to
	if end.Before(clipEnd) {
		clipEnd = end
	}
	if !clipEnd.After(clipStart) {
		return 0
	}
	return clipEnd.Sub(clipStart)
}

// valid 过滤缺失员工或上班时间的脏数据
func (iv Interval) valid() bool {
	return iv.EmployeeID != "" && !iv.ClockIn.IsZero()
}
