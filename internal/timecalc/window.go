package timecalc

import "time"

const day = 24 * time.Hour

// DayStart 返回 t 所在 UTC 日的零点
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayWindow 返回 t 所在 UTC 日的 [00:00, 次日 00:00)
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := DayStart(t)
	return start, start.Add(day)
}

// WeekStart 返回 t 所在周的周日零点（UTC，周日为一周首日）
func WeekStart(t time.Time) time.Time {
	start := DayStart(t)
	return start.AddDate(0, 0, -int(start.Weekday()))
}

// WeekWindow 以 weekStart 当天零点为首日的 7 天窗口，不对齐到周首
func WeekWindow(weekStart time.Time) (time.Time, time.Time) {
	start := DayStart(weekStart)
	return start, start.AddDate(0, 0, 7)
}

// DateRangeWindow 将闭区间日期 [from, to] 转为半开窗口 [from 00:00, to+1 00:00)
// from 晚于 to 时自动交换
func DateRangeWindow(from, to time.Time) (time.Time, time.Time) {
	start, end := DayStart(from), DayStart(to)
	if start.After(end) {
		start, end = end, start
	}
	return start, end.AddDate(0, 0, 1)
}

// LastDays 以 today 为最后一天的连续 n 天（闭区间）
func LastDays(today time.Time, n int) (time.Time, time.Time) {
	if n < 1 {
		n = 1
	}
	end := DayStart(today)
	return end.AddDate(0, 0, -(n - 1)), end
}
