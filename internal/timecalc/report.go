package timecalc

import (
	"sort"
	"time"

	"golang.org/x/text/cases"
)

// EmployeeTotals 单个员工在窗口内的汇总
// Completed 只累计已结束班次，Live 额外包含进行中班次截至 now 的时长
type EmployeeTotals struct {
	EmployeeID         string
	EmployeeName       string
	Completed          time.Duration
	Live               time.Duration
	CompletedFormatted string
	LiveFormatted      string
}

// ShiftRow 报表明细行，每个相交班次一行
type ShiftRow struct {
	ShiftID       string
	EmployeeID    string
	EmployeeName  string
	Day           time.Time // 上班时间所在 UTC 日
	ClockIn       time.Time
	ClockOut      *time.Time
	WorkedSeconds int64 // 裁剪到窗口后的秒数
	Completed     bool
}

// Report 区间聚合结果
type Report struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Totals      []EmployeeTotals
	Shifts      []ShiftRow
	ServerNow   time.Time
}

// EmployeeHours 仅统计已结束班次的员工工时
type EmployeeHours struct {
	EmployeeID   string
	EmployeeName string
	Total        time.Duration
	Formatted    string
}

// ComputeReport 计算窗口 [start, end) 内的员工工时汇总与明细
//
// 进行中的班次以 now 作为结束时间，只计入 Live。
// 裁剪后长度为 0 的班次仍输出明细行（WorkedSeconds=0），不增加任何时长。
// 区间集合由调用方按 Overlaps 条件查询得到，这里不再二次过滤。
func ComputeReport(intervals []Interval, start, end, now time.Time) Report {
	totals := make(map[string]*EmployeeTotals)
	rows := make([]ShiftRow, 0, len(intervals))

	for _, iv := range intervals {
		if !iv.valid() {
			continue
		}

		effectiveEnd := now
		if iv.ClockOut != nil {
			effectiveEnd = *iv.ClockOut
		}
		worked := Clip(iv.ClockIn, effectiveEnd, start, end)

		t, ok := totals[iv.EmployeeID]
		if !ok {
			t = &EmployeeTotals{EmployeeID: iv.EmployeeID, EmployeeName: iv.EmployeeName}
			totals[iv.EmployeeID] = t
		}
		t.Live += worked
		if !iv.IsOpen() {
			t.Completed += worked
		}

		row := ShiftRow{
			ShiftID:       iv.ShiftID,
			EmployeeID:    iv.EmployeeID,
			EmployeeName:  iv.EmployeeName,
			Day:           DayStart(iv.ClockIn),
			ClockIn:       iv.ClockIn.UTC(),
			WorkedSeconds: Seconds(worked),
			Completed:     !iv.IsOpen(),
		}
		if iv.ClockOut != nil {
			out := iv.ClockOut.UTC()
			row.ClockOut = &out
		}
		rows = append(rows, row)
	}

	fold := cases.Fold()

	out := make([]EmployeeTotals, 0, len(totals))
	for _, t := range totals {
		t.CompletedFormatted = FormatHM(t.Completed)
		t.LiveFormatted = FormatHM(t.Live)
		out = append(out, *t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := fold.String(out[i].EmployeeName), fold.String(out[j].EmployeeName)
		if a != b {
			return a < b
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].ClockIn.Equal(rows[j].ClockIn) {
			return rows[i].ClockIn.After(rows[j].ClockIn)
		}
		a, b := fold.String(rows[i].EmployeeName), fold.String(rows[j].EmployeeName)
		if a != b {
			return a < b
		}
		return rows[i].ShiftID < rows[j].ShiftID
	})

	return Report{
		WindowStart: start,
		WindowEnd:   end,
		Totals:      out,
		Shifts:      rows,
		ServerNow:   now,
	}
}

// ComputeCompletedOnly 只统计已结束班次的工时，结果与当前时间无关
// 进行中班次与裁剪后长度为 0 的班次直接跳过，不会出现在结果中
func ComputeCompletedOnly(intervals []Interval, start, end time.Time) []EmployeeHours {
	totals := make(map[string]*EmployeeHours)

	for _, iv := range intervals {
		if !iv.valid() || iv.IsOpen() {
			continue
		}
		worked := Clip(iv.ClockIn, *iv.ClockOut, start, end)
		if worked <= 0 {
			continue
		}
		h, ok := totals[iv.EmployeeID]
		if !ok {
			h = &EmployeeHours{EmployeeID: iv.EmployeeID, EmployeeName: iv.EmployeeName}
			totals[iv.EmployeeID] = h
		}
		h.Total += worked
	}

	fold := cases.Fold()
	out := make([]EmployeeHours, 0, len(totals))
	for _, h := range totals {
		h.Formatted = FormatHM(h.Total)
		out = append(out, *h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := fold.String(out[i].EmployeeName), fold.String(out[j].EmployeeName)
		if a != b {
			return a < b
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}
