package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/internal/timecalc"
	"shift-clock/backend/pkg/clock"
)

// ── 报表模块业务错误 ──

var (
	ErrInvalidDate = errors.New("日期格式错误，应为 YYYY-MM-DD")
)

// 区间报表与班次列表的缺省天数
const defaultRangeDays = 7

// ReportService 工时报表业务接口
//
// 所有窗口按 UTC 计算，周从周一开始。
type ReportService interface {
	Weekly(ctx context.Context, req *dto.WeeklyReportRequest) (*dto.ReportResponse, error)
	Range(ctx context.Context, req *dto.RangeReportRequest) (*dto.ReportResponse, error)
	// WeeklyHours 只统计已结束班次
	WeeklyHours(ctx context.Context, req *dto.WeeklyReportRequest) (*dto.WeeklyHoursResponse, error)
	// Compute 计算任意 [start, end) 窗口的报表，供导出复用
	Compute(ctx context.Context, start, end time.Time) (*timecalc.Report, error)
}

type reportService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ReportService {
	if clk == nil {
		clk = clock.System{}
	}
	return &reportService{repo: repo, clock: clk, logger: logger}
}

// ────────────────────── Weekly ──────────────────────

func (s *reportService) Weekly(ctx context.Context, req *dto.WeeklyReportRequest) (*dto.ReportResponse, error) {
	start, end, err := resolveWeek(req.WeekStart, s.clock.Now())
	if err != nil {
		return nil, err
	}
	report, err := s.Compute(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return toReportResponse(report), nil
}

// ────────────────────── Range ──────────────────────

func (s *reportService) Range(ctx context.Context, req *dto.RangeReportRequest) (*dto.ReportResponse, error) {
	start, end, err := resolveDateRange(req.From, req.To, s.clock.Now())
	if err != nil {
		return nil, err
	}
	report, err := s.Compute(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return toReportResponse(report), nil
}

// ────────────────────── WeeklyHours ──────────────────────

func (s *reportService) WeeklyHours(ctx context.Context, req *dto.WeeklyReportRequest) (*dto.WeeklyHoursResponse, error) {
	start, end, err := resolveWeek(req.WeekStart, s.clock.Now())
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.ListOverlapping(ctx, start, end)
	if err != nil {
		s.logger.Error("查询周班次失败", zap.Time("start", start), zap.Error(err))
		return nil, err
	}

	hours := timecalc.ComputeCompletedOnly(toIntervals(shifts), start, end)
	resp := &dto.WeeklyHoursResponse{
		WeekStart: start.Format(dto.DateLayout),
		WeekEnd:   end.AddDate(0, 0, -1).Format(dto.DateLayout),
		Employees: make([]dto.EmployeeHoursResponse, 0, len(hours)),
	}
	for _, h := range hours {
		resp.Employees = append(resp.Employees, dto.EmployeeHoursResponse{
			EmployeeID:   h.EmployeeID,
			EmployeeName: h.EmployeeName,
			TotalSeconds: timecalc.Seconds(h.Total),
			Total:        h.Formatted,
		})
	}
	return resp, nil
}

// ────────────────────── Compute ──────────────────────

func (s *reportService) Compute(ctx context.Context, start, end time.Time) (*timecalc.Report, error) {
	shifts, err := s.repo.Shift.ListOverlapping(ctx, start, end)
	if err != nil {
		s.logger.Error("查询报表班次失败",
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err),
		)
		return nil, err
	}

	report := timecalc.ComputeReport(toIntervals(shifts), start, end, s.clock.Now())
	return &report, nil
}

// ── 辅助函数 ──

func toIntervals(shifts []model.Shift) []timecalc.Interval {
	out := make([]timecalc.Interval, 0, len(shifts))
	for _, sh := range shifts {
		iv := timecalc.Interval{
			ShiftID:    sh.ShiftID,
			EmployeeID: sh.EmployeeID,
			ClockIn:    sh.ClockInTime,
			ClockOut:   sh.ClockOutTime,
		}
		if sh.Employee != nil {
			iv.EmployeeName = sh.Employee.Name
		}
		out = append(out, iv)
	}
	return out
}

func toReportResponse(r *timecalc.Report) *dto.ReportResponse {
	resp := &dto.ReportResponse{
		From:      r.WindowStart.Format(dto.DateLayout),
		To:        r.WindowEnd.AddDate(0, 0, -1).Format(dto.DateLayout),
		ServerNow: formatTime(r.ServerNow),
		Totals:    make([]dto.EmployeeTotalsResponse, 0, len(r.Totals)),
		Shifts:    make([]dto.ReportShiftRow, 0, len(r.Shifts)),
	}
	for _, t := range r.Totals {
		resp.Totals = append(resp.Totals, dto.EmployeeTotalsResponse{
			EmployeeID:       t.EmployeeID,
			EmployeeName:     t.EmployeeName,
			CompletedSeconds: timecalc.Seconds(t.Completed),
			LiveSeconds:      timecalc.Seconds(t.Live),
			Completed:        t.CompletedFormatted,
			Live:             t.LiveFormatted,
		})
	}
	for _, row := range r.Shifts {
		resp.Shifts = append(resp.Shifts, dto.ReportShiftRow{
			ShiftID:       row.ShiftID,
			EmployeeID:    row.EmployeeID,
			EmployeeName:  row.EmployeeName,
			Day:           row.Day.Format(dto.DateLayout),
			ClockInTime:   formatTime(row.ClockIn),
			ClockOutTime:  formatTimePtr(row.ClockOut),
			WorkedSeconds: row.WorkedSeconds,
			Worked:        timecalc.FormatHM(time.Duration(row.WorkedSeconds) * time.Second),
			Completed:     row.Completed,
		})
	}
	return resp
}

// resolveWeek 解析周报参数，weekStart 即窗口首日，为空时取 now 所在周的周日
func resolveWeek(weekStart string, now time.Time) (time.Time, time.Time, error) {
	ref := timecalc.WeekStart(now)
	if v := strings.TrimSpace(weekStart); v != "" {
		d, err := time.Parse(dto.DateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		ref = d
	}
	start, end := timecalc.WeekWindow(ref)
	return start, end, nil
}

// resolveDateRange 解析闭区间日期参数，返回半开窗口 [from 00:00, to+1 00:00)
//
// to 缺省为今天，from 缺省为 to 往前共 7 天；from 晚于 to 时交换。
func resolveDateRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	var (
		fromDate, toDate time.Time
		err              error
	)

	toDate = timecalc.DayStart(now)
	if v := strings.TrimSpace(to); v != "" {
		if toDate, err = time.Parse(dto.DateLayout, v); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
	}

	fromDate, _ = timecalc.LastDays(toDate, defaultRangeDays)
	if v := strings.TrimSpace(from); v != "" {
		if fromDate, err = time.Parse(dto.DateLayout, v); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
	}

	start, end := timecalc.DateRangeWindow(fromDate, toDate)
	return start, end, nil
}
