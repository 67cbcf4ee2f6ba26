package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/internal/timecalc"
	"shift-clock/backend/pkg/clock"
)

// ContentTypeICS iCalendar 文件 Content-Type
const ContentTypeICS = "text/calendar; charset=utf-8"

const icsProductID = "-//shift-clock//shifts//ZH"

// CalendarService 员工班次日历导出
type CalendarService interface {
	// ExportEmployee 导出员工在 [from, to] 日期内上班的班次，进行中班次以当前时间结束
	ExportEmployee(ctx context.Context, employeeID, from, to string) (*ExportFile, error)
}

type calendarService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) CalendarService {
	if clk == nil {
		clk = clock.System{}
	}
	return &calendarService{repo: repo, clock: clk, logger: logger}
}

func (s *calendarService) ExportEmployee(ctx context.Context, employeeID, from, to string) (*ExportFile, error) {
	now := s.clock.Now()
	start, end, err := resolveDateRange(from, to, now)
	if err != nil {
		return nil, err
	}

	emp, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("id", employeeID), zap.Error(err))
		return nil, err
	}

	shifts, err := s.repo.Shift.ListByEmployeeClockInRange(ctx, emp.EmployeeID, start, end)
	if err != nil {
		s.logger.Error("查询员工班次失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	cal := buildShiftCalendar(emp, shifts, now)

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("shifts-%s-%s-to-%s.ics",
		emp.EmployeeID,
		start.Format(dto.DateLayout),
		end.AddDate(0, 0, -1).Format(dto.DateLayout),
	)
	return &ExportFile{Buffer: buf, Filename: filename, ContentType: ContentTypeICS}, nil
}

// buildShiftCalendar 每个班次生成一个 VEVENT，UID 使用班次 ID 保证重复导入幂等
func buildShiftCalendar(emp *model.Employee, shifts []model.Shift, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(emp.Name + " 班次")

	for _, sh := range shifts {
		end := now
		status := "进行中"
		if sh.ClockOutTime != nil {
			end = *sh.ClockOutTime
			status = "已完成"
		}

		event := cal.AddEvent(sh.ShiftID + "@shift-clock")
		event.SetDtStampTime(now)
		event.SetStartAt(sh.ClockInTime.UTC())
		event.SetEndAt(end.UTC())
		event.SetSummary(fmt.Sprintf("%s 上班 (%s)", emp.Name, status))
		if sh.Location != nil {
			event.SetLocation(sh.Location.Name)
		}

		desc := fmt.Sprintf("工时 %s", timecalc.FormatHM(end.Sub(sh.ClockInTime)))
		if sh.Edited && sh.EditReason != nil {
			desc += "\n已人工修改: " + *sh.EditReason
		}
		event.SetDescription(desc)
	}
	return cal
}
