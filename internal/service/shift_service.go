package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-clock/backend/internal/audit"
	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/notify"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/internal/timecalc"
	"shift-clock/backend/pkg/clock"
	pkgerrors "shift-clock/backend/pkg/errors"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftAlreadyOpen   = errors.New("该员工已有进行中的班次")
	ErrNoOpenShift        = errors.New("当前没有进行中的班次")
	ErrLocationMismatch   = errors.New("请在上班打卡的终端下班打卡")
	ErrInvalidShiftOrder  = errors.New("下班时间必须晚于上班时间")
	ErrEditReasonRequired = errors.New("修改班次必须填写原因")
	ErrShiftNotFound      = errors.New("班次不存在")
)

// 审计列表默认条数
const defaultAuditLimit = 200

// ClockInCommand 上班打卡指令，Now 为零值时取服务时钟
type ClockInCommand struct {
	EmployeeID string
	DeviceID   string
	LocationID string
	Now        time.Time
}

// ClockInResult 上班打卡结果
type ClockInResult struct {
	EmployeeName string
	ClockInTime  time.Time
	Shift        *model.Shift
}

// ClockOutCommand 下班打卡指令
type ClockOutCommand struct {
	EmployeeID string
	DeviceID   string
	Now        time.Time
}

// ClockOutResult 下班打卡结果
type ClockOutResult struct {
	EmployeeName string
	ShiftID      string
	ClockInTime  time.Time
	ClockOutTime time.Time
}

// EditShiftCommand 管理员修改班次指令，ClockOut 为 nil 表示重新打开
type EditShiftCommand struct {
	ClockIn  time.Time
	ClockOut *time.Time
	Reason   string
	EditorID string
	Now      time.Time
}

// ShiftService 班次生命周期与管理端查询
//
// 状态变更（上班、下班、修改）都在单个事务内完成，事件在事务提交后才发布。
type ShiftService interface {
	ClockIn(ctx context.Context, cmd ClockInCommand) (*ClockInResult, error)
	ClockOut(ctx context.Context, cmd ClockOutCommand) (*ClockOutResult, error)
	EditShift(ctx context.Context, shiftID string, cmd EditShiftCommand) (*model.Shift, []model.ShiftAudit, error)

	List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error)
	Edit(ctx context.Context, id string, req *dto.EditShiftRequest, editorID string) (*dto.EditShiftResponse, error)
	ListAudits(ctx context.Context, shiftID string) ([]dto.ShiftAuditResponse, error)
	ListLatestAudits(ctx context.Context, limit int) ([]dto.ShiftAuditResponse, error)
	OpenShifts(ctx context.Context) (*dto.OpenShiftsSnapshot, error)
}

type shiftService struct {
	repo      *repository.Repository
	publisher notify.Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

// NewShiftService 创建 ShiftService 实例，publisher 为 nil 时不发布事件
func NewShiftService(repo *repository.Repository, publisher notify.Publisher, clk clock.Clock, logger *zap.Logger) ShiftService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &shiftService{repo: repo, publisher: publisher, clock: clk, logger: logger}
}

// ────────────────────── ClockIn ──────────────────────

func (s *shiftService) ClockIn(ctx context.Context, cmd ClockInCommand) (*ClockInResult, error) {
	now := s.now(cmd.Now)

	var result *ClockInResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		emp, err := tx.Employee.GetByID(ctx, cmd.EmployeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmployeeNotFound
			}
			return err
		}

		// 1. 应用层检查（行锁），并发情况下由部分唯一索引兜底
		if _, err := tx.Shift.FindOpenByEmployee(ctx, emp.EmployeeID); err == nil {
			return ErrShiftAlreadyOpen
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 2. 新建进行中班次
		shift := &model.Shift{
			EmployeeID:  emp.EmployeeID,
			LocationID:  cmd.LocationID,
			DeviceID:    cmd.DeviceID,
			ClockInTime: now,
		}
		if err := tx.Shift.Create(ctx, shift); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrShiftAlreadyOpen
			}
			return err
		}

		result = &ClockInResult{EmployeeName: emp.Name, ClockInTime: now, Shift: shift}
		return nil
	})
	if err != nil {
		if !isShiftBusinessError(err) {
			s.logger.Error("上班打卡失败", zap.String("employee_id", cmd.EmployeeID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("上班打卡",
		zap.String("employee_id", cmd.EmployeeID),
		zap.String("shift_id", result.Shift.ShiftID),
		zap.String("location_id", cmd.LocationID),
	)
	s.dispatch(ctx, notify.Event{
		Type:       notify.EventClockIn,
		LocationID: cmd.LocationID,
		ShiftID:    result.Shift.ShiftID,
		At:         now,
	})
	return result, nil
}

// ────────────────────── ClockOut ──────────────────────

func (s *shiftService) ClockOut(ctx context.Context, cmd ClockOutCommand) (*ClockOutResult, error) {
	now := s.now(cmd.Now)

	var (
		result     *ClockOutResult
		locationID string
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		emp, err := tx.Employee.GetByID(ctx, cmd.EmployeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmployeeNotFound
			}
			return err
		}

		open, err := tx.Shift.FindOpenByEmployee(ctx, emp.EmployeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoOpenShift
			}
			return err
		}

		// 必须在上班打卡的同一终端下班
		if open.DeviceID != cmd.DeviceID {
			return ErrLocationMismatch
		}
		if !now.After(open.ClockInTime) {
			return ErrInvalidShiftOrder
		}

		if err := tx.Shift.Close(ctx, open, now); err != nil {
			return err
		}

		locationID = open.LocationID
		result = &ClockOutResult{
			EmployeeName: emp.Name,
			ShiftID:      open.ShiftID,
			ClockInTime:  open.ClockInTime.UTC(),
			ClockOutTime: now,
		}
		return nil
	})
	if err != nil {
		if !isShiftBusinessError(err) {
			s.logger.Error("下班打卡失败", zap.String("employee_id", cmd.EmployeeID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("下班打卡",
		zap.String("employee_id", cmd.EmployeeID),
		zap.String("shift_id", result.ShiftID),
		zap.Duration("worked", result.ClockOutTime.Sub(result.ClockInTime)),
	)
	s.dispatch(ctx, notify.Event{
		Type:       notify.EventClockOut,
		LocationID: locationID,
		ShiftID:    result.ShiftID,
		At:         now,
	})
	return result, nil
}

// ────────────────────── EditShift ──────────────────────

func (s *shiftService) EditShift(ctx context.Context, shiftID string, cmd EditShiftCommand) (*model.Shift, []model.ShiftAudit, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return nil, nil, ErrEditReasonRequired
	}
	if cmd.ClockIn.IsZero() {
		return nil, nil, ErrInvalidShiftOrder
	}
	clockIn := cmd.ClockIn.UTC()
	var clockOut *time.Time
	if cmd.ClockOut != nil {
		out := cmd.ClockOut.UTC()
		if !out.After(clockIn) {
			return nil, nil, ErrInvalidShiftOrder
		}
		clockOut = &out
	}
	now := s.now(cmd.Now)

	var (
		shift  *model.Shift
		audits []model.ShiftAudit
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		shift, err = tx.Shift.GetByID(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return err
		}

		// 重新打开时不得与该员工其他进行中班次冲突
		if clockOut == nil {
			open, err := tx.Shift.FindOpenByEmployee(ctx, shift.EmployeeID)
			if err == nil && open.ShiftID != shift.ShiftID {
				return ErrShiftAlreadyOpen
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		before := audit.SnapshotOf(shift)

		editor := cmd.EditorID
		shift.ClockInTime = clockIn
		shift.ClockOutTime = clockOut
		shift.Edited = true
		shift.EditReason = &reason
		shift.EditedBy = &editor

		if err := tx.Shift.Update(ctx, shift); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrShiftAlreadyOpen
			}
			return err
		}

		audits = audit.Diff(shift.ShiftID, editor, now, before, audit.SnapshotOf(shift))
		if len(audits) == 0 {
			return nil
		}
		return tx.ShiftAudit.BatchCreate(ctx, audits)
	})
	if err != nil {
		if !isShiftBusinessError(err) {
			s.logger.Error("修改班次失败", zap.String("shift_id", shiftID), zap.Error(err))
		}
		return nil, nil, err
	}

	s.logger.Info("班次已修改",
		zap.String("shift_id", shiftID),
		zap.String("editor_id", cmd.EditorID),
		zap.Int("changed_fields", len(audits)),
	)
	s.dispatch(ctx, notify.Event{
		Type:       notify.EventShiftEdited,
		LocationID: shift.LocationID,
		ShiftID:    shift.ShiftID,
		At:         now,
	})
	return shift, audits, nil
}

// ────────────────────── List ──────────────────────

func (s *shiftService) List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	start, end, err := resolveDateRange(req.From, req.To, s.clock.Now())
	if err != nil {
		return nil, 0, err
	}

	shifts, total, err := s.repo.Shift.ListByClockInRange(ctx, start, end, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, 0, err
	}

	now := s.clock.Now()
	list := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		list = append(list, toShiftResponse(&shifts[i], now))
	}
	return list, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *shiftService) GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toShiftResponse(shift, s.clock.Now())
	return &resp, nil
}

// ────────────────────── Edit ──────────────────────

func (s *shiftService) Edit(ctx context.Context, id string, req *dto.EditShiftRequest, editorID string) (*dto.EditShiftResponse, error) {
	_, audits, err := s.EditShift(ctx, id, EditShiftCommand{
		ClockIn:  req.ClockInTime,
		ClockOut: req.ClockOutTime,
		Reason:   req.Reason,
		EditorID: editorID,
	})
	if err != nil {
		return nil, err
	}

	// 重新读取带关联的班次用于展示
	detail, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.EditShiftResponse{
		Shift:  *detail,
		Audits: make([]dto.ShiftAuditResponse, 0, len(audits)),
	}
	for i := range audits {
		resp.Audits = append(resp.Audits, toAuditResponse(&audits[i]))
	}
	return resp, nil
}

// ────────────────────── Audits ──────────────────────

func (s *shiftService) ListAudits(ctx context.Context, shiftID string) ([]dto.ShiftAuditResponse, error) {
	if _, err := s.repo.Shift.GetByIDWithDetails(ctx, shiftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", shiftID), zap.Error(err))
		return nil, err
	}

	audits, err := s.repo.ShiftAudit.ListByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("查询班次审计失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.ShiftAuditResponse, 0, len(audits))
	for i := range audits {
		list = append(list, toAuditResponse(&audits[i]))
	}
	return list, nil
}

func (s *shiftService) ListLatestAudits(ctx context.Context, limit int) ([]dto.ShiftAuditResponse, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	audits, err := s.repo.ShiftAudit.ListLatest(ctx, limit)
	if err != nil {
		s.logger.Error("查询最近审计失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.ShiftAuditResponse, 0, len(audits))
	for i := range audits {
		list = append(list, toAuditResponse(&audits[i]))
	}
	return list, nil
}

// ────────────────────── OpenShifts ──────────────────────

// OpenShifts 按门店列出当前进行中的班次，停用门店也包含在内
func (s *shiftService) OpenShifts(ctx context.Context) (*dto.OpenShiftsSnapshot, error) {
	locations, err := s.repo.Location.List(ctx, true)
	if err != nil {
		s.logger.Error("列出门店失败", zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	snapshot := &dto.OpenShiftsSnapshot{
		ServerTime: now.Format(dto.TimeLayout),
		Locations:  make([]dto.LocationOpenShifts, 0, len(locations)),
	}
	for _, loc := range locations {
		shifts, err := s.repo.Shift.ListOpenByLocation(ctx, loc.LocationID)
		if err != nil {
			s.logger.Error("查询门店进行中班次失败", zap.String("location_id", loc.LocationID), zap.Error(err))
			return nil, err
		}
		snapshot.Locations = append(snapshot.Locations, dto.LocationOpenShifts{
			LocationID:   loc.LocationID,
			LocationName: loc.Name,
			Shifts:       toOpenShiftResponses(shifts, now),
		})
	}
	return snapshot, nil
}

// ── 辅助函数 ──

func (s *shiftService) now(t time.Time) time.Time {
	if t.IsZero() {
		return s.clock.Now().UTC()
	}
	return t.UTC()
}

// dispatch 事务提交后发布事件，发布失败由 Publisher 自行记录
func (s *shiftService) dispatch(ctx context.Context, e notify.Event) {
	s.publisher.Publish(context.WithoutCancel(ctx), e)
}

func isShiftBusinessError(err error) bool {
	switch {
	case errors.Is(err, ErrShiftAlreadyOpen),
		errors.Is(err, ErrNoOpenShift),
		errors.Is(err, ErrLocationMismatch),
		errors.Is(err, ErrInvalidShiftOrder),
		errors.Is(err, ErrEditReasonRequired),
		errors.Is(err, ErrShiftNotFound),
		errors.Is(err, ErrEmployeeNotFound),
		pkgerrors.IsConflict(err):
		return true
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(dto.TimeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toShiftResponse(shift *model.Shift, now time.Time) dto.ShiftResponse {
	end := now
	if shift.ClockOutTime != nil {
		end = *shift.ClockOutTime
	}
	worked := end.Sub(shift.ClockInTime)

	resp := dto.ShiftResponse{
		ID:            shift.ShiftID,
		EmployeeID:    shift.EmployeeID,
		LocationID:    shift.LocationID,
		DeviceID:      shift.DeviceID,
		ClockInTime:   formatTime(shift.ClockInTime),
		ClockOutTime:  formatTimePtr(shift.ClockOutTime),
		Open:          shift.IsOpen(),
		WorkedSeconds: timecalc.Seconds(worked),
		Worked:        timecalc.FormatHM(worked),
		Edited:        shift.Edited,
		EditReason:    shift.EditReason,
		EditedBy:      shift.EditedBy,
		Version:       shift.Version,
	}
	if shift.Employee != nil {
		resp.EmployeeName = shift.Employee.Name
	}
	if shift.Location != nil {
		resp.LocationName = shift.Location.Name
	}
	if shift.Device != nil && shift.Device.ComputerName != nil {
		resp.ComputerName = *shift.Device.ComputerName
	}
	return resp
}

func toAuditResponse(a *model.ShiftAudit) dto.ShiftAuditResponse {
	resp := dto.ShiftAuditResponse{
		ID:        a.AuditID,
		ShiftID:   a.ShiftID,
		EditedBy:  a.EditedBy,
		EditedAt:  formatTime(a.EditedAt),
		FieldName: a.FieldName,
		OldValue:  a.OldValue,
		NewValue:  a.NewValue,
	}
	if a.Editor != nil {
		resp.EditorName = a.Editor.Name
	}
	if a.Shift != nil {
		if a.Shift.Employee != nil {
			resp.EmployeeName = a.Shift.Employee.Name
		}
		if a.Shift.Location != nil {
			resp.LocationName = a.Shift.Location.Name
		}
	}
	return resp
}

func toOpenShiftResponses(shifts []model.Shift, now time.Time) []dto.OpenShiftResponse {
	out := make([]dto.OpenShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		item := dto.OpenShiftResponse{
			ShiftID:     sh.ShiftID,
			EmployeeID:  sh.EmployeeID,
			ClockInTime: formatTime(sh.ClockInTime),
			RunningTime: timecalc.FormatHMS(now.Sub(sh.ClockInTime)),
		}
		if sh.Employee != nil {
			item.EmployeeName = sh.Employee.Name
		}
		out = append(out, item)
	}
	return out
}
