package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/service"
	pkgerrors "shift-clock/backend/pkg/errors"
	"shift-clock/backend/pkg/response"
)

// ShiftHandler 班次管理 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// ListShifts 按上班日期分页查询班次
// GET /api/v1/shifts?from=YYYY-MM-DD&to=YYYY-MM-DD&page=1&page_size=50
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shiftSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetShift 班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		handleShiftError(c, service.ErrShiftNotFound)
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// EditShift 修改班次时间，必须填写原因
// PUT /api/v1/shifts/:id
func (h *ShiftHandler) EditShift(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		handleShiftError(c, service.ErrShiftNotFound)
		return
	}

	var req dto.EditShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	editorID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Edit(c.Request.Context(), id, &req, editorID)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

// ListShiftAudits 单个班次的修改记录
// GET /api/v1/shifts/:id/audits
func (h *ShiftHandler) ListShiftAudits(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		handleShiftError(c, service.ErrShiftNotFound)
		return
	}

	audits, err := h.shiftSvc.ListAudits(c.Request.Context(), id)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": audits})
}

// ListAudits 最近的修改记录
// GET /api/v1/audits?limit=200
func (h *ShiftHandler) ListAudits(c *gin.Context) {
	var req dto.AuditListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	audits, err := h.shiftSvc.ListLatestAudits(c.Request.Context(), req.Limit)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": audits})
}

// OpenShifts 各门店当前进行中的班次
// GET /api/v1/admin/open-shifts
func (h *ShiftHandler) OpenShifts(c *gin.Context) {
	snapshot, err := h.shiftSvc.OpenShifts(c.Request.Context())
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, snapshot)
}

// handleShiftError 统一处理班次模块业务错误，打卡终端复用
func handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftAlreadyOpen):
		response.Conflict(c, 20001, "该员工已有进行中的班次")
	case errors.Is(err, service.ErrNoOpenShift):
		response.Conflict(c, 20002, "当前没有进行中的班次")
	case errors.Is(err, service.ErrLocationMismatch):
		response.Conflict(c, 20003, "请在上班打卡的终端下班打卡")
	case errors.Is(err, service.ErrInvalidShiftOrder):
		response.BadRequest(c, 20004, "下班时间必须晚于上班时间")
	case errors.Is(err, service.ErrEditReasonRequired):
		response.BadRequest(c, 20005, "修改班次必须填写原因")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 20006, "班次不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20007, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 23001, "员工不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10001, "日期格式错误，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
