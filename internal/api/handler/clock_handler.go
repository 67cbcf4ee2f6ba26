package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/service"
	"shift-clock/backend/pkg/response"
)

// ClockHandler 门店打卡终端 HTTP 处理器，无需登录，以终端 Cookie 识别门店
type ClockHandler struct {
	clockSvc service.ClockService
	cfg      *config.ClockConfig
}

// NewClockHandler 创建 ClockHandler
func NewClockHandler(clockSvc service.ClockService, cfg *config.ClockConfig) *ClockHandler {
	return &ClockHandler{clockSvc: clockSvc, cfg: cfg}
}

// Status 终端首页状态
// GET /api/v1/clock/status
func (h *ClockHandler) Status(c *gin.Context) {
	device := ensureDeviceCookie(c, h.cfg)

	status, err := h.clockSvc.Status(c.Request.Context(), device)
	if err != nil {
		h.handleClockError(c, err, device)
		return
	}

	response.OK(c, status)
}

// ClockIn 上班打卡
// POST /api/v1/clock/in
func (h *ClockHandler) ClockIn(c *gin.Context) {
	var req dto.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	device := ensureDeviceCookie(c, h.cfg)
	result, err := h.clockSvc.ClockIn(c.Request.Context(), device, &req)
	if err != nil {
		h.handleClockError(c, err, device)
		return
	}

	response.OK(c, result)
}

// ClockOut 下班打卡
// POST /api/v1/clock/out
func (h *ClockHandler) ClockOut(c *gin.Context) {
	var req dto.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	device := ensureDeviceCookie(c, h.cfg)
	result, err := h.clockSvc.ClockOut(c.Request.Context(), device, &req)
	if err != nil {
		h.handleClockError(c, err, device)
		return
	}

	response.OK(c, result)
}

// handleClockError 统一处理打卡终端业务错误
// 未登记终端在 details 中返回终端标识，便于管理员登记
func (h *ClockHandler) handleClockError(c *gin.Context, err error, device string) {
	switch {
	case errors.Is(err, service.ErrDeviceNotRegistered):
		response.ErrorWithDetails(c, http.StatusForbidden, 22001, err.Error(), device)
	case errors.Is(err, lockout.ErrLocked):
		response.TooManyRequests(c, 21001, "失败次数过多，请稍后再试")
	case errors.Is(err, service.ErrPINRequired):
		response.BadRequest(c, 21003, "请输入 PIN")
	case errors.Is(err, service.ErrInvalidPIN):
		response.Unauthorized(c, 21002, "PIN 错误")
	default:
		handleShiftError(c, err)
	}
}
