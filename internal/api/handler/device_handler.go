package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/service"
	"shift-clock/backend/pkg/response"
)

// DeviceHandler 打卡终端管理 HTTP 处理器
type DeviceHandler struct {
	deviceSvc service.DeviceService
	cfg       *config.ClockConfig
}

// NewDeviceHandler 创建 DeviceHandler
func NewDeviceHandler(deviceSvc service.DeviceService, cfg *config.ClockConfig) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc, cfg: cfg}
}

// ListDevices 终端列表
// GET /api/v1/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": devices})
}

// RegisterDevice 将管理员当前所用浏览器登记为门店终端
// POST /api/v1/devices/register
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	device := ensureDeviceCookie(c, h.cfg)
	result, err := h.deviceSvc.Register(c.Request.Context(), device, &req)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}

	response.OK(c, result)
}

// ToggleDevice 启用 / 停用终端
// PUT /api/v1/devices/:id/toggle
func (h *DeviceHandler) ToggleDevice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.handleDeviceError(c, service.ErrDeviceNotFound)
		return
	}

	result, err := h.deviceSvc.ToggleActive(c.Request.Context(), id)
	if err != nil {
		h.handleDeviceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleDeviceError 统一处理终端模块业务错误
func (h *DeviceHandler) handleDeviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeviceNotFound):
		response.NotFound(c, 22002, "终端不存在")
	case errors.Is(err, service.ErrLocationNotFound):
		response.NotFound(c, 16001, "门店不存在")
	default:
		response.InternalError(c)
	}
}
