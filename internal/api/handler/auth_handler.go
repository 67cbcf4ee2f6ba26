package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/service"
	"shift-clock/backend/pkg/response"
)

// AuthHandler 管理端认证 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 管理员 PIN 登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), c.ClientIP(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// GetCurrentUser 当前登录的管理员
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), employeeID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, me)
}

// Logout 注销当前 token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, expiresAt := tokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, expiresAt); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lockout.ErrLocked):
		response.TooManyRequests(c, 21001, "失败次数过多，请稍后再试")
	case errors.Is(err, service.ErrPINRequired):
		response.BadRequest(c, 21003, "请输入 PIN")
	case errors.Is(err, service.ErrInvalidPIN):
		response.Unauthorized(c, 21002, "PIN 错误")
	case errors.Is(err, service.ErrNotAdmin):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.Unauthorized(c, 10002, "未认证")
	default:
		response.InternalError(c)
	}
}
