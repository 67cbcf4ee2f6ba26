package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shift-clock/backend/config"
	"shift-clock/backend/pkg/response"
)

// 上下文键，由 middleware.JWTAuth 写入
const (
	ctxEmployeeID = "employee_id"
	ctxRole       = "role"
	ctxTokenJTI   = "token_jti"
	ctxTokenExp   = "token_exp"
)

// MustGetEmployeeID 从 Gin 上下文中安全提取 employee_id。
// 如果 JWT 中间件未正确注入 employee_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetEmployeeID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxEmployeeID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxRole)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// pathID 读取路径参数 id，非 UUID 时视为资源不存在
func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// tokenInfo 提取当前 token 的 jti 与过期时间，缺失时返回零值
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(ctxTokenJTI)
	exp, _ := c.Get(ctxTokenExp)
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}

// ── 终端 Cookie ──

// deviceUUID 读取终端 Cookie，不存在时为空串
func deviceUUID(c *gin.Context, cfg *config.ClockConfig) string {
	v, err := c.Cookie(cfg.DeviceCookieName)
	if err != nil {
		return ""
	}
	v = strings.TrimSpace(v)
	if _, err := uuid.Parse(v); err != nil {
		return ""
	}
	return v
}

// ensureDeviceCookie 读取终端 Cookie，不存在或无效时生成新 UUID 并写回浏览器
// 新生成的标识在管理员登记前不对应任何终端
func ensureDeviceCookie(c *gin.Context, cfg *config.ClockConfig) string {
	if v := deviceUUID(c, cfg); v != "" {
		return v
	}

	v := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.DeviceCookieName, v, int(cfg.DeviceCookieMaxAge.Seconds()), "/", "", cfg.CookieSecure, true)
	return v
}
