package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/api/handler"
	"shift-clock/backend/internal/api/middleware"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/pkg/jwt"
	"shift-clock/backend/pkg/redis"
)

// 请求体上限与限流参数
const (
	maxBodyBytes     = 1 << 20
	loginRateLimit   = 20
	clockRateLimit   = 60
	rateLimitWindow  = time.Minute
	healthPingBudget = 2 * time.Second
)

// Pinger 健康检查依赖，由 repository.Repository 实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db Pinger, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingBudget)
		defer cancel()
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				logger.Warn("健康检查：数据库不可用", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 打卡终端（Cookie 识别终端，无需登录），上下班共用一个计数
		clockLimit := middleware.RateLimit(rdb, "clock", clockRateLimit, rateLimitWindow)
		clock := v1.Group("/clock")
		{
			clock.GET("/status", h.Clock.Status)
			clock.POST("/in", clockLimit, h.Clock.ClockIn)
			clock.POST("/out", clockLimit, h.Clock.ClockOut)
		}

		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(rdb, "login", loginRateLimit, rateLimitWindow), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.POST("/auth/logout", h.Auth.Logout)
		}

		// 管理端（仅超级管理员）
		admin := authorized.Group("")
		admin.Use(middleware.RoleAuth(model.RoleSuperAdmin))
		{
			// 员工模块
			employees := admin.Group("/employees")
			{
				employees.GET("", h.Employee.ListEmployees)
				employees.GET("/:id", h.Employee.GetEmployee)
				employees.POST("", h.Employee.CreateEmployee)
				employees.PUT("/:id", h.Employee.UpdateEmployee)
				employees.POST("/:id/reset-pin", h.Employee.ResetPIN)
				employees.GET("/:id/shifts.ics", h.Employee.ExportCalendar)
			}

			// 门店模块
			locations := admin.Group("/locations")
			{
				locations.GET("", h.Location.ListLocations)
				locations.GET("/:id", h.Location.GetLocation)
				locations.POST("", h.Location.CreateLocation)
				locations.PUT("/:id", h.Location.UpdateLocation)
				locations.DELETE("/:id", h.Location.DeleteLocation)
			}

			// 终端模块
			devices := admin.Group("/devices")
			{
				devices.GET("", h.Device.ListDevices)
				devices.POST("/register", h.Device.RegisterDevice)
				devices.PUT("/:id/toggle", h.Device.ToggleDevice)
			}

			// 班次模块
			shifts := admin.Group("/shifts")
			{
				shifts.GET("", h.Shift.ListShifts)
				shifts.GET("/:id", h.Shift.GetShift)
				shifts.PUT("/:id", h.Shift.EditShift)
				shifts.GET("/:id/audits", h.Shift.ListShiftAudits)
			}
			admin.GET("/audits", h.Shift.ListAudits)

			// 报表模块
			reports := admin.Group("/reports")
			{
				reports.GET("/weekly", h.Report.Weekly)
				reports.GET("/weekly/hours", h.Report.WeeklyHours)
				reports.GET("/range", h.Report.Range)
				reports.GET("/export", h.Export.ExportReport)
			}

			// 实时看板
			board := admin.Group("/admin")
			{
				board.GET("/open-shifts", h.Shift.OpenShifts)
				board.GET("/stream", h.Stream.Stream)
			}
		}
	}

	return r
}
