package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/service"
	"shift-clock/backend/pkg/response"
)

// ReportHandler 工时报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Weekly 周报
// GET /api/v1/reports/weekly?week_start=YYYY-MM-DD
func (h *ReportHandler) Weekly(c *gin.Context) {
	var req dto.WeeklyReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.reportSvc.Weekly(c.Request.Context(), &req)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// Range 区间报表
// GET /api/v1/reports/range?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReportHandler) Range(c *gin.Context) {
	var req dto.RangeReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.reportSvc.Range(c.Request.Context(), &req)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// WeeklyHours 周已完成工时
// GET /api/v1/reports/weekly/hours?week_start=YYYY-MM-DD
func (h *ReportHandler) WeeklyHours(c *gin.Context) {
	var req dto.WeeklyReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	hours, err := h.reportSvc.WeeklyHours(c.Request.Context(), &req)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, hours)
}

func handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10001, "日期格式错误，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
