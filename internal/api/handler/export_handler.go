package handler

import (
	"github.com/gin-gonic/gin"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/service"
	"shift-clock/backend/pkg/response"
)

// ExportHandler 报表导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReport 导出周报或区间报表
// GET /api/v1/reports/export?kind=weekly|range&format=xlsx|csv
func (h *ExportHandler) ExportReport(c *gin.Context) {
	var req dto.ExportReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	file, err := h.exportSvc.ExportReport(c.Request.Context(), &req)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Buffer.Bytes())
}
