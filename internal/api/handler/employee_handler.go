package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/service"
	"shift-clock/backend/pkg/response"
)

// EmployeeHandler 员工模块 HTTP 处理器
type EmployeeHandler struct {
	employeeSvc service.EmployeeService
	calendarSvc service.CalendarService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(employeeSvc service.EmployeeService, calendarSvc service.CalendarService) *EmployeeHandler {
	return &EmployeeHandler{employeeSvc: employeeSvc, calendarSvc: calendarSvc}
}

// ListEmployees 员工列表
// GET /api/v1/employees?include_inactive=true
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	var req dto.EmployeeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	employees, err := h.employeeSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": employees})
}

// GetEmployee 员工详情
// GET /api/v1/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.handleEmployeeError(c, service.ErrEmployeeNotFound)
		return
	}

	emp, err := h.employeeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, emp)
}

// CreateEmployee 创建员工，响应中返回一次性明文 PIN
// POST /api/v1/employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.employeeSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateEmployee 更新员工
// PUT /api/v1/employees/:id
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.handleEmployeeError(c, service.ErrEmployeeNotFound)
		return
	}

	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	emp, err := h.employeeSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, emp)
}

// ResetPIN 重新生成员工 PIN
// POST /api/v1/employees/:id/reset-pin
func (h *EmployeeHandler) ResetPIN(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.handleEmployeeError(c, service.ErrEmployeeNotFound)
		return
	}

	result, err := h.employeeSvc.ResetPIN(c.Request.Context(), id)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportCalendar 导出员工班次日历
// GET /api/v1/employees/:id/shifts.ics?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *EmployeeHandler) ExportCalendar(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.handleEmployeeError(c, service.ErrEmployeeNotFound)
		return
	}

	var req dto.RangeReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	file, err := h.calendarSvc.ExportEmployee(c.Request.Context(), id, req.From, req.To)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Buffer.Bytes())
}

// handleEmployeeError 统一处理员工模块业务错误
func (h *EmployeeHandler) handleEmployeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 23001, "员工不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10001, "日期格式错误，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
