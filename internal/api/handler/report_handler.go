package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"competencias/backend/internal/dto"
	"competencias/backend/internal/service"
	"competencias/backend/pkg/response"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Aggregate 按维度分组统计
// GET /api/v1/reports/aggregate/:dimension
func (h *ReportHandler) Aggregate(c *gin.Context) {
	var f dto.ReportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.reportSvc.Aggregate(c.Request.Context(), c.Param("dimension"), &f)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// Dashboard 仪表盘
// GET /api/v1/reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var f dto.ReportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.reportSvc.Dashboard(c.Request.Context(), &f)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// Coverage 教师 × 课程覆盖率
// GET /api/v1/reports/coverage
func (h *ReportHandler) Coverage(c *gin.Context) {
	var f dto.ReportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.reportSvc.Coverage(c.Request.Context(), &f)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// StudentResults 学生成绩报告
// GET /api/v1/reports/students/:id?period_id=
func (h *ReportHandler) StudentResults(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q dto.StudentReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.reportSvc.StudentResults(c.Request.Context(), id, q.PeriodID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// StudentProgress 学生跨学期进步情况
// GET /api/v1/reports/students/:id/progress?period_id=
func (h *ReportHandler) StudentProgress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q dto.StudentReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.reportSvc.StudentProgress(c.Request.Context(), id, q.PeriodID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// handleReportError 统一处理报表模块业务错误
func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 15001, "学生不存在")
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 14001, "学期不存在")
	default:
		writeError(c, err)
	}
}
