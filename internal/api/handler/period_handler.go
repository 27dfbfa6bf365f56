package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"competencias/backend/internal/dto"
	"competencias/backend/internal/service"
	"competencias/backend/pkg/response"
)

// PeriodHandler 学期模块 HTTP 处理器
type PeriodHandler struct {
	periodSvc service.PeriodService
}

// NewPeriodHandler 创建 PeriodHandler
func NewPeriodHandler(periodSvc service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodSvc: periodSvc}
}

// ListPeriods 获取学期列表
// GET /api/v1/periods
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	periods, err := h.periodSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": periods})
}

// GetCurrentPeriod 获取当前学期（不存在时自动创建）
// GET /api/v1/periods/current
func (h *PeriodHandler) GetCurrentPeriod(c *gin.Context) {
	period, err := h.periodSvc.Current(c.Request.Context())
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// ResolvePeriod 解析日期所属学期
// GET /api/v1/periods/resolve?date=2025-03-10
func (h *PeriodHandler) ResolvePeriod(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, response.CodeValidation, "date 不能为空")
		return
	}

	period, err := h.periodSvc.ResolveDay(c.Request.Context(), date)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// GetPeriod 获取学期详情
// GET /api/v1/periods/:id
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	period, err := h.periodSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// GetPreviousPeriod 获取上一学期
// GET /api/v1/periods/:id/previous
func (h *PeriodHandler) GetPreviousPeriod(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	period, err := h.periodSvc.Previous(c.Request.Context(), id)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// CreatePeriod 创建学期
// POST /api/v1/periods
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	period, err := h.periodSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.Created(c, period)
}

// UpdatePeriod 更新学期起止日期
// PUT /api/v1/periods/:id
func (h *PeriodHandler) UpdatePeriod(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	period, err := h.periodSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// ActivatePeriod 激活学期（其余学期同时停用）
// PUT /api/v1/periods/:id/activate
func (h *PeriodHandler) ActivatePeriod(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	period, err := h.periodSvc.Activate(c.Request.Context(), id)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// BackfillPeriods 为缺少学期的评分补齐学期
// POST /api/v1/periods/backfill
func (h *PeriodHandler) BackfillPeriods(c *gin.Context) {
	var req dto.BackfillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	result, err := h.periodSvc.BackfillMissingPeriods(c.Request.Context(), req.Limit)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, result)
}

// handlePeriodError 统一处理学期模块业务错误
func (h *PeriodHandler) handlePeriodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 14001, "学期不存在")
	case errors.Is(err, service.ErrPeriodExists):
		response.Conflict(c, 14002, "该学年半年度的学期已存在")
	case errors.Is(err, service.ErrNoPreviousPeriod):
		response.NotFound(c, 14003, "不存在上一学期")
	default:
		writeError(c, err)
	}
}
