package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"competencias/backend/internal/dto"
	"competencias/backend/internal/service"
	"competencias/backend/pkg/response"
)

// EvaluationHandler 评分模块 HTTP 处理器
type EvaluationHandler struct {
	evaluationSvc service.EvaluationService
}

// NewEvaluationHandler 创建 EvaluationHandler
func NewEvaluationHandler(evaluationSvc service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationSvc: evaluationSvc}
}

// SubmitEvaluation 提交单条评分；新建返回 201，原地更新返回 200
// POST /api/v1/evaluations
func (h *EvaluationHandler) SubmitEvaluation(c *gin.Context) {
	var req dto.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.evaluationSvc.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// SubmitBatch 批量提交评分，逐项返回结果
// POST /api/v1/evaluations/batch
func (h *EvaluationHandler) SubmitBatch(c *gin.Context) {
	var req dto.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.evaluationSvc.SubmitBatch(c.Request.Context(), &req)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.OK(c, result)
}

// ListEvaluations 分页查询评分
// GET /api/v1/evaluations
func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	var req dto.ListEvaluationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.evaluationSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleEvaluationError 统一处理评分模块业务错误
func (h *EvaluationHandler) handleEvaluationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 15001, "学生不存在")
	case errors.Is(err, service.ErrProfessorNotFound):
		response.NotFound(c, 15002, "教师不存在")
	case errors.Is(err, service.ErrRACNotFound):
		response.NotFound(c, 15003, "RAC 不存在")
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 14001, "学期不存在")
	default:
		writeError(c, err)
	}
}
