package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"competencias/backend/internal/dto"
	"competencias/backend/internal/model"
	"competencias/backend/internal/repository"
	pkgerrors "competencias/backend/pkg/errors"
	"competencias/backend/pkg/metrics"
)

// ── 评分模块业务错误 ──

var (
	ErrStudentNotFound    = pkgerrors.NotFound("学生不存在")
	ErrProfessorNotFound  = pkgerrors.NotFound("教师不存在")
	ErrRACNotFound        = pkgerrors.NotFound("RAC 不存在")
	ErrStudentNotEnrolled = pkgerrors.Field("student_id", "学生未注册，不能评分")
)

// EvaluationService 评分业务接口
type EvaluationService interface {
	// Submit 按 (student, rac, professor, period) 插入或原地更新；未指定学期时归入当前学期
	Submit(ctx context.Context, req *dto.SubmitEvaluationRequest) (*dto.SubmitEvaluationResponse, error)
	// SubmitBatch 逐项提交，单项失败不中断整批
	SubmitBatch(ctx context.Context, req *dto.SubmitBatchRequest) (*dto.SubmitBatchResponse, error)
	List(ctx context.Context, req *dto.ListEvaluationsRequest) ([]dto.EvaluationResponse, int64, error)
}

type evaluationService struct {
	repo     *repository.Repository
	resolver PeriodResolver
	validate *validator.Validate
	metrics  *metrics.Metrics
	cache    ReportCache
	logger   *zap.Logger
}

// NewEvaluationService 创建 EvaluationService 实例
func NewEvaluationService(
	repo *repository.Repository,
	resolver PeriodResolver,
	scale model.ScoreScale,
	m *metrics.Metrics,
	cache ReportCache,
	logger *zap.Logger,
) (EvaluationService, error) {
	validate, err := newValidator(scale)
	if err != nil {
		return nil, err
	}
	return &evaluationService{
		repo:     repo,
		resolver: resolver,
		validate: validate,
		metrics:  m,
		cache:    cache,
		logger:   logger,
	}, nil
}

// ────────────────────── Submit ──────────────────────

func (s *evaluationService) Submit(ctx context.Context, req *dto.SubmitEvaluationRequest) (*dto.SubmitEvaluationResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, pkgerrors.FromValidator(err)
	}

	if err := s.checkStudent(ctx, req.StudentID); err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, err
	}
	if err := s.checkProfessor(ctx, req.ProfessorID); err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, err
	}
	if err := s.checkRAC(ctx, req.RACID); err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, err
	}
	period, err := s.periodFor(ctx, req.PeriodID)
	if err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, err
	}

	evaluation, created, err := s.upsert(ctx, req.StudentID, req.RACID, req.ProfessorID, *req.Score, period)
	if err != nil {
		return nil, err
	}
	invalidateReports(ctx, s.cache, s.logger)

	return &dto.SubmitEvaluationResponse{
		Evaluation: *toEvaluationResponse(evaluation, period),
		Created:    created,
	}, nil
}

// ────────────────────── SubmitBatch ──────────────────────

func (s *evaluationService) SubmitBatch(ctx context.Context, req *dto.SubmitBatchRequest) (*dto.SubmitBatchResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, pkgerrors.FromValidator(err)
	}
	if err := s.checkStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}
	if err := s.checkProfessor(ctx, req.ProfessorID); err != nil {
		return nil, err
	}
	period, err := s.periodFor(ctx, req.PeriodID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubmitBatchResponse{
		Results: make([]dto.BatchItemResult, 0, len(req.Items)),
		Summary: dto.BatchSummary{Total: len(req.Items)},
	}

	for i := range req.Items {
		item := &req.Items[i]
		result := dto.BatchItemResult{Index: i, RACID: item.RACID}

		evaluation, created, err := s.submitItem(ctx, req, item, period)
		switch {
		case err != nil:
			result.Status = dto.BatchStatusError
			result.Error = err.Error()
			resp.Summary.Errors++
		case created:
			result.Status = dto.BatchStatusCreated
			result.EvaluationID = evaluation.EvaluationID
			resp.Summary.Created++
		default:
			result.Status = dto.BatchStatusUpdated
			result.EvaluationID = evaluation.EvaluationID
			resp.Summary.Updated++
		}
		resp.Results = append(resp.Results, result)
	}

	if resp.Summary.Created+resp.Summary.Updated > 0 {
		invalidateReports(ctx, s.cache, s.logger)
	}
	s.logger.Info("批量评分完成",
		zap.String("student_id", req.StudentID),
		zap.String("professor_id", req.ProfessorID),
		zap.Int("total", resp.Summary.Total),
		zap.Int("created", resp.Summary.Created),
		zap.Int("updated", resp.Summary.Updated),
		zap.Int("errors", resp.Summary.Errors),
	)
	return resp, nil
}

func (s *evaluationService) submitItem(ctx context.Context, req *dto.SubmitBatchRequest, item *dto.BatchItem, period *model.AcademicPeriod) (*model.Evaluation, bool, error) {
	if err := s.validate.Struct(item); err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, false, pkgerrors.FromValidator(err)
	}
	if err := s.checkRAC(ctx, item.RACID); err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, false, err
	}
	return s.upsert(ctx, req.StudentID, item.RACID, req.ProfessorID, *item.Score, period)
}

// ────────────────────── List ──────────────────────

func (s *evaluationService) List(ctx context.Context, req *dto.ListEvaluationsRequest) ([]dto.EvaluationResponse, int64, error) {
	filter := repository.EvaluationFilter{
		PeriodID:    req.PeriodID,
		ProfessorID: req.ProfessorID,
		StudentID:   req.StudentID,
	}
	evaluations, total, err := s.repo.Evaluation.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询评分列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EvaluationResponse, 0, len(evaluations))
	for i := range evaluations {
		result = append(result, *toEvaluationResponse(&evaluations[i], evaluations[i].Period))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func (s *evaluationService) upsert(ctx context.Context, studentID, racID, professorID string, score float64, period *model.AcademicPeriod) (*model.Evaluation, bool, error) {
	periodID := period.PeriodID
	evaluation := &model.Evaluation{
		StudentID:   studentID,
		RACID:       racID,
		ProfessorID: professorID,
		PeriodID:    &periodID,
		Score:       score,
	}

	created, err := s.repo.Evaluation.Upsert(ctx, evaluation)
	if err != nil {
		s.logger.Error("保存评分失败",
			zap.String("student_id", studentID),
			zap.String("rac_id", racID),
			zap.String("professor_id", professorID),
			zap.Error(err),
		)
		return nil, false, err
	}

	if created {
		s.metrics.ObserveSubmission(metrics.OutcomeCreated)
	} else {
		s.metrics.ObserveSubmission(metrics.OutcomeUpdated)
	}
	return evaluation, created, nil
}

func (s *evaluationService) checkStudent(ctx context.Context, id string) error {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !student.IsEnrolled() {
		return ErrStudentNotEnrolled
	}
	return nil
}

func (s *evaluationService) checkProfessor(ctx context.Context, id string) error {
	if _, err := s.repo.Professor.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfessorNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *evaluationService) checkRAC(ctx context.Context, id string) error {
	if _, err := s.repo.Competency.GetRAC(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRACNotFound
		}
		s.logger.Error("查询 RAC 失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// periodFor 指定学期时校验存在，否则取当前学期
func (s *evaluationService) periodFor(ctx context.Context, periodID *string) (*model.AcademicPeriod, error) {
	if periodID == nil || *periodID == "" {
		return s.resolver.GetCurrentPeriod(ctx)
	}
	period, err := s.repo.Period.GetByID(ctx, *periodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", *periodID), zap.Error(err))
		return nil, err
	}
	return period, nil
}

func toEvaluationResponse(e *model.Evaluation, period *model.AcademicPeriod) *dto.EvaluationResponse {
	resp := &dto.EvaluationResponse{
		ID:          e.EvaluationID,
		StudentID:   e.StudentID,
		RACID:       e.RACID,
		ProfessorID: e.ProfessorID,
		PeriodID:    e.PeriodID,
		Score:       e.Score,
		Passed:      model.IsPassing(e.Score),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
	if period != nil {
		resp.PeriodCode = period.Code()
	}
	return resp
}
