package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"competencias/backend/internal/dto"
	"competencias/backend/internal/model"
	"competencias/backend/internal/repository"
	"competencias/backend/pkg/database"
	pkgerrors "competencias/backend/pkg/errors"
	"competencias/backend/pkg/metrics"
)

// ── 学期模块业务错误 ──

var (
	ErrPeriodNotFound    = pkgerrors.NotFound("学期不存在")
	ErrNoPreviousPeriod  = pkgerrors.NotFound("不存在上一学期")
	ErrPeriodExists      = pkgerrors.Conflict("该学年半年度的学期已存在")
	ErrPeriodDateInvalid = pkgerrors.Field("end_date", "学期结束日期必须晚于开始日期")
	ErrPeriodDateFormat  = pkgerrors.Field("start_date", "日期格式应为 YYYY-MM-DD")
	ErrPeriodHalfInvalid = pkgerrors.Field("half", "半年度只能为 1 或 2")
	ErrResolveDateFormat = pkgerrors.Field("date", "日期格式应为 YYYY-MM-DD")

	ErrPeriodCreateConflict = pkgerrors.Conflict("学期创建冲突，请稍后重试")
)

// maxCreateRetries 唯一约束冲突且记录不存在时的重试次数
const maxCreateRetries = 1

const dateLayout = "2006-01-02"

// PeriodResolver 为评分确定所属学期
type PeriodResolver interface {
	// ResolveForDate 依次按 (year, half)、日期包含关系查找，都不存在时按默认边界创建
	ResolveForDate(ctx context.Context, date time.Time) (*model.AcademicPeriod, error)
	// GetCurrentPeriod 今天所属的学期，每次调用都重新解析
	GetCurrentPeriod(ctx context.Context) (*model.AcademicPeriod, error)
	// BackfillMissingPeriods 为尚无学期的评分补齐学期，单条失败不影响其他；limit>0 时最多回填 limit 条
	BackfillMissingPeriods(ctx context.Context, limit int) (*dto.BackfillResponse, error)
}

// PeriodService 学期业务接口
type PeriodService interface {
	PeriodResolver

	Create(ctx context.Context, req *dto.CreatePeriodRequest) (*dto.PeriodResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error)
	List(ctx context.Context) ([]dto.PeriodResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdatePeriodRequest) (*dto.PeriodResponse, error)
	Activate(ctx context.Context, id string) (*dto.PeriodResponse, error)
	Previous(ctx context.Context, id string) (*dto.PeriodResponse, error)
	// Current 当前学期（不存在时按默认边界创建）
	Current(ctx context.Context) (*dto.PeriodResponse, error)
	// ResolveDay 解析 "YYYY-MM-DD" 所属学期，日期按配置时区理解
	ResolveDay(ctx context.Context, day string) (*dto.PeriodResponse, error)
	// EnsurePeriod 确保指定学期存在；force 时重置为默认边界并激活
	EnsurePeriod(ctx context.Context, year int, half model.Half, force bool) (*dto.EnsurePeriodResult, error)
	// SetActive 先停用其他学期再激活目标学期
	SetActive(ctx context.Context, period *model.AcademicPeriod) error
}

// PeriodOptions 学期服务可选依赖
type PeriodOptions struct {
	Location *time.Location   // "今天"所用时区，默认 UTC
	Now      func() time.Time // 时钟，默认 time.Now
	Metrics  *metrics.Metrics
	Cache    ReportCache
}

type periodService struct {
	repo    *repository.Repository
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
	metrics *metrics.Metrics
	cache   ReportCache
}

// NewPeriodService 创建 PeriodService 实例
func NewPeriodService(repo *repository.Repository, logger *zap.Logger, opts PeriodOptions) PeriodService {
	s := &periodService{
		repo:    repo,
		logger:  logger,
		loc:     opts.Location,
		now:     opts.Now,
		metrics: opts.Metrics,
		cache:   opts.Cache,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ────────────────────── ResolveForDate ──────────────────────

func (s *periodService) ResolveForDate(ctx context.Context, date time.Time) (*model.AcademicPeriod, error) {
	date = date.In(s.loc)
	year, half := date.Year(), model.HalfOf(date)

	period, err := s.repo.Period.GetByYearHalf(ctx, year, half)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("按学年查询学期失败", zap.Int("year", year), zap.Stringer("half", half), zap.Error(err))
		return nil, err
	}

	period, err = s.repo.Period.FindContaining(ctx, date)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("按日期查询学期失败", zap.Time("date", date), zap.Error(err))
		return nil, err
	}

	return s.createDefault(ctx, year, half, s.isToday(date), metrics.OriginResolver)
}

// ────────────────────── GetCurrentPeriod ──────────────────────

func (s *periodService) GetCurrentPeriod(ctx context.Context) (*model.AcademicPeriod, error) {
	return s.ResolveForDate(ctx, s.now())
}

// ────────────────────── BackfillMissingPeriods ──────────────────────

// backfillPageSize 每页扫描的评分数
const backfillPageSize = 200

// BackfillMissingPeriods 按游标分页扫描，limit 限制成功回填的条数；
// 失败的评分留在原处但游标越过它们，同一次调用内不会重复处理
func (s *periodService) BackfillMissingPeriods(ctx context.Context, limit int) (*dto.BackfillResponse, error) {
	pageSize := backfillPageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	result := &dto.BackfillResponse{Failures: []dto.BackfillFailure{}}
	var cursor repository.MissingPeriodCursor
	scanned := 0

scan:
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.repo.Evaluation.ListMissingPeriod(ctx, cursor, pageSize)
		if err != nil {
			s.logger.Error("查询待回填评分失败", zap.Error(err))
			return nil, err
		}

		for i := range page {
			e := &page[i]
			cursor = repository.MissingPeriodCursor{CreatedAt: e.CreatedAt, EvaluationID: e.EvaluationID}
			scanned++

			updated, err := s.backfillOne(ctx, e)
			if err != nil {
				result.Errors++
				result.Failures = append(result.Failures, dto.BackfillFailure{
					EvaluationID: e.EvaluationID,
					Error:        err.Error(),
				})
				s.logger.Warn("评分回填学期失败", zap.String("evaluation_id", e.EvaluationID), zap.Error(err))
				continue
			}
			if updated {
				result.Updated++
			}
			if limit > 0 && result.Updated >= limit {
				break scan
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	s.metrics.ObserveBackfill(result.Updated, result.Errors)
	if result.Updated > 0 {
		invalidateReports(ctx, s.cache, s.logger)
	}
	s.logger.Info("学期回填完成",
		zap.Int("scanned", scanned),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// backfillOne 先按评分日期查找包含它的学期，找不到再走 ResolveForDate
func (s *periodService) backfillOne(ctx context.Context, e *model.Evaluation) (bool, error) {
	date := e.CreatedAt.In(s.loc)

	period, err := s.repo.Period.FindContaining(ctx, date)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		period, err = s.ResolveForDate(ctx, date)
		if err != nil {
			return false, err
		}
	}

	return s.repo.Evaluation.AssignPeriod(ctx, e.EvaluationID, period.PeriodID)
}

// ────────────────────── Create ──────────────────────

func (s *periodService) Create(ctx context.Context, req *dto.CreatePeriodRequest) (*dto.PeriodResponse, error) {
	half := model.Half(req.Half)
	if !half.Valid() {
		return nil, ErrPeriodHalfInvalid
	}

	period := model.NewAcademicPeriod(req.Year, half)
	if err := applyBounds(period, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if _, err := s.repo.Period.GetByYearHalf(ctx, req.Year, half); err == nil {
		return nil, ErrPeriodExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询学期失败", zap.Error(err))
		return nil, err
	}

	if err := s.repo.Period.Create(ctx, period); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPeriodExists
		}
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}
	s.metrics.ObservePeriodCreated(metrics.OriginAdmin)
	s.logger.Info("学期已创建", zap.String("code", period.Code()), zap.String("id", period.PeriodID))

	if req.Activate {
		if err := s.SetActive(ctx, period); err != nil {
			return nil, err
		}
	}
	invalidateReports(ctx, s.cache, s.logger)

	return toPeriodResponse(period), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *periodService) GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error) {
	period, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPeriodResponse(period), nil
}

// ────────────────────── List ──────────────────────

func (s *periodService) List(ctx context.Context) ([]dto.PeriodResponse, error) {
	periods, err := s.repo.Period.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PeriodResponse, 0, len(periods))
	for i := range periods {
		result = append(result, *toPeriodResponse(&periods[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *periodService) Update(ctx context.Context, id string, req *dto.UpdatePeriodRequest) (*dto.PeriodResponse, error) {
	period, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyBounds(period, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if err := s.repo.Period.Update(ctx, period); err != nil {
		s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	invalidateReports(ctx, s.cache, s.logger)

	return toPeriodResponse(period), nil
}

// ────────────────────── Activate ──────────────────────

func (s *periodService) Activate(ctx context.Context, id string) (*dto.PeriodResponse, error) {
	period, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.SetActive(ctx, period); err != nil {
		return nil, err
	}
	invalidateReports(ctx, s.cache, s.logger)
	return toPeriodResponse(period), nil
}

func (s *periodService) SetActive(ctx context.Context, period *model.AcademicPeriod) error {
	// 使用事务保证 ClearActive + Update 的原子性
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	// 先将所有学期置为非活动
	if err := txRepo.Period.ClearActive(ctx); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("清除活动学期失败", zap.Error(err))
		return err
	}

	period.IsActive = true
	if err := txRepo.Period.Update(ctx, period); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		period.IsActive = false
		s.logger.Error("激活学期失败", zap.String("id", period.PeriodID), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	s.logger.Info("学期已激活", zap.String("code", period.Code()))
	return nil
}

// ────────────────────── Previous ──────────────────────

func (s *periodService) Previous(ctx context.Context, id string) (*dto.PeriodResponse, error) {
	period, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	year, half := model.PreviousHalf(period.Year, period.Half)
	prev, err := s.repo.Period.GetByYearHalf(ctx, year, half)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPreviousPeriod
		}
		s.logger.Error("查询上一学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toPeriodResponse(prev), nil
}

// ────────────────────── Current / ResolveDay ──────────────────────

func (s *periodService) Current(ctx context.Context) (*dto.PeriodResponse, error) {
	period, err := s.GetCurrentPeriod(ctx)
	if err != nil {
		return nil, err
	}
	return toPeriodResponse(period), nil
}

func (s *periodService) ResolveDay(ctx context.Context, day string) (*dto.PeriodResponse, error) {
	date, err := time.ParseInLocation(dateLayout, day, s.loc)
	if err != nil {
		return nil, ErrResolveDateFormat
	}
	period, err := s.ResolveForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return toPeriodResponse(period), nil
}

// ────────────────────── EnsurePeriod ──────────────────────

func (s *periodService) EnsurePeriod(ctx context.Context, year int, half model.Half, force bool) (*dto.EnsurePeriodResult, error) {
	if !half.Valid() {
		return nil, ErrPeriodHalfInvalid
	}

	existing, err := s.repo.Period.GetByYearHalf(ctx, year, half)
	switch {
	case err == nil && !force:
		return &dto.EnsurePeriodResult{Period: toPeriodResponse(existing)}, nil
	case err == nil:
		existing.StartDate, existing.EndDate = model.DefaultBounds(year, half)
		if err := s.SetActive(ctx, existing); err != nil {
			return nil, err
		}
		invalidateReports(ctx, s.cache, s.logger)
		return &dto.EnsurePeriodResult{Period: toPeriodResponse(existing), Updated: true}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询学期失败", zap.Error(err))
		return nil, err
	}

	candidate := model.NewAcademicPeriod(year, half)
	period, err := s.createDefault(ctx, year, half, candidate.Contains(s.now().In(s.loc)), metrics.OriginAdmin)
	if err != nil {
		return nil, err
	}
	return &dto.EnsurePeriodResult{Period: toPeriodResponse(period), Created: true}, nil
}

// ── 内部辅助方法 ──

func (s *periodService) getPeriod(ctx context.Context, id string) (*model.AcademicPeriod, error) {
	if !isUUID(id) {
		return nil, ErrPeriodNotFound
	}
	period, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return period, nil
}

func (s *periodService) isToday(date time.Time) bool {
	return model.DateOnly(date.In(s.loc)).Equal(model.DateOnly(s.now().In(s.loc)))
}

// createDefault 按默认边界创建学期
// 唯一约束冲突后按 (year, half) 重新读取：读到即为并发创建的同一学期；
// 读不到说明冲突来自其他约束（单一激活索引），重新插入一次，仍失败则返回冲突错误
func (s *periodService) createDefault(ctx context.Context, year int, half model.Half, activate bool, origin string) (*model.AcademicPeriod, error) {
	code := model.PeriodCode(year, half)

	var period *model.AcademicPeriod
	for attempt := 0; ; attempt++ {
		period = model.NewAcademicPeriod(year, half)
		period.IsActive = activate

		err := s.insertPeriod(ctx, period)
		if err == nil {
			break
		}
		if !database.IsUniqueViolation(err) {
			s.logger.Error("创建学期失败", zap.String("code", code), zap.Error(err))
			return nil, err
		}

		existing, ferr := s.repo.Period.GetByYearHalf(ctx, year, half)
		if ferr == nil {
			s.logger.Debug("学期已由并发请求创建", zap.String("code", existing.Code()))
			return existing, nil
		}
		if !errors.Is(ferr, gorm.ErrRecordNotFound) {
			s.logger.Error("学期创建冲突后重新读取失败", zap.String("code", code), zap.Error(ferr))
			return nil, fmt.Errorf("学期创建冲突后重新读取失败: %w", ferr)
		}
		if attempt >= maxCreateRetries {
			s.logger.Error("学期创建持续冲突", zap.String("code", code), zap.Int("attempts", attempt+1), zap.Error(err))
			return nil, ErrPeriodCreateConflict
		}
		s.logger.Warn("学期创建冲突但记录不存在，重试", zap.String("code", code), zap.Error(err))
	}

	s.metrics.ObservePeriodCreated(origin)
	invalidateReports(ctx, s.cache, s.logger)
	s.logger.Info("学期已自动创建",
		zap.String("code", period.Code()),
		zap.Bool("active", period.IsActive),
		zap.String("origin", origin),
	)
	return period, nil
}

// insertPeriod 插入学期；激活时与 ClearActive 在同一事务中完成
func (s *periodService) insertPeriod(ctx context.Context, period *model.AcademicPeriod) error {
	if !period.IsActive {
		return s.repo.Period.Create(ctx, period)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Period.ClearActive(ctx); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if err := txRepo.Period.Create(ctx, period); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}

// applyBounds 解析并校验起止日期；未提供的一端保持原值
func applyBounds(period *model.AcademicPeriod, start, end *string) error {
	if start != nil {
		t, err := time.Parse(dateLayout, *start)
		if err != nil {
			return ErrPeriodDateFormat
		}
		period.StartDate = t
	}
	if end != nil {
		t, err := time.Parse(dateLayout, *end)
		if err != nil {
			return pkgerrors.Field("end_date", "日期格式应为 YYYY-MM-DD")
		}
		period.EndDate = t
	}
	if !period.EndDate.After(period.StartDate) {
		return ErrPeriodDateInvalid
	}
	return nil
}

func toPeriodResponse(p *model.AcademicPeriod) *dto.PeriodResponse {
	return &dto.PeriodResponse{
		ID:        p.PeriodID,
		Code:      p.Code(),
		Name:      p.Name(),
		Year:      p.Year,
		Half:      int(p.Half),
		StartDate: p.StartDate.Format(dateLayout),
		EndDate:   p.EndDate.Format(dateLayout),
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}
