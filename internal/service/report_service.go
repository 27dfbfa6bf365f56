package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"competencias/backend/internal/aggregate"
	"competencias/backend/internal/dto"
	"competencias/backend/internal/model"
	"competencias/backend/internal/repository"
	pkgerrors "competencias/backend/pkg/errors"
	redispkg "competencias/backend/pkg/redis"
)

// ErrInvalidDimension 未知的聚合维度
var ErrInvalidDimension = pkgerrors.Field("dimension", "维度只能为 gac / subject / professor / student / period / semester / rac")

// ReportService 报表业务接口
type ReportService interface {
	Aggregate(ctx context.Context, dimension string, f *dto.ReportFilter) (*dto.AggregateResponse, error)
	Dashboard(ctx context.Context, f *dto.ReportFilter) (*dto.DashboardResponse, error)
	Coverage(ctx context.Context, f *dto.ReportFilter) (*dto.CoverageResponse, error)
	StudentResults(ctx context.Context, studentID, periodID string) (*dto.StudentReportResponse, error)
	StudentProgress(ctx context.Context, studentID, periodID string) (*dto.StudentProgressResponse, error)
}

// ReportOptions 报表服务可选依赖
type ReportOptions struct {
	TopN     int
	Cache    ReportCache
	CacheTTL time.Duration
	Now      func() time.Time
}

type reportService struct {
	repo       *repository.Repository
	resolver   PeriodResolver
	aggregator *aggregate.Aggregator
	topN       int
	cache      ReportCache
	cacheTTL   time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(
	repo *repository.Repository,
	resolver PeriodResolver,
	classifier aggregate.SemesterClassifier,
	logger *zap.Logger,
	opts ReportOptions,
) ReportService {
	s := &reportService{
		repo:       repo,
		resolver:   resolver,
		aggregator: aggregate.New(classifier),
		topN:       opts.TopN,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		now:        opts.Now,
		logger:     logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ────────────────────── Aggregate ──────────────────────

func (s *reportService) Aggregate(ctx context.Context, dimension string, f *dto.ReportFilter) (*dto.AggregateResponse, error) {
	dim, err := aggregate.ParseDimension(dimension)
	if err != nil {
		return nil, ErrInvalidDimension
	}

	in, err := s.loadInput(ctx, f)
	if err != nil {
		return nil, err
	}

	return &dto.AggregateResponse{
		Dimension: dim,
		Groups:    s.aggregator.GroupBy(in, dim, toFilter(f)),
	}, nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *reportService) Dashboard(ctx context.Context, f *dto.ReportFilter) (*dto.DashboardResponse, error) {
	key, cacheable := s.dashboardKey(ctx, f)
	if cacheable {
		var cached dto.DashboardResponse
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redispkg.ErrCacheMiss) {
			s.logger.Warn("读取仪表盘缓存失败", zap.Error(err))
		}
	}

	in, err := s.loadInput(ctx, f)
	if err != nil {
		return nil, err
	}
	filter := toFilter(f)

	resp := &dto.DashboardResponse{
		Summary:       aggregate.Summarize(aggregate.FilterRows(in, filter)),
		Unique:        aggregate.UniqueSummary(in, filter),
		TopGACs:       aggregate.TopN(s.aggregator.GroupBy(in, aggregate.DimensionGAC, filter), s.topN),
		TopSubjects:   aggregate.TopN(s.aggregator.GroupBy(in, aggregate.DimensionSubject, filter), s.topN),
		TopProfessors: aggregate.TopN(s.aggregator.GroupBy(in, aggregate.DimensionProfessor, filter), s.topN),
		TopRACs:       aggregate.TopN(s.aggregator.GroupBy(in, aggregate.DimensionRAC, filter), s.topN),
		Semesters:     s.aggregator.GroupBy(in, aggregate.DimensionSemester, filter),
		GeneratedAt:   s.now().UTC().Format(time.RFC3339),
	}

	if cacheable {
		if err := s.cache.SetJSON(ctx, key, resp, s.cacheTTL); err != nil {
			s.logger.Warn("写入仪表盘缓存失败", zap.Error(err))
		}
	}
	return resp, nil
}

// dashboardKey 缓存不可用或读取代数失败时返回 cacheable=false
func (s *reportService) dashboardKey(ctx context.Context, f *dto.ReportFilter) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	generation, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("读取报表缓存代数失败", zap.Error(err))
		return "", false
	}
	return cacheKey("dashboard", generation,
		f.PeriodID, f.ProfessorID, f.StudentID, f.RACID, f.SubjectID, f.GACID,
		fmt.Sprint(s.topN),
	), true
}

// ────────────────────── Coverage ──────────────────────

// Coverage 教师 × 课程覆盖率；分母为全部已注册学生，是课程实际选课人数的近似
func (s *reportService) Coverage(ctx context.Context, f *dto.ReportFilter) (*dto.CoverageResponse, error) {
	in, err := s.loadInput(ctx, f)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Competency.Assignments(ctx)
	if err != nil {
		s.logger.Error("查询教师课程分配失败", zap.Error(err))
		return nil, err
	}
	enrolled, err := s.repo.Student.CountEnrolled(ctx)
	if err != nil {
		s.logger.Error("统计注册学生失败", zap.Error(err))
		return nil, err
	}

	// 没有选课关系，每门课程的应评学生数取全部已注册学生；
	// 分子可能包含非注册学生，覆盖率由 NewCoverage 截断在 100%
	assignments := make([]aggregate.Assignment, 0, len(rows))
	totals := make(map[string]int)
	for _, r := range rows {
		assignments = append(assignments, aggregate.Assignment{ProfessorID: r.ProfessorID, SubjectID: r.SubjectID})
		totals[r.SubjectID] = int(enrolled)
	}

	return &dto.CoverageResponse{
		TotalStudents: int(enrolled),
		Items:         aggregate.ProfessorSubjectCoverage(in, toFilter(f), assignments, totals),
	}, nil
}

// ────────────────────── StudentResults ──────────────────────

func (s *reportService) StudentResults(ctx context.Context, studentID, periodID string) (*dto.StudentReportResponse, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentReportResponse{
		StudentID: student.StudentID,
		Name:      student.Name,
		Group:     student.Group,
	}
	if periodID != "" {
		period, err := s.getPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		resp.Period = toPeriodResponse(period)
	}

	f := &dto.ReportFilter{StudentID: studentID, PeriodID: periodID}
	in, err := s.loadInput(ctx, f)
	if err != nil {
		return nil, err
	}

	report := aggregate.StudentResults(in, studentID, toFilter(f))
	resp.GACs = report.GACs
	resp.Summary = report.Summary
	return resp, nil
}

// ────────────────────── StudentProgress ──────────────────────

func (s *reportService) StudentProgress(ctx context.Context, studentID, periodID string) (*dto.StudentProgressResponse, error) {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return nil, err
	}

	var current *model.AcademicPeriod
	var err error
	if periodID != "" {
		current, err = s.getPeriod(ctx, periodID)
	} else {
		current, err = s.resolver.GetCurrentPeriod(ctx)
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentProgressResponse{
		StudentID: studentID,
		Current:   toPeriodResponse(current),
	}

	in, err := s.loadInput(ctx, &dto.ReportFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	currentGroups := s.aggregator.GroupBy(in, aggregate.DimensionGAC, aggregate.Filter{StudentID: studentID, PeriodID: current.PeriodID})

	var previousGroups []aggregate.GroupedResult
	year, half := model.PreviousHalf(current.Year, current.Half)
	previous, err := s.repo.Period.GetByYearHalf(ctx, year, half)
	switch {
	case err == nil:
		resp.Previous = toPeriodResponse(previous)
		previousGroups = s.aggregator.GroupBy(in, aggregate.DimensionGAC, aggregate.Filter{StudentID: studentID, PeriodID: previous.PeriodID})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询上一学期失败", zap.Error(err))
		return nil, err
	}

	resp.GACs = aggregate.Progress(currentGroups, previousGroups)
	return resp, nil
}

// ── 内部辅助方法 ──

// loadInput 读取评分行并一次性物化 RAC 归属关系与展示名
func (s *reportService) loadInput(ctx context.Context, f *dto.ReportFilter) (aggregate.Input, error) {
	rows, err := s.repo.Evaluation.ListRows(ctx, repository.EvaluationFilter{
		PeriodID:    f.PeriodID,
		ProfessorID: f.ProfessorID,
		StudentID:   f.StudentID,
	})
	if err != nil {
		s.logger.Error("查询评分数据失败", zap.Error(err))
		return aggregate.Input{}, err
	}

	memberships, err := s.loadMemberships(ctx)
	if err != nil {
		return aggregate.Input{}, err
	}

	in := aggregate.Input{
		Rows:        make([]aggregate.Row, 0, len(rows)),
		Memberships: memberships,
	}
	studentIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, r := range rows {
		in.Rows = append(in.Rows, toAggregateRow(r))
		if _, ok := seen[r.StudentID]; !ok {
			seen[r.StudentID] = struct{}{}
			studentIDs = append(studentIDs, r.StudentID)
		}
	}

	in.Labels, err = s.loadLabels(ctx, studentIDs)
	if err != nil {
		return aggregate.Input{}, err
	}
	return in, nil
}

func (s *reportService) loadMemberships(ctx context.Context) (*aggregate.Memberships, error) {
	m := aggregate.NewMemberships()

	gacs, err := s.repo.Competency.RACGACs(ctx)
	if err != nil {
		s.logger.Error("查询 RAC-GAC 关联失败", zap.Error(err))
		return nil, err
	}
	for _, g := range gacs {
		m.AddGAC(g.RACID, g.OwnerID)
	}

	subjects, err := s.repo.Competency.SubjectRACs(ctx)
	if err != nil {
		s.logger.Error("查询课程-RAC 关联失败", zap.Error(err))
		return nil, err
	}
	for _, sr := range subjects {
		m.AddSubject(sr.RACID, sr.OwnerID)
	}
	return m, nil
}

func (s *reportService) loadLabels(ctx context.Context, studentIDs []string) (aggregate.Labels, error) {
	labels := aggregate.Labels{}

	gacs, err := s.repo.Competency.ListGACs(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range gacs {
		labels.Set(aggregate.DimensionGAC, g.GACID, fmt.Sprintf("GAC %d", g.Number))
	}

	racs, err := s.repo.Competency.ListRACs(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range racs {
		labels.Set(aggregate.DimensionRAC, r.RACID, fmt.Sprintf("RAC %d", r.Number))
	}

	subjects, err := s.repo.Competency.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, sub := range subjects {
		labels.Set(aggregate.DimensionSubject, sub.SubjectID, sub.Name)
	}

	professors, err := s.repo.Professor.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range professors {
		labels.Set(aggregate.DimensionProfessor, p.ProfessorID, p.Name)
	}

	periods, err := s.repo.Period.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range periods {
		labels.Set(aggregate.DimensionPeriod, periods[i].PeriodID, periods[i].Code())
	}

	students, err := s.repo.Student.ListByIDs(ctx, studentIDs)
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		labels.Set(aggregate.DimensionStudent, st.StudentID, st.Name)
	}

	return labels, nil
}

func (s *reportService) getStudent(ctx context.Context, id string) (*model.Student, error) {
	if !isUUID(id) {
		return nil, ErrStudentNotFound
	}
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}

func (s *reportService) getPeriod(ctx context.Context, id string) (*model.AcademicPeriod, error) {
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

func toFilter(f *dto.ReportFilter) aggregate.Filter {
	return aggregate.Filter{
		PeriodID:    f.PeriodID,
		ProfessorID: f.ProfessorID,
		StudentID:   f.StudentID,
		RACID:       f.RACID,
		SubjectID:   f.SubjectID,
		GACID:       f.GACID,
	}
}

func toAggregateRow(r repository.EvaluationRow) aggregate.Row {
	row := aggregate.Row{
		EvaluationID: r.EvaluationID,
		StudentID:    r.StudentID,
		ProfessorID:  r.ProfessorID,
		RACID:        r.RACID,
		StudentGroup: r.StudentGroup,
		Score:        r.Score,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.PeriodID != nil {
		row.PeriodID = *r.PeriodID
	}
	if r.PeriodHalf != nil {
		row.PeriodHalf = model.Half(*r.PeriodHalf)
	}
	return row
}
