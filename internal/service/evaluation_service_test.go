package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"competencias/backend/internal/dto"
	"competencias/backend/internal/model"
	pkgerrors "competencias/backend/pkg/errors"
	"competencias/backend/pkg/metrics"
)

// ── 测试辅助 ──

type evaluationFixture struct {
	svc       EvaluationService
	repos     *testRepos
	metrics   *metrics.Metrics
	cache     *mockReportCache
	student   string
	professor string
	racA      string
	racB      string
}

func setupTestEvaluationService(scale model.ScoreScale) *evaluationFixture {
	repos := newTestRepos()
	m := metrics.New()
	cache := newMockReportCache()
	periods := NewPeriodService(repos.repo, zap.NewNop(), PeriodOptions{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})

	svc, err := NewEvaluationService(repos.repo, periods, scale, m, cache, zap.NewNop())
	if err != nil {
		panic(err)
	}

	gac := repos.addGAC(1)
	f := &evaluationFixture{
		svc:       svc,
		repos:     repos,
		metrics:   m,
		cache:     cache,
		student:   repos.addStudent("Ana Gómez", "1A", model.StudentStatusEnrolled),
		professor: repos.addProfessor("Carlos Ruiz"),
		racA:      repos.addRAC(1, gac),
		racB:      repos.addRAC(2, gac),
	}
	return f
}

func (f *evaluationFixture) request(racID string, score float64) *dto.SubmitEvaluationRequest {
	return &dto.SubmitEvaluationRequest{
		StudentID:   f.student,
		RACID:       racID,
		ProfessorID: f.professor,
		Score:       ptrFloat(score),
	}
}

// ── Submit 测试 ──

func TestEvaluationService_Submit_Success(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)

	result, err := f.svc.Submit(context.Background(), f.request(f.racA, 3.5))
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if !result.Created {
		t.Error("首次提交应为新建")
	}
	if result.Evaluation.Score != 3.5 || !result.Evaluation.Passed {
		t.Errorf("分值或及格标记不符: %+v", result.Evaluation)
	}
	if result.Evaluation.PeriodCode != "2025-2" {
		t.Errorf("未指定学期时应归入当前学期，实际=%s", result.Evaluation.PeriodCode)
	}
	if f.cache.generation != 1 {
		t.Errorf("提交成功后应使报表缓存失效，generation=%d", f.cache.generation)
	}
	if got := testutil.ToFloat64(f.metrics.EvaluationsSubmit.WithLabelValues(metrics.OutcomeCreated)); got != 1 {
		t.Errorf("期望 created 计数=1，实际=%v", got)
	}
}

func TestEvaluationService_Submit_ScoreScale(t *testing.T) {
	tests := []struct {
		name  string
		scale model.ScoreScale
		score float64
		ok    bool
	}{
		{"当前刻度 3.5", model.ScoreScaleCurrent, 3.5, true},
		{"当前刻度 0", model.ScoreScaleCurrent, 0, true},
		{"当前刻度 2.7", model.ScoreScaleCurrent, 2.7, false},
		{"当前刻度 6", model.ScoreScaleCurrent, 6, false},
		{"旧刻度 3.5", model.ScoreScaleLegacy, 3.5, false},
		{"旧刻度 0", model.ScoreScaleLegacy, 0, false},
		{"旧刻度 4", model.ScoreScaleLegacy, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestEvaluationService(tt.scale)
			_, err := f.svc.Submit(context.Background(), f.request(f.racA, tt.score))
			if tt.ok && err != nil {
				t.Fatalf("分值 %v 应被接受: %v", tt.score, err)
			}
			if !tt.ok {
				ve, isValidation := pkgerrors.AsValidation(err)
				if !isValidation {
					t.Fatalf("分值 %v 应被拒绝为校验错误，实际: %v", tt.score, err)
				}
				if ve.Fields[0].Field != "score" {
					t.Errorf("错误字段应为 score，实际=%s", ve.Fields[0].Field)
				}
			}
		})
	}
}

func TestEvaluationService_Submit_Rejected(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)
	pre := f.repos.addStudent("Luis Pérez", "1B", model.StudentStatusPreEnrolled)
	missing := "6f1c2d3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f"

	tests := []struct {
		name string
		req  *dto.SubmitEvaluationRequest
		want error
	}{
		{"学生未注册", &dto.SubmitEvaluationRequest{StudentID: pre, RACID: f.racA, ProfessorID: f.professor, Score: ptrFloat(4)}, ErrStudentNotEnrolled},
		{"学生不存在", &dto.SubmitEvaluationRequest{StudentID: missing, RACID: f.racA, ProfessorID: f.professor, Score: ptrFloat(4)}, ErrStudentNotFound},
		{"教师不存在", &dto.SubmitEvaluationRequest{StudentID: f.student, RACID: f.racA, ProfessorID: missing, Score: ptrFloat(4)}, ErrProfessorNotFound},
		{"RAC 不存在", &dto.SubmitEvaluationRequest{StudentID: f.student, RACID: missing, ProfessorID: f.professor, Score: ptrFloat(4)}, ErrRACNotFound},
		{"学期不存在", &dto.SubmitEvaluationRequest{StudentID: f.student, RACID: f.racA, ProfessorID: f.professor, Score: ptrFloat(4), PeriodID: ptrString(missing)}, ErrPeriodNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}

	if got := testutil.ToFloat64(f.metrics.EvaluationsSubmit.WithLabelValues(metrics.OutcomeRejected)); got != float64(len(tests)) {
		t.Errorf("期望 rejected 计数=%d，实际=%v", len(tests), got)
	}
	if f.cache.generation != 0 {
		t.Error("提交失败不应使缓存失效")
	}
}

func TestEvaluationService_Submit_MissingFields(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)

	_, err := f.svc.Submit(context.Background(), &dto.SubmitEvaluationRequest{StudentID: "not-a-uuid"})
	ve, ok := pkgerrors.AsValidation(err)
	if !ok {
		t.Fatalf("期望字段校验错误，实际: %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range ve.Fields {
		fields[fe.Field] = true
	}
	for _, name := range []string{"student_id", "rac_id", "professor_id", "score"} {
		if !fields[name] {
			t.Errorf("缺少字段 %s 的错误: %+v", name, ve.Fields)
		}
	}
}

func TestEvaluationService_Submit_ResubmitUpdatesInPlace(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.request(f.racA, 2))
	if err != nil {
		t.Fatalf("首次提交应成功: %v", err)
	}
	second, err := f.svc.Submit(ctx, f.request(f.racA, 4))
	if err != nil {
		t.Fatalf("再次提交应成功: %v", err)
	}

	if second.Created {
		t.Error("相同 (学生, RAC, 教师, 学期) 再次提交应为更新")
	}
	if second.Evaluation.ID != first.Evaluation.ID {
		t.Error("更新应保留原评分记录")
	}

	list, total, err := f.svc.List(ctx, &dto.ListEvaluationsRequest{StudentID: f.student})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("期望只有 1 条评分，实际=%d", total)
	}
	if list[0].Score != 4 {
		t.Errorf("应保留最新分值 4，实际=%v", list[0].Score)
	}
	if got := testutil.ToFloat64(f.metrics.EvaluationsSubmit.WithLabelValues(metrics.OutcomeUpdated)); got != 1 {
		t.Errorf("期望 updated 计数=1，实际=%v", got)
	}
}

func TestEvaluationService_Submit_ExplicitPeriod(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)
	ctx := context.Background()
	old := f.repos.periods.add(2024, model.HalfFirst, false)

	req := f.request(f.racA, 5)
	req.PeriodID = ptrString(old.PeriodID)
	inOld, err := f.svc.Submit(ctx, req)
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	inCurrent, err := f.svc.Submit(ctx, f.request(f.racA, 3))
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	if !inCurrent.Created {
		t.Error("不同学期的评分互不覆盖")
	}
	if inOld.Evaluation.PeriodCode != "2024-1" {
		t.Errorf("期望归属 2024-1，实际=%s", inOld.Evaluation.PeriodCode)
	}
}

// ── SubmitBatch 测试 ──

func TestEvaluationService_SubmitBatch_ItemIsolation(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, f.request(f.racB, 1)); err != nil {
		t.Fatalf("预置评分应成功: %v", err)
	}

	result, err := f.svc.SubmitBatch(ctx, &dto.SubmitBatchRequest{
		StudentID:   f.student,
		ProfessorID: f.professor,
		Items: []dto.BatchItem{
			{RACID: f.racA, Score: ptrFloat(4)},
			{RACID: f.racB, Score: ptrFloat(2.7)},
			{RACID: f.racB, Score: ptrFloat(5)},
			{RACID: "6f1c2d3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f", Score: ptrFloat(3)},
		},
	})
	if err != nil {
		t.Fatalf("SubmitBatch 应成功: %v", err)
	}

	want := []string{dto.BatchStatusCreated, dto.BatchStatusError, dto.BatchStatusUpdated, dto.BatchStatusError}
	for i, status := range want {
		if result.Results[i].Status != status {
			t.Errorf("第 %d 项期望 %s，实际=%s (%s)", i, status, result.Results[i].Status, result.Results[i].Error)
		}
		if result.Results[i].Index != i {
			t.Errorf("第 %d 项序号不符: %d", i, result.Results[i].Index)
		}
	}
	s := result.Summary
	if s.Total != 4 || s.Created != 1 || s.Updated != 1 || s.Errors != 2 {
		t.Errorf("汇总不符: %+v", s)
	}
}

func TestEvaluationService_SubmitBatch_StudentNotEnrolled(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)
	pre := f.repos.addStudent("Luis Pérez", "1B", model.StudentStatusPreEnrolled)

	_, err := f.svc.SubmitBatch(context.Background(), &dto.SubmitBatchRequest{
		StudentID:   pre,
		ProfessorID: f.professor,
		Items:       []dto.BatchItem{{RACID: f.racA, Score: ptrFloat(4)}},
	})
	if !errors.Is(err, ErrStudentNotEnrolled) {
		t.Errorf("期望 ErrStudentNotEnrolled，实际: %v", err)
	}
}

func TestEvaluationService_SubmitBatch_EmptyItems(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)

	_, err := f.svc.SubmitBatch(context.Background(), &dto.SubmitBatchRequest{
		StudentID:   f.student,
		ProfessorID: f.professor,
	})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("空批次应为校验错误，实际: %v", err)
	}
}

// ── List 测试 ──

func TestEvaluationService_List_Pagination(t *testing.T) {
	f := setupTestEvaluationService(model.ScoreScaleCurrent)
	ctx := context.Background()
	for _, rac := range []string{f.racA, f.racB} {
		if _, err := f.svc.Submit(ctx, f.request(rac, 4)); err != nil {
			t.Fatalf("Submit 应成功: %v", err)
		}
	}

	req := &dto.ListEvaluationsRequest{ProfessorID: f.professor}
	req.Page, req.PageSize = 2, 1
	list, total, err := f.svc.List(ctx, req)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 2 || len(list) != 1 {
		t.Errorf("期望 total=2 且本页 1 条，实际 total=%d len=%d", total, len(list))
	}
}
