package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"competencias/backend/internal/model"
	"competencias/backend/internal/repository"
	redispkg "competencias/backend/pkg/redis"
)

// ── Mock PeriodRepository ──

type mockPeriodRepo struct {
	mu      sync.Mutex
	periods map[string]*model.AcademicPeriod
	creates int
	// createErrs 按顺序注入 Create 的失败，耗尽后恢复正常
	createErrs []error
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]*model.AcademicPeriod)}
}

func (m *mockPeriodRepo) Create(_ context.Context, period *model.AcademicPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	for _, p := range m.periods {
		if p.Year == period.Year && p.Half == period.Half {
			return gorm.ErrDuplicatedKey
		}
	}
	if period.PeriodID == "" {
		period.PeriodID = uuid.NewString()
	}
	now := time.Now()
	period.CreatedAt, period.UpdatedAt = now, now
	cp := *period
	m.periods[period.PeriodID] = &cp
	m.creates++
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.AcademicPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) GetByYearHalf(_ context.Context, year int, half model.Half) (*model.AcademicPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.Year == year && p.Half == half {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) FindContaining(_ context.Context, date time.Time) (*model.AcademicPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.AcademicPeriod
	for _, p := range m.periods {
		if p.Contains(date) && (found == nil || p.StartDate.After(found.StartDate)) {
			found = p
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockPeriodRepo) GetActive(_ context.Context) (*model.AcademicPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) List(_ context.Context) ([]model.AcademicPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.AcademicPeriod, 0, len(m.periods))
	for _, p := range m.periods {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year > result[j].Year
		}
		return result[i].Half > result[j].Half
	})
	return result, nil
}

func (m *mockPeriodRepo) Update(_ context.Context, period *model.AcademicPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	period.UpdatedAt = time.Now()
	cp := *period
	m.periods[period.PeriodID] = &cp
	return nil
}

func (m *mockPeriodRepo) ClearActive(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		p.IsActive = false
	}
	return nil
}

func (m *mockPeriodRepo) activeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.periods {
		if p.IsActive {
			n++
		}
	}
	return n
}

// add 直接写入一条学期，测试准备数据用
func (m *mockPeriodRepo) add(year int, half model.Half, active bool) *model.AcademicPeriod {
	p := model.NewAcademicPeriod(year, half)
	p.PeriodID = uuid.NewString()
	p.IsActive = active
	m.mu.Lock()
	m.periods[p.PeriodID] = p
	m.mu.Unlock()
	cp := *p
	return &cp
}

// ── Mock EvaluationRepository ──

type evaluationKey struct {
	studentID, racID, professorID, periodID string
}

type mockEvaluationRepo struct {
	mu          sync.Mutex
	evaluations map[string]*model.Evaluation
	groups      map[string]string   // student_id → group_name
	periods     *mockPeriodRepo     // 用于 ListRows 关联学期
	failAssign  map[string]struct{} // AssignPeriod 返回错误的评分
}

func newMockEvaluationRepo(periods *mockPeriodRepo) *mockEvaluationRepo {
	return &mockEvaluationRepo{
		evaluations: make(map[string]*model.Evaluation),
		groups:      make(map[string]string),
		periods:     periods,
		failAssign:  make(map[string]struct{}),
	}
}

func keyOf(e *model.Evaluation) evaluationKey {
	k := evaluationKey{studentID: e.StudentID, racID: e.RACID, professorID: e.ProfessorID}
	if e.PeriodID != nil {
		k.periodID = *e.PeriodID
	}
	return k
}

func (m *mockEvaluationRepo) Upsert(_ context.Context, evaluation *model.Evaluation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, e := range m.evaluations {
		if e.PeriodID != nil && keyOf(e) == keyOf(evaluation) {
			e.Score = evaluation.Score
			e.UpdatedAt = now
			*evaluation = *e
			return false, nil
		}
	}
	evaluation.EvaluationID = uuid.NewString()
	evaluation.CreatedAt, evaluation.UpdatedAt = now, now
	cp := *evaluation
	m.evaluations[cp.EvaluationID] = &cp
	return true, nil
}

func (m *mockEvaluationRepo) GetByID(_ context.Context, id string) (*model.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.evaluations[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEvaluationRepo) matches(e *model.Evaluation, f repository.EvaluationFilter) bool {
	if f.StudentID != "" && e.StudentID != f.StudentID {
		return false
	}
	if f.ProfessorID != "" && e.ProfessorID != f.ProfessorID {
		return false
	}
	if f.PeriodID != "" && (e.PeriodID == nil || *e.PeriodID != f.PeriodID) {
		return false
	}
	if len(f.RACIDs) > 0 {
		for _, id := range f.RACIDs {
			if id == e.RACID {
				return true
			}
		}
		return false
	}
	return true
}

func afterCursor(e *model.Evaluation, c repository.MissingPeriodCursor) bool {
	if !e.CreatedAt.Equal(c.CreatedAt) {
		return e.CreatedAt.After(c.CreatedAt)
	}
	return e.EvaluationID > c.EvaluationID
}

func (m *mockEvaluationRepo) sorted() []*model.Evaluation {
	result := make([]*model.Evaluation, 0, len(m.evaluations))
	for _, e := range m.evaluations {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].EvaluationID < result[j].EvaluationID
	})
	return result
}

func (m *mockEvaluationRepo) List(_ context.Context, f repository.EvaluationFilter, offset, limit int) ([]model.Evaluation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var filtered []model.Evaluation
	for _, e := range m.sorted() {
		if m.matches(e, f) {
			filtered = append(filtered, *e)
		}
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockEvaluationRepo) ListRows(ctx context.Context, f repository.EvaluationFilter) ([]repository.EvaluationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []repository.EvaluationRow
	for _, e := range m.sorted() {
		if !m.matches(e, f) {
			continue
		}
		row := repository.EvaluationRow{
			EvaluationID: e.EvaluationID,
			StudentID:    e.StudentID,
			ProfessorID:  e.ProfessorID,
			RACID:        e.RACID,
			PeriodID:     e.PeriodID,
			StudentGroup: m.groups[e.StudentID],
			Score:        e.Score,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.UpdatedAt,
		}
		if e.PeriodID != nil && m.periods != nil {
			if p, err := m.periods.GetByID(ctx, *e.PeriodID); err == nil {
				half := int(p.Half)
				row.PeriodHalf = &half
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *mockEvaluationRepo) ListMissingPeriod(_ context.Context, after repository.MissingPeriodCursor, limit int) ([]model.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Evaluation
	for _, e := range m.sorted() {
		if e.HasPeriod() {
			continue
		}
		if after.After() && !afterCursor(e, after) {
			continue
		}
		result = append(result, *e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockEvaluationRepo) AssignPeriod(_ context.Context, evaluationID, periodID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, fail := m.failAssign[evaluationID]; fail {
		return false, fmt.Errorf("写入评分 %s 失败", evaluationID)
	}
	e, ok := m.evaluations[evaluationID]
	if !ok || e.HasPeriod() {
		return false, nil
	}
	id := periodID
	e.PeriodID = &id
	return true, nil
}

// insert 直接写入一条评分，测试准备数据用
func (m *mockEvaluationRepo) insert(e model.Evaluation) *model.Evaluation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.EvaluationID == "" {
		e.EvaluationID = uuid.NewString()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	m.evaluations[e.EvaluationID] = &e
	cp := e
	return &cp
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ListByIDs(_ context.Context, ids []string) ([]model.Student, error) {
	var result []model.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockStudentRepo) CountEnrolled(_ context.Context) (int64, error) {
	var n int64
	for _, s := range m.students {
		if s.IsEnrolled() {
			n++
		}
	}
	return n, nil
}

// ── Mock ProfessorRepository ──

type mockProfessorRepo struct {
	professors map[string]*model.Professor
}

func newMockProfessorRepo() *mockProfessorRepo {
	return &mockProfessorRepo{professors: make(map[string]*model.Professor)}
}

func (m *mockProfessorRepo) GetByID(_ context.Context, id string) (*model.Professor, error) {
	if p, ok := m.professors[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfessorRepo) List(_ context.Context) ([]model.Professor, error) {
	var result []model.Professor
	for _, p := range m.professors {
		result = append(result, *p)
	}
	return result, nil
}

// ── Mock CompetencyRepository ──

type mockCompetencyRepo struct {
	gacs        []model.GAC
	racs        []model.RAC
	subjects    []model.Subject
	racGACs     []repository.Membership
	subjectRACs []repository.Membership
	assignments []repository.AssignmentRow
}

func newMockCompetencyRepo() *mockCompetencyRepo {
	return &mockCompetencyRepo{}
}

func (m *mockCompetencyRepo) GetRAC(_ context.Context, id string) (*model.RAC, error) {
	for i := range m.racs {
		if m.racs[i].RACID == id {
			return &m.racs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompetencyRepo) ListGACs(_ context.Context) ([]model.GAC, error) {
	return m.gacs, nil
}

func (m *mockCompetencyRepo) ListRACs(_ context.Context) ([]model.RAC, error) {
	return m.racs, nil
}

func (m *mockCompetencyRepo) ListSubjects(_ context.Context) ([]model.Subject, error) {
	return m.subjects, nil
}

func (m *mockCompetencyRepo) RACGACs(_ context.Context) ([]repository.Membership, error) {
	return m.racGACs, nil
}

func (m *mockCompetencyRepo) SubjectRACs(_ context.Context) ([]repository.Membership, error) {
	return m.subjectRACs, nil
}

func (m *mockCompetencyRepo) Assignments(_ context.Context) ([]repository.AssignmentRow, error) {
	return m.assignments, nil
}

// ── Mock ReportCache ──

type mockReportCache struct {
	mu         sync.Mutex
	entries    map[string][]byte
	generation int64
	gets       int
	sets       int
}

func newMockReportCache() *mockReportCache {
	return &mockReportCache{entries: make(map[string][]byte)}
}

func (m *mockReportCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	data, ok := m.entries[key]
	if !ok {
		return redispkg.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *mockReportCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.entries[key] = data
	return nil
}

func (m *mockReportCache) Generation(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation, nil
}

func (m *mockReportCache) BumpGeneration(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	return nil
}

// ── 测试夹具 ──

type testRepos struct {
	repo        *repository.Repository
	periods     *mockPeriodRepo
	evaluations *mockEvaluationRepo
	students    *mockStudentRepo
	professors  *mockProfessorRepo
	competency  *mockCompetencyRepo
}

func newTestRepos() *testRepos {
	periods := newMockPeriodRepo()
	r := &testRepos{
		periods:     periods,
		evaluations: newMockEvaluationRepo(periods),
		students:    newMockStudentRepo(),
		professors:  newMockProfessorRepo(),
		competency:  newMockCompetencyRepo(),
	}
	r.repo = &repository.Repository{
		Period:     r.periods,
		Evaluation: r.evaluations,
		Student:    r.students,
		Professor:  r.professors,
		Competency: r.competency,
	}
	return r
}

func (r *testRepos) addStudent(name, group, status string) string {
	id := uuid.NewString()
	r.students.students[id] = &model.Student{StudentID: id, Name: name, Group: group, Status: status}
	r.evaluations.groups[id] = group
	return id
}

func (r *testRepos) addProfessor(name string) string {
	id := uuid.NewString()
	r.professors.professors[id] = &model.Professor{ProfessorID: id, Name: name, IsActive: true}
	return id
}

func (r *testRepos) addGAC(number int) string {
	id := uuid.NewString()
	r.competency.gacs = append(r.competency.gacs, model.GAC{GACID: id, Number: number})
	return id
}

// addRAC 创建 RAC 并挂到给定 GAC 下
func (r *testRepos) addRAC(number int, gacIDs ...string) string {
	id := uuid.NewString()
	r.competency.racs = append(r.competency.racs, model.RAC{RACID: id, Number: number})
	for _, g := range gacIDs {
		r.competency.racGACs = append(r.competency.racGACs, repository.Membership{RACID: id, OwnerID: g})
	}
	return id
}

// addSubject 创建课程并关联 RAC 与任课教师
func (r *testRepos) addSubject(name string, racIDs []string, professorIDs ...string) string {
	id := uuid.NewString()
	r.competency.subjects = append(r.competency.subjects, model.Subject{SubjectID: id, Name: name})
	for _, rac := range racIDs {
		r.competency.subjectRACs = append(r.competency.subjectRACs, repository.Membership{RACID: rac, OwnerID: id})
	}
	for _, p := range professorIDs {
		r.competency.assignments = append(r.competency.assignments, repository.AssignmentRow{ProfessorID: p, SubjectID: id})
	}
	return id
}

func ptrFloat(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }
