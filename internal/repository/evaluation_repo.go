package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"competencias/backend/internal/model"
)

// EvaluationFilter 评分查询条件（空字符串表示不限）
type EvaluationFilter struct {
	PeriodID    string
	ProfessorID string
	StudentID   string
	RACIDs      []string
}

// EvaluationRow 聚合查询的扁平行：评分 + 学期半年度 + 学生班级
type EvaluationRow struct {
	EvaluationID string    `gorm:"column:evaluation_id"`
	StudentID    string    `gorm:"column:student_id"`
	ProfessorID  string    `gorm:"column:professor_id"`
	RACID        string    `gorm:"column:rac_id"`
	PeriodID     *string   `gorm:"column:period_id"`
	PeriodHalf   *int      `gorm:"column:period_half"`
	StudentGroup string    `gorm:"column:student_group"`
	Score        float64   `gorm:"column:score"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// MissingPeriodCursor 回填扫描的游标，零值表示从头开始
type MissingPeriodCursor struct {
	CreatedAt    time.Time
	EvaluationID string
}

// After 游标是否已推进
func (c MissingPeriodCursor) After() bool {
	return c.EvaluationID != ""
}

// EvaluationRepository 评分数据访问接口
type EvaluationRepository interface {
	// Upsert 按 (student, rac, professor, period) 插入或原地更新分值，created 表示是否新建
	Upsert(ctx context.Context, evaluation *model.Evaluation) (created bool, err error)
	GetByID(ctx context.Context, id string) (*model.Evaluation, error)
	List(ctx context.Context, filter EvaluationFilter, offset, limit int) ([]model.Evaluation, int64, error)
	ListRows(ctx context.Context, filter EvaluationFilter) ([]EvaluationRow, error)
	// ListMissingPeriod 尚未归属学期的评分，按 (created_at, evaluation_id) 升序，只返回游标之后的行
	ListMissingPeriod(ctx context.Context, after MissingPeriodCursor, limit int) ([]model.Evaluation, error)
	// AssignPeriod 仅当评分仍无学期时写入，返回是否实际更新
	AssignPeriod(ctx context.Context, evaluationID, periodID string) (bool, error)
}

type evaluationRepo struct {
	db *gorm.DB
}

// NewEvaluationRepo 创建 EvaluationRepository 实例
func NewEvaluationRepo(db *gorm.DB) EvaluationRepository {
	return &evaluationRepo{db: db}
}

var evaluationConflictColumns = []clause.Column{
	{Name: "student_id"},
	{Name: "rac_id"},
	{Name: "professor_id"},
	{Name: "period_id"},
}

func (r *evaluationRepo) Upsert(ctx context.Context, evaluation *model.Evaluation) (bool, error) {
	// PostgreSQL 时间戳精度为微秒，截断后才能与 RETURNING 的 created_at 精确比较
	now := time.Now().UTC().Truncate(time.Microsecond)
	evaluation.CreatedAt = now
	evaluation.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   evaluationConflictColumns,
				DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
			},
			clause.Returning{},
		).
		Create(evaluation).Error
	if err != nil {
		return false, err
	}
	return evaluation.CreatedAt.Equal(now), nil
}

func (r *evaluationRepo) GetByID(ctx context.Context, id string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Period").
		Where("evaluation_id = ?", id).
		First(&evaluation).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepo) List(ctx context.Context, filter EvaluationFilter, offset, limit int) ([]model.Evaluation, int64, error) {
	var evaluations []model.Evaluation
	var total int64

	db := applyEvaluationFilter(r.db.WithContext(ctx).Model(&model.Evaluation{}), "evaluations", filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Preload("Period").
		Order("updated_at DESC").
		Order("evaluation_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&evaluations).Error
	return evaluations, total, err
}

func (r *evaluationRepo) ListRows(ctx context.Context, filter EvaluationFilter) ([]EvaluationRow, error) {
	var rows []EvaluationRow

	db := r.db.WithContext(ctx).
		Table("evaluations e").
		Select(`e.evaluation_id, e.student_id, e.professor_id, e.rac_id, e.period_id,
			p.half AS period_half, s.group_name AS student_group, e.score, e.created_at, e.updated_at`).
		Joins("LEFT JOIN academic_periods p ON p.period_id = e.period_id").
		Joins("JOIN students s ON s.student_id = e.student_id")
	db = applyEvaluationFilter(db, "e", filter)

	err := db.Order("e.created_at ASC").Order("e.evaluation_id ASC").Scan(&rows).Error
	return rows, err
}

func (r *evaluationRepo) ListMissingPeriod(ctx context.Context, after MissingPeriodCursor, limit int) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	db := r.db.WithContext(ctx).Where("period_id IS NULL")
	if after.After() {
		db = db.Where("(created_at, evaluation_id) > (?, ?)", after.CreatedAt, after.EvaluationID)
	}
	db = db.Order("created_at ASC").Order("evaluation_id ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&evaluations).Error
	return evaluations, err
}

func (r *evaluationRepo) AssignPeriod(ctx context.Context, evaluationID, periodID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Evaluation{}).
		Where("evaluation_id = ? AND period_id IS NULL", evaluationID).
		Update("period_id", periodID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// applyEvaluationFilter 下推可直接按列过滤的条件；RAC 归属类过滤由调用方展开为 RACIDs
func applyEvaluationFilter(db *gorm.DB, alias string, f EvaluationFilter) *gorm.DB {
	if f.PeriodID != "" {
		db = db.Where(alias+".period_id = ?", f.PeriodID)
	}
	if f.ProfessorID != "" {
		db = db.Where(alias+".professor_id = ?", f.ProfessorID)
	}
	if f.StudentID != "" {
		db = db.Where(alias+".student_id = ?", f.StudentID)
	}
	if f.RACIDs != nil {
		db = db.Where(alias+".rac_id IN ?", f.RACIDs)
	}
	return db
}
