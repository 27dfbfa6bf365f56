package repository

import (
	"context"

	"gorm.io/gorm"

	"competencias/backend/internal/model"
)

// Membership RAC 与 GAC / 课程的关联行
type Membership struct {
	RACID   string `gorm:"column:rac_id"`
	OwnerID string `gorm:"column:owner_id"`
}

// AssignmentRow 教师-课程分配行
type AssignmentRow struct {
	ProfessorID string `gorm:"column:professor_id"`
	SubjectID   string `gorm:"column:subject_id"`
}

// CompetencyRepository GAC / RAC / 课程及其关联的数据访问接口
type CompetencyRepository interface {
	GetRAC(ctx context.Context, id string) (*model.RAC, error)
	ListGACs(ctx context.Context) ([]model.GAC, error)
	ListRACs(ctx context.Context) ([]model.RAC, error)
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	// RACGACs rac_gacs 全表，OwnerID 为 gac_id
	RACGACs(ctx context.Context) ([]Membership, error)
	// SubjectRACs subject_racs 全表，OwnerID 为 subject_id
	SubjectRACs(ctx context.Context) ([]Membership, error)
	Assignments(ctx context.Context) ([]AssignmentRow, error)
}

type competencyRepo struct {
	db *gorm.DB
}

// NewCompetencyRepo 创建 CompetencyRepository 实例
func NewCompetencyRepo(db *gorm.DB) CompetencyRepository {
	return &competencyRepo{db: db}
}

func (r *competencyRepo) GetRAC(ctx context.Context, id string) (*model.RAC, error) {
	var rac model.RAC
	err := r.db.WithContext(ctx).
		Where("rac_id = ?", id).
		First(&rac).Error
	if err != nil {
		return nil, err
	}
	return &rac, nil
}

func (r *competencyRepo) ListGACs(ctx context.Context) ([]model.GAC, error) {
	var gacs []model.GAC
	err := r.db.WithContext(ctx).Order("number ASC").Find(&gacs).Error
	return gacs, err
}

func (r *competencyRepo) ListRACs(ctx context.Context) ([]model.RAC, error) {
	var racs []model.RAC
	err := r.db.WithContext(ctx).Order("number ASC").Find(&racs).Error
	return racs, err
}

func (r *competencyRepo) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error
	return subjects, err
}

func (r *competencyRepo) RACGACs(ctx context.Context) ([]Membership, error) {
	var rows []Membership
	err := r.db.WithContext(ctx).
		Table("rac_gacs rg").
		Select("rg.rac_id, rg.gac_id AS owner_id").
		Joins("JOIN gacs g ON g.gac_id = rg.gac_id").
		Order("g.number ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *competencyRepo) SubjectRACs(ctx context.Context) ([]Membership, error) {
	var rows []Membership
	err := r.db.WithContext(ctx).
		Table("subject_racs sr").
		Select("sr.rac_id, sr.subject_id AS owner_id").
		Joins("JOIN subjects s ON s.subject_id = sr.subject_id").
		Order("s.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *competencyRepo) Assignments(ctx context.Context) ([]AssignmentRow, error) {
	var rows []AssignmentRow
	err := r.db.WithContext(ctx).
		Table("subject_professors sp").
		Select("sp.professor_id, sp.subject_id").
		Joins("JOIN professors p ON p.professor_id = sp.professor_id").
		Joins("JOIN subjects s ON s.subject_id = sp.subject_id").
		Order("p.name ASC").
		Order("s.name ASC").
		Scan(&rows).Error
	return rows, err
}
