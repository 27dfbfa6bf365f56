package repository

import (
	"context"

	"gorm.io/gorm"

	"competencias/backend/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*model.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Student, error)
	CountEnrolled(ctx context.Context) (int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Student, error) {
	var students []model.Student
	if len(ids) == 0 {
		return students, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id IN ?", ids).
		Order("name ASC").
		Find(&students).Error
	return students, err
}

// CountEnrolled 已注册学生数（覆盖率分母）
func (r *studentRepo) CountEnrolled(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("status = ?", model.StudentStatusEnrolled).
		Count(&count).Error
	return count, err
}
