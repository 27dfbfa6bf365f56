package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"competencias/backend/internal/model"
)

// PeriodRepository 学期数据访问接口
type PeriodRepository interface {
	Create(ctx context.Context, period *model.AcademicPeriod) error
	GetByID(ctx context.Context, id string) (*model.AcademicPeriod, error)
	GetByYearHalf(ctx context.Context, year int, half model.Half) (*model.AcademicPeriod, error)
	// FindContaining 查找 [start_date, end_date] 包含该日期的学期；多个命中时取开始日期最晚者
	FindContaining(ctx context.Context, date time.Time) (*model.AcademicPeriod, error)
	GetActive(ctx context.Context) (*model.AcademicPeriod, error)
	List(ctx context.Context) ([]model.AcademicPeriod, error)
	Update(ctx context.Context, period *model.AcademicPeriod) error
	ClearActive(ctx context.Context) error
}

type periodRepo struct {
	db *gorm.DB
}

// NewPeriodRepo 创建 PeriodRepository 实例
func NewPeriodRepo(db *gorm.DB) PeriodRepository {
	return &periodRepo{db: db}
}

func (r *periodRepo) Create(ctx context.Context, period *model.AcademicPeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *periodRepo) GetByID(ctx context.Context, id string) (*model.AcademicPeriod, error) {
	var period model.AcademicPeriod
	err := r.db.WithContext(ctx).
		Where("period_id = ?", id).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) GetByYearHalf(ctx context.Context, year int, half model.Half) (*model.AcademicPeriod, error) {
	var period model.AcademicPeriod
	err := r.db.WithContext(ctx).
		Where("year = ? AND half = ?", year, half).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) FindContaining(ctx context.Context, date time.Time) (*model.AcademicPeriod, error) {
	var period model.AcademicPeriod
	day := model.DateOnly(date).Format("2006-01-02")
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("start_date DESC").
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) GetActive(ctx context.Context) (*model.AcademicPeriod, error) {
	var period model.AcademicPeriod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) List(ctx context.Context) ([]model.AcademicPeriod, error) {
	var periods []model.AcademicPeriod
	err := r.db.WithContext(ctx).
		Order("year DESC").
		Order("half DESC").
		Find(&periods).Error
	return periods, err
}

func (r *periodRepo) Update(ctx context.Context, period *model.AcademicPeriod) error {
	return r.db.WithContext(ctx).Save(period).Error
}

// ClearActive 将所有学期的 is_active 设为 false
func (r *periodRepo) ClearActive(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.AcademicPeriod{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}
