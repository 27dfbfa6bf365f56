package model

import (
	"fmt"
	"time"
)

// Half 学期半年度：1 = 上半年（1–6 月），2 = 下半年（7–12 月）
type Half int

const (
	HalfFirst  Half = 1
	HalfSecond Half = 2
)

// HalfOf 按月份判定半年度：month ≤ 6 为 FIRST，否则 SECOND
func HalfOf(t time.Time) Half {
	if t.Month() <= time.June {
		return HalfFirst
	}
	return HalfSecond
}

// Valid 是否为合法的半年度取值
func (h Half) Valid() bool {
	return h == HalfFirst || h == HalfSecond
}

func (h Half) String() string {
	switch h {
	case HalfFirst:
		return "FIRST"
	case HalfSecond:
		return "SECOND"
	default:
		return fmt.Sprintf("Half(%d)", int(h))
	}
}

// PeriodCode 学期编码 "{year}-{half}"，如 "2025-1"
func PeriodCode(year int, h Half) string {
	return fmt.Sprintf("%d-%d", year, int(h))
}

// PeriodName 学期展示名，如 "Primer Semestre 2025"
func PeriodName(year int, h Half) string {
	if h == HalfFirst {
		return fmt.Sprintf("Primer Semestre %d", year)
	}
	return fmt.Sprintf("Segundo Semestre %d", year)
}

// DefaultBounds 默认起止日期：FIRST 为 1/1–6/30，SECOND 为 7/1–12/31
func DefaultBounds(year int, h Half) (start, end time.Time) {
	if h == HalfFirst {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// PreviousHalf 上一个学期：SECOND → 同年 FIRST，FIRST → 上一年 SECOND
func PreviousHalf(year int, h Half) (int, Half) {
	if h == HalfSecond {
		return year, HalfFirst
	}
	return year - 1, HalfSecond
}

// AcademicPeriod 学期表 — 对应 academic_periods
// code / name 由 (year, half) 推导，不落库
type AcademicPeriod struct {
	PeriodID  string    `gorm:"column:period_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"period_id"`
	Year      int       `gorm:"not null;uniqueIndex:uq_academic_periods_year_half"              json:"year"`
	Half      Half      `gorm:"type:smallint;not null;uniqueIndex:uq_academic_periods_year_half" json:"half"`
	StartDate time.Time `gorm:"type:date;not null"                                              json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null"                                              json:"end_date"`
	IsActive  bool      `gorm:"not null;default:false"                                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (AcademicPeriod) TableName() string { return "academic_periods" }

// NewAcademicPeriod 按默认边界构造学期（未激活）
func NewAcademicPeriod(year int, h Half) *AcademicPeriod {
	start, end := DefaultBounds(year, h)
	return &AcademicPeriod{
		Year:      year,
		Half:      h,
		StartDate: start,
		EndDate:   end,
	}
}

// Code 学期编码
func (p *AcademicPeriod) Code() string { return PeriodCode(p.Year, p.Half) }

// Name 学期展示名
func (p *AcademicPeriod) Name() string { return PeriodName(p.Year, p.Half) }

// Contains 日期是否落在 [StartDate, EndDate] 闭区间内（按日比较）
func (p *AcademicPeriod) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}
