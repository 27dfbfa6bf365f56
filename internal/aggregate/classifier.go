package aggregate

import (
	"fmt"
	"strings"

	"competencias/backend/internal/model"
)

// SemesterBucket 半年度分桶
type SemesterBucket string

const (
	BucketFirstHalf  SemesterBucket = "first_half"
	BucketSecondHalf SemesterBucket = "second_half"
)

// 分类策略名（配置项 period.semester_classifier）
const (
	ClassifierPeriodTable = "period_table"
	ClassifierMonth       = "month"
	ClassifierGroup       = "group"
)

// SemesterClassifier 半年度分类策略
// ok=false 表示该行无法分类，不计入 semester 维度
type SemesterClassifier interface {
	Classify(r Row) (bucket SemesterBucket, ok bool)
}

// PeriodTableClassifier 按评分所属学期（academic_periods.half）分类
type PeriodTableClassifier struct{}

func (PeriodTableClassifier) Classify(r Row) (SemesterBucket, bool) {
	switch r.PeriodHalf {
	case model.HalfFirst:
		return BucketFirstHalf, true
	case model.HalfSecond:
		return BucketSecondHalf, true
	default:
		return "", false
	}
}

// MonthClassifier 按评分创建月份分类：1–6 月上半年，7–12 月下半年
type MonthClassifier struct{}

func (MonthClassifier) Classify(r Row) (SemesterBucket, bool) {
	if r.CreatedAt.IsZero() {
		return "", false
	}
	if model.HalfOf(r.CreatedAt) == model.HalfFirst {
		return BucketFirstHalf, true
	}
	return BucketSecondHalf, true
}

// GroupNameClassifier 按学生班级名分类：命中 secondHalf 列表的归入下半年，其余归入上半年
type GroupNameClassifier struct {
	secondHalf map[string]struct{}
}

// NewGroupNameClassifier 班级名比较不区分大小写、忽略首尾空白
func NewGroupNameClassifier(secondHalfGroups []string) *GroupNameClassifier {
	set := make(map[string]struct{}, len(secondHalfGroups))
	for _, g := range secondHalfGroups {
		set[normalizeGroup(g)] = struct{}{}
	}
	return &GroupNameClassifier{secondHalf: set}
}

func (c *GroupNameClassifier) Classify(r Row) (SemesterBucket, bool) {
	g := normalizeGroup(r.StudentGroup)
	if g == "" {
		return "", false
	}
	if _, ok := c.secondHalf[g]; ok {
		return BucketSecondHalf, true
	}
	return BucketFirstHalf, true
}

func normalizeGroup(g string) string {
	return strings.ToUpper(strings.TrimSpace(g))
}

// NewClassifier 按策略名构造分类器
func NewClassifier(policy string, secondHalfGroups []string) (SemesterClassifier, error) {
	switch policy {
	case ClassifierPeriodTable, "":
		return PeriodTableClassifier{}, nil
	case ClassifierMonth:
		return MonthClassifier{}, nil
	case ClassifierGroup:
		return NewGroupNameClassifier(secondHalfGroups), nil
	default:
		return nil, fmt.Errorf("未知的学期分类策略 %q", policy)
	}
}
