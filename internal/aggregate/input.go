// Package aggregate 评分聚合引擎：对评分快照按维度分组统计。
// 纯函数、无状态；RAC→GAC / RAC→Subject 的多对多关系在每次聚合前一次性物化为 Memberships。
package aggregate

import (
	"fmt"
	"time"

	"competencias/backend/internal/model"
)

// ── 维度 ──

// Dimension 分组维度
type Dimension string

const (
	DimensionGAC       Dimension = "gac"
	DimensionSubject   Dimension = "subject"
	DimensionProfessor Dimension = "professor"
	DimensionStudent   Dimension = "student"
	DimensionPeriod    Dimension = "period"
	DimensionSemester  Dimension = "semester"
	DimensionRAC       Dimension = "rac"
)

// ParseDimension 解析维度名
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case DimensionGAC, DimensionSubject, DimensionProfessor, DimensionStudent,
		DimensionPeriod, DimensionSemester, DimensionRAC:
		return d, nil
	default:
		return "", fmt.Errorf("未知的聚合维度 %q", s)
	}
}

// ── 输入 ──

// Row 单条评分快照
type Row struct {
	EvaluationID string
	StudentID    string
	ProfessorID  string
	RACID        string
	PeriodID     string     // 空串表示尚未归属学期
	PeriodHalf   model.Half // 0 表示未知
	StudentGroup string
	Score        float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Memberships RAC 的 GAC / Subject 归属关系
type Memberships struct {
	racGACs     map[string][]string
	racSubjects map[string][]string
}

// NewMemberships 创建空的归属关系
func NewMemberships() *Memberships {
	return &Memberships{
		racGACs:     make(map[string][]string),
		racSubjects: make(map[string][]string),
	}
}

// AddGAC 登记 RAC→GAC（重复登记忽略）
func (m *Memberships) AddGAC(racID, gacID string) {
	m.racGACs[racID] = appendUnique(m.racGACs[racID], gacID)
}

// AddSubject 登记 RAC→Subject（重复登记忽略）
func (m *Memberships) AddSubject(racID, subjectID string) {
	m.racSubjects[racID] = appendUnique(m.racSubjects[racID], subjectID)
}

// GACsOf RAC 所属 GAC（可能为空）
func (m *Memberships) GACsOf(racID string) []string {
	if m == nil {
		return nil
	}
	return m.racGACs[racID]
}

// SubjectsOf RAC 所属课程（可能为空）
func (m *Memberships) SubjectsOf(racID string) []string {
	if m == nil {
		return nil
	}
	return m.racSubjects[racID]
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// Labels 各维度 key → 展示名
type Labels map[Dimension]map[string]string

// Set 设置展示名
func (l Labels) Set(dim Dimension, key, label string) {
	if l[dim] == nil {
		l[dim] = make(map[string]string)
	}
	l[dim][key] = label
}

// Lookup 查询展示名，不存在时返回空串
func (l Labels) Lookup(dim Dimension, key string) string {
	if l == nil {
		return ""
	}
	return l[dim][key]
}

// Input 一次聚合所需的完整快照
type Input struct {
	Rows        []Row
	Memberships *Memberships
	Labels      Labels
}

// Filter 过滤条件，空字段表示不过滤
type Filter struct {
	PeriodID    string
	ProfessorID string
	StudentID   string
	RACID       string
	SubjectID   string
	GACID       string
}

// matchRow 行级过滤；GAC / Subject 过滤要求 RAC 属于对应分组
func (f Filter) matchRow(r Row, m *Memberships) bool {
	if f.PeriodID != "" && r.PeriodID != f.PeriodID {
		return false
	}
	if f.ProfessorID != "" && r.ProfessorID != f.ProfessorID {
		return false
	}
	if f.StudentID != "" && r.StudentID != f.StudentID {
		return false
	}
	if f.RACID != "" && r.RACID != f.RACID {
		return false
	}
	if f.SubjectID != "" && !contains(m.SubjectsOf(r.RACID), f.SubjectID) {
		return false
	}
	if f.GACID != "" && !contains(m.GACsOf(r.RACID), f.GACID) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
