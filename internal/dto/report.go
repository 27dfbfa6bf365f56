package dto

import "competencias/backend/internal/aggregate"

// ── 报表模块 DTO ──

// ReportFilter 报表通用过滤条件
type ReportFilter struct {
	PeriodID    string `form:"period_id"    json:"period_id,omitempty"    binding:"omitempty,uuid"`
	ProfessorID string `form:"professor_id" json:"professor_id,omitempty" binding:"omitempty,uuid"`
	StudentID   string `form:"student_id"   json:"student_id,omitempty"   binding:"omitempty,uuid"`
	RACID       string `form:"rac_id"       json:"rac_id,omitempty"       binding:"omitempty,uuid"`
	SubjectID   string `form:"subject_id"   json:"subject_id,omitempty"   binding:"omitempty,uuid"`
	GACID       string `form:"gac_id"       json:"gac_id,omitempty"       binding:"omitempty,uuid"`
}

// StudentReportQuery 学生报告的可选学期
type StudentReportQuery struct {
	PeriodID string `form:"period_id" binding:"omitempty,uuid"`
}

// AggregateResponse 按维度分组的统计
type AggregateResponse struct {
	Dimension aggregate.Dimension       `json:"dimension"`
	Groups    []aggregate.GroupedResult `json:"groups"`
}

// DashboardResponse 仪表盘
type DashboardResponse struct {
	Summary       aggregate.Summary         `json:"summary"`
	Unique        aggregate.Summary         `json:"unique"`
	TopGACs       []aggregate.GroupedResult `json:"top_gacs"`
	TopSubjects   []aggregate.GroupedResult `json:"top_subjects"`
	TopProfessors []aggregate.GroupedResult `json:"top_professors"`
	TopRACs       []aggregate.GroupedResult `json:"top_racs"`
	Semesters     []aggregate.GroupedResult `json:"semesters"`
	GeneratedAt   string                    `json:"generated_at"`
}

// CoverageResponse 教师 × 课程覆盖率
type CoverageResponse struct {
	TotalStudents int                  `json:"total_students"`
	Items         []aggregate.Coverage `json:"items"`
}

// StudentReportResponse 学生成绩报告
type StudentReportResponse struct {
	StudentID string                `json:"student_id"`
	Name      string                `json:"name"`
	Group     string                `json:"group"`
	Period    *PeriodResponse       `json:"period,omitempty"`
	GACs      []aggregate.GACResult `json:"gacs"`
	Summary   aggregate.Summary     `json:"summary"`
}

// StudentProgressResponse 学生跨学期进步情况
type StudentProgressResponse struct {
	StudentID string                    `json:"student_id"`
	Current   *PeriodResponse           `json:"current"`
	Previous  *PeriodResponse           `json:"previous"`
	GACs      []aggregate.ProgressEntry `json:"gacs"`
}
