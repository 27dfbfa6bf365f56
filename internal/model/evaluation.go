package model

// Evaluation 评分记录表 — 对应 evaluations
// 唯一约束 (student_id, rac_id, professor_id, period_id)：同一教师在同一学期对同一学生的同一 RAC 只保留一条
type Evaluation struct {
	EvaluationID string  `gorm:"column:evaluation_id;type:uuid;primaryKey;default:gen_random_uuid()"                   json:"evaluation_id"`
	StudentID    string  `gorm:"column:student_id;type:uuid;not null;uniqueIndex:uq_evaluations_student_rac_prof_period"   json:"student_id"`
	RACID        string  `gorm:"column:rac_id;type:uuid;not null;uniqueIndex:uq_evaluations_student_rac_prof_period"       json:"rac_id"`
	ProfessorID  string  `gorm:"column:professor_id;type:uuid;not null;uniqueIndex:uq_evaluations_student_rac_prof_period" json:"professor_id"`
	PeriodID     *string `gorm:"column:period_id;type:uuid;uniqueIndex:uq_evaluations_student_rac_prof_period;index"       json:"period_id"`
	Score        float64 `gorm:"type:numeric(3,1);not null"                                                            json:"score"`
	BaseModel

	// 关联
	Student   *Student        `gorm:"foreignKey:StudentID;references:StudentID"     json:"student,omitempty"`
	RAC       *RAC            `gorm:"foreignKey:RACID;references:RACID"             json:"rac,omitempty"`
	Professor *Professor      `gorm:"foreignKey:ProfessorID;references:ProfessorID" json:"professor,omitempty"`
	Period    *AcademicPeriod `gorm:"foreignKey:PeriodID;references:PeriodID"       json:"period,omitempty"`
}

// TableName 指定表名
func (Evaluation) TableName() string { return "evaluations" }

// HasPeriod 是否已归属学期
func (e *Evaluation) HasPeriod() bool { return e.PeriodID != nil && *e.PeriodID != "" }
