package aggregate

import "math"

// Assignment 教师-课程分配
type Assignment struct {
	ProfessorID string
	SubjectID   string
}

// Coverage 教师 × 课程评分覆盖率
type Coverage struct {
	ProfessorID       string  `json:"professor_id"`
	ProfessorName     string  `json:"professor_name,omitempty"`
	SubjectID         string  `json:"subject_id"`
	SubjectName       string  `json:"subject_name,omitempty"`
	EvaluatedStudents int     `json:"evaluated_students"`
	TotalStudents     int     `json:"total_students"`
	Percent           float64 `json:"percent"`
	Status            Status  `json:"status"`
}

// NewCoverage 计算覆盖率与分档；total 为 0 时覆盖率为 0，超过 100% 时截断为 100%
func NewCoverage(evaluated, total int) (float64, Status) {
	p := math.Min(percent(evaluated, total), 100)
	return p, CoverageBand(p)
}

// ProfessorSubjectCoverage 按分配关系计算覆盖率
// evaluated：该教师在该课程任一 RAC 上评过分的不同学生数，不区分学生当前状态；
// total：totals[subjectID]，即应在该课程 RAC 上被评分的学生数。
// 没有选课关系时调用方以全部已注册学生为分母，而非课程的实际选课人数；
// 预注册或已变更状态学生的评分会让 evaluated 超过 total，此时覆盖率按 100% 计。
func ProfessorSubjectCoverage(in Input, f Filter, assignments []Assignment, totals map[string]int) []Coverage {
	type pair struct{ professorID, subjectID string }
	evaluated := make(map[pair]map[string]struct{})

	for _, r := range in.Rows {
		if !f.matchRow(r, in.Memberships) {
			continue
		}
		for _, subjectID := range in.Memberships.SubjectsOf(r.RACID) {
			k := pair{r.ProfessorID, subjectID}
			if evaluated[k] == nil {
				evaluated[k] = make(map[string]struct{})
			}
			evaluated[k][r.StudentID] = struct{}{}
		}
	}

	out := make([]Coverage, 0, len(assignments))
	for _, a := range assignments {
		if f.ProfessorID != "" && a.ProfessorID != f.ProfessorID {
			continue
		}
		if f.SubjectID != "" && a.SubjectID != f.SubjectID {
			continue
		}
		n := len(evaluated[pair{a.ProfessorID, a.SubjectID}])
		total := totals[a.SubjectID]
		p, status := NewCoverage(n, total)
		out = append(out, Coverage{
			ProfessorID:       a.ProfessorID,
			ProfessorName:     in.Labels.Lookup(DimensionProfessor, a.ProfessorID),
			SubjectID:         a.SubjectID,
			SubjectName:       in.Labels.Lookup(DimensionSubject, a.SubjectID),
			EvaluatedStudents: n,
			TotalStudents:     total,
			Percent:           p,
			Status:            status,
		})
	}
	return out
}
