package aggregate

import "math"

// Status 红黄绿三档
type Status string

const (
	StatusRed    Status = "red"
	StatusYellow Status = "yellow"
	StatusGreen  Status = "green"
)

// 定性等级
const (
	GradeExcellent    = "Excelente"
	GradeNotable      = "Notable"
	GradeApproved     = "Aprobado"
	GradeInsufficient = "Insuficiente"
	GradeDeficient    = "Deficiente"
	GradeFailed       = "Reprobado"
)

// round1 保留一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Qualitative 平均分 → 定性等级（先保留一位小数再比较）
func Qualitative(avg float64) string {
	v := round1(avg)
	switch {
	case v >= 5.0:
		return GradeExcellent
	case v >= 4.0:
		return GradeNotable
	case v >= 3.5:
		return GradeApproved
	case v >= 3.0:
		return GradeInsufficient
	case v >= 1.0:
		return GradeDeficient
	default:
		return GradeFailed
	}
}

// ScoreLight 平均分红绿灯：≥4 绿，≥3 黄，其余红
func ScoreLight(avg float64) Status {
	v := round1(avg)
	switch {
	case v >= 4.0:
		return StatusGreen
	case v >= 3.0:
		return StatusYellow
	default:
		return StatusRed
	}
}

// CoverageBand 覆盖率分档：≤30% 红，≤60% 黄，其余绿
func CoverageBand(percent float64) Status {
	switch {
	case percent <= 30:
		return StatusRed
	case percent <= 60:
		return StatusYellow
	default:
		return StatusGreen
	}
}
