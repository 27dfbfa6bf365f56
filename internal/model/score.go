package model

import (
	"fmt"
	"math"
)

// ScoreScale 评分刻度
type ScoreScale string

const (
	// ScoreScaleCurrent 当前刻度 {0,1,2,3,3.5,4,5}
	ScoreScaleCurrent ScoreScale = "current"
	// ScoreScaleLegacy 旧版整数刻度 {1..5}
	ScoreScaleLegacy ScoreScale = "legacy"
)

// PassThreshold 及格线：score >= 3 视为通过
const PassThreshold = 3.0

var (
	currentScores = []float64{0, 1, 2, 3, 3.5, 4, 5}
	legacyScores  = []float64{1, 2, 3, 4, 5}
)

// ParseScoreScale 解析配置中的刻度名
func ParseScoreScale(s string) (ScoreScale, error) {
	switch ScoreScale(s) {
	case ScoreScaleCurrent, "":
		return ScoreScaleCurrent, nil
	case ScoreScaleLegacy:
		return ScoreScaleLegacy, nil
	default:
		return "", fmt.Errorf("未知的评分刻度 %q", s)
	}
}

// Allowed 刻度允许的分值（升序）
func (s ScoreScale) Allowed() []float64 {
	if s == ScoreScaleLegacy {
		return legacyScores
	}
	return currentScores
}

// Valid 分值是否属于刻度枚举集合
func (s ScoreScale) Valid(score float64) bool {
	for _, v := range s.Allowed() {
		if math.Abs(v-score) < 1e-9 {
			return true
		}
	}
	return false
}

// IsPassing 是否及格
func IsPassing(score float64) bool {
	return score >= PassThreshold
}
