package aggregate

import (
	"time"

	"competencias/backend/internal/model"
)

// RACScore 学生在单个 RAC 上的评分
type RACScore struct {
	RACID       string    `json:"rac_id"`
	Label       string    `json:"label,omitempty"`
	ProfessorID string    `json:"professor_id"`
	Score       float64   `json:"score"`
	Passed      bool      `json:"passed"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// GACResult 学生在单个 GAC 下的成绩
type GACResult struct {
	GACID       string     `json:"gac_id"`
	Label       string     `json:"label,omitempty"`
	RACs        []RACScore `json:"racs"`
	Average     float64    `json:"average"`
	Count       int        `json:"count"`
	Qualitative string     `json:"qualitative"`
	Light       Status     `json:"light"`
}

// StudentReport 学生成绩报告
type StudentReport struct {
	GACs    []GACResult `json:"gacs"`
	Summary Summary     `json:"summary"`
}

// StudentResults 学生评分按 GAC 分组（扇出到 RAC 所属的每个 GAC），汇总不扇出
func StudentResults(in Input, studentID string, f Filter) StudentReport {
	f.StudentID = studentID
	rows := FilterRows(in, f)

	index := make(map[string]int)
	var gacs []GACResult
	sums := make([]float64, 0)

	for _, r := range rows {
		for _, gacID := range in.Memberships.GACsOf(r.RACID) {
			i, ok := index[gacID]
			if !ok {
				i = len(gacs)
				index[gacID] = i
				gacs = append(gacs, GACResult{GACID: gacID, Label: in.Labels.Lookup(DimensionGAC, gacID)})
				sums = append(sums, 0)
			}
			gacs[i].RACs = append(gacs[i].RACs, RACScore{
				RACID:       r.RACID,
				Label:       in.Labels.Lookup(DimensionRAC, r.RACID),
				ProfessorID: r.ProfessorID,
				Score:       r.Score,
				Passed:      model.IsPassing(r.Score),
				EvaluatedAt: r.UpdatedAt,
			})
			sums[i] += r.Score
		}
	}

	for i := range gacs {
		gacs[i].Count = len(gacs[i].RACs)
		gacs[i].Average = safeDiv(sums[i], gacs[i].Count)
		gacs[i].Qualitative = Qualitative(gacs[i].Average)
		gacs[i].Light = ScoreLight(gacs[i].Average)
	}
	if gacs == nil {
		gacs = []GACResult{}
	}

	return StudentReport{GACs: gacs, Summary: Summarize(rows)}
}

// ProgressEntry 同一分组在两个学期间的平均分变化
type ProgressEntry struct {
	GroupKey string   `json:"group_key"`
	Label    string   `json:"label,omitempty"`
	Previous *float64 `json:"previous"`
	Current  *float64 `json:"current"`
	Delta    *float64 `json:"delta"`
}

// Progress 对比本学期与上学期的分组结果
// 先按本学期顺序输出，再追加仅在上学期出现的分组；两边都有时才计算 Delta。
func Progress(current, previous []GroupedResult) []ProgressEntry {
	prevIndex := make(map[string]int, len(previous))
	for i, p := range previous {
		prevIndex[p.GroupKey] = i
	}

	seen := make(map[string]struct{}, len(current))
	out := make([]ProgressEntry, 0, len(current)+len(previous))

	for _, c := range current {
		cur := c.Average
		e := ProgressEntry{GroupKey: c.GroupKey, Label: c.Label, Current: &cur}
		if i, ok := prevIndex[c.GroupKey]; ok {
			prev := previous[i].Average
			delta := cur - prev
			e.Previous = &prev
			e.Delta = &delta
		}
		seen[c.GroupKey] = struct{}{}
		out = append(out, e)
	}

	for _, p := range previous {
		if _, ok := seen[p.GroupKey]; ok {
			continue
		}
		prev := p.Average
		out = append(out, ProgressEntry{GroupKey: p.GroupKey, Label: p.Label, Previous: &prev})
	}
	return out
}
