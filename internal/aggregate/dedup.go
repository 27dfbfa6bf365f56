package aggregate

// GACEntry 去重后的 (教师, 学生, GAC) 评分
type GACEntry struct {
	GACID string
	Row   Row
}

type dedupKey struct {
	professorID string
	studentID   string
	gacID       string
}

// newer 判断 a 是否应取代 b：更新时间更晚者优先，时间相同取主键较大者
func newer(a, b Row) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.EvaluationID > b.EvaluationID
}

// DedupLatestByGAC 按 (professor, student, gac) 去重，保留最新的一条
// 输出顺序为各键首次出现的顺序，结果与输入行顺序无关（除顺序外）。
func DedupLatestByGAC(in Input, f Filter) []GACEntry {
	index := make(map[dedupKey]int)
	var entries []GACEntry

	for _, r := range in.Rows {
		if !f.matchRow(r, in.Memberships) {
			continue
		}
		for _, gacID := range in.Memberships.GACsOf(r.RACID) {
			if f.GACID != "" && gacID != f.GACID {
				continue
			}
			k := dedupKey{professorID: r.ProfessorID, studentID: r.StudentID, gacID: gacID}
			i, ok := index[k]
			if !ok {
				index[k] = len(entries)
				entries = append(entries, GACEntry{GACID: gacID, Row: r})
				continue
			}
			if newer(r, entries[i].Row) {
				entries[i].Row = r
			}
		}
	}
	return entries
}

// UniqueSummary 基于去重结果的总体统计（仪表盘"唯一评分"口径）
func UniqueSummary(in Input, f Filter) Summary {
	entries := DedupLatestByGAC(in, f)
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.Row)
	}
	return Summarize(rows)
}
