package aggregate

import (
	"sort"

	"competencias/backend/internal/model"
)

// GroupedResult 单个分组的统计结果
type GroupedResult struct {
	GroupKey    string  `json:"group_key"`
	Label       string  `json:"label,omitempty"`
	Average     float64 `json:"average"`
	Count       int     `json:"count"`
	PassCount   int     `json:"pass_count"`
	FailCount   int     `json:"fail_count"`
	PassRate    float64 `json:"pass_rate"` // 百分比 0–100
	Qualitative string  `json:"qualitative"`
	Light       Status  `json:"light"`
}

// Summary 总体统计
type Summary struct {
	Total      int     `json:"total"`
	Students   int     `json:"students"`
	Professors int     `json:"professors"`
	RACs       int     `json:"racs"`
	Average    float64 `json:"average"`
	PassCount  int     `json:"pass_count"`
	FailCount  int     `json:"fail_count"`
	PassRate   float64 `json:"pass_rate"`
}

// Aggregator 聚合器；只持有半年度分类策略，不保存任何中间状态
type Aggregator struct {
	classifier SemesterClassifier
}

// New 创建聚合器，classifier 为 nil 时使用学期表分类
func New(classifier SemesterClassifier) *Aggregator {
	if classifier == nil {
		classifier = PeriodTableClassifier{}
	}
	return &Aggregator{classifier: classifier}
}

// ── 累加器（保持分组首次出现顺序） ──

type bucket struct {
	key   string
	sum   float64
	count int
	pass  int
}

type accumulator struct {
	index   map[string]int
	buckets []*bucket
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

func (a *accumulator) add(key string, score float64) {
	i, ok := a.index[key]
	if !ok {
		i = len(a.buckets)
		a.index[key] = i
		a.buckets = append(a.buckets, &bucket{key: key})
	}
	b := a.buckets[i]
	b.sum += score
	b.count++
	if model.IsPassing(score) {
		b.pass++
	}
}

func (a *accumulator) results(dim Dimension, labels Labels) []GroupedResult {
	out := make([]GroupedResult, 0, len(a.buckets))
	for _, b := range a.buckets {
		avg := safeDiv(b.sum, b.count)
		out = append(out, GroupedResult{
			GroupKey:    b.key,
			Label:       labels.Lookup(dim, b.key),
			Average:     avg,
			Count:       b.count,
			PassCount:   b.pass,
			FailCount:   b.count - b.pass,
			PassRate:    percent(b.pass, b.count),
			Qualitative: Qualitative(avg),
			Light:       ScoreLight(avg),
		})
	}
	return out
}

func safeDiv(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// percent 先乘后除，避免 0.3*100 之类的浮点误差影响分档
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

// ── 分组键解析 ──

// keysFor 一条评分在某维度上贡献的分组键；RAC 无归属时返回空（不报错）
func (a *Aggregator) keysFor(r Row, m *Memberships, dim Dimension) []string {
	switch dim {
	case DimensionGAC:
		return m.GACsOf(r.RACID)
	case DimensionSubject:
		return m.SubjectsOf(r.RACID)
	case DimensionProfessor:
		return single(r.ProfessorID)
	case DimensionStudent:
		return single(r.StudentID)
	case DimensionPeriod:
		return single(r.PeriodID)
	case DimensionRAC:
		return single(r.RACID)
	case DimensionSemester:
		if b, ok := a.classifier.Classify(r); ok {
			return []string{string(b)}
		}
		return nil
	default:
		return nil
	}
}

func single(key string) []string {
	if key == "" {
		return nil
	}
	return []string{key}
}

// dimensionFilter 与分组维度相同的过滤条件只保留匹配的键
func dimensionFilter(dim Dimension, f Filter) string {
	switch dim {
	case DimensionGAC:
		return f.GACID
	case DimensionSubject:
		return f.SubjectID
	default:
		return ""
	}
}

// GroupBy 按维度分组统计
// 扇出：RAC 属于多个 GAC / Subject 时，该评分完整计入每个分组（不拆分）。
// 结果按分组首次出现的顺序返回；空输入返回空切片。
func (a *Aggregator) GroupBy(in Input, dim Dimension, f Filter) []GroupedResult {
	acc := newAccumulator()
	only := dimensionFilter(dim, f)

	for _, r := range in.Rows {
		if !f.matchRow(r, in.Memberships) {
			continue
		}
		for _, key := range a.keysFor(r, in.Memberships, dim) {
			if only != "" && key != only {
				continue
			}
			acc.add(key, r.Score)
		}
	}

	return acc.results(dim, in.Labels)
}

// TopN 按平均分降序排名，平均分相同保持原有顺序；n ≤ 0 时返回全部
func TopN(results []GroupedResult, n int) []GroupedResult {
	sorted := make([]GroupedResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Average > sorted[j].Average
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Summarize 总体统计（不扇出，每条评分计一次）
func Summarize(rows []Row) Summary {
	students := make(map[string]struct{})
	professors := make(map[string]struct{})
	racs := make(map[string]struct{})

	var sum float64
	var pass int
	for _, r := range rows {
		sum += r.Score
		if model.IsPassing(r.Score) {
			pass++
		}
		students[r.StudentID] = struct{}{}
		professors[r.ProfessorID] = struct{}{}
		racs[r.RACID] = struct{}{}
	}

	return Summary{
		Total:      len(rows),
		Students:   len(students),
		Professors: len(professors),
		RACs:       len(racs),
		Average:    safeDiv(sum, len(rows)),
		PassCount:  pass,
		FailCount:  len(rows) - pass,
		PassRate:   percent(pass, len(rows)),
	}
}

// FilterRows 按过滤条件筛选评分行
func FilterRows(in Input, f Filter) []Row {
	out := make([]Row, 0, len(in.Rows))
	for _, r := range in.Rows {
		if f.matchRow(r, in.Memberships) {
			out = append(out, r)
		}
	}
	return out
}
