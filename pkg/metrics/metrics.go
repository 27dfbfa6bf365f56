package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics 进程内 Prometheus 指标集合
// 每个实例持有独立的 Registry，测试之间互不干扰
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	EvaluationsSubmit   *prometheus.CounterVec
	PeriodsCreated      *prometheus.CounterVec
	BackfillRows        *prometheus.CounterVec
}

// 评分提交结果
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeRejected = "rejected"
)

// 学期创建来源
const (
	OriginResolver = "resolver"
	OriginAdmin    = "admin"
)

// 回填结果
const (
	BackfillUpdated = "updated"
	BackfillFailed  = "failed"
)

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP 请求耗时",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		EvaluationsSubmit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluations_submitted_total",
			Help: "评分提交次数（按结果）",
		}, []string{"outcome"}),
		PeriodsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academic_periods_created_total",
			Help: "学期创建次数（按来源）",
		}, []string{"origin"}),
		BackfillRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "period_backfill_rows_total",
			Help: "学期回填处理的评分行数（按结果）",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.EvaluationsSubmit,
		m.PeriodsCreated,
		m.BackfillRows,
	)
	return m
}

// ── nil 安全的记录方法：未启用指标时 service 传入 nil ──

// ObserveSubmission 记录一次评分提交结果
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.EvaluationsSubmit.WithLabelValues(outcome).Inc()
}

// ObservePeriodCreated 记录一次学期创建
func (m *Metrics) ObservePeriodCreated(origin string) {
	if m == nil {
		return
	}
	m.PeriodsCreated.WithLabelValues(origin).Inc()
}

// ObserveBackfill 记录回填结果
func (m *Metrics) ObserveBackfill(updated, failed int) {
	if m == nil {
		return
	}
	if updated > 0 {
		m.BackfillRows.WithLabelValues(BackfillUpdated).Add(float64(updated))
	}
	if failed > 0 {
		m.BackfillRows.WithLabelValues(BackfillFailed).Add(float64(failed))
	}
}
