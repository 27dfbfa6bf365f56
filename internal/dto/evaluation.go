package dto

// ── 评分模块 DTO ──
// 字段校验使用 validate 标签，由评分服务按配置的刻度注册 score 规则

// SubmitEvaluationRequest 提交单条评分
type SubmitEvaluationRequest struct {
	StudentID   string   `json:"student_id"   validate:"required,uuid"`
	RACID       string   `json:"rac_id"       validate:"required,uuid"`
	ProfessorID string   `json:"professor_id" validate:"required,uuid"`
	Score       *float64 `json:"score"        validate:"required,score"`
	PeriodID    *string  `json:"period_id"    validate:"omitempty,uuid"`
}

// BatchItem 批量评分中的单项
type BatchItem struct {
	RACID string   `json:"rac_id" validate:"required,uuid"`
	Score *float64 `json:"score"  validate:"required,score"`
}

// SubmitBatchRequest 批量提交：同一学生、同一教师的多项 RAC 评分
type SubmitBatchRequest struct {
	StudentID   string      `json:"student_id"   validate:"required,uuid"`
	ProfessorID string      `json:"professor_id" validate:"required,uuid"`
	PeriodID    *string     `json:"period_id"    validate:"omitempty,uuid"`
	Items       []BatchItem `json:"items"        validate:"required,min=1"`
}

// EvaluationResponse 评分信息响应
type EvaluationResponse struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"student_id"`
	RACID       string  `json:"rac_id"`
	ProfessorID string  `json:"professor_id"`
	PeriodID    *string `json:"period_id"`
	PeriodCode  string  `json:"period_code,omitempty"`
	Score       float64 `json:"score"`
	Passed      bool    `json:"passed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// SubmitEvaluationResponse 单条提交结果；Created=false 表示原地更新
type SubmitEvaluationResponse struct {
	Evaluation EvaluationResponse `json:"evaluation"`
	Created    bool               `json:"created"`
}

// 批量单项状态
const (
	BatchStatusCreated = "created"
	BatchStatusUpdated = "updated"
	BatchStatusError   = "error"
)

// BatchItemResult 批量单项结果
type BatchItemResult struct {
	Index        int    `json:"index"`
	RACID        string `json:"rac_id"`
	Status       string `json:"status"`
	EvaluationID string `json:"evaluation_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchSummary 批量汇总
type BatchSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// SubmitBatchResponse 批量提交结果
type SubmitBatchResponse struct {
	Results []BatchItemResult `json:"results"`
	Summary BatchSummary      `json:"summary"`
}

// ListEvaluationsRequest 评分列表查询
type ListEvaluationsRequest struct {
	PaginationRequest
	StudentID   string `form:"student_id"   binding:"omitempty,uuid"`
	ProfessorID string `form:"professor_id" binding:"omitempty,uuid"`
	PeriodID    string `form:"period_id"    binding:"omitempty,uuid"`
}
