package dto

// ── 学期模块 DTO ──

// CreatePeriodRequest 创建学期请求；未给出日期时使用默认边界
type CreatePeriodRequest struct {
	Year      int     `json:"year"       binding:"required,min=1900,max=9999"`
	Half      int     `json:"half"       binding:"required,oneof=1 2"`
	StartDate *string `json:"start_date"` // "2025-01-01"
	EndDate   *string `json:"end_date"`   // "2025-06-30"
	Activate  bool    `json:"activate"`
}

// UpdatePeriodRequest 更新学期起止日期
type UpdatePeriodRequest struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// PeriodResponse 学期信息响应
type PeriodResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	Half      int    `json:"half"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// EnsurePeriodResult 确保学期存在的结果（periodctl current）
type EnsurePeriodResult struct {
	Period  *PeriodResponse `json:"period"`
	Created bool            `json:"created"`
	Updated bool            `json:"updated"`
}

// BackfillRequest 回填请求；Limit 限制成功回填的条数，失败的评分不占名额
type BackfillRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1"`
}

// BackfillFailure 单条回填失败
type BackfillFailure struct {
	EvaluationID string `json:"evaluation_id"`
	Error        string `json:"error"`
}

// BackfillResponse 回填结果
type BackfillResponse struct {
	Updated  int               `json:"updated"`
	Errors   int               `json:"errors"`
	Failures []BackfillFailure `json:"failures"`
}
