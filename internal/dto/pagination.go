package dto

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// PaginationRequest 列表查询的分页参数，page 从 1 开始
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// GetPage 未传时为第 1 页
func (p *PaginationRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// GetPageSize 未传时取默认值；绑定之外构造的请求同样截断到上限
func (p *PaginationRequest) GetPageSize() int {
	switch {
	case p.PageSize < 1:
		return defaultPageSize
	case p.PageSize > maxPageSize:
		return maxPageSize
	}
	return p.PageSize
}

// GetOffset 仓储层 OFFSET
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
