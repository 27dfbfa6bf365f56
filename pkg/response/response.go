package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// requestIDKey 与 middleware.RequestID 写入的上下文键一致
const requestIDKey = "request_id"

// 通用错误码；模块错误码由各 handler 定义（14xxx 学期，15xxx 评分）
const (
	CodeOK           = 0
	CodeValidation   = 10001
	CodeRateLimited  = 10004
	CodeBodyTooLarge = 10005
	CodeInternal     = 50000
)

const (
	messageOK           = "success"
	messageValidation   = "参数校验失败"
	messageRateLimited  = "请求过于频繁，请稍后再试"
	messageInternal     = "服务器内部错误"
	messageBodyTooLarge = "请求体过大"
)

// Response 统一响应信封；request_id 便于前端反馈问题时对应日志
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination 计算总页数；pageSize 非正时按 1 处理
func NewPagination(total int64, page, pageSize int) Pagination {
	if pageSize <= 0 {
		pageSize = 1
	}
	pages := (total + int64(pageSize) - 1) / int64(pageSize)
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: int(pages)}
}

// PageData 分页响应数据
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

func write(c *gin.Context, status int, body Response) {
	body.RequestID = c.GetString(requestIDKey)
	c.JSON(status, body)
}

// ── 成功响应 ──

// OK 200
func OK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{Code: CodeOK, Message: messageOK, Data: data})
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Response{Code: CodeOK, Message: messageOK, Data: data})
}

// OKPage 200 分页
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	OK(c, PageData{List: list, Pagination: NewPagination(total, page, pageSize)})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	write(c, httpStatus, Response{Code: code, Message: message})
}

// ErrorWithDetails 带字段详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message string, details interface{}) {
	write(c, httpStatus, Response{Code: code, Message: message, Details: details})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// ValidationFailed 400，details 为字段错误列表
func ValidationFailed(c *gin.Context, details interface{}) {
	ErrorWithDetails(c, http.StatusBadRequest, CodeValidation, messageValidation, details)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// PayloadTooLarge 413
func PayloadTooLarge(c *gin.Context) {
	Error(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, messageBodyTooLarge)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, CodeRateLimited, messageRateLimited)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, messageInternal)
}
