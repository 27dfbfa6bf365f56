package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 通用错误类别；领域哨兵错误通过 %w 包装它们，handler 据此映射 HTTP 状态码
var (
	// ErrNotFound 引用的实体不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrConflict 唯一约束冲突
	ErrConflict = errors.New("资源冲突")
)

// NotFound 构造一个归类为 ErrNotFound 的领域哨兵错误
func NotFound(msg string) error {
	return &categorized{msg: msg, kind: ErrNotFound}
}

// Conflict 构造一个归类为 ErrConflict 的领域哨兵错误
func Conflict(msg string) error {
	return &categorized{msg: msg, kind: ErrConflict}
}

type categorized struct {
	msg  string
	kind error
}

func (e *categorized) Error() string { return e.msg }
func (e *categorized) Unwrap() error { return e.kind }

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 字段级校验错误
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError 手动构造字段校验错误
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Field 单字段校验错误的快捷方式
func Field(field, message string) *ValidationError {
	return NewValidationError(FieldError{Field: field, Message: message})
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

// FromValidator 将 validator.ValidationErrors 转换为 ValidationError
// 非校验类错误原样返回
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: tagMessage(fe)})
	}
	return &ValidationError{Fields: fields}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "uuid", "uuid4":
		return "必须为合法的 UUID"
	case "score":
		return "分值不在允许的刻度内"
	case "min":
		return "不能小于 " + fe.Param()
	case "max":
		return "不能大于 " + fe.Param()
	case "oneof":
		return "必须为 " + fe.Param() + " 之一"
	case "dive":
		return "列表元素无效"
	default:
		return "校验失败（" + fe.Tag() + "）"
	}
}

// AsValidation 提取 ValidationError
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
