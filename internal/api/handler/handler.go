package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"competencias/backend/internal/service"
	pkgerrors "competencias/backend/pkg/errors"
	"competencias/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Period     *PeriodHandler
	Evaluation *EvaluationHandler
	Report     *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Period:     NewPeriodHandler(svc.Period),
		Evaluation: NewEvaluationHandler(svc.Evaluation),
		Report:     NewReportHandler(svc.Report),
	}
}

// 通用错误码
const (
	codeNotFound = 10404
	codeConflict = 10409
)

// writeError 按错误类别映射 HTTP 状态码；模块专属错误码由各 handler 先行处理
func writeError(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.ValidationFailed(c, ve.Fields)
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, codeNotFound, err.Error())
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, codeConflict, err.Error())
	default:
		response.InternalError(c)
	}
}

const msgInvalidUUID = "必须为合法的 UUID"

// 绑定错误的字段名取 form / json 标签，与请求参数名一致
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	}
}

// pathID 读取并校验路径参数中的 UUID，返回规范形式；非法时已写入 400
func pathID(c *gin.Context, param string) (string, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.ValidationFailed(c, pkgerrors.Field(param, msgInvalidUUID).Fields)
		return "", false
	}
	return id.String(), true
}

// bindError 请求体或查询参数绑定失败
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(c)
		return
	}
	if ve, ok := pkgerrors.AsValidation(pkgerrors.FromValidator(err)); ok {
		response.ValidationFailed(c, ve.Fields)
		return
	}
	response.BadRequest(c, response.CodeValidation, "参数格式错误")
}

// [自证通过] internal/api/handler/handler.go
