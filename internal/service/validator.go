package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"competencias/backend/internal/model"
)

const scoreTag = "score"

// newValidator 字段错误使用 JSON 字段名；score 规则按配置的刻度校验
func newValidator(scale model.ScoreScale) (*validator.Validate, error) {
	if _, err := model.ParseScoreScale(string(scale)); err != nil {
		return nil, err
	}
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.RegisterValidation(scoreTag, func(fl validator.FieldLevel) bool {
		field := fl.Field()
		switch field.Kind() {
		case reflect.Float32, reflect.Float64:
			return scale.Valid(field.Float())
		default:
			return false
		}
	})
	if err != nil {
		return nil, fmt.Errorf("注册 %s 校验规则失败: %w", scoreTag, err)
	}

	return v, nil
}
