package profile

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"resume-intake/internal/types"
)

var (
	cnMobilePattern  = regexp.MustCompile(`^1[3-9]\d{9}$`)
	landlinePattern  = regexp.MustCompile(`^0\d{2,3}-?\d{7,8}(?:-\d{1,4})?$`)
	letterPattern    = regexp.MustCompile(`[A-Za-z]`)
	phoneCharPattern = regexp.MustCompile(`^[+\d\s()-]+$`)
)

// 字段校验失败时的提示文案，key 为 "字段.标签"
var fieldMessages = map[string]string{
	"phone.notblank":     "电话为必填项",
	"phone.resume_phone": "请输入有效电话号码",
	"email.notblank":     "邮箱为必填项",
	"email.resume_email": "请输入有效邮箱地址",
	"gender.oneof":       "请选择有效的性别",
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 表单校验错误集合
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "表单校验失败: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// formValidator 懒加载并注册自定义规则
func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		mustRegister(v, "resume_phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})
		mustRegister(v, "resume_email", func(fl validator.FieldLevel) bool {
			return v.Var(strings.TrimSpace(fl.Field().String()), "email") == nil
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("注册校验规则 %s 失败: %v", tag, err))
	}
}

// IsValidPhone 优先匹配大陆手机号，其次座机（可带分机），
// 否则只允许 + 数字 空格 - ()，且数字位数在 7 到 15 之间
func IsValidPhone(raw string) bool {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return false
	}
	if cnMobilePattern.MatchString(phone) || landlinePattern.MatchString(phone) {
		return true
	}
	if letterPattern.MatchString(phone) || !phoneCharPattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// Validate 校验表单，全部通过时返回 nil，否则返回 *ValidationError
func Validate(values types.ResumeFormValues) error {
	err := formValidator().Struct(values)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("表单校验异常: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "ResumeFormValues.")
		out.Fields = append(out.Fields, FieldError{Field: field, Message: messageFor(field, fe.Tag())})
	}
	return out
}

func messageFor(field, tag string) string {
	if msg, ok := fieldMessages[field+"."+tag]; ok {
		return msg
	}
	if tag == "oneof" {
		return "请选择有效的选项"
	}
	return "字段不合法"
}
