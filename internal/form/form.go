// Package form validates request payloads before they reach services.
//
// Struct tags use gin's "binding" key. Failures are reported as a
// response.AppError carrying one FieldError per json field, with Arabic
// messages where a translation exists and the validator's English text otherwise.
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"crm-api/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CrossFieldChecker is implemented by payloads with rules spanning several fields.
// It is only consulted when the tag rules pass.
type CrossFieldChecker interface {
	CheckFields() []response.FieldError
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Validator is a gin binding.StructValidator
type Validator struct {
	once     sync.Once
	validate *validator.Validate
}

var defaultValidator = &Validator{}

// Install replaces gin's default struct validator so ShouldBind* reports field errors in our format.
func Install() {
	binding.Validator = defaultValidator
}

// Engine returns the underlying validator, as required by binding.StructValidator.
func (v *Validator) Engine() interface{} {
	v.lazyinit()
	return v.validate
}

func (v *Validator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New()
		v.validate.SetTagName("binding")
		v.validate.RegisterTagNameFunc(jsonFieldName)
		_ = v.validate.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			return currencyPattern.MatchString(fl.Field().String())
		})
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// ValidateStruct runs tag rules and then cross-field rules.
func (v *Validator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	v.lazyinit()
	if err := v.validate.Struct(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return response.NewFieldValidationError(translate(verrs))
		}
		return response.NewValidationError("Validation failed", err.Error())
	}

	if checker, ok := obj.(CrossFieldChecker); ok {
		if fields := checker.CheckFields(); len(fields) > 0 {
			return response.NewFieldValidationError(fields)
		}
	}
	return nil
}

// Validate checks obj with the package validator
func Validate(obj interface{}) error {
	return defaultValidator.ValidateStruct(obj)
}

// Bind decodes the JSON body into obj and validates it. Any failure is an *response.AppError.
func Bind(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return FromError(err)
	}
	// another validator was installed, so ours has not run yet
	if binding.Validator != defaultValidator {
		return Validate(obj)
	}
	return nil
}

// FromError converts a binding error to an *response.AppError.
func FromError(err error) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return response.NewFieldValidationError(translate(verrs))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return response.NewFieldValidationError([]response.FieldError{{
			Field:   typeErr.Field,
			Message: "نوع القيمة غير صحيح",
		}})
	}
	return response.NewValidationError("Invalid request body", err.Error())
}

func translate(verrs validator.ValidationErrors) []response.FieldError {
	fields := make([]response.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, response.FieldError{
			Field:   fe.Field(),
			Message: Message(fe),
		})
	}
	return fields
}

// Message returns the Arabic text for a failed rule.
func Message(fe validator.FieldError) string {
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "required_without":
		return "هذا الحقل مطلوب"
	case "email":
		return "البريد الإلكتروني غير صالح"
	case "min":
		if isString {
			return fmt.Sprintf("يجب ألا يقل عن %s أحرف", param)
		}
		return fmt.Sprintf("يجب ألا تقل القيمة عن %s", param)
	case "max":
		if isString {
			return fmt.Sprintf("يجب ألا يزيد عن %s حرفًا", param)
		}
		return fmt.Sprintf("يجب ألا تزيد القيمة عن %s", param)
	case "gte":
		return fmt.Sprintf("يجب أن تكون القيمة %s أو أكثر", param)
	case "lte":
		return fmt.Sprintf("يجب أن تكون القيمة %s أو أقل", param)
	case "oneof":
		return "القيمة غير مسموح بها"
	case "currency":
		return "رمز العملة يجب أن يتكون من 3 أحرف إنجليزية كبيرة"
	case "datetime":
		return "التاريخ يجب أن يكون بصيغة YYYY-MM-DD"
	case "uuid", "uuid4":
		return "معرّف غير صالح"
	}
	return fe.Error()
}

// Required builds a single "required" field error, for use in CheckFields.
func Required(field string) response.FieldError {
	return response.FieldError{Field: field, Message: "هذا الحقل مطلوب"}
}
