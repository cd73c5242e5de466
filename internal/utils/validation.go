package utils

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"medibook-server/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const clockLayout = "15:04"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("timeafter", timeAfter); err != nil {
		panic(err)
	}
	return v
}

// timeAfter checks that an HH:MM field is later than the sibling field named
// by the tag parameter. Unparseable values are left to the datetime rule.
func timeAfter(fl validator.FieldLevel) bool {
	other := fl.Parent().FieldByName(fl.Param())
	if !other.IsValid() || other.Kind() != reflect.String {
		return false
	}
	end, err := time.Parse(clockLayout, fl.Field().String())
	if err != nil {
		return true
	}
	start, err := time.Parse(clockLayout, other.String())
	if err != nil {
		return true
	}
	return end.After(start)
}

// Validate performs validation on a struct and returns every failing field.
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return ValidationError(err)
	}
	return nil
}

// ValidationError converts validator output into an apperror carrying one
// entry per invalid field.
func ValidationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.BadRequest("Invalid request payload")
	}
	fields := make([]apperror.FieldError, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, apperror.FieldError{Field: e.Field(), Message: fieldMessage(e)})
	}
	return apperror.Validation(fields...)
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "uuid", "uuid4":
		return "must be a valid id"
	case "url":
		return "must be a valid URL"
	case "datetime":
		switch e.Param() {
		case "2006-01-02":
			return "must be a date in YYYY-MM-DD format"
		case clockLayout:
			return "must be a time in HH:MM format"
		}
		return "must match the format " + e.Param()
	case "timeafter":
		return "must be after the start time"
	}
	return "is invalid"
}

// BindAndValidate binds the request body to a struct and validates it.
// On failure it writes the error response and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		HandleError(c, apperror.BadRequest("Invalid request payload"))
		return false
	}
	if err := Validate(obj); err != nil {
		HandleError(c, err)
		return false
	}
	return true
}
