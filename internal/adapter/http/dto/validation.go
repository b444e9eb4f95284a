package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidationFailed is returned when a request body fails its struct tags.
var ErrValidationFailed = errors.New("validation failed")

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Amounts arrive as JSON numbers or numeric strings.
	if err := vld.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			return true
		}

		d, err := decimal.NewFromString(str)
		if err != nil {
			return false
		}

		return d.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("failed to register positive_amount: %w", err)
	}

	return vld, nil
}

// Validate checks v against its validate tags and reports the first failure.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	if errValidate != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, errValidate)
	}

	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s", ErrValidationFailed, describe(fieldErrs[0]))
		}
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_without":
		return field + " is required when " + fe.Param() + " is missing"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "len":
		return field + " must be exactly " + fe.Param() + " characters"
	case "numeric":
		return field + " must contain only digits"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "positive_amount":
		return field + " must be a positive amount"
	default:
		return field + " failed " + fe.Tag() + " check"
	}
}
