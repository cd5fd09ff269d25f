package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"logistics-backoffice/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	orderDateRe    = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	trackingLinkRe = regexp.MustCompile(`^https?://.+`)
)

// CustomValidator wraps validator.Validate. It satisfies echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce sync.Once
	instance      *CustomValidator
)

// GetValidator returns the shared validator with the custom tags registered.
func GetValidator() *CustomValidator {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report json field names instead of Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		mustRegister(v, "orderdate", func(fl validator.FieldLevel) bool {
			return IsValidOrderDate(fl.Field().String())
		})
		mustRegister(v, "httpurl", func(fl validator.FieldLevel) bool {
			return trackingLinkRe.MatchString(fl.Field().String())
		})
		mustRegister(v, "courier", func(fl validator.FieldLevel) bool {
			return models.CourierService(fl.Field().String()).Valid()
		})
		mustRegister(v, "shipmentstatus", func(fl validator.FieldLevel) bool {
			return models.ShipmentStatus(fl.Field().String()).Valid()
		})
		mustRegister(v, "orderstatus", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})

		instance = &CustomValidator{validate: v}
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate validates a struct and returns a readable error wrapping models.ErrInvalidInput.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), rootNamespace(fe.Namespace()))
	if field == "" {
		field = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "uuid":
		return field + " must be a valid id"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "orderdate":
		return field + " must be in DD-MM-YYYY format"
	case "httpurl":
		return field + " must be a valid URL starting with http:// or https://"
	case "courier":
		return field + " is not a supported courier service"
	case "shipmentstatus", "orderstatus":
		return field + " is not a valid status"
	}
	return fmt.Sprintf("%s failed on %s", field, fe.Tag())
}

// rootNamespace returns the leading struct name ("CreateOrderRequest.") of a namespace.
func rootNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i+1]
	}
	return ""
}

// IsValidOrderDate reports whether s is a real calendar date written DD-MM-YYYY.
func IsValidOrderDate(s string) bool {
	if !orderDateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("02-01-2006", s)
	return err == nil
}
