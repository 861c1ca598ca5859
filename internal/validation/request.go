package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/wonny/quantafolio/internal/contracts"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateRequest fills request defaults (method, period, reps) and validates it.
// Risk factor has no default here because 0 is a legal (aggressive) value.
func ValidateRequest(req *contracts.OptimizationRequest) error {
	if req == nil {
		return newError(ErrEmptyTickerList, "tickers", "request is empty")
	}

	if err := defaults.Set(req); err != nil {
		return fmt.Errorf("set request defaults: %w", err)
	}

	if err := Validate(req.Tickers, req.InitialWeights); err != nil {
		return err
	}

	if err := validate.Struct(req); err != nil {
		return fromValidator(err)
	}

	return nil
}

// fromValidator converts the first field error into an *Error
func fromValidator(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return newError(ErrInvalidField, "", "%s", err.Error())
	}

	fe := validationErrors[0]
	field := fe.Field()

	if field == "tickers" && fe.Tag() == "max" {
		return newError(ErrTooManyTickers, field, "at most %d tickers are allowed", MaxTickers)
	}

	return newError(ErrInvalidField, field, "%s", fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
