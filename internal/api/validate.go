package api

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/example/event-ticketing/internal/auth"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports json field names and knows
// the password rules.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hasupper", func(fl validator.FieldLevel) bool {
		return auth.HasUpper(fl.Field().String())
	})
	_ = v.RegisterValidation("hasdigit", func(fl validator.FieldLevel) bool {
		return auth.HasDigit(fl.Field().String())
	})
	return v
}

func (h *Handlers) validate(ctx context.Context, payload any) error {
	err := h.validator.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return invalidRequest("%v", err)
	}

	messages := make([]string, len(fieldErrors))
	for i, fe := range fieldErrors {
		messages[i] = describe(fe)
	}
	return invalidRequest("%s", strings.Join(messages, ", "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "hasupper":
		return fmt.Sprintf("%s must contain at least one uppercase letter", fe.Field())
	case "hasdigit":
		return fmt.Sprintf("%s must contain at least one number", fe.Field())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", fe.Field(), strings.ToLower(fe.Param()[:1])+fe.Param()[1:])
	default:
		return fmt.Sprintf("invalid '%s' with value '%v'", fe.Field(), fe.Value())
	}
}
