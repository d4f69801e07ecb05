// Package validation checks command and query structs against their
// `validate` tags.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"staybook/internal/app/middleware"
	"staybook/internal/domain/shared/failure"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns a KindValidation error naming every offending field.
// Messages that are not structs carry no rules and pass.
func (x *Validator) Validate(ctx context.Context, message any) error {
	err := x.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return failure.Wrap(failure.KindValidation, err)
	}
	parts := make([]string, 0, len(fields))
	for _, fe := range fields {
		parts = append(parts, describe(fe))
	}
	return failure.New(failure.KindValidation, "invalid request: "+strings.Join(parts, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

var _ middleware.Validator = (*Validator)(nil)
