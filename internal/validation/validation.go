// Package validation checks request bodies before they are sent.
package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid matches every validation failure via errors.Is.
var ErrInvalid = errors.New("invalid input")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Error lists the fields that failed validation.
type Error struct {
	Fields map[string]string // field name -> failed tag
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, tag := range e.Fields {
		parts = append(parts, f+" ("+tag+")")
	}
	slices.Sort(parts)
	return fmt.Sprintf("invalid input: %s", strings.Join(parts, ", "))
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

// Struct validates v by its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fe.Tag()
	}
	return out
}
