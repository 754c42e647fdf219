package service

import (
	"errors"
	"strings"
	"unicode"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the struct-level rules used by the
// rules configuration payloads.
func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validationError converts a validator failure into a domain
// ValidationError naming the first offending field.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &domain.ValidationError{Message: "invalid payload"}
	}
	fe := ve[0]
	return &domain.ValidationError{Message: fieldName(fe.StructField()) + " " + messageForTag(fe.Tag(), fe.Param())}
}

// fieldName renders a Go field name in snake_case, matching the JSON keys.
func fieldName(structField string) string {
	var b strings.Builder
	runes := []rune(structField)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "len":
		return "must be exactly " + param + " characters"
	case "alpha":
		return "must contain letters only"
	case "datetime":
		return "must be a time in HH:MM format"
	case "gte":
		return "must be at least " + param
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	default:
		return "is invalid"
	}
}
