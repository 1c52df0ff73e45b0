package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	minSlugLength = 3
	maxSlugLength = 50
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator with the slug rule registered.
// Field names in errors are the JSON names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return validSlug(fl.Field().String())
		})
	})
	return validate
}

func validSlug(slug string) bool {
	return len(slug) >= minSlugLength && len(slug) <= maxSlugLength && slugPattern.MatchString(slug)
}

func validURL(raw string) bool {
	return getValidator().Var(raw, "required,url") == nil
}

// validateStruct checks s against its validate tags and returns a
// VALIDATION_ERROR naming the first failing fields.
func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newError(CodeValidation, "Validation failed")
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return newError(CodeValidation, strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a valid URL"
	case "slug":
		return fmt.Sprintf("%s must be %d-%d characters of lowercase letters, digits or hyphens", field, minSlugLength, maxSlugLength)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gt":
		return field + " must be a positive timestamp"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
