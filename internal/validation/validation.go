// Package validation checks request payloads against their struct tags
// and reports failures as field-keyed 422 errors.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maheshrc27/mixpost-api/internal/errs"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("hex_color", func(fl validator.FieldLevel) bool {
		return hexColor.MatchString(fl.Field().String())
	})

	return v
}

// MessageOverrider lets a request replace the default message for a
// "field.tag" pair.
type MessageOverrider interface {
	ValidationMessages() map[string]string
}

// Struct validates s and returns an *errs.HTTPError listing every
// failing field, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var overrides map[string]string
	if o, ok := s.(MessageOverrider); ok {
		overrides = o.ValidationMessages()
	}

	fields := errs.Fields{}
	first := ""
	for _, fe := range validationErrors {
		key := fieldKey(fe.Namespace())
		msg, ok := overrides[key+"."+fe.Tag()]
		if !ok {
			msg = message(fe, key)
		}
		if first == "" {
			first = msg
		}
		fields[key] = append(fields[key], msg)
	}

	// The top-level message follows field declaration order.
	httpErr := errs.NewValidationErrors(fields)
	httpErr.Message = first
	return httpErr
}

// fieldKey turns "PostCreation.versions[0].content" into
// "versions.0.content".
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

func message(fe validator.FieldError, key string) string {
	name := displayName(key)

	switch fe.Tag() {
	case "required":
		return "The " + name + " field is required."
	case "email":
		return "The " + name + " must be a valid email address."
	case "url", "http_url":
		return "The " + name + " must be a valid URL."
	case "max":
		if fe.Kind() == reflect.Slice {
			return "The " + name + " must not have more than " + fe.Param() + " items."
		}
		return "The " + name + " must not be greater than " + fe.Param() + " characters."
	case "min":
		if fe.Kind() == reflect.Slice {
			return "The " + name + " must have at least " + fe.Param() + " items."
		}
		return "The " + name + " must be at least " + fe.Param() + " characters."
	case "datetime":
		return "The " + name + " does not match the format " + fe.Param() + "."
	case "oneof":
		return "The selected " + name + " is invalid."
	case "hex_color":
		return "The " + name + " format is invalid."
	case "gt":
		return "The " + name + " must be greater than " + fe.Param() + "."
	}
	return "The " + name + " is invalid."
}

func displayName(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	return strings.ReplaceAll(key, "_", " ")
}
