// Package validation wraps go-playground/validator so request schemas are
// declared once with `validate` tags and checked both by the HTTP binding
// layer and by the services. Failures come back as *common.ValidationError
// keyed by the JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

// TagName is the struct tag holding the rules.
const TagName = "validate"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var std = New()

// New returns a validator configured with our tag name, JSON field naming
// and custom rules.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	Configure(v)
	return v
}

// Configure applies our settings to an existing engine, such as the one
// behind gin's binding package.
func Configure(v *validator.Validate) {
	v.SetTagName(TagName)
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

func jsonName(f reflect.StructField) string {
	for _, tag := range []string{f.Tag.Get("json"), f.Tag.Get("form")} {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Struct validates s with the shared engine.
func Struct(s any) error {
	return Translate(std.Struct(s))
}

// Translate converts validator.ValidationErrors into *common.ValidationError.
// Other errors are returned unchanged; nil stays nil.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &common.ValidationError{}
	for _, fe := range verrs {
		ve.Add(fieldPath(fe), message(fe))
	}
	return ve
}

// fieldPath drops the top-level struct name from the namespace, so
// "RegisterInput.email" becomes "email" and nested paths keep their dots.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	collection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "must be a valid email address"
	case "username":
		return "may contain only letters, digits, underscore, dot and dash"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if collection {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if collection {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
