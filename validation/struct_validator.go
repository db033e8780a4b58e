package validation

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/roundtrip/errors"
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Errors name the config key a user would edit, not the Go field.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return toSnakeCase(f.Name)
		}
		return name
	})
	return v
})

// tagMessages renders the validate tags config structs use. The parameter,
// when present, is appended.
var tagMessages = map[string]string{
	"required":      "is required",
	"gt":            "must be greater than ",
	"gte":           "must be greater than or equal to ",
	"lte":           "must be less than or equal to ",
	"max":           "must be at most ",
	"oneof":         "must be one of: ",
	"hostname_port": "must be a host:port address",
	"file":          "must be an existing file",
}

// Validate checks s against its `validate` struct tags and reports every
// failing field the same way Validator does.
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed").WithCause(err)
	}
	v := New()
	for _, fe := range fieldErrs {
		v.AddError(fieldPath(fe), describe(fe))
	}
	return v.Validate()
}

// fieldPath is the namespace without the root type name, e.g. "tls.ca_file".
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	if fe.Tag() == "min" {
		switch fe.Kind() {
		case reflect.Slice, reflect.Map, reflect.String:
			return "must have at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param()
	}
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.HasSuffix(msg, " ") {
		msg += fe.Param()
	}
	return msg
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
