package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/hybridstt/errors"
)

var (
	validate *validator.Validate
	once     sync.Once

	languageTag = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)
	subjectID   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]{0,127}$`)
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "mapstructure"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})
		_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			return IsLanguageTag(fl.Field().String())
		})
		_ = validate.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
			return subjectID.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsLanguageTag reports whether s looks like an ISO-639 code with optional
// BCP-47 subtags ("en", "pt-BR").
func IsLanguageTag(s string) bool {
	return languageTag.MatchString(s)
}

// IsSubject reports whether s is a valid user identifier.
func IsSubject(s string) bool {
	return subjectID.MatchString(s)
}

// Struct validates s using `validate` struct tags and returns an
// InvalidInput AppError listing every failing field.
//
// Besides the built-in tags, "language" accepts language codes and
// "subject" accepts user identifiers.
func Struct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation(err.Error())
	}

	v := New()
	for _, e := range verrs {
		v.AddError(e.Field(), describe(e))
	}
	return v.Validate()
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "url", "http_url":
		return "must be a valid URL"
	case "language":
		return "must be a language code such as en or pt-BR"
	case "subject":
		return "must be 1-128 characters of letters, digits, '.', '_', '@' or '-'"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
