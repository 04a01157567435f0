package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	timeRegex  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	validate = newValidator()
)

const DateLayout = "2006-01-02"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("clinic_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeRegex.MatchString(fl.Field().String())
	})
	return v
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims and capitalises each word, keeping inner capitals.
func NormalizeName(name string) string {
	// a Caser keeps state, so each call gets its own
	return cases.Title(language.French, cases.NoLower).String(strings.TrimSpace(name))
}

// validateStruct runs the tag rules on s and reports the first failure as a ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return Wrap(ErrValidation, "invalid request", err)
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return Validation("%s is required", fe.Field())
	case "clinic_email":
		return Validation("invalid email format")
	case "eqfield":
		return Validation("passwords do not match")
	case "day":
		return Validation("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "hhmm":
		return Validation("%s must be a time in HH:MM format", fe.Field())
	case "min", "gte":
		return Validation("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return Validation("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return Validation("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return Validation("%s is invalid", fe.Field())
	}
}
