// Package inputval validates decoded request bodies with struct tags.
//
// Fields are validated with go-playground/validator tags; the `label` tag
// names the field in messages:
//
//	type createCelulaInput struct {
//	    Name    string `validate:"required,max=200" label:"Name"`
//	    Weekday *int   `validate:"omitempty,min=0,max=6" label:"Weekday"`
//	    Time    string `validate:"omitempty,hhmm" label:"Time"`
//	}
//
// Custom rules: objectid (24-char hex), hhmm ("15:04"), isodate
// ("2006-01-02") and yearmonth ("2006-01").
package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects field errors.
type Result struct {
	Errors []FieldError `json:"errors"`
}

func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with a space.
func (r Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, " ")
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("hhmm", layoutRule("15:04"))
		_ = v.RegisterValidation("isodate", layoutRule("2006-01-02"))
		_ = v.RegisterValidation("yearmonth", layoutRule("2006-01"))
	})
	return v
}

func layoutRule(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		t, err := time.Parse(layout, s)
		return err == nil && t.Format(layout) == s
	}
}

// Validate runs the struct's validate tags.
func Validate(s any) Result {
	err := instance().Struct(s)
	if err == nil {
		return Result{}
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}
	out := Result{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	numeric := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		numeric = true
	}

	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required.", label)
	case "max":
		if numeric {
			return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		if numeric {
			return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", label)
	case "objectid":
		return fmt.Sprintf("%s is not a valid id.", label)
	case "hhmm":
		return fmt.Sprintf("%s must be a time in HH:mm format.", label)
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format.", label)
	case "yearmonth":
		return fmt.Sprintf("%s must be a month in YYYY-MM format.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

// IsValidEmail reports whether s is a bare email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && instance().Var(s, "email") == nil
}
