// Package validation wraps go-playground/validator with the field-rule set
// the salon records declare, reporting violations as sorted field errors.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator is stateless and safe for concurrent use. Construct once and
// inject by reference; there is no package-level instance.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Violations name fields by the `field` struct tag, falling back to the
	// lower-camel Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("field"); name != "" {
			return name
		}
		return lowerFirst(fld.Name)
	})

	// notblank rejects empty and whitespace-only strings; positive and
	// positiveorzero bound decimal and integer values.
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("positive", positive)
	_ = v.RegisterValidation("positiveorzero", positiveOrZero)

	return &Validator{v: v}
}

// Validate applies every declared rule to the candidate and returns the
// complete violation set sorted ascending by field name, or nil when the
// candidate is valid. One entry is reported per violated field.
func (va *Validator) Validate(candidate any) []apperror.FieldError {
	err := va.v.Struct(candidate)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperror.FieldError{{FieldName: "", FieldError: err.Error()}}
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			FieldName:  fe.Field(),
			FieldError: violationMessage(fe),
		})
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].FieldName < fields[j].FieldName
	})
	return fields
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "must not be blank"
	case "required":
		return "must not be null"
	case "email":
		return "must be a well-formed email address"
	case "max":
		return fmt.Sprintf("size must be between 0 and %s", fe.Param())
	case "positive":
		return "must be greater than 0"
	case "positiveorzero":
		return "must be greater than or equal to 0"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func positive(fl validator.FieldLevel) bool {
	if d, ok := fl.Field().Interface().(decimal.Decimal); ok {
		return d.IsPositive()
	}
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fl.Field().Int() > 0
	}
	return false
}

func positiveOrZero(fl validator.FieldLevel) bool {
	if d, ok := fl.Field().Interface().(decimal.Decimal); ok {
		return !d.IsNegative()
	}
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fl.Field().Int() >= 0
	}
	return false
}

func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}
