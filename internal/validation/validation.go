// Package validation wraps go-playground/validator with English translations
// so that rule violations can be shown to users as short readable messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Violation is a single failed rule on a field.
type Violation struct {
	Field   string
	Message string
}

// Error collects every violation found while validating a value.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return strings.Join(messages, ", ")
}

// Validator validates structs and reports translated messages.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// Option customizes a Validator.
type Option func(v *Validator) error

// WithTagName makes field names in messages come from the given struct tag,
// e.g. "json" or "mapstructure".
func WithTagName(tag string) Option {
	return func(v *Validator) error {
		v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		return nil
	}
}

// WithRule registers a custom rule with its translated message.
// The message may reference the field name with {0}.
func WithRule(tag, message string, fn validator.Func) Option {
	return func(v *Validator) error {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
		if err := v.validate.RegisterTranslation(tag, v.translator, func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fieldPath(fe))
			return t
		}); err != nil {
			return fmt.Errorf("failed to register %s translation: %w", tag, err)
		}
		return nil
	}
}

// New creates a Validator with English default translations.
func New(opts ...Option) (*Validator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	v := &Validator{
		validate:   validate,
		translator: trans,
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Struct validates s and returns an *Error describing every violation.
func (v *Validator) Struct(s any) error {
	return v.convert(v.validate.Struct(s))
}

// Var validates a single value against a tag such as "required,hexcolor".
func (v *Validator) Var(field any, tag string) error {
	return v.convert(v.validate.Var(field, tag))
}

func (v *Validator) convert(err error) error {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	result := &Error{}
	for _, fe := range validationErrors {
		result.Violations = append(result.Violations, Violation{
			Field:   fieldPath(fe),
			Message: fe.Translate(v.translator),
		})
	}
	return result
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
