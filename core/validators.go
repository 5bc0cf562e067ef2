package core

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	// PasswordMaxBytes is the longest input bcrypt accepts.
	PasswordMaxBytes     = 72
	pwdMaxBytesTag       = "pwdmaxbytes"
	PasswordMaxBytesText = fmt.Sprintf("password must not exceed %d bytes", PasswordMaxBytes)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// Validator bundles the struct validator with its english translator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator instantiates the validator for use.
func NewValidator() *Validator {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	v := &Validator{validate: validator.New(), translator: translator}

	_ = en_translations.RegisterDefaultTranslations(v.validate, v.translator)

	// Use JSON tag names for errors instead of Go struct names.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = v.validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	v.RegisterCustomTranslation(alphaNumUnderTag, alphaNumUnderText)
	_ = v.validate.RegisterValidation(pwdMaxBytesTag, pwdMaxBytesValidation)
	v.RegisterCustomTranslation(pwdMaxBytesTag, PasswordMaxBytesText)

	v.RegisterCustomTranslation(requiredTag, requiredText, true)
	v.RegisterCustomTranslation(requiredWithTag, requiredText, true)
	return v
}

// Engine exposes the underlying validator so that packages can register their own rules.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func (v *Validator) RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates `s` and returns a *ValidationError carrying translated field errors.
// The error wraps ErrMissingFields when a required field is empty, ErrInvalidInput otherwise.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validating struct")
	}
	return v.Translate(verrs)
}

// Translate converts validator errors into a *ValidationError.
func (v *Validator) Translate(verrs validator.ValidationErrors) error {
	cause := ErrInvalidInput
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == requiredTag || fe.Tag() == requiredWithTag {
			cause = ErrMissingFields
		}
		name := fe.Field()
		if name == "" { // struct level errors
			name = fe.StructField()
		}
		fields = append(fields, FieldError{Field: name, Error: fe.Translate(v.translator)})
	}
	return NewValidationError(cause, fields...)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// pwdMaxBytesValidation bounds the byte length of a password, not its rune count.
func pwdMaxBytesValidation(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= PasswordMaxBytes
}
