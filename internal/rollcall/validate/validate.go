// Package validate checks request payloads and maps failures to
// domain.ValidationError.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

// MinPasswordLength is the shortest password a reset may set.
const MinPasswordLength = 6

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	roleTag     = "role"
	otpTag      = "otp6"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(roleTag, knownRole)
	_ = validate.RegisterValidation(otpTag, sixDigits)

	registerCustom(map[string]string{
		notBlankTag: "cannot be blank",
		roleTag:     "must be one of admin, teacher, student, dept_head",
		otpTag:      "must be exactly 6 digits",
	})
}

// registerCustom installs fixed messages for custom tags. The register step
// is a no-op because the messages are produced by the translate func.
func registerCustom(messages map[string]string) {
	noop := func(ut.Translator) error { return nil }
	for tag, msg := range messages {
		_ = validate.RegisterTranslation(tag, translator, noop, func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " " + msg
		})
	}
}

func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(s) != ""
}

func knownRole(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, known := domain.ParseRole(s)
	return known
}

func sixDigits(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok || len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Errors is every field failure of one payload. errors.As finds the first
// *domain.ValidationError through it.
type Errors []*domain.ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return strings.Join(parts, "; ")
}

func (e Errors) Unwrap() []error {
	out := make([]error, len(e))
	for i, ve := range e {
		out[i] = ve
	}
	return out
}

// Details maps field names to reasons.
func (e Errors) Details() map[string]string {
	out := make(map[string]string, len(e))
	for _, ve := range e {
		out[ve.Field] = ve.Reason
	}
	return out
}

// Struct validates s using its `validate` tags.
func Struct(s any) error {
	return convert("", validate.Struct(s))
}

// Var validates a single value named field against tag.
func Var(field string, value any, tag string) error {
	return convert(field, validate.Var(value, tag))
}

// Password checks a new password before any state is mutated.
func Password(field, password string) error {
	return Var(field, password, "required,min=6,max=256")
}

func convert(field string, err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		msg := strings.TrimSpace(strings.TrimPrefix(fe.Translate(translator), fe.Field()))
		out = append(out, domain.NewValidationError(name, msg))
	}
	return out
}
