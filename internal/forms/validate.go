package forms

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits  = regexp.MustCompile(`\D`)

	// custom validation tags
	notBlankTag  = "notblank"
	siteEmailTag = "site_email"
	phoneTag     = "phone10"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(siteEmailTag, siteEmailValidation)
	_ = validate.RegisterValidation(phoneTag, phoneValidation)

	registerCustomTranslation(notBlankTag, "This field is required")
	registerCustomTranslation("required", "This field is required")
	registerCustomTranslation(siteEmailTag, "Please enter a valid email address")
	registerCustomTranslation(phoneTag, "Please enter a valid phone number")
	registerCustomTranslation("oneof", "Please choose one of: {0}")
}

// registerCustomTranslation overrides or adds the message for tag. {0} is
// replaced with the tag parameter.
func registerCustomTranslation(tag, text string) {
	registerFn := func(ut.Translator) error { return nil }
	translateFn := func(_ ut.Translator, fe validator.FieldError) string {
		return strings.ReplaceAll(text, "{0}", strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	_ = validate.RegisterTranslation(tag, translator, registerFn, translateFn)
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// siteEmailValidation accepts what the site's forms accept: something@host.tld
// with no whitespace. Empty values are left to required/notblank.
func siteEmailValidation(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return s == "" || emailRegex.MatchString(s)
}

// phoneValidation wants exactly 10 digits once punctuation is stripped.
func phoneValidation(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return s == "" || len(nonDigits.ReplaceAllString(s, "")) == 10
}

// FieldErrors maps a JSON field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Check validates a form struct. It returns nil or FieldErrors.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		if _, seen := out[e.Field()]; !seen {
			out[e.Field()] = e.Translate(translator)
		}
	}
	return out
}
