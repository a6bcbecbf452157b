package portfolio

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// projectRules mirrors the validated subset of ProjectInput. Field order is
// the order messages are reported in.
type projectRules struct {
	Title   string `validate:"required,max=100"`
	RepoURL string `validate:"omitempty,httpurl"`
	DemoURL string `validate:"omitempty,httpurl"`
}

var ruleMessages = map[string]string{
	"Title.required":  "Title is required",
	"Title.max":       "Title must be less than 100 characters",
	"RepoURL.httpurl": "Invalid Repository URL",
	"DemoURL.httpurl": "Invalid Demo URL",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return IsValidURL(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsValidURL accepts absolute http and https URLs.
func IsValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidateProjectInput returns the validation messages for in, empty when valid.
func ValidateProjectInput(in ProjectInput) []string {
	rules := projectRules{
		Title:   strings.TrimSpace(in.Title),
		RepoURL: strings.TrimSpace(in.RepoURL),
		DemoURL: strings.TrimSpace(in.DemoURL),
	}

	err := validate.Struct(rules)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := ruleMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + fe.Field()
		}
		messages = append(messages, msg)
	}
	return messages
}
