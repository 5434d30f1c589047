package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is wrapped by every record validation failure
var ErrValidation = errors.New("validation failed")

// ServerURLSchemes are the schemes a server URL may use
var ServerURLSchemes = []string{"http", "https", "ftp", "ftps", "postgis"}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("server_url", validateServerURL)
	})
	return validate
}

// validateServerURL accepts absolute URLs with a host and an allowed scheme
func validateServerURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Hostname() == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	for _, allowed := range ServerURLSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// validateStruct runs tag validation and flattens failures into one error
func validateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "server_url":
		return fmt.Sprintf("%s must be a valid URL with scheme in %v", field, ServerURLSchemes)
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
