package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// Add appends a new validation error.
func (ve *ValidationErrors) Add(field, message string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message})
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for completeness. Struct tags cover
// the simple required/range rules; cross-field rules are checked by hand.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs.Add(fe.Namespace(), fmt.Sprintf("failed '%s' validation", fe.Tag()))
			}
		} else {
			return err
		}
	}

	if cfg.Coder.TemplateID == "" {
		errs.Add("Coder.TemplateID", "is required to provision workspaces")
	}
	if len(cfg.OIDC.Scopes) > 0 && !containsScope(cfg.OIDC.Scopes, "openid") {
		errs.Add("OIDC.Scopes", "must include the 'openid' scope")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func containsScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
