package domain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the scenario before any output is produced. Every failure
// is reported as a *ConfigError; the first offending field wins.
func (s Scenario) Validate() error {
	if err := validatorInstance().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return configErrorFrom(verrs[0])
		}
		return &ConfigError{Reason: err.Error(), Err: err}
	}

	for i, d := range s.Devices {
		if d.Name == "." || d.Name == ".." {
			return &ConfigError{
				Field:  fmt.Sprintf("Scenario.Devices[%d].Name", i),
				Reason: fmt.Sprintf("%q is not a usable file name", d.Name),
			}
		}
	}
	return nil
}

func configErrorFrom(fe validator.FieldError) *ConfigError {
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "gt":
		reason = "must be greater than " + fe.Param()
	case "gte":
		reason = "must be at least " + fe.Param()
	case "lte":
		reason = "must be at most " + fe.Param()
	case "gtefield":
		reason = "must not be before " + fe.Param()
	case "min":
		reason = "must have at least " + fe.Param() + " entries"
	case "unique":
		reason = "must have unique " + fe.Param() + " values"
	case "excludesall":
		reason = "must not contain path separators"
	default:
		reason = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return &ConfigError{Field: fe.Namespace(), Reason: reason, Err: fe}
}
