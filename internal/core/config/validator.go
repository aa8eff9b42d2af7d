package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"impactgraph/internal/shared/util"
)

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("classification", validateClassification)
}

func validateClassification(fl validator.FieldLevel) bool {
	return slices.Contains(Classifications, fl.Field().String())
}

// Validate checks field constraints and that every glob pattern compiles.
func Validate(cfg *Config) error {
	if err := configValidate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := util.NewPathMatcher(cfg.IgnorePatterns); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for i, rule := range cfg.Classification.Rules {
		if _, err := util.NewPathMatcher([]string{rule.Pattern}); err != nil {
			return fmt.Errorf("invalid config: classification.rules[%d] pattern %q: %w", i, rule.Pattern, err)
		}
	}
	return nil
}
