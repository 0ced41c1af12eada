package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/Yorkamc/GesCo/config"
	"github.com/Yorkamc/GesCo/internal/auth/dto"
	autherror "github.com/Yorkamc/GesCo/internal/errors"
	"github.com/Yorkamc/GesCo/pkg/constant"
)

// validateRegistration applies the account policy and collects every
// violation instead of stopping at the first.
func validateRegistration(cfg *config.Config, input dto.RegisterInput) error {
	var reasons []string

	email := strings.TrimSpace(input.Email)
	if email == "" {
		reasons = append(reasons, "email is required")
	} else {
		if len(email) > constant.MaxEmailLength {
			reasons = append(reasons, fmt.Sprintf("email must be at most %d characters", constant.MaxEmailLength))
		}
		if _, err := mail.ParseAddress(email); err != nil {
			reasons = append(reasons, "email is not a valid address")
		}
	}

	reasons = append(reasons, validatePassword(cfg, input.Password)...)

	if strings.TrimSpace(input.FirstName) == "" {
		reasons = append(reasons, "first name is required")
	} else if len(input.FirstName) > constant.MaxNameLength {
		reasons = append(reasons, fmt.Sprintf("first name must be at most %d characters", constant.MaxNameLength))
	}

	if strings.TrimSpace(input.LastName) == "" {
		reasons = append(reasons, "last name is required")
	} else if len(input.LastName) > constant.MaxNameLength {
		reasons = append(reasons, fmt.Sprintf("last name must be at most %d characters", constant.MaxNameLength))
	}

	if len(reasons) > 0 {
		return &autherror.ValidationError{Reasons: reasons}
	}

	return nil
}

func validatePassword(cfg *config.Config, password string) []string {
	var reasons []string

	if len(password) < cfg.PasswordMinLength {
		reasons = append(reasons, fmt.Sprintf("password must be at least %d characters", cfg.PasswordMinLength))
	}

	var hasDigit, hasUpper, hasNonAlnum bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasNonAlnum = true
		}
	}

	if cfg.PasswordRequireDigit && !hasDigit {
		reasons = append(reasons, "password must contain at least one digit")
	}
	if cfg.PasswordRequireUppercase && !hasUpper {
		reasons = append(reasons, "password must contain at least one uppercase letter")
	}
	if cfg.PasswordRequireNonAlphanum && !hasNonAlnum {
		reasons = append(reasons, "password must contain at least one non-alphanumeric character")
	}

	return reasons
}
