package authrouter

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// passwordSpecials is the fixed set of characters that satisfy the
// special character requirement. Part of the policy contract.
const passwordSpecials = "!@#$%^&*()-_=+[]{};:,.<>?"

const (
	usernamePolicy = "must contain only lowercase letters, digits, or underscores"
	passwordPolicy = "must be at least 8 characters long and include an uppercase letter, " +
		"a lowercase letter, a digit, and a special character"
)

// Credentials is the ephemeral username/password payload. It lives for
// the duration of one request; persistence is the store's job.
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run the credential policy rules
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(
			&c.Username,
			validation.Required,
			validation.Match(usernamePattern).Error(usernamePolicy),
		),
		validation.Field(
			&c.Password,
			validation.Required,
			validation.By(checkPasswordPolicy),
		),
	)
	if err == nil {
		return nil
	}
	return asValidationError(err)
}

func checkPasswordPolicy(value any) error {
	s, ok := value.(string)
	if !ok {
		return errors.New(passwordPolicy)
	}

	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	if len(s) < 8 || !upper || !lower || !digit || !special {
		return errors.New(passwordPolicy)
	}

	return nil
}

// asValidationError flattens ozzo field errors into a single rich error
// tagged with the offending field. Username is reported before password
// so the failure reason is deterministic.
func asValidationError(err error) error {
	fields, ok := err.(validation.Errors)
	if !ok {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid credentials payload").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"field": "credentials"})
	}

	for _, field := range []string{"username", "password"} {
		if ferr, found := fields[field]; found {
			return goerrors.New(field+" "+ferr.Error(), goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"field": field})
		}
	}

	return goerrors.New(err.Error(), goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"field": "credentials"})
}
