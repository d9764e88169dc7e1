package authrouter

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNoUserFound     = "NO_USER_FOUND"
	textCodeTokenMissing    = "TOKEN_MISSING"
	textCodeTokenMalformed  = "TOKEN_MALFORMED"
	textCodeTokenExpired    = "TOKEN_EXPIRED"
	textCodeSubjectMismatch = "SUBJECT_MISMATCH"
)

// ErrNoUserFound is returned by Authorize when the store has no record
// matching the presented credentials.
var ErrNoUserFound = goerrors.New("no user found for these credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeNoUserFound).
	WithCode(goerrors.CodeForbidden)

// ErrTokenMissing is returned when a guarded request carries no usable
// bearer token.
var ErrTokenMissing = goerrors.New("missing or malformed bearer token", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMissing).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail signature or
// audience checks.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for otherwise valid tokens past their expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// NewSubjectMismatchError reports a valid token presented against a
// resource its subject does not own. The message names the subject so
// clients can branch on it.
func NewSubjectMismatchError(subject string) *goerrors.Error {
	return goerrors.New(
		fmt.Sprintf("token subject %q does not own this resource", subject),
		goerrors.CategoryAuthz,
	).
		WithTextCode(textCodeSubjectMismatch).
		WithCode(goerrors.CodeUnauthorized).
		WithMetadata(map[string]any{"subject": subject})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed")
}
