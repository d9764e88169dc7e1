package authrouter

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GuardConfig configures the resource guard middleware.
type GuardConfig struct {
	// Tokens validates inbound bearer tokens. Required.
	Tokens *TokenService
	// UserParam is the route parameter naming the resource owner.
	// Defaults to "user".
	UserParam string
	// ContextKey is the locals key the validated claims are stored
	// under. Defaults to "user".
	ContextKey string
	// AuthScheme is the Authorization header scheme. Defaults to "Bearer".
	AuthScheme string
	// ErrorHandler converts guard failures into responses. Defaults to
	// the package error mapping.
	ErrorHandler func(c *fiber.Ctx, err error) error
	// Logger defaults to the package logger.
	Logger Logger
}

// NewResourceGuard returns middleware that restricts a per user route
// to requests whose bearer token subject owns the :user path segment.
//
// Each request is classified independently: no token and bad token fail
// with ErrTokenMissing/ErrTokenMalformed/ErrTokenExpired, a valid token
// for another subject fails with a mismatch error naming that subject,
// and a matching token stores its claims in locals and proceeds.
func NewResourceGuard(cfg GuardConfig) fiber.Handler {
	if cfg.Tokens == nil {
		panic("AUTH: resource guard configuration: Tokens is required.")
	}
	if cfg.UserParam == "" {
		cfg.UserParam = "user"
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return writeError(c, err, cfg.Logger)
		}
	}

	return func(c *fiber.Ctx) error {
		raw, err := tokenFromHeader(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.Tokens.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		owner := c.Params(cfg.UserParam)
		if subject := claims.Username(); subject != owner {
			cfg.Logger.Info("guard rejected subject", "subject", subject, "owner", owner)
			return cfg.ErrorHandler(c, NewSubjectMismatchError(subject))
		}

		c.Locals(cfg.ContextKey, claims)
		return c.Next()
	}
}

// tokenFromHeader extracts the raw token from an Authorization header
// value using the configured scheme. The scheme and token must be
// separated by a space.
func tokenFromHeader(header, authScheme string) (string, error) {
	authScheme = strings.TrimSpace(authScheme)
	l := len(authScheme)
	if l == 0 || len(header) <= l+1 {
		return "", ErrTokenMissing
	}
	if !strings.EqualFold(header[:l], authScheme) || header[l] != ' ' {
		return "", ErrTokenMissing
	}
	raw := strings.TrimSpace(header[l+1:])
	if raw == "" {
		return "", ErrTokenMissing
	}
	return raw, nil
}
