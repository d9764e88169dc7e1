package authrouter

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService signs and validates bearer tokens for a single
// collection namespace. The namespace doubles as the token audience.
type TokenService struct {
	signingKey []byte
	audience   string
	ttl        time.Duration
	logger     Logger
}

// NewTokenService creates a new TokenService instance. A ttl of zero
// issues tokens without expiry.
func NewTokenService(signingKey []byte, audience string, ttl time.Duration, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey: signingKey,
		audience:   audience,
		ttl:        ttl,
		logger:     logger,
	}
}

// Generate creates a signed token bound to the credentials' username.
func (ts *TokenService) Generate(creds Credentials) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  creds.Username,
			Audience: jwt.ClaimStrings{ts.audience},
			IssuedAt: jwt.NewNumericDate(now),
		},
		Context: creds,
	}

	if ts.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.ttl))
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the namespace signing key.
func (ts *TokenService) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a raw token, enforcing the HMAC signing
// method and the namespace audience.
func (ts *TokenService) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithAudience(ts.audience))

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(goerrors.CodeUnauthorized)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode claims")
	return nil, ErrTokenMalformed
}
