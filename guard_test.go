package authrouter_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authrouter "github.com/goliatone/go-auth-router"
)

func newGuardApp(t *testing.T, cfg authrouter.GuardConfig) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.All("/:user/*", authrouter.NewResourceGuard(cfg), func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(*authrouter.TokenClaims)
		require.True(t, ok, "expected claims in locals")
		return c.SendString(claims.Username())
	})
	return app
}

func guardRequest(target, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, token)
	}
	return req
}

func TestResourceGuard_AllowsOwningSubject(t *testing.T) {
	tokens := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: tokens})

	token, err := tokens.Generate(authrouter.Credentials{Username: "alice_1", Password: "Abcdef1!"})
	require.NoError(t, err)

	resp, err := app.Test(guardRequest("/alice_1/profile", "Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResourceGuard_SchemeIsCaseInsensitive(t *testing.T) {
	tokens := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: tokens})

	token, err := tokens.Generate(authrouter.Credentials{Username: "alice_1", Password: "Abcdef1!"})
	require.NoError(t, err)

	resp, err := app.Test(guardRequest("/alice_1/profile", "bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResourceGuard_RejectsMissingToken(t *testing.T) {
	tokens := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: tokens})

	resp, err := app.Test(guardRequest("/alice_1/profile", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResourceGuard_RejectsMissingSchemeSeparator(t *testing.T) {
	tokens := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: tokens})

	token, err := tokens.Generate(authrouter.Credentials{Username: "alice_1", Password: "Abcdef1!"})
	require.NoError(t, err)

	// scheme glued to the token is not a valid Authorization header
	resp, err := app.Test(guardRequest("/alice_1/profile", "Bearer"+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResourceGuard_RejectsWrongScheme(t *testing.T) {
	tokens := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: tokens})

	token, err := tokens.Generate(authrouter.Credentials{Username: "alice_1", Password: "Abcdef1!"})
	require.NoError(t, err)

	resp, err := app.Test(guardRequest("/alice_1/profile", "Basic "+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResourceGuard_RejectsExpiredToken(t *testing.T) {
	issuer := authrouter.NewTokenService([]byte("guard-key"), "users", -time.Minute, nil)
	verifier := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: verifier})

	token, err := issuer.Generate(authrouter.Credentials{Username: "alice_1", Password: "Abcdef1!"})
	require.NoError(t, err)

	resp, err := app.Test(guardRequest("/alice_1/profile", "Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResourceGuard_RejectsMismatchedSubject(t *testing.T) {
	tokens := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: tokens})

	token, err := tokens.Generate(authrouter.Credentials{Username: "bob_2", Password: "Abcdef1!"})
	require.NoError(t, err)

	resp, err := app.Test(guardRequest("/alice_1/profile", "Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "bob_2")
}

func TestResourceGuard_CustomScheme(t *testing.T) {
	tokens := authrouter.NewTokenService([]byte("guard-key"), "users", time.Hour, nil)
	app := newGuardApp(t, authrouter.GuardConfig{Tokens: tokens, AuthScheme: "Token"})

	token, err := tokens.Generate(authrouter.Credentials{Username: "alice_1", Password: "Abcdef1!"})
	require.NoError(t, err)

	resp, err := app.Test(guardRequest("/alice_1/profile", "Token "+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(guardRequest("/alice_1/profile", "Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
