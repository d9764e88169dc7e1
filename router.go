package authrouter

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// defaultSecretsDir is where FileSecretStore keeps namespace secrets
// when the caller does not inject its own store.
const defaultSecretsDir = ".secrets"

// Router composes the authentication surface over a resolved user
// store:
//
//	POST /            register
//	POST /authorize   issue token
//	*    /authorize   400, use POST instead
//	*    /:user/*     resource guard, then the caller's handler
type Router struct {
	app     *fiber.App
	auth    *Authenticator
	secrets SecretStore
	logger  Logger

	ttl         time.Duration
	authScheme  string
	contextKey  string
	userHandler fiber.Handler
}

// Option configures the router before the store is resolved.
type Option func(*Router)

// WithLogger replaces the default printf logger.
func WithLogger(logger Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSecretStore replaces the default file backed secret store.
func WithSecretStore(secrets SecretStore) Option {
	return func(r *Router) {
		if secrets != nil {
			r.secrets = secrets
		}
	}
}

// WithTokenTTL sets the expiry for issued tokens. Zero disables expiry.
func WithTokenTTL(ttl time.Duration) Option {
	return func(r *Router) {
		r.ttl = ttl
	}
}

// WithAuthScheme overrides the Authorization header scheme the guard
// expects.
func WithAuthScheme(scheme string) Option {
	return func(r *Router) {
		if scheme != "" {
			r.authScheme = scheme
		}
	}
}

// WithContextKey overrides the locals key validated claims are stored
// under for downstream handlers.
func WithContextKey(key string) Option {
	return func(r *Router) {
		if key != "" {
			r.contextKey = key
		}
	}
}

// WithUserHandler installs the downstream handler guarded requests are
// passed to once the token subject matches the :user segment.
func WithUserHandler(handler fiber.Handler) Option {
	return func(r *Router) {
		if handler != nil {
			r.userHandler = handler
		}
	}
}

// New resolves the user store through the provider, provisions the
// namespace signing secret, and mounts the routes. Resolution is
// bounded by ctx; if the store never materializes, startup fails
// instead of leaving the guard unusable.
func New(ctx context.Context, provider StoreProvider, opts ...Option) (*Router, error) {
	if provider == nil {
		return nil, goerrors.New("store provider is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	r := &Router{
		secrets:     NewFileSecretStore(defaultSecretsDir),
		logger:      defLogger{},
		ttl:         DefaultTokenTTL,
		authScheme:  "Bearer",
		contextKey:  "user",
		userHandler: passthroughHandler,
	}

	for _, opt := range opts {
		opt(r)
	}

	store, err := provider(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to resolve user store")
	}

	auth, err := NewAuthenticator(ctx, store, r.secrets)
	if err != nil {
		return nil, err
	}
	r.auth = auth.WithLogger(r.logger).WithTokenTTL(r.ttl)

	r.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	r.mount()

	return r, nil
}

func (r *Router) mount() {
	r.app.Post("/", r.handleRegister)
	r.app.Post("/authorize", r.handleAuthorize)
	r.app.All("/authorize", r.handleAuthorizeMethod)

	guard := NewResourceGuard(GuardConfig{
		Tokens:     r.auth.TokenService(),
		ContextKey: r.contextKey,
		AuthScheme: r.authScheme,
		Logger:     r.logger,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return writeError(c, err, r.logger)
		},
	})

	r.app.All("/:user", guard, r.userHandler)
	r.app.All("/:user/*", guard, r.userHandler)
}

// passthroughHandler hands the request to whatever the caller mounts
// after the guard; with nothing mounted fiber falls through to a 404.
func passthroughHandler(c *fiber.Ctx) error {
	return c.Next()
}

// Authenticator exposes the underlying protocol object.
func (r *Router) Authenticator() *Authenticator {
	return r.auth
}

// Namespace returns the resolved collection name.
func (r *Router) Namespace() string {
	return r.auth.Namespace()
}

// App returns the underlying fiber app so callers can mount additional
// routes or middleware.
func (r *Router) App() *fiber.App {
	return r.app
}

// Listen serves the router on addr.
func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// Test dispatches the request in-process, mirroring fiber's app.Test.
func (r *Router) Test(req *http.Request, msTimeout ...int) (*http.Response, error) {
	return r.app.Test(req, msTimeout...)
}
