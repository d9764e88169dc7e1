package authrouter

import (
	"context"
	"reflect"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultTokenTTL is applied to issued tokens unless overridden with
// WithTokenTTL. A zero TTL issues tokens without expiry.
const DefaultTokenTTL = 24 * time.Hour

// Authenticator implements the register and authorize protocols over a
// resolved UserStore, signing tokens with the store's namespace secret.
type Authenticator struct {
	store        UserStore
	secrets      SecretStore
	signingKey   []byte
	ttl          time.Duration
	logger       Logger
	tokenService *TokenService
}

// NewAuthenticator resolves the store's namespace secret eagerly so a
// broken secret store fails construction instead of the first request.
func NewAuthenticator(ctx context.Context, store UserStore, secrets SecretStore) (*Authenticator, error) {
	if store == nil {
		return nil, goerrors.New("user store is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	if secrets == nil {
		return nil, goerrors.New("secret store is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	signingKey, err := secrets.SecretFor(ctx, store.Name())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to provision signing secret")
	}

	a := &Authenticator{
		store:      store,
		secrets:    secrets,
		signingKey: signingKey,
		ttl:        DefaultTokenTTL,
		logger:     defLogger{},
	}
	a.tokenService = NewTokenService(signingKey, store.Name(), a.ttl, a.logger)

	return a, nil
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger == nil {
		return a
	}
	a.logger = logger
	a.tokenService = NewTokenService(a.signingKey, a.store.Name(), a.ttl, logger)
	return a
}

// WithTokenTTL sets the expiry window for issued tokens. Zero disables
// expiry.
func (a *Authenticator) WithTokenTTL(ttl time.Duration) *Authenticator {
	a.ttl = ttl
	a.tokenService = NewTokenService(a.signingKey, a.store.Name(), ttl, a.logger)
	return a
}

// TokenService returns the TokenService bound to the store's namespace.
func (a *Authenticator) TokenService() *TokenService {
	return a.tokenService
}

// Namespace returns the store's collection name.
func (a *Authenticator) Namespace() string {
	return a.store.Name()
}

// Register validates the credentials and forwards them to the store.
// Store failures, duplicate usernames included, surface to the caller
// with their message intact.
func (a *Authenticator) Register(ctx context.Context, creds Credentials) (any, error) {
	if err := creds.Validate(); err != nil {
		a.logger.Error("Register validation failed", "username", creds.Username, "error", err)
		return nil, err
	}

	result, err := a.store.InsertOne(ctx, creds)
	if err != nil {
		a.logger.Error("Register insert failed", "username", creds.Username, "error", err)
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}

	return result, nil
}

// Authorize validates the credentials, confirms a matching user exists,
// and issues a signed token with audience=namespace, subject=username,
// and the credentials embedded as the context claim.
func (a *Authenticator) Authorize(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		a.logger.Error("Authorize validation failed", "username", creds.Username, "error", err)
		return "", err
	}

	record, err := a.store.FindOne(ctx, creds)
	if err != nil {
		a.logger.Error("Authorize lookup failed", "username", creds.Username, "error", err)
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if record == nil || reflect.ValueOf(record).IsZero() {
		a.logger.Info("Authorize rejected unknown credentials", "username", creds.Username)
		return "", ErrNoUserFound
	}

	token, err := a.tokenService.Generate(creds)
	if err != nil {
		a.logger.Error("Authorize token generation failed", "username", creds.Username, "error", err)
		return "", err
	}

	return token, nil
}
