package authrouter

import "context"

// UserStore is the storage collaborator this core depends on but does
// not implement. Name is the collection's logical name; it doubles as
// the token audience and the signing secret namespace.
//
// FindOne must match the full credentials, not the username alone:
// password verification is the store's query semantics. It returns
// (nil, nil) when no record matches.
type UserStore interface {
	InsertOne(ctx context.Context, creds Credentials) (any, error)
	FindOne(ctx context.Context, creds Credentials) (any, error)
	Name() string
}

// StoreProvider resolves the user store once at startup. It models a
// collection that may not be ready yet; New bounds the resolution with
// the caller's context and fails startup when it errors.
type StoreProvider func(ctx context.Context) (UserStore, error)
