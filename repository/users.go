// Package repository provides a bun backed UserStore: the reference
// storage collaborator for the authentication router.
//
// Passwords are never stored in the clear. InsertOne hashes with bcrypt
// and FindOne realizes the "match the full credentials" query contract
// as a username lookup followed by a constant time hash comparison.
package repository

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	authrouter "github.com/goliatone/go-auth-router"
)

// DefaultCollectionName is the table name and, through UserStore.Name,
// the token audience and signing secret namespace.
const DefaultCollectionName = "users"

const bcryptCost = 14

// User is the persisted user model.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UsersStore implements authrouter.UserStore over a bun database.
type UsersStore struct {
	db   *bun.DB
	repo repository.Repository[*User]
	name string
}

var _ authrouter.UserStore = (*UsersStore)(nil)

// NewUsersStore creates the users collection over db.
func NewUsersStore(db *bun.DB) *UsersStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(record *User) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *User, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &UsersStore{
		db:   db,
		repo: repo,
		name: DefaultCollectionName,
	}
}

// Provider adapts the store to the router's startup resolution.
func Provider(db *bun.DB) authrouter.StoreProvider {
	return func(ctx context.Context) (authrouter.UserStore, error) {
		return NewUsersStore(db), nil
	}
}

// Name returns the collection's logical name.
func (s *UsersStore) Name() string {
	return s.name
}

// InsertOne hashes the password and persists a new user. The ID is
// derived deterministically from the username, so re-registration
// conflicts on both the primary key and the unique username column.
func (s *UsersStore) InsertOne(ctx context.Context, creds authrouter.Credentials) (any, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcryptCost)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Username:     creds.Username,
		PasswordHash: string(hash),
	}

	if id, err := hashid.NewUUID(creds.Username); err == nil {
		user.ID = id
	}

	record, err := s.repo.Create(ctx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerrors.New("username "+creds.Username+" is already registered", goerrors.CategoryConflict).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"username": creds.Username})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "could not create user").
			WithCode(goerrors.CodeBadRequest)
	}

	return record, nil
}

// FindOne returns the user matching both username and password, or
// (nil, nil) when either does not match. The caller cannot distinguish
// a wrong password from a missing user.
func (s *UsersStore) FindOne(ctx context.Context, creds authrouter.Credentials) (any, error) {
	user, err := s.repo.GetByIdentifier(ctx, creds.Username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, nil
	}

	return user, nil
}

// CreateUsersTable creates the backing table if missing. Intended for
// tests and example wiring; production schemas are managed elsewhere.
func CreateUsersTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
