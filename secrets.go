package authrouter

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// SecretLength is the size in bytes of generated signing secrets.
const SecretLength = 256

// lockTimeout is the maximum time to wait for the cross process file lock.
const lockTimeout = 5 * time.Second

// SecretStore provisions stable signing secrets keyed by namespace.
// The same namespace must always yield byte identical secrets once
// created, otherwise previously issued tokens stop verifying.
type SecretStore interface {
	SecretFor(ctx context.Context, namespace string) ([]byte, error)
}

// FileSecretStore is a durable SecretStore backed by a directory of key
// files, one per namespace. First use of a namespace generates a
// crypto/rand secret and persists it; later uses read it back.
//
// Concurrent first use is safe: a per namespace mutex serializes
// goroutines in this process, a flock serializes other processes, and
// the file itself is created with O_EXCL so the losing writer reads the
// winner's bytes instead of replacing them.
var _ SecretStore = (*FileSecretStore)(nil)

type FileSecretStore struct {
	dir    string
	logger Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string][]byte
}

// NewFileSecretStore creates a store rooted at dir. The directory is
// created on first use if missing.
func NewFileSecretStore(dir string) *FileSecretStore {
	return &FileSecretStore{
		dir:    dir,
		logger: defLogger{},
		locks:  map[string]*sync.Mutex{},
		cache:  map[string][]byte{},
	}
}

func (s *FileSecretStore) WithLogger(logger Logger) *FileSecretStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SecretFor returns the namespace's signing secret, creating and
// persisting it on first use.
func (s *FileSecretStore) SecretFor(ctx context.Context, namespace string) ([]byte, error) {
	if namespace == "" {
		return nil, goerrors.New("secret namespace must not be empty", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	if secret, ok := s.cached(namespace); ok {
		return secret, nil
	}

	lock := s.namespaceLock(namespace)
	lock.Lock()
	defer lock.Unlock()

	// another goroutine may have provisioned while we waited
	if secret, ok := s.cached(namespace); ok {
		return secret, nil
	}

	path, err := s.secretPath(namespace)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create secrets directory")
	}

	fileLock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to acquire secret file lock")
	}
	if !locked {
		return nil, goerrors.New("timed out acquiring secret file lock", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}
	defer fileLock.Unlock()

	secret, err := s.readOrCreate(path)
	if err != nil {
		return nil, err
	}

	s.remember(namespace, secret)
	return secret, nil
}

func (s *FileSecretStore) readOrCreate(path string) ([]byte, error) {
	secret, err := os.ReadFile(path)
	if err == nil {
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read secret file")
	}

	secret = make([]byte, SecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate signing secret")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			// lost the create race, the persisted secret wins
			secret, rerr := os.ReadFile(path)
			if rerr != nil {
				return nil, goerrors.Wrap(rerr, goerrors.CategoryInternal, "failed to read secret file")
			}
			return secret, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create secret file")
	}

	if _, err := f.Write(secret); err != nil {
		f.Close()
		os.Remove(path)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write signing secret")
	}

	if err := f.Close(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to close secret file")
	}

	s.logger.Info("provisioned signing secret", "path", path)
	return secret, nil
}

// secretPath derives a stable, path safe location for the namespace.
func (s *FileSecretStore) secretPath(namespace string) (string, error) {
	id, err := hashid.NewUUID(namespace)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive secret file name")
	}
	return filepath.Join(s.dir, id.String()+".key"), nil
}

func (s *FileSecretStore) namespaceLock(namespace string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[namespace]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[namespace] = lock
	}
	return lock
}

func (s *FileSecretStore) cached(namespace string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret, ok := s.cache[namespace]
	return secret, ok
}

func (s *FileSecretStore) remember(namespace string, secret []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[namespace] = secret
}
