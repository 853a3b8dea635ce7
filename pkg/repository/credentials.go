package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNoCredentials is returned by Load when nothing has been saved
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials is what survives between runs: the auth token and the
// identity it belongs to.
type Credentials struct {
	Token    string `yaml:"token"`
	Identity string `yaml:"identity"`
	Username string `yaml:"username,omitempty"`
}

// CredentialStore persists the credentials of the signed in player
type CredentialStore interface {
	Save(creds Credentials) error
	Load() (Credentials, error)
	Clear() error
}

// InMemoryCredentialStore keeps credentials for the lifetime of the process
type InMemoryCredentialStore struct {
	creds *Credentials
	mu    sync.RWMutex
}

// NewInMemoryCredentialStore creates an empty in-memory store
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{}
}

func (s *InMemoryCredentialStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = &creds
	return nil
}

func (s *InMemoryCredentialStore) Load() (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil || s.creds.Token == "" {
		return Credentials{}, ErrNoCredentials
	}
	return *s.creds, nil
}

func (s *InMemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	return nil
}

// FileCredentialStore keeps credentials in a YAML file readable only by the owner
type FileCredentialStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileCredentialStore creates a store backed by path. The file is created on first Save.
func NewFileCredentialStore(path string, logger *zap.Logger) *FileCredentialStore {
	return &FileCredentialStore{
		path:   path,
		logger: logger,
	}
}

func (s *FileCredentialStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	s.logger.Debug("saved credentials", zap.String("path", s.path))
	return nil
}

func (s *FileCredentialStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.Token == "" {
		return Credentials{}, ErrNoCredentials
	}

	return creds, nil
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
