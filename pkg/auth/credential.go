package auth

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName   = "rmail"
	credentialKey = "auth-token"
)

// CredentialStore persists the bearer credential across runs. An empty
// token with a nil error means no credential is held.
type CredentialStore interface {
	Token() (string, error)
	Save(token string) error
	Clear() error
}

// KeyringStore stores the credential in the system keyring, falling back to
// an encrypted file backend so headless environments still work.
type KeyringStore struct {
	ring keyring.Keyring
}

// OpenKeyringStore opens the keyring used for the bearer credential.
// fileDir is where the file backend keeps its entries when no OS keychain
// is available.
func OpenKeyringStore(fileDir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("rmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

func (s *KeyringStore) Token() (string, error) {
	item, err := s.ring.Get(credentialKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading credential: %w", err)
	}
	return string(item.Data), nil
}

func (s *KeyringStore) Save(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:  credentialKey,
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

func (s *KeyringStore) Clear() error {
	err := s.ring.Remove(credentialKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing credential: %w", err)
	}
	return nil
}

// MemoryStore keeps the credential in memory only. Useful for tests and
// for consumers that manage persistence themselves.
type MemoryStore struct {
	token string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Token() (string, error) { return s.token, nil }

func (s *MemoryStore) Save(token string) error {
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.token = ""
	return nil
}
