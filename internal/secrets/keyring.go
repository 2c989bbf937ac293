package secrets

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name secrets are stored under.
const KeyringService = "lexteams"

// KeyringStore reads secrets from the OS keyring, keyed by secret id.
// It exists for local development where no AWS account is at hand.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store for the given keyring service.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

// GetSecret returns the keyring entry for id.
func (s *KeyringStore) GetSecret(_ context.Context, id string) (string, error) {
	v, err := keyring.Get(s.service, id)
	if err != nil {
		return "", fmt.Errorf("keyring %s/%s: %w", s.service, id, err)
	}
	return v, nil
}

// PutSecret stores value under id.
func (s *KeyringStore) PutSecret(id, value string) error {
	return keyring.Set(s.service, id, value)
}
