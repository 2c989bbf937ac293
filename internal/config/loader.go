package config

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// SecretGetter fetches a secret string by identifier.
type SecretGetter interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

// Loader fetches and parses the AppConfig secret. With Cache set, the first
// successful load is reused for the life of the process.
type Loader struct {
	Secrets  SecretGetter
	SecretID string
	Cache    bool

	mu     sync.Mutex
	cached *AppConfig
}

// NewLoader creates a loader for the given secret.
func NewLoader(secrets SecretGetter, secretID string, cache bool) *Loader {
	return &Loader{Secrets: secrets, SecretID: strings.TrimSpace(secretID), Cache: cache}
}

// Load returns the AppConfig. Every failure is a *Error; nothing is retried.
func (l *Loader) Load(ctx context.Context) (AppConfig, error) {
	if l.Cache {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.cached != nil {
			return *l.cached, nil
		}
	}
	if l.Secrets == nil {
		return AppConfig{}, &Error{Op: "load", Err: errors.New("no secret store configured")}
	}
	if l.SecretID == "" {
		return AppConfig{}, &Error{Op: "load", Err: errors.New("secret id is empty (set CONFIG)")}
	}
	raw, err := l.Secrets.GetSecret(ctx, l.SecretID)
	if err != nil {
		return AppConfig{}, &Error{Op: "load", Err: err}
	}
	cfg, err := ParseAppConfig(raw)
	if err != nil {
		return AppConfig{}, err
	}
	if l.Cache {
		l.cached = &cfg
	}
	return cfg, nil
}
