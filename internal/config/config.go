// Package config holds the bridge's process environment and the app identity
// blob that is fetched from the secret store.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AppConfig is the Teams app identity and tenant allow-list stored as a secret.
type AppConfig struct {
	AppID            string    `json:"ms_app_id"`
	AppSecret        string    `json:"client_secret"`
	AllowedTenantIDs TenantIDs `json:"valid_tenant_ids"`
}

// TenantIDs decodes from either a JSON array of strings or a legacy
// comma-separated string. It always encodes as an array.
type TenantIDs []string

// UnmarshalJSON accepts `["a","b"]`, `"a,b"` and `null`.
func (t *TenantIDs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		*t = SplitTenantIDs(joined)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("valid_tenant_ids: expected string or array of strings: %w", err)
	}
	out := make(TenantIDs, 0, len(list))
	for _, id := range list {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	*t = out
	return nil
}

// SplitTenantIDs splits a comma-separated tenant list, dropping blanks.
func SplitTenantIDs(joined string) TenantIDs {
	parts := strings.Split(joined, ",")
	out := make(TenantIDs, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseAppConfig decodes a secret string into an AppConfig and checks that the
// app identity is present.
func ParseAppConfig(secret string) (AppConfig, error) {
	var cfg AppConfig
	if strings.TrimSpace(secret) == "" {
		return cfg, &Error{Op: "parse", Err: fmt.Errorf("empty secret")}
	}
	if err := json.Unmarshal([]byte(secret), &cfg); err != nil {
		return AppConfig{}, &Error{Op: "parse", Err: err}
	}
	cfg.AppID = strings.TrimSpace(cfg.AppID)
	cfg.AppSecret = strings.TrimSpace(cfg.AppSecret)
	var missing []string
	if cfg.AppID == "" {
		missing = append(missing, "ms_app_id")
	}
	if cfg.AppSecret == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return AppConfig{}, &Error{Op: "parse", Err: fmt.Errorf("missing %s", strings.Join(missing, ", "))}
	}
	return cfg, nil
}

// Error reports a configuration that could not be retrieved or parsed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Mask renders a credential for logs as its first and last four characters.
func Mask(v string) string {
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + "****" + v[len(v)-4:]
}
