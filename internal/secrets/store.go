// Package secrets fetches the bridge's app identity secret from one of several
// backends: AWS Secrets Manager, the OS keyring, or a local file.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Store returns a secret string by identifier.
type Store interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Key is the base64 AES key for sealed file secrets.
	Key string
	// AWS is required for the aws backend.
	AWS *aws.Config
}

// New builds the Store for opts.Backend.
func New(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "aws":
		if opts.AWS == nil {
			return nil, fmt.Errorf("aws secret backend requires an AWS config")
		}
		return NewAWSStore(secretsmanager.NewFromConfig(*opts.AWS)), nil
	case "keyring":
		return NewKeyringStore(KeyringService), nil
	case "file":
		var key []byte
		if strings.TrimSpace(opts.Key) != "" {
			k, err := DecodeKey(opts.Key)
			if err != nil {
				return nil, fmt.Errorf("invalid LEXTEAMS_SECRET_KEY: %w", err)
			}
			key = k
		}
		return NewFileStore(key), nil
	default:
		return nil, fmt.Errorf("unknown secret backend %q", opts.Backend)
	}
}
