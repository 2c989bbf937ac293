package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the slice of the Secrets Manager client the store uses.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSStore reads secrets from AWS Secrets Manager.
type AWSStore struct {
	client SecretsManagerAPI
}

// NewAWSStore wraps a Secrets Manager client.
func NewAWSStore(client SecretsManagerAPI) *AWSStore {
	return &AWSStore{client: client}
}

// GetSecret returns the SecretString of the secret.
func (s *AWSStore) GetSecret(ctx context.Context, id string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}
	return aws.ToString(out.SecretString), nil
}
