package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimeservice"

	"github.com/KafClaw/lexteams/internal/bridge"
	"github.com/KafClaw/lexteams/internal/config"
	"github.com/KafClaw/lexteams/internal/lex"
	"github.com/KafClaw/lexteams/internal/logging"
	"github.com/KafClaw/lexteams/internal/secrets"
	"github.com/KafClaw/lexteams/internal/teams"
)

// loadAWSConfig is replaced in tests.
var loadAWSConfig = func(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

func loadEnv() (config.Env, error) {
	config.LoadEnvFileCandidates()
	env, err := config.LoadEnv()
	if err != nil {
		return config.Env{}, fmt.Errorf("read environment: %w", err)
	}
	return env, nil
}

func newLogger(w io.Writer, env config.Env) *slog.Logger {
	return logging.New(w, env.LogLevel, env.LogFormat)
}

// newSecretStore builds the configured secret backend, loading the AWS
// config only when the aws backend needs it.
func newSecretStore(ctx context.Context, env config.Env, awsCfg *aws.Config) (secrets.Store, error) {
	opts := secrets.Options{Backend: env.SecretBackend, Key: env.SecretKey}
	if env.SecretBackend == config.BackendAWS || env.SecretBackend == "" {
		if awsCfg == nil {
			cfg, err := loadAWSConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("load aws config: %w", err)
			}
			awsCfg = &cfg
		}
		opts.AWS = awsCfg
	}
	return secrets.New(opts)
}

// buildHandler wires the process-scoped clients into a bridge.Handler.
func buildHandler(ctx context.Context, env config.Env, logger *slog.Logger, cacheConfig bool) (*bridge.Handler, error) {
	var awsCfg *aws.Config
	if env.HasLexBot() {
		cfg, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &cfg
	}

	store, err := newSecretStore(ctx, env, awsCfg)
	if err != nil {
		return nil, err
	}

	h := &bridge.Handler{
		Config:   config.NewLoader(store, env.SecretID, cacheConfig),
		Delivery: teams.NewClient(&http.Client{Timeout: 20 * time.Second}, env.TokenURL),
		Logger:   logger,
	}
	if awsCfg != nil {
		h.Lex = lex.NewBridge(lexruntimeservice.NewFromConfig(*awsCfg), env.LexBotName, env.LexBotAlias)
	} else {
		logger.Warn("LEX_BOT_NAME or LEX_BOT_ALIAS not set; replies will carry a configuration notice")
	}
	return h, nil
}
