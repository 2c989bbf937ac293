// Package main runs the bridge as an AWS Lambda function behind an API Gateway
// proxy integration.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimeservice"

	"github.com/KafClaw/lexteams/internal/bridge"
	"github.com/KafClaw/lexteams/internal/config"
	"github.com/KafClaw/lexteams/internal/lambdahost"
	"github.com/KafClaw/lexteams/internal/lex"
	"github.com/KafClaw/lexteams/internal/logging"
	"github.com/KafClaw/lexteams/internal/secrets"
	"github.com/KafClaw/lexteams/internal/teams"
)

func main() {
	ctx := context.Background()
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("lexteams-lambda: read environment: %v", err)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("lexteams-lambda: load aws config: %v", err)
	}
	h, err := newHandler(env, awsCfg)
	if err != nil {
		log.Fatalf("lexteams-lambda: %v", err)
	}
	lambda.Start(lambdahost.Handler(h))
}

// newHandler builds the handler once per cold start; its clients are reused
// by every invocation the container serves.
func newHandler(env config.Env, awsCfg aws.Config) (*bridge.Handler, error) {
	logger := logging.New(os.Stdout, env.LogLevel, env.LogFormat)

	store, err := secrets.New(secrets.Options{Backend: env.SecretBackend, Key: env.SecretKey, AWS: &awsCfg})
	if err != nil {
		return nil, err
	}
	h := &bridge.Handler{
		Config:   config.NewLoader(store, env.SecretID, env.CacheConfig),
		Delivery: teams.NewClient(&http.Client{Timeout: 20 * time.Second}, env.TokenURL),
		Logger:   logger,
	}
	if env.HasLexBot() {
		h.Lex = lex.NewBridge(lexruntimeservice.NewFromConfig(awsCfg), env.LexBotName, env.LexBotAlias)
	}
	return h, nil
}
