package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted in LEXTEAMS_SECRET_BACKEND.
const (
	BackendAWS     = "aws"
	BackendKeyring = "keyring"
	BackendFile    = "file"
)

// DefaultTokenURL is the Bot Framework client-credentials endpoint.
const DefaultTokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"

// Env is the process environment of the bridge.
type Env struct {
	// SecretID names the secret holding the AppConfig blob.
	SecretID    string `envconfig:"CONFIG"`
	LexBotName  string `envconfig:"LEX_BOT_NAME"`
	LexBotAlias string `envconfig:"LEX_BOT_ALIAS"`

	SecretBackend string `envconfig:"LEXTEAMS_SECRET_BACKEND" default:"aws"`
	SecretKey     string `envconfig:"LEXTEAMS_SECRET_KEY"`
	TokenURL      string `envconfig:"LEXTEAMS_TOKEN_URL" default:"https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"`
	ListenAddr    string `envconfig:"LEXTEAMS_ADDR" default:":3978"`
	LogLevel      string `envconfig:"LEXTEAMS_LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LEXTEAMS_LOG_FORMAT" default:"json"`
	CacheConfig   bool   `envconfig:"LEXTEAMS_CACHE_CONFIG"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, err
	}
	env.SecretID = strings.TrimSpace(env.SecretID)
	env.LexBotName = strings.TrimSpace(env.LexBotName)
	env.LexBotAlias = strings.TrimSpace(env.LexBotAlias)
	env.SecretBackend = strings.ToLower(strings.TrimSpace(env.SecretBackend))
	if strings.TrimSpace(env.TokenURL) == "" {
		env.TokenURL = DefaultTokenURL
	}
	return env, nil
}

// HasLexBot reports whether both the Lex bot name and alias are set.
func (e Env) HasLexBot() bool {
	return e.LexBotName != "" && e.LexBotAlias != ""
}
