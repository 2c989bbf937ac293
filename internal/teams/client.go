package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/KafClaw/lexteams/internal/logging"
)

// DefaultScope is the Bot Connector API scope.
const DefaultScope = "https://api.botframework.com/.default"

// Client delivers messages to the Bot Connector service.
type Client struct {
	HTTP     *http.Client
	TokenURL string
	Scope    string
}

// NewClient returns a client posting through httpClient. A nil httpClient
// gets a 20 second timeout.
func NewClient(httpClient *http.Client, tokenURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{HTTP: httpClient, TokenURL: tokenURL, Scope: DefaultScope}
}

// Deliver obtains a bearer token with the app credentials and posts msg to
// callbackURL. It returns the status code of the post. No call is retried.
func (c *Client) Deliver(ctx context.Context, msg Message, callbackURL, appID, appSecret string) (int, error) {
	log := logging.FromContext(ctx)

	token, err := c.token(ctx, appID, appSecret)
	if err != nil {
		return 0, &DeliveryError{Op: "token", Err: err}
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return 0, &DeliveryError{Op: "encode", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return 0, &DeliveryError{Op: "post", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, &DeliveryError{Op: "post", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	log.Info("Teams reply posted", "status", resp.StatusCode)
	return resp.StatusCode, nil
}

func (c *Client) token(ctx context.Context, appID, appSecret string) (string, error) {
	scope := strings.TrimSpace(c.Scope)
	if scope == "" {
		scope = DefaultScope
	}
	cc := clientcredentials.Config{
		ClientID:     appID,
		ClientSecret: appSecret,
		TokenURL:     c.TokenURL,
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, c.HTTP))
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// DeliveryError reports a failed token exchange or post.
type DeliveryError struct {
	Op  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("teams delivery %s: %v", e.Op, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
