// Package bridge handles one Teams webhook activity end to end: parse, authorize,
// run the Lex turn, and deliver the reply back to the conversation.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/KafClaw/lexteams/internal/activity"
	"github.com/KafClaw/lexteams/internal/config"
	"github.com/KafClaw/lexteams/internal/lex"
	"github.com/KafClaw/lexteams/internal/logging"
	"github.com/KafClaw/lexteams/internal/policy"
	"github.com/KafClaw/lexteams/internal/teams"
)

// Fixed user-facing texts.
const (
	IgnoredText     = "message type conversationUpdate - ignored"
	MissingInfoText = "Sorry, there was missing information in the request I received. Looks like a gateway logic coding error."
	ConfigErrorText = "Sorry, the API gateway is not configured with a Microsoft App ID and client secret."
	NoBotText       = "Sorry, the API gateway is not configured with an Amazon Lex bot."
)

// ConfigLoader returns the app identity for one invocation.
type ConfigLoader interface {
	Load(ctx context.Context) (config.AppConfig, error)
}

// Conversation runs one Lex turn.
type Conversation interface {
	Advance(ctx context.Context, userID, utterance string, platform map[string]*string) lex.Reply
}

// Deliverer posts a message to a Teams conversation.
type Deliverer interface {
	Deliver(ctx context.Context, msg teams.Message, callbackURL, appID, appSecret string) (int, error)
}

// Ack is the body of the synchronous webhook acknowledgment.
type Ack struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Response is the synchronous result of one invocation.
type Response struct {
	StatusCode int `json:"statusCode"`
	Body       Ack `json:"body"`
}

// Respond builds an acknowledgment with the given status and text.
func Respond(status int, text string) Response {
	return Response{StatusCode: status, Body: Ack{Type: "message", Text: text}}
}

// Handler processes inbound activities. All dependencies are injected by the
// hosting shim and shared across invocations; Handler holds no request state.
type Handler struct {
	Config   ConfigLoader
	Lex      Conversation
	Delivery Deliverer
	Logger   *slog.Logger
}

// Handle processes one raw activity body. Only delivery failures are returned
// as errors; every other failure becomes a Response.
func (h *Handler) Handle(ctx context.Context, raw []byte) (Response, error) {
	traceID := uuid.NewString()
	log := h.logger().With("trace_id", traceID)
	ctx = logging.WithContext(ctx, log)

	typ, err := activity.PeekType(raw)
	if err != nil {
		log.Error("Inbound body rejected", "error", err)
		return Respond(http.StatusBadRequest, MissingInfoText), nil
	}
	if typ == activity.TypeConversationUpdate {
		log.Info("Ignoring conversationUpdate activity")
		return Respond(http.StatusOK, IgnoredText), nil
	}

	ev, err := activity.Parse(raw)
	if err != nil {
		var pe *activity.ParseError
		if errors.As(err, &pe) {
			log.Error("Inbound activity missing required field", "field", pe.Field)
		} else {
			log.Error("Inbound activity rejected", "error", err)
		}
		return Respond(http.StatusBadRequest, MissingInfoText), nil
	}
	log = log.With("conversation_id", ev.ConversationID, "reply_to_id", ev.ReplyToID)
	ctx = logging.WithContext(ctx, log)
	log.Info("Inbound activity parsed", "type", ev.Type, "utterance", ev.Utterance)

	cfg, err := h.Config.Load(ctx)
	if err != nil {
		log.Error("Configuration unavailable", "error", err)
		return Respond(http.StatusOK, ConfigErrorText), nil
	}
	log.Info("Configuration loaded", "app_id", config.Mask(cfg.AppID), "client_secret", config.Mask(cfg.AppSecret), "tenants", len(cfg.AllowedTenantIDs))

	env := teams.EnvelopeFor(ev)
	callback := ev.CallbackURL()

	decision := policy.NewTenantEngine(cfg.AllowedTenantIDs).Evaluate(ev.TenantID, traceID)
	if !decision.Allow {
		log.Warn("Tenant rejected", "tenant_id", ev.TenantID, "reason", decision.Reason)
		if err := h.deliver(ctx, teams.TextMessage(policy.RejectionText, env), callback, cfg); err != nil {
			return Response{}, err
		}
		return Respond(http.StatusUnauthorized, policy.RejectionText), nil
	}

	if h.Lex == nil {
		log.Error("Lex bot name or alias not configured")
		if err := h.deliver(ctx, teams.TextMessage(NoBotText, env), callback, cfg); err != nil {
			return Response{}, err
		}
		return Respond(http.StatusOK, NoBotText), nil
	}

	attrs := lex.PlatformAttributes(ev.SenderName, ev.SenderID, ev.TenantID, ev.TeamID, ev.ChannelID, string(ev.Raw))
	reply := h.Lex.Advance(ctx, ev.SenderID, ev.Utterance, attrs)

	msg := teams.Compose(ctx, reply, env)
	if err := h.deliver(ctx, msg, callback, cfg); err != nil {
		return Response{}, err
	}
	return Respond(http.StatusOK, reply.Text), nil
}

func (h *Handler) deliver(ctx context.Context, msg teams.Message, callback string, cfg config.AppConfig) error {
	log := logging.FromContext(ctx)
	status, err := h.Delivery.Deliver(ctx, msg, callback, cfg.AppID, cfg.AppSecret)
	if err != nil {
		log.Error("Teams delivery failed", "error", err)
		return err
	}
	if status >= http.StatusMultipleChoices {
		log.Warn("Teams delivery returned non-success status", "status", status)
	}
	return nil
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
