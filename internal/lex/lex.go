// Package lex advances a user's conversation with an Amazon Lex (V1) bot,
// carrying Teams-derived session attributes across turns.
package lex

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimeservice"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimeservice/types"

	"github.com/KafClaw/lexteams/internal/logging"
)

// NoResponseText replaces the bot reply when Lex cannot be reached.
const NoResponseText = "Sorry, there was no response from the Amazon Lex bot."

// RuntimeAPI is the part of *lexruntimeservice.Client the bridge calls.
type RuntimeAPI interface {
	GetSession(ctx context.Context, in *lexruntimeservice.GetSessionInput, optFns ...func(*lexruntimeservice.Options)) (*lexruntimeservice.GetSessionOutput, error)
	PostText(ctx context.Context, in *lexruntimeservice.PostTextInput, optFns ...func(*lexruntimeservice.Options)) (*lexruntimeservice.PostTextOutput, error)
}

// Button is one response-card button.
type Button struct {
	Text  string
	Value string
}

// CardAttachment is one generic attachment of a response card.
type CardAttachment struct {
	Title    string
	ImageURL string
	// Buttons is nil when Lex sent none.
	Buttons []Button
}

// ResponseCard is a structured reply from Lex.
type ResponseCard struct {
	Attachments []CardAttachment
}

// Reply is the bot's answer to one turn.
type Reply struct {
	Text string
	// Card is nil when Lex returned a plain-text reply.
	Card *ResponseCard
	// Degraded is set when Text is the fallback rather than a bot message.
	Degraded bool
}

// Bridge talks to one bot alias.
type Bridge struct {
	api      RuntimeAPI
	botName  string
	botAlias string
}

// NewBridge creates a bridge for botName/botAlias over api.
func NewBridge(api RuntimeAPI, botName, botAlias string) *Bridge {
	return &Bridge{api: api, botName: botName, botAlias: botAlias}
}

// Advance fetches the user's session attributes, merges platform attributes
// into them and posts the utterance. It never fails: a Lex error yields a
// degraded Reply carrying NoResponseText.
func (b *Bridge) Advance(ctx context.Context, userID, utterance string, platform map[string]*string) Reply {
	log := logging.FromContext(ctx)

	fetched := b.sessionAttributes(ctx, userID)
	attrs := MergeAttributes(fetched, platform)
	log.Debug("Lex session attributes merged", "keys", len(attrs))

	out, err := b.api.PostText(ctx, &lexruntimeservice.PostTextInput{
		BotName:           aws.String(b.botName),
		BotAlias:          aws.String(b.botAlias),
		UserId:            aws.String(userID),
		InputText:         aws.String(utterance),
		SessionAttributes: attrs,
	})
	if err != nil {
		log.Error("Lex PostText failed", "bot", b.botName, "alias", b.botAlias, "error", err)
		return Reply{Text: NoResponseText, Degraded: true}
	}
	reply := Reply{Text: aws.ToString(out.Message), Card: convertCard(out.ResponseCard)}
	if out.Message == nil {
		reply.Text = NoResponseText
		reply.Degraded = true
	}
	log.Info("Lex replied", "dialog_state", string(out.DialogState), "intent", aws.ToString(out.IntentName), "has_card", reply.Card != nil)
	return reply
}

func (b *Bridge) sessionAttributes(ctx context.Context, userID string) map[string]*string {
	log := logging.FromContext(ctx)
	out, err := b.api.GetSession(ctx, &lexruntimeservice.GetSessionInput{
		BotName:  aws.String(b.botName),
		BotAlias: aws.String(b.botAlias),
		UserId:   aws.String(userID),
	})
	if err != nil {
		var nf *types.NotFoundException
		if errors.As(err, &nf) {
			log.Info("No Lex session yet", "user_id", userID)
		} else {
			log.Warn("Lex GetSession failed, starting with empty attributes", "error", err)
		}
		return map[string]*string{}
	}
	fetched := make(map[string]*string, len(out.SessionAttributes))
	for k, v := range out.SessionAttributes {
		// The SDK decodes a null attribute value as "".
		if v == "" {
			fetched[k] = nil
			continue
		}
		fetched[k] = aws.String(v)
	}
	return fetched
}

// MergeAttributes drops nil entries of fetched, then applies platform on top:
// a non-nil platform value overwrites, a nil one deletes the key.
func MergeAttributes(fetched, platform map[string]*string) map[string]string {
	merged := make(map[string]string, len(fetched)+len(platform))
	for k, v := range fetched {
		if v != nil {
			merged[k] = *v
		}
	}
	for k, v := range platform {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = *v
	}
	return merged
}

// PlatformAttributes builds the Teams-derived session attributes. teamID and
// channelID may be nil, in which case the key is removed from the session.
func PlatformAttributes(userName, userID, tenantID string, teamID, channelID *string, rawBody string) map[string]*string {
	first, _, _ := strings.Cut(userName, " ")
	return map[string]*string{
		"userName":              aws.String(userName),
		"firstName":             aws.String(first),
		"aadObjectId":           aws.String(userID),
		"tenantId":              aws.String(tenantID),
		"teamsTeamId":           teamID,
		"teamsChannelId":        channelID,
		"ms-teams-request-body": aws.String(rawBody),
	}
}

func convertCard(card *types.ResponseCard) *ResponseCard {
	if card == nil {
		return nil
	}
	out := &ResponseCard{Attachments: make([]CardAttachment, 0, len(card.GenericAttachments))}
	for _, ga := range card.GenericAttachments {
		att := CardAttachment{
			Title:    aws.ToString(ga.Title),
			ImageURL: aws.ToString(ga.ImageUrl),
		}
		if ga.Buttons != nil {
			att.Buttons = make([]Button, 0, len(ga.Buttons))
			for _, btn := range ga.Buttons {
				att.Buttons = append(att.Buttons, Button{Text: aws.ToString(btn.Text), Value: aws.ToString(btn.Value)})
			}
		}
		out.Attachments = append(out.Attachments, att)
	}
	return out
}
