// Package teams builds Bot Framework reply activities from Lex replies and
// delivers them to a Teams conversation.
package teams

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KafClaw/lexteams/internal/activity"
	"github.com/KafClaw/lexteams/internal/lex"
	"github.com/KafClaw/lexteams/internal/logging"
)

// Content types and layouts used in replies.
const (
	ContentTypeThumbnail = "application/vnd.microsoft.card.thumbnail"
	LayoutList           = "list"
	ActionIMBack         = "imBack"
)

// Message is an outbound Bot Framework message activity.
type Message struct {
	Type             string          `json:"type"`
	From             json.RawMessage `json:"from"`
	Conversation     json.RawMessage `json:"conversation"`
	Recipient        json.RawMessage `json:"recipient"`
	Text             string          `json:"text"`
	ReplyToID        string          `json:"replyToId"`
	AttachmentLayout string          `json:"attachmentLayout,omitempty"`
	Attachments      []Attachment    `json:"attachments,omitempty"`
}

// Attachment is a card attachment.
type Attachment struct {
	ContentType string        `json:"contentType"`
	Content     ThumbnailCard `json:"content"`
}

// ThumbnailCard is the content of a thumbnail card attachment.
type ThumbnailCard struct {
	Buttons []CardAction `json:"buttons"`
	Images  []CardImage  `json:"images,omitempty"`
}

// CardAction is an in-message button.
type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// CardImage is an image shown on a card.
type CardImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Envelope holds the addressing of a reply.
type Envelope struct {
	From         json.RawMessage
	Conversation json.RawMessage
	Recipient    json.RawMessage
	ReplyToID    string
}

// EnvelopeFor addresses a reply to ev: the bot (ev's recipient) becomes the
// sender and the user (ev's sender) the recipient.
func EnvelopeFor(ev activity.Event) Envelope {
	return Envelope{
		From:         ev.Recipient,
		Conversation: ev.Conversation,
		Recipient:    ev.From,
		ReplyToID:    ev.ReplyToID,
	}
}

// TextMessage builds a plain-text reply.
func TextMessage(text string, env Envelope) Message {
	return Message{
		Type:         "message",
		From:         env.From,
		Conversation: env.Conversation,
		Recipient:    env.Recipient,
		Text:         text,
		ReplyToID:    env.ReplyToID,
	}
}

// Compose maps a Lex reply onto a Teams message. A response card that cannot
// be translated is logged and dropped; the text reply is always kept.
func Compose(ctx context.Context, reply lex.Reply, env Envelope) Message {
	msg := TextMessage(reply.Text, env)
	att, err := CardAttachment(reply.Card)
	if err != nil {
		logging.FromContext(ctx).Error("Response card translation failed", "error", err)
		return msg
	}
	if att != nil {
		msg.AttachmentLayout = LayoutList
		msg.Attachments = []Attachment{*att}
	}
	return msg
}

// CardAttachment translates the buttons of the first generic attachment into
// a thumbnail card. It returns nil, nil when there is no card.
func CardAttachment(card *lex.ResponseCard) (*Attachment, error) {
	if card == nil {
		return nil, nil
	}
	if len(card.Attachments) == 0 {
		return nil, &CardError{Field: "genericAttachments[0]"}
	}
	first := card.Attachments[0]
	if first.Buttons == nil {
		return nil, &CardError{Field: "genericAttachments[0].buttons"}
	}
	actions := make([]CardAction, 0, len(first.Buttons))
	for i, btn := range first.Buttons {
		if btn.Text == "" {
			return nil, &CardError{Field: fmt.Sprintf("genericAttachments[0].buttons[%d].text", i)}
		}
		if btn.Value == "" {
			return nil, &CardError{Field: fmt.Sprintf("genericAttachments[0].buttons[%d].value", i)}
		}
		actions = append(actions, CardAction{Type: ActionIMBack, Title: btn.Text, Value: btn.Value})
	}
	att := &Attachment{
		ContentType: ContentTypeThumbnail,
		Content:     ThumbnailCard{Buttons: actions},
	}
	if img, ok := cardImage(first); ok {
		att.Content.Images = []CardImage{img}
	}
	return att, nil
}

// cardImage returns the card's image with its title as alt text. It reports
// false if either is missing.
func cardImage(att lex.CardAttachment) (CardImage, bool) {
	if att.ImageURL == "" || att.Title == "" {
		return CardImage{}, false
	}
	return CardImage{URL: att.ImageURL, Alt: att.Title}, true
}

// CardError reports a response card missing a field needed for translation.
type CardError struct {
	Field string
}

func (e *CardError) Error() string {
	return "response card missing " + e.Field
}
