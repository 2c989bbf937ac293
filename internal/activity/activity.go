// Package activity parses inbound Bot Framework activities posted by Microsoft
// Teams into a validated Event.
package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// TypeConversationUpdate marks membership-change notices that the bridge ignores.
const TypeConversationUpdate = "conversationUpdate"

const mentionClose = "</at>"

// Event is a validated inbound message activity.
type Event struct {
	Type           string
	Text           string
	Utterance      string
	ReplyToID      string
	ConversationID string
	TenantID       string
	SenderName     string
	SenderID       string
	ServiceURL     string
	// TeamID and ChannelID are nil when the activity did not carry them.
	TeamID    *string
	ChannelID *string

	// From, Recipient and Conversation are kept verbatim so replies echo them.
	From         json.RawMessage
	Recipient    json.RawMessage
	Conversation json.RawMessage
	// Raw is the compacted activity body.
	Raw json.RawMessage
}

// FirstName is the first space-separated token of the sender's display name.
func (e Event) FirstName() string {
	name, _, _ := strings.Cut(e.SenderName, " ")
	return name
}

// CallbackURL is the Bot Framework endpoint replies to this activity go to.
func (e Event) CallbackURL() string {
	base := e.ServiceURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "v3/conversations/" + url.PathEscape(e.ConversationID) + "/activities/" + url.PathEscape(e.ReplyToID)
}

type wireActivity struct {
	Type         string          `json:"type"`
	ID           *string         `json:"id"`
	Text         *string         `json:"text"`
	ServiceURL   *string         `json:"serviceUrl"`
	From         json.RawMessage `json:"from"`
	Recipient    json.RawMessage `json:"recipient"`
	Conversation json.RawMessage `json:"conversation"`
	ChannelData  *struct {
		TeamsTeamID    *string `json:"teamsTeamId"`
		TeamsChannelID *string `json:"teamsChannelId"`
		Tenant         *struct {
			ID *string `json:"id"`
		} `json:"tenant"`
	} `json:"channelData"`
}

type wireAccount struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	AADObjectID *string `json:"aadObjectId"`
}

type wireConversation struct {
	ID       *string `json:"id"`
	TenantID *string `json:"tenantId"`
}

// PeekType returns only the activity type, without validating anything else.
func PeekType(raw []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", &SyntaxError{Err: err}
	}
	return head.Type, nil
}

// Parse validates raw and returns the Event. JSON errors are *SyntaxError,
// missing required fields are *ParseError.
func Parse(raw []byte) (Event, error) {
	var w wireActivity
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{}, &SyntaxError{Err: err}
	}
	if w.Text == nil {
		return Event{}, missing("text")
	}
	if isAbsent(w.From) {
		return Event{}, missing("from")
	}
	var from wireAccount
	if err := json.Unmarshal(w.From, &from); err != nil {
		return Event{}, &ParseError{Field: "from", Err: err}
	}
	if from.Name == nil {
		return Event{}, missing("from.name")
	}
	if from.AADObjectID == nil || strings.TrimSpace(*from.AADObjectID) == "" {
		return Event{}, missing("from.aadObjectId")
	}
	if w.ID == nil || strings.TrimSpace(*w.ID) == "" {
		return Event{}, missing("id")
	}
	if isAbsent(w.Conversation) {
		return Event{}, missing("conversation")
	}
	var conv wireConversation
	if err := json.Unmarshal(w.Conversation, &conv); err != nil {
		return Event{}, &ParseError{Field: "conversation", Err: err}
	}
	if conv.ID == nil || strings.TrimSpace(*conv.ID) == "" {
		return Event{}, missing("conversation.id")
	}
	if w.ServiceURL == nil || strings.TrimSpace(*w.ServiceURL) == "" {
		return Event{}, missing("serviceUrl")
	}
	if isAbsent(w.Recipient) {
		return Event{}, missing("recipient")
	}

	tenantID := ""
	if conv.TenantID != nil {
		tenantID = strings.TrimSpace(*conv.TenantID)
	}
	if tenantID == "" && w.ChannelData != nil && w.ChannelData.Tenant != nil && w.ChannelData.Tenant.ID != nil {
		tenantID = strings.TrimSpace(*w.ChannelData.Tenant.ID)
	}
	if tenantID == "" {
		return Event{}, missing("conversation.tenantId")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return Event{}, &SyntaxError{Err: err}
	}

	ev := Event{
		Type:           w.Type,
		Text:           *w.Text,
		Utterance:      NormalizeUtterance(*w.Text),
		ReplyToID:      *w.ID,
		ConversationID: *conv.ID,
		TenantID:       tenantID,
		SenderName:     *from.Name,
		SenderID:       *from.AADObjectID,
		ServiceURL:     strings.TrimSpace(*w.ServiceURL),
		From:           w.From,
		Recipient:      w.Recipient,
		Conversation:   w.Conversation,
		Raw:            compact.Bytes(),
	}
	if w.ChannelData != nil {
		ev.TeamID = w.ChannelData.TeamsTeamID
		ev.ChannelID = w.ChannelData.TeamsChannelID
	}
	return ev, nil
}

// NormalizeUtterance strips a leading bot mention. When the text contains
// "</at>", the utterance is what follows the first one, minus a trailing
// literal `\n` and surrounding whitespace. Otherwise text is returned as is.
func NormalizeUtterance(text string) string {
	_, after, found := strings.Cut(text, mentionClose)
	if !found {
		return text
	}
	after = strings.TrimSuffix(after, `\n`)
	return strings.TrimSpace(after)
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func missing(field string) *ParseError {
	return &ParseError{Field: field}
}

// ParseError reports a required field that is absent from the activity.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("activity field %s: %v", e.Field, e.Err)
	}
	return "activity missing required field " + e.Field
}

func (e *ParseError) Unwrap() error { return e.Err }

// SyntaxError reports a body that is not valid JSON.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("activity is not valid JSON: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
