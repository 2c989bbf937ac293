package teams

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/KafClaw/lexteams/internal/activity"
	"github.com/KafClaw/lexteams/internal/lex"
)

func testEnvelope() Envelope {
	return EnvelopeFor(activity.Event{
		ReplyToID:    "m1",
		From:         json.RawMessage(`{"id":"29:user","name":"Ada"}`),
		Recipient:    json.RawMessage(`{"id":"28:bot","name":"LexBot"}`),
		Conversation: json.RawMessage(`{"id":"a:conv"}`),
	})
}

func TestComposeTextOnlySwapsSenderAndRecipient(t *testing.T) {
	msg := Compose(context.Background(), lex.Reply{Text: "hello"}, testEnvelope())
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "message" || got["text"] != "hello" || got["replyToId"] != "m1" {
		t.Fatalf("unexpected base fields: %v", got)
	}
	if got["from"].(map[string]any)["id"] != "28:bot" {
		t.Fatalf("expected bot as sender, got %v", got["from"])
	}
	if got["recipient"].(map[string]any)["id"] != "29:user" {
		t.Fatalf("expected user as recipient, got %v", got["recipient"])
	}
	if _, ok := got["attachments"]; ok {
		t.Fatal("text-only message should carry no attachments")
	}
	if _, ok := got["attachmentLayout"]; ok {
		t.Fatal("text-only message should carry no attachment layout")
	}
}

func TestComposeCardWithButtonsAndImage(t *testing.T) {
	reply := lex.Reply{
		Text: "Pick one",
		Card: &lex.ResponseCard{Attachments: []lex.CardAttachment{{
			Title:    "Flowers",
			ImageURL: "https://example.test/f.png",
			Buttons:  []lex.Button{{Text: "Roses", Value: "roses"}, {Text: "Tulips", Value: "tulips"}},
		}}},
	}
	msg := Compose(context.Background(), reply, testEnvelope())
	if msg.AttachmentLayout != LayoutList {
		t.Fatalf("unexpected layout %q", msg.AttachmentLayout)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.ContentType != ContentTypeThumbnail {
		t.Fatalf("unexpected content type %q", att.ContentType)
	}
	wantButtons := []CardAction{
		{Type: "imBack", Title: "Roses", Value: "roses"},
		{Type: "imBack", Title: "Tulips", Value: "tulips"},
	}
	if !reflect.DeepEqual(att.Content.Buttons, wantButtons) {
		t.Fatalf("buttons = %+v, want %+v", att.Content.Buttons, wantButtons)
	}
	wantImages := []CardImage{{URL: "https://example.test/f.png", Alt: "Flowers"}}
	if !reflect.DeepEqual(att.Content.Images, wantImages) {
		t.Fatalf("images = %+v, want %+v", att.Content.Images, wantImages)
	}
}

func TestComposeOnlyFirstAttachmentSurfaced(t *testing.T) {
	reply := lex.Reply{Text: "x", Card: &lex.ResponseCard{Attachments: []lex.CardAttachment{
		{Buttons: []lex.Button{{Text: "A", Value: "a"}}},
		{Buttons: []lex.Button{{Text: "B", Value: "b"}}},
	}}}
	msg := Compose(context.Background(), reply, testEnvelope())
	if len(msg.Attachments) != 1 || len(msg.Attachments[0].Content.Buttons) != 1 || msg.Attachments[0].Content.Buttons[0].Value != "a" {
		t.Fatalf("unexpected attachments %+v", msg.Attachments)
	}
}

func TestComposeSkipsImageWhenFieldMissing(t *testing.T) {
	for _, att := range []lex.CardAttachment{
		{ImageURL: "https://example.test/f.png", Buttons: []lex.Button{{Text: "A", Value: "a"}}},
		{Title: "T", Buttons: []lex.Button{{Text: "A", Value: "a"}}},
	} {
		msg := Compose(context.Background(), lex.Reply{Text: "x", Card: &lex.ResponseCard{Attachments: []lex.CardAttachment{att}}}, testEnvelope())
		if len(msg.Attachments) != 1 {
			t.Fatalf("expected buttons attachment to survive, got %+v", msg.Attachments)
		}
		if msg.Attachments[0].Content.Images != nil {
			t.Fatalf("expected image skipped for %+v", att)
		}
	}
}

func TestComposeKeepsTextWhenCardInvalid(t *testing.T) {
	cards := []*lex.ResponseCard{
		{},
		{Attachments: []lex.CardAttachment{{Title: "no buttons", ImageURL: "https://example.test/i.png"}}},
		{Attachments: []lex.CardAttachment{{Buttons: []lex.Button{{Text: "A"}}}}},
		{Attachments: []lex.CardAttachment{{Buttons: []lex.Button{{Value: "a"}}}}},
	}
	for _, card := range cards {
		msg := Compose(context.Background(), lex.Reply{Text: "still here", Card: card}, testEnvelope())
		if msg.Text != "still here" {
			t.Fatalf("unexpected text %q", msg.Text)
		}
		if len(msg.Attachments) != 0 || msg.AttachmentLayout != "" {
			t.Fatalf("expected no attachments for invalid card %+v, got %+v", card, msg.Attachments)
		}
		_, err := CardAttachment(card)
		var ce *CardError
		if !errors.As(err, &ce) {
			t.Fatalf("expected *CardError for %+v, got %v", card, err)
		}
	}
}

func TestCardAttachmentNilCard(t *testing.T) {
	att, err := CardAttachment(nil)
	if att != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v, %v", att, err)
	}
}
