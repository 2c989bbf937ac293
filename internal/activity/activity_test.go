package activity

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func loadSample(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/message.json")
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	return data
}

func TestParseSampleMessage(t *testing.T) {
	ev, err := Parse(loadSample(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Utterance != "hello" {
		t.Fatalf("unexpected utterance %q", ev.Utterance)
	}
	if ev.SenderName != "Ada Lovelace" || ev.FirstName() != "Ada" {
		t.Fatalf("unexpected sender %q / %q", ev.SenderName, ev.FirstName())
	}
	if ev.SenderID != "6f1c2b3a-4d5e-4f60-8a7b-9c0d1e2f3a4b" {
		t.Fatalf("unexpected sender id %q", ev.SenderID)
	}
	if ev.TenantID != "72f988bf-86f1-41af-91ab-2d7cd011db47" {
		t.Fatalf("unexpected tenant %q", ev.TenantID)
	}
	if ev.TeamID == nil || *ev.TeamID != "19:a1b2c3d4e5f6@thread.skype" {
		t.Fatalf("unexpected team id %v", ev.TeamID)
	}
	if ev.ChannelID == nil || *ev.ChannelID != "19:c4f0b1a2e3d4@thread.skype" {
		t.Fatalf("unexpected channel id %v", ev.ChannelID)
	}
	if ev.ReplyToID != "1772471091310" {
		t.Fatalf("unexpected reply-to id %q", ev.ReplyToID)
	}
	var recipient map[string]any
	if err := json.Unmarshal(ev.Recipient, &recipient); err != nil || recipient["name"] != "LexBot" {
		t.Fatalf("recipient not preserved: %s (%v)", ev.Recipient, err)
	}
	if strings.ContainsAny(string(ev.Raw), "\n") {
		t.Fatal("expected compacted raw body")
	}
}

func TestCallbackURL(t *testing.T) {
	ev := Event{ServiceURL: "https://smba.trafficmanager.net/amer/", ConversationID: "a:1abc", ReplyToID: "42"}
	if got := ev.CallbackURL(); got != "https://smba.trafficmanager.net/amer/v3/conversations/a:1abc/activities/42" {
		t.Fatalf("unexpected callback %q", got)
	}
	ev.ServiceURL = "https://example.test"
	if got := ev.CallbackURL(); got != "https://example.test/v3/conversations/a:1abc/activities/42" {
		t.Fatalf("expected slash inserted, got %q", got)
	}
	ev.ConversationID = "19:x@thread.skype;messageid=1"
	if got := ev.CallbackURL(); !strings.Contains(got, "19:x@thread.skype%3Bmessageid=1") {
		t.Fatalf("expected escaped conversation id, got %q", got)
	}
}

func TestNormalizeUtterance(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`<at>Bot</at> hello\n`, "hello"},
		{"<at>Bot</at>   what's up  ", "what's up"},
		{`<at>Bot</at> line\n\n`, `line\n`},
		{"no mention here  ", "no mention here  "},
		{`plain\n`, `plain\n`},
		{"<at>A</at> <at>B</at> hi", "<at>B</at> hi"},
	}
	for _, tc := range cases {
		if got := NormalizeUtterance(tc.in); got != tc.want {
			t.Fatalf("NormalizeUtterance(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseMissingFields(t *testing.T) {
	base := func() map[string]any {
		var m map[string]any
		if err := json.Unmarshal(loadSample(t), &m); err != nil {
			t.Fatalf("decode sample: %v", err)
		}
		return m
	}
	cases := []struct {
		field  string
		mutate func(m map[string]any)
	}{
		{"text", func(m map[string]any) { delete(m, "text") }},
		{"from", func(m map[string]any) { delete(m, "from") }},
		{"from.name", func(m map[string]any) { delete(m["from"].(map[string]any), "name") }},
		{"from.aadObjectId", func(m map[string]any) { delete(m["from"].(map[string]any), "aadObjectId") }},
		{"id", func(m map[string]any) { delete(m, "id") }},
		{"conversation", func(m map[string]any) { m["conversation"] = nil }},
		{"conversation.id", func(m map[string]any) { delete(m["conversation"].(map[string]any), "id") }},
		{"serviceUrl", func(m map[string]any) { delete(m, "serviceUrl") }},
		{"recipient", func(m map[string]any) { delete(m, "recipient") }},
		{"conversation.tenantId", func(m map[string]any) {
			delete(m["conversation"].(map[string]any), "tenantId")
			delete(m["channelData"].(map[string]any), "tenant")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			m := base()
			tc.mutate(m)
			body, _ := json.Marshal(m)
			_, err := Parse(body)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, pe.Field)
			}
		})
	}
}

func TestParseTenantFallsBackToChannelData(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal(loadSample(t), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	delete(m["conversation"].(map[string]any), "tenantId")
	body, _ := json.Marshal(m)
	ev, err := Parse(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.TenantID != "72f988bf-86f1-41af-91ab-2d7cd011db47" {
		t.Fatalf("unexpected tenant %q", ev.TenantID)
	}
}

func TestParseOptionalTeamFieldsStayNil(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal(loadSample(t), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	m["channelData"] = map[string]any{"tenant": map[string]any{"id": "t"}}
	body, _ := json.Marshal(m)
	ev, err := Parse(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.TeamID != nil || ev.ChannelID != nil {
		t.Fatalf("expected nil team/channel, got %v %v", ev.TeamID, ev.ChannelID)
	}
}

func TestParseAndPeekRejectInvalidJSON(t *testing.T) {
	var se *SyntaxError
	if _, err := Parse([]byte("{not json")); !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError from Parse, got %v", err)
	}
	if _, err := PeekType([]byte("nope")); !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError from PeekType, got %v", err)
	}
}

func TestPeekTypeIgnoresOtherFields(t *testing.T) {
	got, err := PeekType([]byte(`{"type":"conversationUpdate","membersAdded":[{"id":"x"}]}`))
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got != TypeConversationUpdate {
		t.Fatalf("unexpected type %q", got)
	}
}
