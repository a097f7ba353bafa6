package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("bot-token")
	c.BaseURL = srv.URL
	return c
}

func TestSnowflake(t *testing.T) {
	if got := Snowflake("1470478653606461532"); got != 1470478653606461532 {
		t.Errorf("Snowflake = %d", got)
	}
	if got := Snowflake("not-a-number"); got != 0 {
		t.Errorf("malformed = %d", got)
	}
	if got := Snowflake(""); got != 0 {
		t.Errorf("empty = %d", got)
	}
}

func TestMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bot bot-token" {
			t.Errorf("auth = %q", got)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "999", Username: "raphie", Bot: true})
	}))
	defer srv.Close()

	me, err := newTestClient(srv).Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.ID != "999" || me.Username != "raphie" || !me.Bot {
		t.Errorf("me = %+v", me)
	}
}

func TestChannelMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/42/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Message{
			{ID: "2", ChannelID: "42", Content: "newest", Author: User{ID: "5"}},
			{ID: "1", ChannelID: "42", Content: "older", Author: User{ID: "5"}},
		})
	}))
	defer srv.Close()

	msgs, err := newTestClient(srv).ChannelMessages(context.Background(), 42, 0)
	if err != nil {
		t.Fatalf("ChannelMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "newest" {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestSendMessage(t *testing.T) {
	var got createMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/channels/42/messages" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Message{ID: "3"})
	}))
	defer srv.Close()

	err := newTestClient(srv).SendMessage(context.Background(), 42, "hello!", "111")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got.Content != "hello!" {
		t.Errorf("content = %q", got.Content)
	}
	if got.MessageReference == nil || got.MessageReference.MessageID != "111" {
		t.Errorf("reference = %+v", got.MessageReference)
	}
}

func TestSendMessage_NoReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
		if _, present := raw["message_reference"]; present {
			t.Error("message_reference serialized when absent")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newTestClient(srv).SendMessage(context.Background(), 42, "hello!", ""); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}

func TestTriggerTyping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/channels/42/typing" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv).TriggerTyping(context.Background(), 42); err != nil {
		t.Fatalf("TriggerTyping: %v", err)
	}
}

func TestDo_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "401: Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Me(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v", err)
	}
}
