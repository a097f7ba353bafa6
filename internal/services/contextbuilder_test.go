package services

import (
	"testing"

	"github.com/raphiebot/go-discord-relay/internal/domain"
)

func TestBuildContext(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Errorf("empty transcript: %q", got)
	}

	entries := []domain.TranscriptEntry{
		{Username: "alice", Content: "hey what's up"},
		{Username: "raphie", Content: "Not much, just chilling online.", IsBot: true},
		{Username: "bob", Content: "same here"},
	}
	want := "Recent conversation:\n" +
		"[alice]: hey what's up\n" +
		"[Bot]: Not much, just chilling online.\n" +
		"[bob]: same here"
	if got := BuildContext(entries); got != want {
		t.Errorf("BuildContext =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildPrompt(t *testing.T) {
	if got := BuildPrompt("", "hello"); got != "hello" {
		t.Errorf("no context: %q", got)
	}

	got := BuildPrompt("Recent conversation:\n[alice]: hi", "hello")
	want := "CONVERSATION CONTEXT:\n" +
		"Recent conversation:\n[alice]: hi" +
		"\n\nCURRENT MESSAGE:\nhello"
	if got != want {
		t.Errorf("BuildPrompt =\n%q\nwant\n%q", got, want)
	}
}
