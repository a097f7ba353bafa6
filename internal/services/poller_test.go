package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/raphiebot/go-discord-relay/internal/discord"
	"github.com/raphiebot/go-discord-relay/internal/openrouter"
)

// seqCompleter returns a distinct reply per call so the dedup window never
// interferes with loop tests.
type seqCompleter struct {
	mu sync.Mutex
	n  int
}

func (s *seqCompleter) Complete(context.Context, openrouter.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("fresh reply number %d.", s.n), nil
}

// fakeFetcher serves a scripted newest-first message batch.
type fakeFetcher struct {
	mu      sync.Mutex
	me      discord.User
	meErr   error
	meCalls int
	batch   []discord.Message
	err     error
}

func (f *fakeFetcher) Me(context.Context) (discord.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.me, f.meErr
}

func (f *fakeFetcher) ChannelMessages(context.Context, int64, int) ([]discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batch, f.err
}

func (f *fakeFetcher) setBatch(batch []discord.Message) {
	f.mu.Lock()
	f.batch = batch
	f.mu.Unlock()
}

// newestFirst builds a batch from ascending snowflake IDs, newest first as the
// REST API returns them.
func newestFirst(ids ...int) []discord.Message {
	out := make([]discord.Message, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, discord.Message{
			ID:        fmt.Sprint(ids[i]),
			ChannelID: "1470478653606461532",
			Content:   fmt.Sprintf("message %d", ids[i]),
			Author:    discord.User{ID: "5", Username: "alice"},
		})
	}
	return out
}

func newPollerUnderTest(t *testing.T) (*Poller, *fakeFetcher, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{}
	r := &Responder{
		DB:           openTestDB(t),
		Admission:    NewAdmission(testChannel, 2, 0),
		Engine:       newTestEngine(&seqCompleter{}, newFakeLedger()),
		Transport:    transport,
		Instructions: "be casual",
		ContextLimit: 10,
		Retention:    100,
		MaxSentences: 2,
		MaxWords:     30,
	}
	fetcher := &fakeFetcher{me: discord.User{ID: selfID, Username: "raphie", Bot: true}}
	return NewPoller(fetcher, r, testChannel), fetcher, transport
}

func TestRunOnce_AuthenticatesOnce(t *testing.T) {
	p, fetcher, _ := newPollerUnderTest(t)
	fetcher.setBatch(newestFirst(10))

	ctx := context.Background()
	p.RunOnce(ctx)
	p.RunOnce(ctx)

	if fetcher.meCalls != 1 {
		t.Errorf("Me called %d times", fetcher.meCalls)
	}
	if p.Responder.Self().ID != selfID {
		t.Errorf("self = %+v", p.Responder.Self())
	}
}

func TestRunOnce_AuthFailureSkipsCycle(t *testing.T) {
	p, fetcher, transport := newPollerUnderTest(t)
	fetcher.meErr = errors.New("401")
	fetcher.setBatch(newestFirst(10))

	p.RunOnce(context.Background())
	if len(transport.sent) != 0 {
		t.Errorf("sent = %v", transport.sent)
	}
}

func TestRunOnce_OneReplyPerCycle(t *testing.T) {
	p, fetcher, transport := newPollerUnderTest(t)
	fetcher.setBatch(newestFirst(10, 11))

	p.RunOnce(context.Background())
	if len(transport.sent) != 1 {
		t.Fatalf("sent %d replies in one cycle", len(transport.sent))
	}
	// Oldest eligible message answered first.
	if transport.replyTo[0] != "10" {
		t.Errorf("replied to %q", transport.replyTo[0])
	}
}

func TestRunOnce_FirstCycleWindow(t *testing.T) {
	p, fetcher, transport := newPollerUnderTest(t)
	fetcher.setBatch(newestFirst(1, 2, 3, 4, 5, 6))

	p.RunOnce(context.Background())
	if len(transport.sent) != 1 {
		t.Fatalf("sent = %v", transport.sent)
	}
	// Only the newest three are eligible on a fresh cursor; backlog before
	// them is never answered.
	if transport.replyTo[0] != "4" {
		t.Errorf("replied to %q", transport.replyTo[0])
	}
}

func TestRunOnce_CursorAdvances(t *testing.T) {
	p, fetcher, transport := newPollerUnderTest(t)
	ctx := context.Background()

	fetcher.setBatch(newestFirst(10))
	p.RunOnce(ctx)
	if len(transport.sent) != 1 {
		t.Fatalf("first cycle sent = %v", transport.sent)
	}

	// Same batch again: nothing new past the cursor.
	p.RunOnce(ctx)
	if len(transport.sent) != 1 {
		t.Errorf("stale message re-answered: %v", transport.sent)
	}

	// A newer message arrives.
	fetcher.setBatch(newestFirst(10, 11))
	p.RunOnce(ctx)
	if len(transport.sent) != 2 || transport.replyTo[1] != "11" {
		t.Errorf("sent = %v replyTo = %v", transport.sent, transport.replyTo)
	}
}

// The cursor must advance past messages that were fetched but suppressed, so
// they are not reconsidered every cycle.
func TestRunOnce_CursorAdvancesPastSuppressed(t *testing.T) {
	p, fetcher, transport := newPollerUnderTest(t)
	ctx := context.Background()

	// Too short to admit.
	batch := newestFirst(10)
	batch[0].Content = "k"
	fetcher.setBatch(batch)
	p.RunOnce(ctx)
	p.RunOnce(ctx)

	if len(transport.sent) != 0 {
		t.Errorf("sent = %v", transport.sent)
	}
	p.mu.Lock()
	cursor := p.lastSeen
	p.mu.Unlock()
	if cursor != 10 {
		t.Errorf("cursor = %d", cursor)
	}
}

func TestRunOnce_EmptyChannel(t *testing.T) {
	p, fetcher, transport := newPollerUnderTest(t)
	fetcher.setBatch(nil)

	p.RunOnce(context.Background())
	if len(transport.sent) != 0 {
		t.Errorf("sent = %v", transport.sent)
	}

	p.mu.Lock()
	primed := p.primed
	p.mu.Unlock()
	if primed {
		t.Error("cursor primed by an empty fetch")
	}
}

func TestRunOnce_FetchErrorQuiet(t *testing.T) {
	p, fetcher, transport := newPollerUnderTest(t)
	fetcher.err = errors.New("502")

	p.RunOnce(context.Background())
	if len(transport.sent) != 0 {
		t.Errorf("sent = %v", transport.sent)
	}
}
