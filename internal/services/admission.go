// Package services – admission control
//
// Admission owns all the process-local mutable state the reply path needs:
// the cooldown clock, the last processed message ID, and the per-channel
// duplicate-reply window. It is constructed once at process start and mutated
// only by the admission/send path; keying the window by channel keeps future
// multi-channel support a data change, not a redesign. State is deliberately
// in-memory and lost on restart.
package services

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// dedupWindowSize bounds the per-channel recent-replies window.
const dedupWindowSize = 10

// SuppressReason labels why a message was refused, for logs and metrics.
type SuppressReason string

const (
	ReasonNone             SuppressReason = ""
	ReasonWrongChannel     SuppressReason = "wrong_channel"
	ReasonOwnMessage       SuppressReason = "own_message"
	ReasonTooShort         SuppressReason = "too_short"
	ReasonCooldown         SuppressReason = "cooldown"
	ReasonAlreadyProcessed SuppressReason = "already_processed"
)

// Admission is the per-process gate evaluated for every inbound message.
type Admission struct {
	TargetChannel    int64
	MinContentLength int
	Cooldown         time.Duration

	mu            sync.Mutex
	lastReplyAt   time.Time
	lastMessageID string
	recentReplies map[int64][]string

	now func() time.Time
}

// NewAdmission constructs the gate for one target channel.
func NewAdmission(targetChannel int64, minLen int, cooldown time.Duration) *Admission {
	return &Admission{
		TargetChannel:    targetChannel,
		MinContentLength: minLen,
		Cooldown:         cooldown,
		recentReplies:    make(map[int64][]string),
		now:              time.Now,
	}
}

// Admit evaluates the gate checks in order and returns the first failing
// reason, or ReasonNone when the message should be processed. It does not
// mutate state; MarkProcessed / MarkReplied record outcomes.
func (a *Admission) Admit(channelID int64, authorID, selfID, messageID, content string) SuppressReason {
	if channelID != a.TargetChannel {
		return ReasonWrongChannel
	}
	if selfID != "" && authorID == selfID {
		return ReasonOwnMessage
	}
	if utf8.RuneCountInString(strings.TrimSpace(content)) < a.MinContentLength {
		return ReasonTooShort
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if messageID != "" && messageID == a.lastMessageID {
		return ReasonAlreadyProcessed
	}
	if !a.lastReplyAt.IsZero() && a.now().Sub(a.lastReplyAt) < a.Cooldown {
		return ReasonCooldown
	}
	return ReasonNone
}

// MarkProcessed records the message ID so duplicate transport deliveries of
// the same event are refused.
func (a *Admission) MarkProcessed(messageID string) {
	a.mu.Lock()
	a.lastMessageID = messageID
	a.mu.Unlock()
}

// MarkReplied starts the cooldown clock and appends the reply to the
// channel's dedup window. Called at the moment a reply is sent, not when
// generation begins, so long generation latency does not shrink the window.
func (a *Admission) MarkReplied(channelID int64, reply string) {
	norm := normalizeReply(reply)
	a.mu.Lock()
	a.lastReplyAt = a.now()
	window := append(a.recentReplies[channelID], norm)
	if len(window) > dedupWindowSize {
		window = window[len(window)-dedupWindowSize:]
	}
	a.recentReplies[channelID] = window
	a.mu.Unlock()
}

// SeenReply reports whether the reply text, case-folded and trimmed, already
// appears in the channel's recent-replies window.
func (a *Admission) SeenReply(channelID int64, reply string) bool {
	norm := normalizeReply(reply)
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, prev := range a.recentReplies[channelID] {
		if prev == norm {
			return true
		}
	}
	return false
}

// normalizeReply case-folds and trims a reply for dedup comparison. A fresh
// Caser per call: they are stateful and not goroutine-safe.
func normalizeReply(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
