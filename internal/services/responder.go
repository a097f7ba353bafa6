// Package services – Responder
//
// Responder is the parameterized core the deployment shapes share: every
// entry point (gateway event, poll cycle, single serverless invocation) feeds
// inbound messages through the same admit → context → generate → shape →
// send → persist pipeline.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/raphiebot/go-discord-relay/internal/discord"
	"github.com/raphiebot/go-discord-relay/internal/domain"
	"github.com/raphiebot/go-discord-relay/internal/repo"
	"github.com/raphiebot/go-discord-relay/internal/sysutil"
)

// Transport is the outbound half of the chat platform the responder needs.
// Satisfied by *discord.Client and by fakes in tests.
type Transport interface {
	SendMessage(ctx context.Context, channelID int64, content, replyToID string) error
	TriggerTyping(ctx context.Context, channelID int64) error
}

// Responder orchestrates one reply turn end to end.
type Responder struct {
	DB        *gorm.DB
	Admission *Admission
	Engine    *Engine
	Transport Transport

	Instructions string
	ContextLimit int
	Retention    int
	MaxSentences int
	MaxWords     int
	TypingDelay  time.Duration

	mu   sync.RWMutex
	self discord.User
}

// SetSelf records the bot's own identity once known (READY event or
// /users/@me). Messages from this identity are never admitted.
func (r *Responder) SetSelf(u discord.User) {
	r.mu.Lock()
	r.self = u
	r.mu.Unlock()
}

// Self returns the recorded bot identity.
func (r *Responder) Self() discord.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self
}

// HandleMessage runs the full pipeline for one inbound message. It reports
// whether a reply was sent. Failures past admission are handled locally:
// logged, counted, and the turn is skipped — the bot never posts an error
// into the channel.
func (r *Responder) HandleMessage(ctx context.Context, msg discord.Message) bool {
	tr := otel.Tracer("services/Responder")
	ctx, span := tr.Start(ctx, "HandleMessage",
		trace.WithAttributes(
			attribute.String("message.id", msg.ID),
			attribute.String("channel.id", msg.ChannelID),
		),
	)
	defer span.End()

	channelID := int64(discord.Snowflake(msg.ChannelID))
	self := r.Self()

	if reason := r.Admission.Admit(channelID, msg.Author.ID, self.ID, msg.ID, msg.Content); reason != ReasonNone {
		suppressions.WithLabelValues(string(reason)).Inc()
		log.Debug().
			Str("message_id", msg.ID).
			Str("reason", string(reason)).
			Msg("message not admitted")
		return false
	}
	r.Admission.MarkProcessed(msg.ID)

	content := strings.TrimSpace(msg.Content)
	log.Info().
		Str("author", msg.Author.Username).
		Str("content", sysutil.Truncate(content, 80)).
		Msg("processing message")

	// Transcript reads are best-effort context; a failed read just means a
	// contextless prompt.
	recent, err := repo.RecentMessages(ctx, r.DB, channelID, r.ContextLimit)
	if err != nil {
		log.Error().Err(err).Msg("transcript read failed")
		recent = nil
	}
	prompt := BuildPrompt(BuildContext(recent), content)

	raw, err := r.Engine.Generate(ctx, prompt, r.Instructions, nil)
	if err != nil {
		suppressions.WithLabelValues("no_response").Inc()
		log.Info().Err(err).Msg("no reply this turn")
		return false
	}

	reply := LimitResponse(raw, r.MaxSentences, r.MaxWords)
	if reply == "" {
		suppressions.WithLabelValues("empty_reply").Inc()
		log.Info().Msg("empty reply after shaping, suppressed")
		return false
	}
	if !IsGoodResponse(reply) {
		suppressions.WithLabelValues("bad_reply").Inc()
		log.Info().Str("reply", sysutil.Truncate(reply, 80)).Msg("reply failed quality check, suppressed")
		return false
	}
	if r.Admission.SeenReply(channelID, reply) {
		suppressions.WithLabelValues("duplicate_reply").Inc()
		log.Info().Msg("duplicate reply suppressed")
		return false
	}

	if r.TypingDelay > 0 {
		if terr := r.Transport.TriggerTyping(ctx, channelID); terr != nil {
			log.Debug().Err(terr).Msg("typing indicator failed")
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(r.TypingDelay):
		}
	}

	if err := r.Transport.SendMessage(ctx, channelID, reply, msg.ID); err != nil {
		log.Error().Err(err).Msg("send failed")
		return false
	}
	r.Admission.MarkReplied(channelID, reply)
	repliesSent.Inc()
	log.Info().Str("reply", sysutil.Truncate(reply, 80)).Msg("reply sent")

	r.remember(ctx, channelID, msg, content, reply, self)
	return true
}

// remember appends the inbound message and the sent reply to the transcript.
// Storage errors are logged and swallowed; transcript memory is best-effort
// and must never abort the pipeline.
func (r *Responder) remember(ctx context.Context, channelID int64, msg discord.Message, content, reply string, self discord.User) {
	now := time.Now().UTC()
	inbound := &domain.TranscriptEntry{
		ChannelID: channelID,
		UserID:    int64(discord.Snowflake(msg.Author.ID)),
		Username:  msg.Author.Username,
		Content:   content,
		Timestamp: now,
	}
	if err := repo.AppendMessage(ctx, r.DB, inbound, r.Retention); err != nil {
		log.Error().Err(err).Msg("transcript append failed")
	}
	sent := &domain.TranscriptEntry{
		ChannelID: channelID,
		UserID:    int64(discord.Snowflake(self.ID)),
		Username:  self.Username,
		Content:   reply,
		Timestamp: now.Add(time.Millisecond),
		IsBot:     true,
	}
	if err := repo.AppendMessage(ctx, r.DB, sent, r.Retention); err != nil {
		log.Error().Err(err).Msg("transcript append failed")
	}
}
