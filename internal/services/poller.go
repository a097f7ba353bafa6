// Package services – polling deployment shape
//
// The poller wakes on a fixed interval, fetches a batch of recent messages
// over REST, and processes at most one new message per wake-up. A last-seen
// snowflake cursor keeps cycles from re-answering old messages; on the first
// cycle only the few newest messages are considered so a fresh process does
// not work through stale backlog.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/raphiebot/go-discord-relay/internal/discord"
)

// firstCycleWindow caps how many backlog messages the first cycle considers.
const firstCycleWindow = 3

// Fetcher is the inbound half of the chat platform the poller needs.
// Satisfied by *discord.Client and by fakes in tests.
type Fetcher interface {
	Me(ctx context.Context) (discord.User, error)
	ChannelMessages(ctx context.Context, channelID int64, limit int) ([]discord.Message, error)
}

// Poller drives the Responder from a REST polling loop.
type Poller struct {
	Client     Fetcher
	Responder  *Responder
	Channel    int64
	FetchLimit int

	mu       sync.Mutex
	lastSeen uint64
	primed   bool
}

// NewPoller constructs a poller over the given transport and responder.
func NewPoller(client Fetcher, responder *Responder, channel int64) *Poller {
	return &Poller{
		Client:     client,
		Responder:  responder,
		Channel:    channel,
		FetchLimit: 20,
	}
}

// RunOnce executes a single poll cycle: fetch, pick new messages, answer at
// most one. Transport errors are logged and the cycle ends quietly — no reply
// this cycle is a normal outcome, not a failure.
func (p *Poller) RunOnce(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Responder.Self().ID == "" {
		me, err := p.Client.Me(ctx)
		if err != nil {
			log.Error().Err(err).Msg("authenticate failed")
			return
		}
		log.Info().Str("user", me.Username).Str("id", me.ID).Msg("bot identity")
		p.Responder.SetSelf(me)
	}

	msgs, err := p.Client.ChannelMessages(ctx, p.Channel, p.FetchLimit)
	if err != nil {
		log.Error().Err(err).Msg("fetch messages failed")
		return
	}
	if len(msgs) == 0 {
		log.Debug().Msg("no messages")
		return
	}

	fresh := p.newMessages(msgs)
	// Oldest first, one reply per cycle.
	for i := len(fresh) - 1; i >= 0; i-- {
		if p.Responder.HandleMessage(ctx, fresh[i]) {
			break
		}
	}

	if top := discord.Snowflake(msgs[0].ID); top > p.lastSeen {
		p.lastSeen = top
	}
	p.primed = true
}

// newMessages filters the newest-first fetch down to messages after the
// cursor. Before the cursor is primed, only the newest few are eligible.
func (p *Poller) newMessages(msgs []discord.Message) []discord.Message {
	if !p.primed {
		if len(msgs) > firstCycleWindow {
			return msgs[:firstCycleWindow]
		}
		return msgs
	}
	var fresh []discord.Message
	for _, m := range msgs {
		if discord.Snowflake(m.ID) > p.lastSeen {
			fresh = append(fresh, m)
		}
	}
	return fresh
}

// Run schedules RunOnce on the given interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	c := cron.New()
	_, err := c.AddFunc("@every "+interval.String(), func() { p.RunOnce(ctx) })
	if err != nil {
		return err
	}
	c.Start()
	log.Info().Str("interval", interval.String()).Msg("poller started")

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return ctx.Err()
}
