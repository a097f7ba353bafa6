// Package services – completion engine
//
// The engine walks the candidate tiers in priority order, giving each up to
// MaxAttempts bounded calls before failing over to the next. Success records
// usage in the ledger; total exhaustion yields ErrNoResponse, which callers
// treat as "skip this turn".
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/raphiebot/go-discord-relay/internal/domain"
	"github.com/raphiebot/go-discord-relay/internal/openrouter"
	"github.com/raphiebot/go-discord-relay/internal/sysutil"
)

// Ledger is the usage-tracking contract the engine depends on. Ledger errors
// are logged and swallowed; usage tracking is auxiliary, never a reason to
// drop a reply.
type Ledger interface {
	GetUsage(ctx context.Context, modelID string) (int, error)
	IncrementUsage(ctx context.Context, modelID string, paid bool) error
}

// Engine generates completions with bounded attempts, per-attempt timeouts,
// and tier failover.
type Engine struct {
	Client openrouter.Completer
	Ledger Ledger
	Tiers  []domain.ModelTier

	MaxAttempts    int
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
	MaxTokens      int
	Temperature    float64
}

// NewEngine constructs an Engine with the default operating bounds.
func NewEngine(client openrouter.Completer, ledger Ledger, tiers []domain.ModelTier) *Engine {
	return &Engine{
		Client:         client,
		Ledger:         ledger,
		Tiers:          tiers,
		MaxAttempts:    3,
		AttemptTimeout: 10 * time.Second,
		RetryDelay:     time.Second,
		MaxTokens:      600,
		Temperature:    0.7,
	}
}

// Generate produces raw model output for the prompt, trying each candidate
// tier in turn. History, when present, is inserted between the system
// instructions and the user prompt. Returns ErrNoResponse when all tiers
// exhaust their attempts.
func (e *Engine) Generate(ctx context.Context, prompt, instructions string, history []openrouter.Message) (string, error) {
	messages := make([]openrouter.Message, 0, len(history)+2)
	messages = append(messages, openrouter.Message{Role: "system", Content: instructions})
	messages = append(messages, history...)
	messages = append(messages, openrouter.Message{Role: "user", Content: prompt})

	candidates := SelectCandidates(e.Tiers, func(modelID string) (int, error) {
		return e.Ledger.GetUsage(ctx, modelID)
	})

	for _, tier := range candidates {
		text, ok := e.tryTier(ctx, tier, messages)
		if ok {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn().Str("model", tier.Name).Msg("tier exhausted, failing over")
	}
	log.Warn().Msg("all model tiers failed")
	return "", ErrNoResponse
}

// tryTier gives one tier up to MaxAttempts bounded calls, sleeping RetryDelay
// between failures. A timed-out attempt is abandoned outright; no partial
// result is surfaced.
func (e *Engine) tryTier(ctx context.Context, tier domain.ModelTier, messages []openrouter.Message) (string, bool) {
	req := openrouter.Request{
		Model:       tier.ModelID,
		Messages:    messages,
		MaxTokens:   e.MaxTokens,
		Temperature: e.Temperature,
	}

	for attempt := 1; attempt <= e.MaxAttempts; attempt++ {
		log.Debug().
			Str("model", tier.Name).
			Int("attempt", attempt).
			Int("max_attempts", e.MaxAttempts).
			Bool("paid", tier.Paid()).
			Msg("completion attempt")

		attemptCtx, cancel := context.WithTimeout(ctx, e.AttemptTimeout)
		text, err := e.Client.Complete(attemptCtx, req)
		cancel()

		if err == nil {
			modelCalls.WithLabelValues(tier.ModelID, "success").Inc()
			if lerr := e.Ledger.IncrementUsage(ctx, tier.ModelID, tier.Paid()); lerr != nil {
				log.Error().Err(lerr).Str("model", tier.ModelID).Msg("usage increment failed")
			}
			log.Info().Str("model", tier.Name).Msg("completion succeeded")
			return text, true
		}

		modelCalls.WithLabelValues(tier.ModelID, "error").Inc()
		log.Warn().
			Str("model", tier.Name).
			Int("attempt", attempt).
			Str("error", sysutil.Truncate(err.Error(), 120)).
			Msg("completion attempt failed")

		if ctx.Err() != nil {
			return "", false
		}
		if attempt < e.MaxAttempts && e.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return "", false
			case <-time.After(e.RetryDelay):
			}
		}
	}
	return "", false
}
