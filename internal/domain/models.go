// Package domain defines the persistence models for the relay: transcript
// rows, the per-day usage ledger, and the per-day cost ledger. These types are
// mapped with GORM. It also defines the static model-tier table consulted by
// the completion engine (not persisted).
package domain

import (
	"time"
)

// TranscriptEntry is one remembered turn in a channel, authored either by a
// human participant or by the bot itself. Rows are append-only; the repo layer
// evicts the oldest rows beyond the configured retention per channel.
//
// Fields:
//   - ID: auto-incremented primary key; used to break timestamp ties.
//   - ChannelID / UserID: Discord snowflakes, stored numerically.
//   - Username: display name captured at write time.
//   - Content: raw message text.
//   - Timestamp: insertion time (UTC); ordering key together with ID.
//   - IsBot: true for rows written after a reply was sent.
type TranscriptEntry struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	ChannelID int64     `json:"channel_id" gorm:"not null;index:idx_channel,priority:1"`
	UserID    int64     `json:"user_id"    gorm:"not null"`
	Username  string    `json:"username"   gorm:"type:varchar(128);not null"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp"  gorm:"not null;index:idx_channel,priority:2"`
	IsBot     bool      `json:"is_bot"     gorm:"not null;default:false"`
}

// TableName returns the database table name for TranscriptEntry.
func (TranscriptEntry) TableName() string { return "messages" }

// UsageCounter tracks how many completed calls a model received on a given
// calendar day (UTC). Keyed by (date, model_id); a missing row means zero.
// Rows are upserted with count = count + 1, never read-modify-written, so
// concurrent increments cannot lose updates.
type UsageCounter struct {
	Date    string `json:"date"     gorm:"primaryKey;type:varchar(10)"`
	ModelID string `json:"model_id" gorm:"primaryKey;column:model_id;type:varchar(128)"`
	Count   int    `json:"count"    gorm:"not null;default:0"`
}

// TableName returns the database table name for UsageCounter.
func (UsageCounter) TableName() string { return "usage" }

// DailyCost accumulates paid-tier spend for a calendar day. EstimatedCost is a
// static per-call estimate, not a metered actual.
type DailyCost struct {
	Date          string  `json:"date"           gorm:"primaryKey;type:varchar(10)"`
	PaidRequests  int     `json:"paid_requests"  gorm:"not null;default:0"`
	EstimatedCost float64 `json:"estimated_cost" gorm:"not null;default:0"`
}

// TableName returns the database table name for DailyCost.
func (DailyCost) TableName() string { return "costs" }

// UsageStats is the aggregate view of today's ledger, served by /stats and
// logged at startup.
type UsageStats struct {
	FreeCount     int     `json:"free"`
	PaidCount     int     `json:"paid"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// TierKind classifies a model tier by cost class.
type TierKind string

const (
	// TierFree marks tiers gated by a daily call budget.
	TierFree TierKind = "free"
	// TierPaid marks tiers billed per call; they are never pre-checked and
	// act as the unconditional last resort.
	TierPaid TierKind = "paid"
)

// ModelTier is one candidate model configuration. The tier table is static,
// defined at process start, and ordered by Priority (lower tries first).
type ModelTier struct {
	Name       string
	ModelID    string
	Kind       TierKind
	DailyLimit int // <= 0 means unbounded
	Priority   int
}

// Paid reports whether calls to this tier are billed.
func (t ModelTier) Paid() bool { return t.Kind == TierPaid }

// Unbounded reports whether the tier has no daily call budget.
func (t ModelTier) Unbounded() bool { return t.DailyLimit <= 0 }

// DateOf formats a timestamp as the ledger's UTC calendar-day key.
func DateOf(ts time.Time) string { return ts.UTC().Format("2006-01-02") }
