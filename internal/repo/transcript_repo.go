// Package repo implements the data persistence layer for the relay, backed by
// GORM. This file provides the rolling transcript store that gives the model
// short conversational memory. Writes here are best-effort context, not a
// correctness-critical log; callers swallow and log failures.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/raphiebot/go-discord-relay/internal/domain"
)

// AppendMessage inserts a transcript row and then evicts rows beyond the most
// recent `retention` for that channel (timestamp descending, ID breaking
// ties). Retention <= 0 disables eviction.
func AppendMessage(ctx context.Context, db *gorm.DB, entry *domain.TranscriptEntry, retention int) error {
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	if retention <= 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(`
		DELETE FROM messages
		WHERE channel_id = ? AND id NOT IN (
			SELECT id FROM messages
			WHERE channel_id = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?
		)`, entry.ChannelID, entry.ChannelID, retention).Error
}

// RecentMessages returns up to limit rows for the channel, oldest first. The
// underlying query fetches newest-first and the slice is reversed so callers
// can render it chronologically.
func RecentMessages(ctx context.Context, db *gorm.DB, channelID int64, limit int) ([]domain.TranscriptEntry, error) {
	var out []domain.TranscriptEntry
	q := db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessages reports the number of stored rows for a channel.
func CountMessages(ctx context.Context, db *gorm.DB, channelID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.TranscriptEntry{}).
		Where("channel_id = ?", channelID).
		Count(&total).Error
	return total, err
}
