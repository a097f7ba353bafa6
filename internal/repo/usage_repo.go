// Package repo implements the data persistence layer for the relay, backed by
// GORM. This file provides the per-day usage and cost ledgers consulted by the
// completion engine for free-tier budgeting and paid-tier spend tracking.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raphiebot/go-discord-relay/internal/domain"
)

// PaidCallCost is the static per-call spend estimate recorded for paid-tier
// completions. It is an estimate, not a metered actual.
const PaidCallCost = 0.00765

// GetUsage returns today's completed-call count for modelID. A missing row
// (first use of the day, or day rollover) reads as zero.
func GetUsage(ctx context.Context, db *gorm.DB, modelID string) (int, error) {
	var row domain.UsageCounter
	err := db.WithContext(ctx).
		Where("date = ? AND model_id = ?", domain.DateOf(time.Now()), modelID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Count, nil
}

// IncrementUsage atomically bumps today's counter for modelID, inserting the
// row with count=1 when absent. For paid calls it also upserts today's cost
// row, adding one request and the static per-call estimate. Both statements
// are single-row upserts so concurrent callers cannot lose updates.
func IncrementUsage(ctx context.Context, db *gorm.DB, modelID string, paid bool) error {
	today := domain.DateOf(time.Now())

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "model_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("count + 1"),
		}),
	}).Create(&domain.UsageCounter{Date: today, ModelID: modelID, Count: 1}).Error
	if err != nil {
		return err
	}

	if !paid {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"paid_requests":  gorm.Expr("paid_requests + 1"),
			"estimated_cost": gorm.Expr("estimated_cost + ?", PaidCallCost),
		}),
	}).Create(&domain.DailyCost{Date: today, PaidRequests: 1, EstimatedCost: PaidCallCost}).Error
}

// GetUsageStats aggregates today's ledger: the summed counters of the given
// free-tier models plus the paid request count and estimated spend.
func GetUsageStats(ctx context.Context, db *gorm.DB, tiers []domain.ModelTier) (domain.UsageStats, error) {
	today := domain.DateOf(time.Now())
	var stats domain.UsageStats

	freeIDs := make([]string, 0, len(tiers))
	for _, t := range tiers {
		if !t.Paid() {
			freeIDs = append(freeIDs, t.ModelID)
		}
	}
	if len(freeIDs) > 0 {
		var row struct{ Total int }
		err := db.WithContext(ctx).Model(&domain.UsageCounter{}).
			Select("COALESCE(SUM(count), 0) AS total").
			Where("date = ? AND model_id IN ?", today, freeIDs).
			Scan(&row).Error
		if err != nil {
			return stats, err
		}
		stats.FreeCount = row.Total
	}

	var cost domain.DailyCost
	err := db.WithContext(ctx).Where("date = ?", today).First(&cost).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return stats, nil
		}
		return stats, err
	}
	stats.PaidCount = cost.PaidRequests
	stats.EstimatedCost = cost.EstimatedCost
	return stats, nil
}
