package domain

import (
	"testing"
	"time"
)

func TestTableNames(t *testing.T) {
	if got := (TranscriptEntry{}).TableName(); got != "messages" {
		t.Errorf("TranscriptEntry table = %q", got)
	}
	if got := (UsageCounter{}).TableName(); got != "usage" {
		t.Errorf("UsageCounter table = %q", got)
	}
	if got := (DailyCost{}).TableName(); got != "costs" {
		t.Errorf("DailyCost table = %q", got)
	}
}

func TestModelTier(t *testing.T) {
	free := ModelTier{Kind: TierFree, DailyLimit: 600}
	if free.Paid() {
		t.Error("free tier reported paid")
	}
	if free.Unbounded() {
		t.Error("limited tier reported unbounded")
	}

	paid := ModelTier{Kind: TierPaid}
	if !paid.Paid() {
		t.Error("paid tier reported free")
	}
	if !paid.Unbounded() {
		t.Error("zero-limit tier reported bounded")
	}
}

func TestDateOf(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 23:30 EST is already the next day in UTC; the ledger keys on UTC.
	ts := time.Date(2025, 3, 1, 23, 30, 0, 0, est)
	if got := DateOf(ts); got != "2025-03-02" {
		t.Errorf("DateOf = %q", got)
	}
	if got := DateOf(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)); got != "2025-03-01" {
		t.Errorf("DateOf = %q", got)
	}
}
