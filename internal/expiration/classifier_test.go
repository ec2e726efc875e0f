package expiration

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		days int
		want Bucket
	}{
		{"yesterday", -1, BucketExpired},
		{"long expired", -90, BucketExpired},
		{"today", 0, BucketDue7},
		{"in 7 days", 7, BucketDue7},
		{"in 8 days", 8, BucketDue30},
		{"in 30 days", 30, BucketDue30},
		{"in 31 days", 31, BucketNotYetDue},
		{"next year", 365, BucketNotYetDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := now.AddDate(0, 0, tt.days)
			if got := Classify(exp, now); got != tt.want {
				t.Errorf("Classify(+%dd) = %s, want %s", tt.days, got, tt.want)
			}
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	// Expiring at 00:01 in 7 days vs. checked at 23:59 must still be due_7.
	now := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	exp := time.Date(2026, 3, 22, 0, 1, 0, 0, time.UTC)
	if got := Classify(exp, now); got != BucketDue7 {
		t.Errorf("Classify() = %s, want due_7", got)
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if d := DaysUntil(now.AddDate(0, 0, 10), now); d != 10 {
		t.Errorf("DaysUntil(+10d) = %d, want 10", d)
	}
	if d := DaysUntil(now.AddDate(0, 0, -3), now); d != -3 {
		t.Errorf("DaysUntil(-3d) = %d, want -3", d)
	}
}
