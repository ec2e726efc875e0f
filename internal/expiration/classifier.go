// Package expiration buckets certificates by days until their earliest
// coverage expiration. Classification is a pure function of calendar dates;
// time of day never changes the bucket.
package expiration

import "time"

// Bucket is the urgency bucket for a certificate's earliest expiration.
type Bucket string

const (
	BucketExpired   Bucket = "expired"
	BucketDue7      Bucket = "due_7"
	BucketDue30     Bucket = "due_30"
	BucketNotYetDue Bucket = "not_yet_due"
)

// DaysUntil returns the number of whole calendar days from now until
// expiration, comparing dates only. Today is 0, yesterday is -1.
func DaysUntil(expiration, now time.Time) int {
	e := dateOf(expiration)
	n := dateOf(now)
	return int(e.Sub(n).Hours() / 24)
}

// Classify buckets an expiration date relative to now. The buckets are
// mutually exclusive: 0-7 days is due_7, 8-30 days is due_30.
func Classify(expiration, now time.Time) Bucket {
	days := DaysUntil(expiration, now)
	switch {
	case days < 0:
		return BucketExpired
	case days <= 7:
		return BucketDue7
	case days <= 30:
		return BucketDue30
	default:
		return BucketNotYetDue
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
