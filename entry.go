package lazycache

import (
	"math/rand"
	"time"
)

const (
	// expirationJitterPercent is an exclusive upper bound of soft ttl reduction.
	expirationJitterPercent = 20

	// absoluteExpirationFactor is a target ratio of absolute to soft ttl for the largest jitter.
	absoluteExpirationFactor = 1.2
)

// Entry is an immutable cached value with soft and absolute expiration.
//
// Soft expiration marks value as stale, absolute expiration is the ttl to be used for physical eviction.
// Absolute ttl is always greater than soft ttl, stale value remains readable in between.
type Entry struct {
	val         interface{}
	createdAt   time.Time // Keeps monotonic clock reading for expiration checks.
	softTTL     time.Duration
	absoluteTTL time.Duration
}

// NewEntry creates an entry with soft ttl reduced by random jitter in [0%, 20%) of ttl.
//
// Negative ttl is treated as zero.
func NewEntry(val interface{}, ttl time.Duration) *Entry {
	if ttl < 0 {
		ttl = 0
	}

	jitter := rand.Intn(expirationJitterPercent) // nolint:gosec // Jitter does not need crypto strength.
	softTTL := time.Duration(float64(ttl) * softExpirationCoefficient(float64(jitter)))

	return &Entry{
		val:         val,
		createdAt:   time.Now(),
		softTTL:     softTTL,
		absoluteTTL: absoluteTTL(softTTL),
	}
}

func softExpirationCoefficient(delta float64) float64 {
	return 1 - delta/100
}

func absoluteTTL(softTTL time.Duration) time.Duration {
	coeff := absoluteExpirationFactor / softExpirationCoefficient(expirationJitterPercent)
	abs := time.Duration(float64(softTTL) * coeff)

	// Keeping a non-empty stale window for tiny ttls.
	if abs <= softTTL {
		abs = softTTL + 1
	}

	return abs
}

// Value returns cached value.
func (e *Entry) Value() interface{} {
	return e.val
}

// CreatedAt returns entry creation time in UTC.
func (e *Entry) CreatedAt() time.Time {
	return e.createdAt.UTC()
}

// SoftTTL returns duration of entry freshness.
func (e *Entry) SoftTTL() time.Duration {
	return e.softTTL
}

// AbsoluteTTL returns duration after which entry should be evicted from storage.
func (e *Entry) AbsoluteTTL() time.Duration {
	return e.absoluteTTL
}

// SoftExpireAt returns time when entry becomes stale.
func (e *Entry) SoftExpireAt() time.Time {
	return e.createdAt.Add(e.softTTL)
}

// ExpireAt returns time when entry should not be available anymore.
func (e *Entry) ExpireAt() time.Time {
	return e.createdAt.Add(e.absoluteTTL)
}

// SoftExpired is true when entry is stale.
func (e *Entry) SoftExpired() bool {
	return e.SoftExpiredAt(time.Now())
}

// SoftExpiredAt is true when entry is stale at the given moment, boundary is inclusive.
func (e *Entry) SoftExpiredAt(now time.Time) bool {
	return !now.Before(e.SoftExpireAt())
}

// Expired returns a copy of entry that is stale since now, absolute expiration is kept.
func (e *Entry) Expired(now time.Time) *Entry {
	if e.SoftExpiredAt(now) {
		return e
	}

	c := *e
	c.softTTL = now.Sub(e.createdAt)

	return &c
}
