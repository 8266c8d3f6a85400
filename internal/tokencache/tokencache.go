// Package tokencache persists the carrier bearer token with its expiry.
//
// All stores fail closed: a read that hits a parse error, a missing
// expiry, or an expiry inside the safety margin reports a miss instead of
// an error, and writes log infrastructure failures without surfacing
// them. Only the login client writes; every quote request reads.
package tokencache

import (
	"context"
	"time"
)

// DefaultSafetyMargin is subtracted from the recorded expiry before a
// token is considered valid, so a token never expires mid-flight.
const DefaultSafetyMargin = 30 * time.Second

// Store is the token persistence contract.
type Store interface {
	// Read returns the cached token, or "" on miss, expiry or any error.
	Read(ctx context.Context) string

	// Write fully replaces the stored token and its TTL.
	Write(ctx context.Context, token string, ttl time.Duration)

	// Clear drops the stored token.
	Clear(ctx context.Context)
}

// record is the persisted shape, shared by the redis and file stores.
type record struct {
	Token string `json:"token"`
	ExpAt int64  `json:"expAt"` // unix seconds
}

// valid reports whether the record's token is still usable given the
// safety margin.
func (r record) valid(now time.Time, margin time.Duration) bool {
	if r.Token == "" || r.ExpAt == 0 {
		return false
	}
	return now.Before(time.Unix(r.ExpAt, 0).Add(-margin))
}
