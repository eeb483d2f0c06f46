package license

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// CheckExpiry rejects a license whose expiry is at or before now. There is
// no skew allowance.
func CheckExpiry(expiresAt, now time.Time) error {
	if !expiresAt.After(now) {
		return &Error{Kind: KindExpired}
	}
	return nil
}
