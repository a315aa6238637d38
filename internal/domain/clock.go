package domain

import "time"

// Clock supplies the current protocol time. All window checks compare against
// a Clock rather than reading the wall clock directly, so deployments can
// substitute block timestamps and tests can substitute a fixed time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
