package services

import "time"

// Clock is the single source of "now". Transports read it once per request
// and pass the instant down, so every check in a request agrees.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
