package supplier

import "time"

// Clock abstracts wall-clock reads and timer waits so the polling loop's
// backoff and deadline behavior can be driven deterministically in tests.
type Clock interface {
    Now() time.Time
    After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
