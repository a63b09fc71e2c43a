package supplier

import (
    "errors"
    "sync"
    "time"
)

// fakeClock makes the polling loop deterministic: Now returns the simulated
// time and After advances it by the requested wait and fires immediately,
// recording every wait so tests can assert the backoff sequence.
type fakeClock struct {
    mu    sync.Mutex
    now   time.Time
    waits []time.Duration
}

func (f *fakeClock) Now() time.Time {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
    f.mu.Lock()
    f.now = f.now.Add(d)
    f.waits = append(f.waits, d)
    now := f.now
    f.mu.Unlock()
    ch := make(chan time.Time, 1)
    ch <- now
    return ch
}

func (f *fakeClock) advance(d time.Duration) {
    f.mu.Lock()
    f.now = f.now.Add(d)
    f.mu.Unlock()
}

func (f *fakeClock) recordedWaits() []time.Duration {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make([]time.Duration, len(f.waits))
    copy(out, f.waits)
    return out
}

func asErr(err error, target any) bool { return errors.As(err, target) }
