package clock

import (
	"sync"
	"time"
)

// Source supplies the current time and periodic callbacks.
type Source interface {
	Now() time.Time

	// Every calls fn once per interval until the returned stop function is
	// called. Calls from one schedule never overlap.
	Every(interval time.Duration, fn func(now time.Time)) (stop func())
}

// System is the wall-clock Source.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time {
	return time.Now()
}

// Every runs fn on its own goroutine driven by a time.Ticker.
func (System) Every(interval time.Duration, fn func(now time.Time)) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case now := <-ticker.C:
				fn(now)
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
