package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Source. Scheduled callbacks run synchronously
// on the goroutine that calls Advance, in time order; ties fire in
// scheduling order.
type Fake struct {
	mu        sync.Mutex
	now       time.Time
	nextID    int
	schedules map[int]*fakeSchedule
}

type fakeSchedule struct {
	id       int
	interval time.Duration
	next     time.Time
	fn       func(time.Time)
}

// NewFake returns a Fake whose clock reads start.
func NewFake(start time.Time) *Fake {
	return &Fake{
		now:       start,
		schedules: make(map[int]*fakeSchedule),
	}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Every registers fn to fire every interval of fake time.
func (f *Fake) Every(interval time.Duration, fn func(now time.Time)) func() {
	if interval <= 0 {
		interval = time.Nanosecond
	}

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.schedules[id] = &fakeSchedule{
		id:       id,
		interval: interval,
		next:     f.now.Add(interval),
		fn:       fn,
	}
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.schedules, id)
		f.mu.Unlock()
	}
}

// Advance moves the clock forward by d, firing every callback that falls due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)

	for {
		var due *fakeSchedule
		for _, s := range f.schedules {
			if s.next.After(target) {
				continue
			}
			if due == nil || s.next.Before(due.next) || (s.next.Equal(due.next) && s.id < due.id) {
				due = s
			}
		}
		if due == nil {
			break
		}

		f.now = due.next
		due.next = due.next.Add(due.interval)
		fn, now := due.fn, f.now

		f.mu.Unlock()
		fn(now)
		f.mu.Lock()
	}

	f.now = target
	f.mu.Unlock()
}

// Pending returns the number of live schedules.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.schedules)
}
