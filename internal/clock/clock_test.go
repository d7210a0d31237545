package clock

import (
	"testing"
	"time"
)

type countingHandler struct {
	name  string
	calls int
	log   *[]string
}

func (h *countingHandler) OnFrame(now time.Time) {
	h.calls++
	if h.log != nil {
		*h.log = append(*h.log, h.name)
	}
}

func TestClock_TicksAtConfiguredRate(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))
	c := New(fake, 24)
	h := &countingHandler{}
	c.Add(h)
	c.Start()

	fake.Advance(time.Second)

	// time.Second/24 truncates, so one second holds exactly 24 frames.
	if h.calls != 24 {
		t.Errorf("Expected 24 frames in one second, got %d", h.calls)
	}
}

func TestClock_RegistrationOrderAndIdempotence(t *testing.T) {
	var order []string
	a := &countingHandler{name: "a", log: &order}
	b := &countingHandler{name: "b", log: &order}

	c := New(NewFake(time.Unix(0, 0)), 10)
	if !c.Add(a) {
		t.Fatal("Expected first Add to register handler")
	}
	if c.Add(a) {
		t.Error("Expected duplicate Add to be a no-op")
	}
	c.Add(b)

	c.Tick(time.Unix(1, 0))
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("Expected handlers in registration order [a b], got %v", order)
	}

	if !c.Remove(a) {
		t.Error("Expected Remove to report a registered handler")
	}
	if c.Remove(a) {
		t.Error("Expected second Remove to be a no-op")
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 handler left, got %d", c.Len())
	}
}

func TestClock_StartStop(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))
	c := New(fake, 24)
	h := &countingHandler{}
	c.Add(h)

	c.Start()
	c.Start()
	if fake.Pending() != 1 {
		t.Errorf("Expected a single schedule after repeated Start, got %d", fake.Pending())
	}

	c.Stop()
	fake.Advance(time.Second)
	if h.calls != 0 {
		t.Errorf("Expected no frames after Stop, got %d", h.calls)
	}
	if fake.Pending() != 0 {
		t.Errorf("Expected no schedules after Stop, got %d", fake.Pending())
	}
}

func TestNew_DefaultsFPS(t *testing.T) {
	c := New(nil, 0)
	if c.FPS() != DefaultFPS {
		t.Errorf("Expected default fps %d, got %d", DefaultFPS, c.FPS())
	}
}

func TestFake_FiresInTimeOrder(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))
	var got []string
	stopSlow := fake.Every(300*time.Millisecond, func(time.Time) { got = append(got, "slow") })
	fake.Every(200*time.Millisecond, func(time.Time) { got = append(got, "fast") })

	fake.Advance(600 * time.Millisecond)

	want := []string{"fast", "slow", "fast", "slow", "fast"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Call %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	stopSlow()
	if fake.Pending() != 1 {
		t.Errorf("Expected 1 pending schedule after stop, got %d", fake.Pending())
	}
	if !fake.Now().Equal(time.Unix(0, 0).Add(600 * time.Millisecond)) {
		t.Errorf("Expected fake time to land on target, got %v", fake.Now())
	}
}
