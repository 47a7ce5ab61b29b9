package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockAfterFuncFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(250*time.Millisecond, func() { fired++ })

	c.Advance(200 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired before deadline: %d", fired)
	}
	c.Advance(50 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("unexpected fire count: %d", fired)
	}
	if got := c.Now(); !got.Equal(epoch.Add(250 * time.Millisecond)) {
		t.Fatalf("unexpected now: %v", got)
	}
}

func TestFakeClockStopPreventsFire(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("expected stop to report active timer")
	}
	if timer.Stop() {
		t.Fatalf("second stop should report inactive timer")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if c.PendingCount() != 0 {
		t.Fatalf("unexpected pending count: %d", c.PendingCount())
	}
}

func TestFakeClockRescheduleFromCallbackWaitsForNextAdvance(t *testing.T) {
	c := Fake(epoch)
	ticks := 0
	var schedule func()
	schedule = func() {
		c.AfterFunc(250*time.Millisecond, func() {
			ticks++
			schedule()
		})
	}
	schedule()

	c.Advance(time.Second)
	if ticks != 1 {
		t.Fatalf("expected one tick per advance, got %d", ticks)
	}
	for i := 0; i < 3; i++ {
		c.Advance(250 * time.Millisecond)
	}
	if ticks != 4 {
		t.Fatalf("unexpected ticks: %d", ticks)
	}
	if c.PendingCount() != 1 {
		t.Fatalf("unexpected pending count: %d", c.PendingCount())
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.AfterFunc(time.Second, func() {})
		close(done)
	}()
	c.WaitForTimers(1)
	<-done
	if c.PendingCount() != 1 {
		t.Fatalf("unexpected pending count: %d", c.PendingCount())
	}
}

func TestRealClockAfterFuncStop(t *testing.T) {
	timer := Real().AfterFunc(time.Hour, func() {})
	if !timer.Stop() {
		t.Fatalf("expected stop to cancel pending real timer")
	}
}
