package engine

import (
	"reflect"
	"testing"
	"time"
)

func TestTimelineRunsInDueOrder(t *testing.T) {
	tl := NewTimeline()
	var got []string

	tl.After(0.5, func() { got = append(got, "b") })
	tl.After(0.1, func() { got = append(got, "a") })
	tl.After(0.5, func() { got = append(got, "c") })
	tl.After(2, func() { got = append(got, "late") })

	if n := tl.Advance(0.05); n != 0 {
		t.Errorf("Advance(0.05) ran %d callbacks, want 0", n)
	}
	if n := tl.Advance(0.5); n != 3 {
		t.Errorf("Advance(0.5) ran %d callbacks, want 3", n)
	}

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if tl.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", tl.Pending())
	}
}

func TestTimelineNestedSchedulingDefers(t *testing.T) {
	tl := NewTimeline()
	count := 0
	tl.After(0, func() {
		count++
		tl.After(0, func() { count++ })
	})

	tl.Advance(0)
	if count != 1 {
		t.Fatalf("count = %d after first advance, want 1", count)
	}
	tl.Advance(0)
	if count != 2 {
		t.Errorf("count = %d after second advance, want 2", count)
	}
}

func TestTimelineAtUsesAbsoluteTime(t *testing.T) {
	tl := NewTimeline()
	tl.Advance(0.25)

	var got []string
	tl.At(0.75, func() { got = append(got, "at") })
	tl.After(0.5, func() { got = append(got, "after") })
	tl.At(0.125, func() { got = append(got, "past") })

	if n := tl.Advance(0.25); n != 1 {
		t.Errorf("first Advance ran %d callbacks, want 1", n)
	}
	if n := tl.Advance(0.25); n != 2 {
		t.Errorf("second Advance ran %d callbacks, want 2", n)
	}

	want := []string{"past", "at", "after"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestMockStepDrivesTimeline(t *testing.T) {
	mock := NewMockTimeProvider(time.Unix(0, 0))
	pc := NewPausableClock(mock)
	tl := NewTimeline()

	fired := 0.0
	tl.After(0.5, func() { fired = pc.Elapsed() })

	pc.SetScale(0.5)
	for i := 0; i < 3; i++ {
		dt, _ := mock.Step(pc, 0.25)
		tl.Advance(dt)
	}
	if fired != 0 {
		t.Fatalf("fired at %v after 0.375s of effect time", fired)
	}

	pc.SetScale(1)
	dt, now := mock.Step(pc, 0.25)
	tl.Advance(dt)
	if now != 0.625 || fired != 0.625 {
		t.Errorf("now = %v fired = %v, want 0.625", now, fired)
	}
}

func TestTimelineClear(t *testing.T) {
	tl := NewTimeline()
	tl.After(0.1, func() { t.Error("cleared callback ran") })
	tl.Clear()
	tl.Advance(1)
	if tl.Now() != 1 {
		t.Errorf("Now() = %v, want 1", tl.Now())
	}
}

func TestPausableClockScaleAndPause(t *testing.T) {
	mock := NewMockTimeProvider(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	pc := NewPausableClock(mock)

	mock.Advance(100 * time.Millisecond)
	dt, now := pc.Tick()
	if dt != 0.1 || now != 0.1 {
		t.Errorf("Tick() = %v, %v, want 0.1, 0.1", dt, now)
	}

	pc.SetScale(0.5)
	mock.Advance(200 * time.Millisecond)
	if dt, _ = pc.Tick(); dt != 0.1 {
		t.Errorf("scaled dt = %v, want 0.1", dt)
	}

	pc.Pause()
	mock.Advance(time.Second)
	if dt, _ = pc.Tick(); dt != 0 {
		t.Errorf("paused dt = %v, want 0", dt)
	}
	mock.Advance(time.Second)
	pc.Resume()

	if got := pc.GetTotalPauseDuration(); got != 2*time.Second {
		t.Errorf("GetTotalPauseDuration() = %v, want 2s", got)
	}

	mock.Advance(400 * time.Millisecond)
	if dt, _ = pc.Tick(); dt != 0.2 {
		t.Errorf("dt after resume = %v, want 0.2", dt)
	}

	pc.SetScale(-1)
	if pc.Scale() != 0 {
		t.Errorf("Scale() = %v, want 0 after negative set", pc.Scale())
	}
}
