package timer

import (
	"errors"
	"testing"
	"time"
)

func TestTimerExpiresOnce(t *testing.T) {
	clock := NewManualClock()
	tm := New(clock)

	var ticks []int
	tm.OnTick(func(r int) { ticks = append(ticks, r) })
	expired := 0
	if err := tm.Start(3, func() { expired++ }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	clock.Advance(2 * time.Second)
	if expired != 0 {
		t.Fatal("expired early")
	}
	if got := tm.Remaining(); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}

	clock.Advance(10 * time.Second)
	if expired != 1 {
		t.Fatalf("expired %d times, want 1", expired)
	}
	if tm.Running() {
		t.Error("Running() = true after expiry")
	}
	if want := []int{2, 1, 0}; len(ticks) != len(want) {
		t.Errorf("ticks = %v, want %v", ticks, want)
	}
	if clock.Pending() != 0 {
		t.Errorf("%d callbacks still scheduled", clock.Pending())
	}
}

func TestTimerCancel(t *testing.T) {
	clock := NewManualClock()
	tm := New(clock)
	expired := false
	if err := tm.Start(5, func() { expired = true }); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Second)
	tm.Cancel()
	tm.Cancel()
	clock.Advance(time.Minute)

	if expired {
		t.Error("onExpire fired after Cancel")
	}
	if got := tm.Remaining(); got != 3 {
		t.Errorf("Remaining() = %d, want frozen at 3", got)
	}
	if clock.Pending() != 0 {
		t.Errorf("%d callbacks still scheduled", clock.Pending())
	}
}

func TestTimerRestartAfterCancel(t *testing.T) {
	clock := NewManualClock()
	tm := New(clock)
	first, second := 0, 0
	if err := tm.Start(2, func() { first++ }); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	tm.Cancel()
	if err := tm.Start(2, func() { second++ }); err != nil {
		t.Fatalf("restart: %v", err)
	}
	clock.Advance(2 * time.Second)
	if first != 0 || second != 1 {
		t.Errorf("first = %d, second = %d", first, second)
	}
}

func TestTimerStartErrors(t *testing.T) {
	tm := New(NewManualClock())
	for _, secs := range []int{0, -5} {
		if err := tm.Start(secs, func() {}); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Start(%d) error = %v, want ErrInvalidDuration", secs, err)
		}
	}
	if err := tm.Start(10, func() {}); err != nil {
		t.Fatal(err)
	}
	if err := tm.Start(10, func() {}); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestTimerProgress(t *testing.T) {
	clock := NewManualClock()
	tm := New(clock)
	if tm.Progress() != 0 {
		t.Errorf("idle Progress() = %v", tm.Progress())
	}
	if err := tm.Start(4, nil); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if got := tm.Progress(); got != 75 {
		t.Errorf("Progress() = %v, want 75", got)
	}
}

func TestTimerCancelFromExpiry(t *testing.T) {
	clock := NewManualClock()
	tm := New(clock)
	if err := tm.Start(1, func() { tm.Cancel() }); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if tm.Running() {
		t.Error("Running() = true")
	}
}

func TestRealClock(t *testing.T) {
	fired := make(chan struct{}, 10)
	stop := RealClock().Every(5*time.Millisecond, func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("real clock never fired")
	}
	stop()
	stop()
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{300, "5:00"},
		{239, "3:59"},
		{9, "0:09"},
		{0, "0:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
