package search

import (
	"testing"
	"time"
)

func TestCancellationTokenStartsClear(t *testing.T) {
	var ct cancellationToken
	if ct.isSet() {
		t.Fatal("a fresh cancellation token must not be set")
	}
	ct.cancel()
	if !ct.isSet() {
		t.Fatal("cancel must be observed by isSet")
	}
}

func TestCalcLimitsSoftIsTighterThanHard(t *testing.T) {
	soft, hard := calcLimits(10*time.Second, 0, 0)
	if soft <= 0 || hard <= 0 {
		t.Fatalf("expected positive budgets, got soft=%v hard=%v", soft, hard)
	}
	if soft >= hard {
		t.Fatalf("soft budget must be tighter than hard: soft=%v hard=%v", soft, hard)
	}
}

func TestCalcLimitsNeverExceedsRemainingClock(t *testing.T) {
	soft, hard := calcLimits(500*time.Millisecond, 0, 40)
	if hard > 500*time.Millisecond {
		t.Fatalf("hard budget %v must not exceed the clock", hard)
	}
	if soft > hard {
		t.Fatalf("soft %v must not exceed hard %v", soft, hard)
	}
}

func TestNewTimeManagerHonorsMoveTimeOverClock(t *testing.T) {
	tm := newTimeManager(Limits{MoveTime: 250 * time.Millisecond, WhiteTime: time.Minute}, true)
	if tm.hard != 250*time.Millisecond {
		t.Fatalf("explicit MoveTime must win over the clock split, got %v", tm.hard)
	}
}

func TestPollWallClockCancelsOnHardNodeBudget(t *testing.T) {
	tm := &timeManager{start: time.Now(), hard: time.Hour, hardNodes: 1000}
	tm.pollWallClock(999)
	if tm.ct.isSet() {
		t.Fatal("must not cancel before the node budget is reached")
	}
	tm.pollWallClock(1000)
	if !tm.ct.isSet() {
		t.Fatal("must cancel once the node budget is reached")
	}
}

func TestPollWallClockNeverCancelsWhenInfinite(t *testing.T) {
	tm := &timeManager{start: time.Now().Add(-time.Hour), hard: time.Millisecond, infinite: true}
	tm.pollWallClock(0)
	if tm.ct.isSet() {
		t.Fatal("an infinite search must never self-cancel on the clock")
	}
}
