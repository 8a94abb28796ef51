package search

import (
	"sync/atomic"
	"time"
)

// cancellationToken is the relaxed atomic abort flag §5 specifies:
// "eventually visible" is the only requirement, so a plain
// atomic.Bool (rather than a channel or context.Context) is enough,
// grounded on the teacher's CancellationToken
// (pkg/engine/timemanagement.go in the teacher's older engine tree).
type cancellationToken struct {
	flag atomic.Bool
}

func (ct *cancellationToken) cancel()          { ct.flag.Store(true) }
func (ct *cancellationToken) isSet() bool      { return ct.flag.Load() }

// timeManager tracks the wall-clock and node budgets of a single
// search and decides when to raise the cancellation token, grounded
// on pkg/engine/simple_time_manager.go's soft/hard limit split.
type timeManager struct {
	start     time.Time
	soft      time.Duration
	hard      time.Duration
	hardNodes int64
	infinite  bool
	depthCap  int
	ct        cancellationToken
}

// newTimeManager computes the soft/hard envelope from Limits the way
// calcLimits does, scaled to the side to move's own clock and
// increment.
func newTimeManager(limits Limits, whiteToMove bool) *timeManager {
	tm := &timeManager{
		start:    time.Now(),
		hard:     limits.MoveTime,
		infinite: limits.Infinite,
		depthCap: limits.Depth,
	}
	if tm.depthCap <= 0 {
		tm.depthCap = MaxPly
	}
	if limits.Nodes > 0 {
		tm.hardNodes = limits.Nodes
	}
	if limits.MoveTime <= 0 {
		main, inc := limits.BlackTime, limits.BlackInc
		if whiteToMove {
			main, inc = limits.WhiteTime, limits.WhiteInc
		}
		if main > 0 {
			tm.soft, tm.hard = calcLimits(main, inc, limits.MovesToGo)
		}
	}
	return tm
}

func calcLimits(main, inc time.Duration, movesToGo int) (soft, hard time.Duration) {
	const (
		defaultMovesToGo = 40
		moveOverhead     = 300 * time.Millisecond
		minTimeLimit     = time.Millisecond
	)
	main -= moveOverhead
	if main < minTimeLimit {
		main = minTimeLimit
	}
	moves := defaultMovesToGo
	if movesToGo > 0 && movesToGo < defaultMovesToGo {
		moves = movesToGo
	}
	ideal := main/time.Duration(moves+1) + inc
	soft = ideal * 7 / 10
	hard = ideal * 21 / 10
	return clampDuration(soft, minTimeLimit, main), clampDuration(hard, minTimeLimit, main)
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (tm *timeManager) elapsed() time.Duration { return time.Since(tm.start) }

// pollWallClock is the main worker's once-every-2048-checks wall-clock
// query of §5's polling cadence; every other worker only ever reads
// the cancellation token cheaply.
func (tm *timeManager) pollWallClock(nodes int64) {
	if tm.ct.isSet() || tm.infinite {
		return
	}
	if tm.hardNodes > 0 && nodes >= tm.hardNodes {
		tm.ct.cancel()
		return
	}
	if tm.hard > 0 && tm.elapsed() >= tm.hard {
		tm.ct.cancel()
	}
}
