package search

import "github.com/kestrel-chess/kestrel/internal/board"

// history holds one worker's private butterfly and continuation
// tables, killers, and node-effort counters. It is never shared
// across workers (§5: "histories and stacks are per-worker; no
// sharing").
type history struct {
	butterfly    [2][64 * 64]int16
	continuation [1024][1024]int16
	effort       [64 * 64]int64
}

func fromToIndex(m board.Move) int {
	return m.From()<<6 | m.To()
}

func pieceToIndex(white bool, m board.Move) int {
	idx := m.MovingPiece()<<6 | m.To()
	if white {
		idx |= 1 << 9
	}
	return idx
}

// historyContext binds a history table to the mover of a specific
// node and its two preceding moves, the continuation-history lookup
// key pair the teacher calls cont1/cont2.
type historyContext struct {
	h          *history
	white      bool
	haveCont1  bool
	cont1      int
	haveCont2  bool
	cont2      int
}

func (t *worker) historyContextAt(ply int) historyContext {
	white := t.stack[ply].position.WhiteMove
	hc := historyContext{h: &t.history, white: white}
	if prev := t.stack[ply].position.LastMove; prev != board.MoveEmpty {
		hc.haveCont1 = true
		hc.cont1 = pieceToIndex(!white, prev)
	}
	if ply > 0 {
		if prev2 := t.stack[ply-1].position.LastMove; prev2 != board.MoveEmpty {
			hc.haveCont2 = true
			hc.cont2 = pieceToIndex(white, prev2)
		}
	}
	return hc
}

func (hc historyContext) read(m board.Move) int {
	score := int(hc.h.butterfly[boolIndex(hc.white)][fromToIndex(m)])
	pieceIdx := pieceToIndex(hc.white, m)
	if hc.haveCont1 {
		score += int(hc.h.continuation[hc.cont1][pieceIdx])
	}
	if hc.haveCont2 {
		score += int(hc.h.continuation[hc.cont2][pieceIdx])
	}
	return score
}

func boolIndex(white bool) int {
	if white {
		return 1
	}
	return 0
}

// update applies the gravity rule of §3 to every searched quiet move,
// rewarding the one that raised alpha and penalizing the rest, exactly
// the way the teacher's historyContext.Update loop does.
func (hc historyContext) update(quietsSearched []board.Move, bestMove board.Move, depth int) {
	bonus := depth * depth
	if bonus > 400 {
		bonus = 400
	}
	for _, m := range quietsSearched {
		good := m == bestMove
		gravityUpdate(&hc.h.butterfly[boolIndex(hc.white)][fromToIndex(m)], bonus, good)
		pieceIdx := pieceToIndex(hc.white, m)
		if hc.haveCont1 {
			gravityUpdate(&hc.h.continuation[hc.cont1][pieceIdx], bonus, good)
		}
		if hc.haveCont2 {
			gravityUpdate(&hc.h.continuation[hc.cont2][pieceIdx], bonus, good)
		}
		if good {
			break
		}
	}
}

// gravityUpdate moves h toward ±16384 by bonus/512 of the remaining
// distance, which is `h += b − h·|b|/16384` with b = ±32·bonus; for
// bonus below 512 it stays within [-16384, 16384], the invariant §8
// asserts.
func gravityUpdate(v *int16, bonus int, good bool) {
	var target int
	if good {
		target = continuationHistoryCap
	} else {
		target = -continuationHistoryCap
	}
	*v += int16((target - int(*v)) * bonus / 512)
}

func (h *history) clear() {
	for side := range h.butterfly {
		for i := range h.butterfly[side] {
			h.butterfly[side][i] = 0
		}
	}
	for i := range h.continuation {
		for j := range h.continuation[i] {
			h.continuation[i][j] = 0
		}
	}
	for i := range h.effort {
		h.effort[i] = 0
	}
}

func (t *worker) updateKiller(m board.Move, ply int) {
	if t.stack[ply].killer1 != m {
		t.stack[ply].killer2 = t.stack[ply].killer1
		t.stack[ply].killer1 = m
	}
}

func (t *worker) recordEffort(m board.Move, nodes int64) {
	t.history.effort[fromToIndex(m)] += nodes
}
