// Package search implements the parallel iterative-deepening
// alpha-beta core: move ordering, quiescence, the selectivity
// heuristics that gate full-width search, and the worker pool that
// drives them all from a shared transposition table.
package search

import "github.com/kestrel-chess/kestrel/internal/board"

const (
	// MaxPly bounds recursion depth and sizes every per-ply table.
	MaxPly    = 127
	stackSize = MaxPly + 4
)

// Score sentinels, generalized from the teacher's valueMate/valueWin
// pair to also carry the tablebase-certain bands §3 names.
const (
	ValueInfinite       = 32001
	ValueMate           = 32000
	ValueMateInPly      = ValueMate - MaxPly
	ValueTBWin          = ValueMate - 2*MaxPly
	ValueTBLoss         = -ValueTBWin
	ValueTBWinInMaxPly  = ValueTBWin - MaxPly
	ValueTBLossInMaxPly = -ValueTBWinInMaxPly
	ValueNone           = -ValueInfinite - 1
	ValueDraw           = 0
)

func mateIn(ply int) int  { return ValueMate - ply }
func matedIn(ply int) int { return -ValueMate + ply }

// toTT and fromTT re-base a mate/TB-certain score around the search's
// own root rather than the current ply, per §3's TT-crossing rule.
func toTT(v, ply int) int {
	if v >= ValueTBWinInMaxPly {
		return v + ply
	}
	if v <= ValueTBLossInMaxPly {
		return v - ply
	}
	return v
}

func fromTT(v, ply int) int {
	if v == ValueNone {
		return ValueNone
	}
	if v >= ValueTBWinInMaxPly {
		return v - ply
	}
	if v <= ValueTBLossInMaxPly {
		return v + ply
	}
	return v
}

// NodeKind determines window-width policy and selectivity gating, per
// §3's node-kind classification.
type NodeKind int

const (
	NonPV NodeKind = iota
	PV
	Root
)

// BoundFlag describes what a stored score proved about the true
// minimax value.
type BoundFlag uint8

const (
	BoundNone  BoundFlag = 0
	BoundUpper BoundFlag = 1 << 0
	BoundLower BoundFlag = 1 << 1
	BoundExact           = BoundUpper | BoundLower
)

// pvLine is a fixed-capacity principal variation buffer assigned
// bottom-up as alpha-beta unwinds, in the teacher's `pv` shape.
type pvLine struct {
	moves [stackSize]board.Move
	size  int
}

func (l *pvLine) clear() { l.size = 0 }

func (l *pvLine) assign(m board.Move, child *pvLine) {
	l.moves[0] = m
	l.size = 1
	if child.size > 0 {
		copy(l.moves[1:], child.moves[:child.size])
		l.size += child.size
	}
}

func (l *pvLine) slice() []board.Move {
	out := make([]board.Move, l.size)
	copy(out, l.moves[:l.size])
	return out
}

// stackFrame is the per-ply record §3 names: ply, the move that led
// here, its static evaluation, an excluded move for singular search,
// killers, and scratch buffers a worker reuses across the whole
// search instead of allocating per node.
type stackFrame struct {
	position       board.Position
	moveBuffer     [board.MaxMoves]board.Move
	quietsSearched [board.MaxMoves]board.Move
	pv             pvLine
	staticEval     int
	killer1        board.Move
	killer2        board.Move
	excludedMove   board.Move
}
