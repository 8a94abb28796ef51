package search

import "github.com/kestrel-chess/kestrel/internal/board"

// pickerStage names each observable yield of §4.2's staged generator.
type pickerStage int

const (
	stageTTMove pickerStage = iota
	stageGoodCaptures
	stageKiller1
	stageKiller2
	stageQuiets
	stageBadCaptures
	stageDone
)

// MovePicker drives move ordering one move at a time through the
// seven named stages of §4.2, restructured from the teacher's single
// selection-sorted pass (pkg/engine/moveiterator.go's moveIterator)
// into named buckets so each stage is independently observable, each
// bucket sorted by key once, up front, with an insertion sort.
type MovePicker struct {
	position *board.Position
	ttMove   board.Move
	killer1  board.Move
	killer2  board.Move
	hist     historyContext
	haveHist bool

	quiescence bool
	inCheck    bool

	searchMoves []board.Move

	all []board.Move

	goodCaptures []board.OrderedMove
	badCaptures  []board.OrderedMove
	quiets       []board.OrderedMove

	stage      pickerStage
	stageIndex int

	ttMoveYielded bool
}

// NewMovePicker builds a picker for a normal search node. buffer is
// the stack frame's scratch move-list array, reused node to node.
func NewMovePicker(p *board.Position, ttMove, killer1, killer2 board.Move, hist historyContext, buffer []board.Move) *MovePicker {
	mp := &MovePicker{
		position: p,
		ttMove:   ttMove,
		killer1:  killer1,
		killer2:  killer2,
		hist:     hist,
		haveHist: hist.h != nil,
		inCheck:  p.IsCheck(),
	}
	mp.all = p.GenerateMoves(buffer[:0])
	mp.classify()
	return mp
}

// NewQuiescencePicker builds a picker restricted to captures and
// promotions (or, when in check, every evasion), skipping the
// killer/quiet stages entirely, per §4.2's quiescence carve-out.
func NewQuiescencePicker(p *board.Position, buffer []board.Move) *MovePicker {
	mp := &MovePicker{
		position:   p,
		quiescence: true,
		inCheck:    p.IsCheck(),
	}
	if mp.inCheck {
		mp.all = p.GenerateMoves(buffer[:0])
	} else {
		mp.all = p.GenerateCaptures(buffer[:0])
	}
	mp.classify()
	return mp
}

// RestrictTo limits root move generation to the given set, the
// `limit.searchmoves` filter §4.2 asks the root picker to apply.
func (mp *MovePicker) RestrictTo(moves []board.Move) {
	mp.searchMoves = moves
	mp.goodCaptures = mp.goodCaptures[:0]
	mp.badCaptures = mp.badCaptures[:0]
	mp.quiets = mp.quiets[:0]
	mp.classify()
}

func (mp *MovePicker) allowed(m board.Move) bool {
	if mp.searchMoves == nil {
		return true
	}
	for _, r := range mp.searchMoves {
		if r == m {
			return true
		}
	}
	return false
}

func containsMove(ml []board.Move, m board.Move) bool {
	for _, x := range ml {
		if x == m {
			return true
		}
	}
	return false
}

func (mp *MovePicker) classify() {
	ttPseudoLegal := mp.ttMove != board.MoveEmpty && containsMove(mp.all, mp.ttMove)
	if !ttPseudoLegal {
		mp.ttMove = board.MoveEmpty
	}

	for _, m := range mp.all {
		if !mp.allowed(m) {
			continue
		}
		if m == mp.ttMove {
			continue
		}
		if m.IsCaptureOrPromotion() {
			key := mvvlva(m)
			if mp.position.SEE(m, 0) {
				mp.goodCaptures = append(mp.goodCaptures, board.OrderedMove{Move: m, Key: int32(key)})
			} else {
				mp.badCaptures = append(mp.badCaptures, board.OrderedMove{Move: m, Key: int32(key)})
			}
			continue
		}
		if mp.quiescence && !mp.inCheck {
			continue
		}
		if m == mp.killer1 || m == mp.killer2 {
			continue
		}
		var key int32
		if mp.haveHist {
			key = int32(mp.hist.read(m))
		}
		mp.quiets = append(mp.quiets, board.OrderedMove{Move: m, Key: key})
	}

	selectionSortDesc(mp.goodCaptures)
	selectionSortDesc(mp.badCaptures)
	selectionSortDesc(mp.quiets)
}

// selectionSortDesc is the teacher's insertion-sort-by-key
// (pkg/engine/moveiterator.go sortMoves), applied once per bucket
// instead of once across the whole move list.
func selectionSortDesc(moves []board.OrderedMove) {
	for i := 1; i < len(moves); i++ {
		j, v := i, moves[i]
		for ; j > 0 && moves[j-1].Key < v.Key; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = v
	}
}

var mvvlvaValue = [7]int{board.Empty: 0, board.Pawn: 1, board.Knight: 2, board.Bishop: 3, board.Rook: 4, board.Queen: 5, board.King: 6}

func mvvlva(m board.Move) int {
	return 8*(mvvlvaValue[m.CapturedPiece()]+mvvlvaValue[m.Promotion()]) - mvvlvaValue[m.MovingPiece()]
}

// Next returns the next move in stage order, or MoveEmpty once every
// stage is exhausted.
func (mp *MovePicker) Next() (board.Move, pickerStage) {
	for {
		switch mp.stage {
		case stageTTMove:
			mp.stage = stageGoodCaptures
			if mp.ttMove != board.MoveEmpty && !mp.ttMoveYielded && mp.allowed(mp.ttMove) {
				mp.ttMoveYielded = true
				return mp.ttMove, stageTTMove
			}
		case stageGoodCaptures:
			if mp.stageIndex < len(mp.goodCaptures) {
				m := mp.goodCaptures[mp.stageIndex].Move
				mp.stageIndex++
				return m, stageGoodCaptures
			}
			mp.stageIndex = 0
			mp.stage = stageKiller1
		case stageKiller1:
			mp.stage = stageKiller2
			if !mp.quiescence && mp.killer1 != board.MoveEmpty && mp.killer1 != mp.ttMove &&
				mp.allowed(mp.killer1) && containsMove(mp.all, mp.killer1) {
				return mp.killer1, stageKiller1
			}
		case stageKiller2:
			mp.stage = stageQuiets
			if !mp.quiescence && mp.killer2 != board.MoveEmpty && mp.killer2 != mp.ttMove &&
				mp.killer2 != mp.killer1 && mp.allowed(mp.killer2) && containsMove(mp.all, mp.killer2) {
				return mp.killer2, stageKiller2
			}
		case stageQuiets:
			if (!mp.quiescence || mp.inCheck) && mp.stageIndex < len(mp.quiets) {
				m := mp.quiets[mp.stageIndex].Move
				mp.stageIndex++
				return m, stageQuiets
			}
			mp.stageIndex = 0
			mp.stage = stageBadCaptures
		case stageBadCaptures:
			if mp.stageIndex < len(mp.badCaptures) {
				m := mp.badCaptures[mp.stageIndex].Move
				mp.stageIndex++
				return m, stageBadCaptures
			}
			mp.stage = stageDone
		case stageDone:
			return board.MoveEmpty, stageDone
		}
	}
}
