package search

import (
	"errors"
	"time"

	"github.com/kestrel-chess/kestrel/internal/board"
)

// errSearchTimeout unwinds every frame on the call stack back to the
// worker's entry point once the cancellation token is observed,
// mirroring the teacher's own panic/recover abort
// (pkg/engine/search.go's incNodes, engine/search.go's searchTimeout).
var errSearchTimeout = errors.New("search: timeout")

const pollInterval = 2048

// currMoveReportDelay is §6's "only main worker, after 10 s" gate on
// the `info depth D currmove M currmovenumber K` root-move line.
const currMoveReportDelay = 10 * time.Second

// worker is one search thread: its own evaluator (internal/eval's
// scratch fields are not safe to share), its own history tables, and
// a pre-allocated stack of frames indexed by ply so no per-node heap
// traffic occurs during the recursive search (§9).
type worker struct {
	id        int
	engine    *Engine
	evaluator Evaluator
	history   history
	stack     [stackSize]stackFrame
	nodes     int64
	tbHits    int64
	rootDepth int
	selDepth  int

	pollCounter int
}

func (t *worker) clearPV(ply int) { t.stack[ply].pv.clear() }

func (t *worker) assignPV(ply int, m board.Move) {
	t.stack[ply].pv.assign(m, &t.stack[ply+1].pv)
}

// incNodes is the §5 polling cadence: every worker cheaply re-checks
// the cancellation token each call, but only the main worker (id 0),
// once every 2048 checks, queries the wall clock at all.
func (t *worker) incNodes() {
	t.nodes++
	t.pollCounter++
	if t.pollCounter >= pollInterval {
		t.pollCounter = 0
		if t.id == 0 {
			t.engine.tm.pollWallClock(t.engine.nodes + t.nodes)
		}
	}
	if t.engine.tm.ct.isSet() {
		panic(errSearchTimeout)
	}
}

// makeMove plays move (or a null move when MoveEmpty) from ply into
// ply+1. There is no paired unmakeMove: each ply owns its own stack
// slot, so abandoning it on return is the unmake (board.Position's
// own MakeMove doc comment makes the same point at the single-move
// level; here it applies to the whole per-ply frame).
func (t *worker) makeMove(move board.Move, ply int) bool {
	pos := &t.stack[ply].position
	child := &t.stack[ply+1].position
	if move == board.MoveEmpty {
		pos.MakeNullMove(child)
	} else if !pos.MakeMove(move, child) {
		return false
	}
	t.incNodes()
	return true
}

// isRepeat detects a repeated position. A match earlier in the search
// stack always counts; against the game history a PV node needs one
// prior occurrence and any other node two.
func (t *worker) isRepeat(ply int, pvNode bool) bool {
	p := &t.stack[ply].position
	if p.Rule50 == 0 || p.LastMove == board.MoveEmpty {
		return false
	}
	for i := ply - 1; i >= 0; i-- {
		q := &t.stack[i].position
		if q.Key == p.Key {
			return true
		}
		if q.Rule50 == 0 || q.LastMove == board.MoveEmpty {
			return false
		}
	}
	required := 2
	if pvNode {
		required = 1
	}
	return t.engine.historyKeys[p.Key] >= required
}

// drawScore is the contempt-avoidance jitter §9's Open Questions asks
// to keep: a repetition draw scores as −1+(nodes&2) rather than a flat
// zero, so the search prefers shuffling away from a draw over settling
// into one when an alternative of equal depth exists.
func (t *worker) drawScore() int {
	return -1 + int(t.nodes&2)
}

// isLateEndgame reports whether the side to move has no rook, queen,
// or more than one minor piece left — the null-move-pruning zugzwang
// guard of §4.4, grounded on the teacher's own isLateEndgame
// (pkg/engine/utils.go).
func isLateEndgame(p *board.Position) bool {
	own := p.PiecesByColor(p.WhiteMove)
	return (p.Rooks|p.Queens)&own == 0 && !board.MoreThanOne((p.Knights|p.Bishops)&own)
}

func isPromotion(m board.Move) bool { return m.Promotion() != board.Empty }

func pieceValue(piece int) int {
	switch piece {
	case board.Pawn:
		return 100
	case board.Knight, board.Bishop:
		return 400
	case board.Rook:
		return 600
	case board.Queen:
		return 1200
	default:
		return 0
	}
}

// searchRoot runs one alpha-beta call at ply 0, the entry point
// aspirationWindow drives.
func (t *worker) searchRoot(restrict []board.Move, alpha, beta, depth int) int {
	t.rootDepth = depth
	t.stack[0].excludedMove = board.MoveEmpty
	return t.alphaBeta(alpha, beta, depth, 0, restrict)
}

// alphaBeta is the one node body handling Root, PV and NonPV alike,
// the "deep template specialization by node kind" §9 asks to collapse
// into a single parameterised function. It follows the exact step
// order of §4.4, ported from pkg/engine/search.go's own alphaBeta and
// extended with razoring and the tablebase probe that file does not
// have.
func (t *worker) alphaBeta(alpha, beta, depth, ply int, rootRestrict []board.Move) int {
	if t.engine.tm.ct.isSet() {
		return 0
	}
	if ply >= MaxPly {
		if t.stack[ply].position.IsCheck() {
			return ValueDraw
		}
		return t.evaluator.Evaluate(&t.stack[ply].position, ValueMateInPly)
	}

	if ply > t.selDepth {
		t.selDepth = ply
	}
	t.clearPV(ply)
	rootNode := ply == 0
	pvNode := beta != alpha+1
	excluded := t.stack[ply].excludedMove
	position := &t.stack[ply].position
	isCheck := position.IsCheck()

	if !rootNode {
		if t.isRepeat(ply, pvNode) {
			return t.drawScore()
		}
		if position.IsDrawn() {
			return ValueDraw
		}
		if mateIn(ply+1) <= alpha {
			return alpha
		}
		if matedIn(ply+2) >= beta && !isCheck {
			return beta
		}
	}

	if isCheck {
		depth++
	}
	if depth <= 0 {
		return t.quiescence(alpha, beta, ply)
	}

	var ttMove board.Move
	var ttHit bool
	var ttScore, ttDepth int
	var ttBound BoundFlag
	if excluded == board.MoveEmpty {
		if e := t.engine.TT.Probe(position.Key); e.Found {
			ttHit = true
			ttMove = e.Move
			ttScore = fromTT(e.Score, ply)
			ttDepth = e.Depth
			ttBound = e.Bound
			if e.Depth >= depth && !pvNode {
				if ttScore >= beta && e.Bound&BoundLower != 0 {
					if ttMove != board.MoveEmpty && !ttMove.IsCaptureOrPromotion() {
						t.updateKiller(ttMove, ply)
					}
					return ttScore
				}
				if ttScore <= alpha && e.Bound&BoundUpper != 0 {
					return ttScore
				}
			}
		}
	}

	maxValue := ValueInfinite
	if !rootNode && excluded == board.MoveEmpty {
		if piecesOnBoard(position) <= t.engine.Prober.MaxPieces() {
			if tbScore, tbBound, ok := probeWDL(t.engine.Prober, position, ply); ok {
				t.tbHits++
				if tbBound == BoundExact ||
					(tbBound == BoundLower && tbScore >= beta) ||
					(tbBound == BoundUpper && tbScore <= alpha) {
					t.engine.TT.Store(position.Key, board.MoveEmpty, toTT(tbScore, ply), depth, tbBound)
					return tbScore
				}
				if pvNode && tbBound == BoundUpper && tbScore < maxValue {
					maxValue = tbScore
				}
			}
		}
	}

	// Static evaluation, with the TT score substituted in when a hit
	// gives us one for free — the cache-reuse step of §4.4.8.
	var eval int
	if ttHit && ttScore != ValueNone {
		eval = ttScore
	} else {
		eval = t.evaluator.Evaluate(position, ValueMateInPly)
	}
	t.stack[ply].staticEval = eval
	improving := ply < 2 || eval > t.stack[ply-2].staticEval

	opts := &t.engine.Options
	if opts.InternalIterativeReduce && depth >= internalIterativeReductionMinDepth && !ttHit {
		depth--
		if pvNode {
			depth--
		}
		if depth <= 0 {
			return t.quiescence(alpha, beta, ply)
		}
	}

	if !pvNode && !rootNode && !isCheck && excluded == board.MoveEmpty {
		if opts.Razoring && depth < razoringMaxDepth && eval+razoringMargin < alpha {
			return t.quiescence(alpha, beta, ply)
		}

		if opts.ReverseFutility && depth < reverseFutilityMaxDepth {
			score := eval - reverseFutilityCoeff*depth
			if improving {
				score += reverseFutilityImproving
			}
			if score >= beta && abs(beta) < ValueTBWinInMaxPly {
				return beta
			}
		}

		if opts.NullMovePruning && depth >= nullMoveMinDepth &&
			position.LastMove != board.MoveEmpty && eval >= beta &&
			!isLateEndgame(position) {
			r := nullMoveBaseReduce + min(nullMoveDepthCap, depth/nullMoveDepthDiv) +
				min(nullMoveEvalCap, (eval-beta)/nullMoveEvalDiv)
			if t.makeMove(board.MoveEmpty, ply) {
				nd := depth - 1 - r
				var score int
				if nd <= 0 {
					score = -t.quiescence(-beta, -(beta - 1), ply+1)
				} else {
					score = -t.alphaBeta(-beta, -(beta - 1), nd, ply+1, nil)
				}
				if score >= beta {
					if score >= ValueTBWinInMaxPly {
						score = beta
					}
					return score
				}
			}
		}

		if opts.Probcut {
			probcutBeta := beta + probcutMargin
			if depth >= probcutMinDepth && probcutBeta < ValueTBWinInMaxPly {
				mp := NewQuiescencePicker(position, t.stack[ply].moveBuffer[:0])
				for {
					move, _ := mp.Next()
					if move == board.MoveEmpty {
						break
					}
					if !position.SEE(move, 0) {
						continue
					}
					if !t.makeMove(move, ply) {
						continue
					}
					score := -t.quiescence(-probcutBeta, -probcutBeta+1, ply+1)
					if score >= probcutBeta {
						score = -t.alphaBeta(-probcutBeta, -probcutBeta+1, depth-4, ply+1, nil)
					}
					if score >= probcutBeta {
						return score
					}
				}
			}
		}
	}

	ttMoveIsSingular := false
	if opts.SingularExt && !rootNode && depth >= singularExtMinDepth && ttHit &&
		ttMove != board.MoveEmpty && excluded == board.MoveEmpty &&
		ttBound&BoundLower != 0 && ttDepth >= depth-singularExtTTSlack &&
		abs(ttScore) < ValueMateInPly {
		sBeta := ttScore - 3*depth
		t.stack[ply].excludedMove = ttMove
		score := t.alphaBeta(sBeta-1, sBeta, (depth-1)/2, ply, nil)
		t.stack[ply].excludedMove = excluded
		if score < sBeta {
			ttMoveIsSingular = true
		} else if sBeta >= beta {
			return sBeta
		}
	}

	hist := t.historyContextAt(ply)
	mp := NewMovePicker(position, ttMove, t.stack[ply].killer1, t.stack[ply].killer2, hist, t.stack[ply].moveBuffer[:0])
	if rootNode && rootRestrict != nil {
		mp.RestrictTo(rootRestrict)
	}

	quietsSearched := t.stack[ply].quietsSearched[:0]
	oldAlpha := alpha
	best := -ValueInfinite
	var bestMove board.Move
	movesSearched := 0
	quietsSeen := 0

	lmp := 4 + depth*depth

	for {
		move, _ := mp.Next()
		if move == board.MoveEmpty {
			break
		}
		if move == excluded {
			continue
		}
		noisy := move.IsCaptureOrPromotion()
		if !noisy {
			quietsSeen++
		}

		if !rootNode && best > ValueTBLossInMaxPly && !isCheck {
			if noisy {
				if opts.See && depth < seeCaptureMaxDepth && !position.SEE(move, -seeCaptureCoeff*depth) {
					continue
				}
			} else {
				if opts.Lmp && !pvNode && !isPromotion(move) && depth <= lateMovePruningMaxDepth && quietsSeen > lmp {
					continue
				}
				if opts.See && depth < seeQuietMaxDepth && !position.SEE(move, -seeQuietCoeff*depth) {
					continue
				}
			}
		}

		nodesBefore := t.nodes
		if !t.makeMove(move, ply) {
			continue
		}
		movesSearched++
		if rootNode && t.id == 0 && t.engine.CurrMoveFunc != nil &&
			time.Since(t.engine.start) >= currMoveReportDelay {
			t.engine.CurrMoveFunc(depth, move, movesSearched)
		}
		if !noisy {
			quietsSearched = append(quietsSearched, move)
		}

		child := &t.stack[ply+1].position
		extension := 0
		if opts.CheckExt && child.IsCheck() && depth >= checkExtensionMinDepth {
			extension = 1
		}
		if move == ttMove && ttMoveIsSingular {
			extension = 1
		}
		newDepth := depth - 1 + extension

		minMoveNumber := lmrMinMoveNumberNonPV
		if pvNode {
			minMoveNumber = lmrMinMoveNumberPV
		}

		reduction := 0
		if depth >= lmrMinDepth && !isCheck && !noisy && movesSearched > minMoveNumber {
			reduction = lmrReduction(depth, movesSearched)
			reduction -= t.id % 2
			if !improving {
				reduction++
			}
			if !pvNode {
				reduction++
			}
			if reduction < 0 {
				reduction = 0
			}
			if reduction > newDepth-1 {
				reduction = newDepth - 1
			}
		}

		var score int
		if reduction > 0 {
			reduced := newDepth - reduction
			if reduced < 1 {
				reduced = 1
			}
			if reduced > newDepth+1 {
				reduced = newDepth + 1
			}
			score = -t.alphaBeta(-(alpha + 1), -alpha, reduced, ply+1, nil)
			if score > alpha {
				score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, ply+1, nil)
			}
		} else if !pvNode || movesSearched > 1 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, ply+1, nil)
		} else {
			score = alpha + 1
		}

		if pvNode && (movesSearched == 1 || (score > alpha && score < beta)) {
			score = -t.alphaBeta(-beta, -alpha, newDepth, ply+1, nil)
		}

		if rootNode {
			t.recordEffort(move, t.nodes-nodesBefore)
		}

		if score > best {
			best = score
			bestMove = move
			if score > alpha {
				alpha = score
				t.assignPV(ply, move)
				if alpha >= beta {
					break
				}
			}
		}
	}

	if movesSearched == 0 {
		if excluded != board.MoveEmpty {
			return alpha
		}
		if isCheck {
			return matedIn(ply)
		}
		return ValueDraw
	}

	if pvNode && best > maxValue {
		best = maxValue
	}

	if best > oldAlpha && bestMove != board.MoveEmpty && !bestMove.IsCaptureOrPromotion() {
		hist.update(quietsSearched, bestMove, depth)
		t.updateKiller(bestMove, ply)
	}

	if excluded == board.MoveEmpty {
		bound := BoundNone
		if best >= beta {
			bound = BoundLower
		} else if pvNode && bestMove != board.MoveEmpty {
			bound = BoundExact
		} else {
			bound = BoundUpper
		}
		if !(rootNode && bound == BoundUpper) {
			t.engine.TT.Store(position.Key, bestMove, toTT(best, ply), depth, bound)
		}
	}

	return best
}

// quiescence is §4.3's noisy-move-only search: stand-pat, then walk
// captures (and, in check, every evasion) via the quiescence move
// picker, pruning with delta and SEE margins.
func (t *worker) quiescence(alpha, beta, ply int) int {
	if ply > t.selDepth {
		t.selDepth = ply
	}
	t.clearPV(ply)
	position := &t.stack[ply].position
	if t.isRepeat(ply, false) {
		return t.drawScore()
	}
	if position.IsDrawn() {
		return ValueDraw
	}
	if ply >= MaxPly {
		return t.evaluator.Evaluate(position, ValueMateInPly)
	}

	if e := t.engine.TT.Probe(position.Key); e.Found {
		ttScore := fromTT(e.Score, ply)
		if e.Bound == BoundExact ||
			(e.Bound&BoundLower != 0 && ttScore >= beta) ||
			(e.Bound&BoundUpper != 0 && ttScore <= alpha) {
			return ttScore
		}
	}

	isCheck := position.IsCheck()
	best := -ValueInfinite
	if !isCheck {
		eval := t.evaluator.Evaluate(position, ValueMateInPly)
		best = eval
		if eval > alpha {
			alpha = eval
		}
		if alpha >= beta {
			return alpha
		}
	}

	mp := NewQuiescencePicker(position, t.stack[ply].moveBuffer[:0])
	bestMove := board.MoveEmpty
	hasLegalMove := false
	for {
		move, _ := mp.Next()
		if move == board.MoveEmpty {
			break
		}
		if best > ValueTBLossInMaxPly && !isCheck {
			if !isPromotion(move) && best+400+pieceValue(move.CapturedPiece()) < alpha {
				continue
			}
			if !position.SEE(move, 0) {
				continue
			}
		}
		if !t.makeMove(move, ply) {
			continue
		}
		hasLegalMove = true
		score := -t.quiescence(-beta, -alpha, ply+1)
		if score > best {
			best = score
			bestMove = move
			if score > alpha {
				alpha = score
				t.assignPV(ply, move)
				if alpha >= beta {
					break
				}
			}
		}
	}

	if isCheck && !hasLegalMove {
		return matedIn(ply)
	}

	bound := BoundUpper
	if best >= beta {
		bound = BoundLower
	}
	t.engine.TT.Store(position.Key, bestMove, toTT(best, ply), 0, bound)

	return best
}

func piecesOnBoard(p *board.Position) int {
	return board.PopCount(p.AllPieces())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
