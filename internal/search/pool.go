package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrel-chess/kestrel/internal/board"
)

// searchTask is one iteration's assignment to a worker: the depth to
// search and the previous iteration's best move/score, carried over so
// move ordering and the aspiration window both start from where the
// last depth finished, mirroring the teacher's own searchTask
// (pkg/engine/lazysmp.go).
type searchTask struct {
	depth int
	move  board.Move
	score int
}

// Search is the engine's top-level entry point: it sets up the root
// position and time budget, probes the tablebase for an instant root
// move per §4.6, then runs the iterative-deepening worker pool until
// the time manager or ctx calls it off, reporting progress through
// ProgressFunc as each depth completes.
func (e *Engine) Search(ctx context.Context, positions []board.Position, limits Limits) Info {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.prepare()
	root := &positions[len(positions)-1]
	e.historyKeys = historyKeysFromGame(positions)
	e.tm = newTimeManager(limits, root.WhiteMove)
	e.nodes = 0
	e.tbHits = 0
	e.start = time.Now()

	var rootMoves []board.Move
	var buf [board.MaxMoves]board.Move
	rootMoves = root.GenerateLegalMoves(buf[:0])
	if len(limits.SearchMoves) > 0 {
		rootMoves = restrictMoves(rootMoves, limits.SearchMoves)
	}
	if len(rootMoves) == 0 {
		return e.currentResult()
	}
	e.mainLine = mainLine{depth: 0, score: 0, moves: []board.Move{rootMoves[0]}}

	if move, ok := probeRootDTZ(e.Prober, root); ok && !limits.Infinite {
		e.mainLine = mainLine{depth: 1, score: 0, moves: []board.Move{move}}
		return e.currentResult()
	}

	for i := range e.workers {
		w := &e.workers[i]
		w.nodes = 0
		w.pollCounter = 0
		w.stack[0].position = *root
		for ply := 0; ply <= 2 && ply < stackSize; ply++ {
			w.stack[ply].killer1 = board.MoveEmpty
			w.stack[ply].killer2 = board.MoveEmpty
		}
	}

	if len(rootMoves) == 1 {
		e.runSingleReply(rootMoves[0])
		return e.currentResult()
	}

	go func() {
		<-ctx.Done()
		e.tm.ct.cancel()
	}()

	tasks := make(chan searchTask)
	results := make(chan iterationResult)

	var group errgroup.Group
	for i := range e.workers {
		w := &e.workers[i]
		moves := cloneMoves(rootMoves)
		group.Go(func() error {
			runWorkerTasks(w, moves, tasks, results)
			return nil
		})
	}
	go func() {
		group.Wait()
		close(results)
	}()

	e.driveIterations(tasks, results)
	return e.currentResult()
}

// runSingleReply handles the forced-move case: there is nothing to
// search, so the one legal move is reported at depth 1 without
// spending any time, the way a front end expects for a single-response
// position.
func (e *Engine) runSingleReply(move board.Move) {
	e.mainLine = mainLine{depth: 1, score: 0, moves: []board.Move{move}}
	if e.ProgressFunc != nil {
		e.ProgressFunc(e.currentResult())
	}
}

func restrictMoves(all, restrict []board.Move) []board.Move {
	out := all[:0]
	for _, m := range all {
		for _, r := range restrict {
			if m == r {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func cloneMoves(ml []board.Move) []board.Move {
	out := make([]board.Move, len(ml))
	copy(out, ml)
	return out
}

// iterationResult is one worker's completed depth, fed back to the
// driving goroutine through the results channel.
type iterationResult struct {
	depth    int
	score    int
	moves    []board.Move
	nodes    int64
	tbHits   int64
	selDepth int
}

// runWorkerTasks is a worker's goroutine body: pull a depth assignment,
// run the aspiration-windowed root search, report back, repeat until
// the task channel closes or a timeout panic unwinds the stack — the
// teacher's searchDepth (pkg/engine/lazysmp.go) restructured around
// Go's errgroup instead of a bare sync.WaitGroup.
func runWorkerTasks(t *worker, ml []board.Move, tasks <-chan searchTask, results chan<- iterationResult) {
	defer func() {
		if r := recover(); r != nil {
			if r == errSearchTimeout {
				return
			}
			panic(r)
		}
	}()

	for task := range tasks {
		if task.move != board.MoveEmpty {
			moveToFront(ml, task.move)
		}
		t.stack[0].excludedMove = board.MoveEmpty
		t.selDepth = 0
		score := t.aspirationSearch(ml, task.depth, task.score)
		pv := t.stack[0].pv.slice()
		if len(pv) == 0 {
			pv = []board.Move{ml[0]}
		}
		results <- iterationResult{
			depth:    task.depth,
			score:    score,
			moves:    pv,
			nodes:    t.nodes,
			tbHits:   t.tbHits,
			selDepth: t.selDepth,
		}
		t.nodes = 0
		t.tbHits = 0
	}
}

func moveToFront(ml []board.Move, m board.Move) {
	for i, candidate := range ml {
		if candidate == m {
			ml[0], ml[i] = ml[i], ml[0]
			return
		}
	}
}

// timeManagementState carries the running values §4.6's adaptive
// stopping rule folds across depths: the moving optimum/maximum budget,
// the score running average, and the best-move stability counter.
type timeManagementState struct {
	optimum         float64 // ns
	maximum         float64 // ns
	scoreSum        int
	scoreCount      int
	bestMoveChanges int
	lastBest        board.Move
	stop            bool
}

// driveIterations is the engine-wide iterative-deepening loop: it hands
// out the next depth to whichever worker asks, folds in every completed
// result that deepens the main line, and applies §4.6's adaptive
// stopping rule after each one, grounded on the teacher's
// iterativeDeepening (pkg/engine/lazysmp.go).
func (e *Engine) driveIterations(tasks chan<- searchTask, results <-chan iterationResult) {
	var searchCountByDepth [stackSize]int
	tms := &timeManagementState{
		optimum: float64(e.tm.soft),
		maximum: float64(e.tm.hard),
	}

	for {
		depth := e.mainLine.depth + 1
		if depth < len(searchCountByDepth) && searchCountByDepth[depth] >= (e.Options.Threads+1)/2 {
			depth = e.mainLine.depth + 2
		}

		pastDepthCap := depth > e.tm.depthCap && !e.tm.infinite
		done := pastDepthCap || e.tm.ct.isSet() || (!e.tm.infinite && tms.stop)
		if done && tasks != nil {
			close(tasks)
			tasks = nil
		}

		if tasks != nil {
			startMove := board.MoveEmpty
			if len(e.mainLine.moves) > 0 {
				startMove = e.mainLine.moves[0]
			}
			select {
			case result, ok := <-results:
				if !ok {
					return
				}
				e.foldResult(result, tms)
			case tasks <- searchTask{depth: depth, move: startMove, score: e.mainLine.score}:
				searchCountByDepth[depth]++
			}
			continue
		}

		result, ok := <-results
		if !ok {
			return
		}
		e.foldResult(result, tms)
	}
}

// foldResult absorbs one worker's completed depth into the engine-wide
// main line and, for every result that deepens it, whichever worker
// produced it, updates the §4.6 adaptive time budget: extend
// `optimum` when the score just dropped 30cp below its running
// average or the best move has been unstable, then decide whether the
// elapsed time and the winning move's search effort already justify
// stopping.
func (e *Engine) foldResult(result iterationResult, tms *timeManagementState) {
	e.nodes += result.nodes
	e.tbHits += result.tbHits
	if result.depth <= e.mainLine.depth {
		return
	}
	e.mainLine = mainLine{
		depth:    result.depth,
		score:    result.score,
		moves:    result.moves,
		nodes:    e.nodes,
		selDepth: result.selDepth,
	}

	if tms.scoreCount > 0 {
		average := tms.scoreSum / tms.scoreCount
		if result.score < average-30 {
			tms.optimum *= 1.10
		}
	}
	tms.scoreSum += result.score
	tms.scoreCount++

	best := result.moves[0]
	if best != tms.lastBest {
		if tms.lastBest != board.MoveEmpty {
			tms.bestMoveChanges++
		}
		tms.lastBest = best
	}
	if tms.bestMoveChanges > 4 {
		tms.optimum = tms.maximum * 0.75
	}

	if result.depth > 10 && e.tm.soft > 0 {
		elapsed := float64(e.tm.elapsed())
		effort := 0
		if result.nodes > 0 {
			effort = int(100 * e.workers[0].history.effort[fromToIndex(best)] / result.nodes)
		}
		if effort > 90 {
			effort = 90
		}
		if tms.optimum*float64(110-effort)/100 < elapsed {
			tms.stop = true
		}
		if 10*elapsed > 6*tms.optimum {
			tms.stop = true
		}
	}

	if e.ProgressFunc != nil {
		e.ProgressFunc(e.currentResult())
	}
}
