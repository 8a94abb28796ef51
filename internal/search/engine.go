package search

import (
	"sync"
	"time"

	"github.com/kestrel-chess/kestrel/internal/board"
	"github.com/kestrel-chess/kestrel/internal/tablebase"
)

// Evaluator is the collaborator contract §6 names for the evaluation
// function: a centipawn score from the side to move's perspective,
// already fifty-move-scaled and clamped away from mateBound.
// internal/eval.Evaluator satisfies this without either package
// importing the other.
type Evaluator interface {
	Evaluate(p *board.Position, mateBound int) int
}

// mainLine is the engine-wide best result so far, updated as deeper
// iterations complete, in the shape of the teacher's own mainLine
// (pkg/engine/engine.go).
type mainLine struct {
	depth    int
	score    int
	moves    []board.Move
	nodes    int64
	selDepth int
}

// Info is one progress report, the data behind the `info depth ...`
// line of §6's protocol surface; the UCI front end formats it, the
// search core only fills it in.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    int64
	NPS      int64
	TBHits   int64
	HashFull int
	Time     time.Duration
	PV       []board.Move
}

// Engine owns every piece of process-wide mutable state a search
// needs — options, the shared transposition table, and the worker
// pool — borrowed by value into each call to Search rather than kept
// as package-level globals, the restructuring §9's "Global mutable
// state" note asks for relative to the teacher's own package-level
// Engine singleton pattern.
type Engine struct {
	Options      Options
	TT           *TransTable
	Prober       tablebase.Prober
	evalBuilder  func() Evaluator
	ProgressFunc func(Info)
	CurrMoveFunc func(depth int, move board.Move, moveNumber int)

	workers     []worker
	historyKeys map[uint64]int
	mainLine    mainLine
	tm          *timeManager
	nodes       int64
	tbHits      int64
	start       time.Time
	mu          sync.Mutex
}

// NewEngine builds an Engine around an evaluator factory, one call per
// worker, mirroring the teacher's own evalBuilder indirection
// (pkg/engine/engine.go's buildEvaluator) since internal/eval.Evaluator
// keeps per-call scratch state and cannot be shared across workers.
func NewEngine(evalBuilder func() Evaluator, prober tablebase.Prober) *Engine {
	if prober == nil {
		prober = tablebase.None{}
	}
	return &Engine{
		Options:     NewOptions(),
		TT:          NewTransTable(16),
		Prober:      prober,
		evalBuilder: evalBuilder,
	}
}

// Prepare (re)allocates workers and the transposition table to match
// the current Options ahead of the next search, the way the teacher's
// Engine.Prepare responds to `isready` before `uciok`/`readyok`.
func (e *Engine) Prepare() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prepare()
}

// prepare is Prepare's unlocked body, also called at the top of every
// Search so a front end that skips isready still gets a consistent
// worker pool.
func (e *Engine) prepare() {
	if e.TT == nil || e.TT.Megabytes() != e.Options.Hash {
		e.TT = NewTransTable(e.Options.Hash)
	}
	if len(e.workers) != e.Options.Threads {
		e.workers = make([]worker, e.Options.Threads)
		for i := range e.workers {
			w := &e.workers[i]
			w.id = i
			w.engine = e
			w.evaluator = e.evalBuilder()
		}
	}
}

// SetProgressFunc installs the callback Search reports each completed
// depth through, satisfying uci.Engine's wiring hook.
func (e *Engine) SetProgressFunc(f func(Info)) { e.ProgressFunc = f }

// SetCurrMoveFunc installs the callback the main worker reports each
// root move through, once §6's ten-second delay has passed.
func (e *Engine) SetCurrMoveFunc(f func(depth int, move board.Move, moveNumber int)) {
	e.CurrMoveFunc = f
}

// NewGame clears the table and every worker's history, the `ucinewgame`
// boundary §4.1 calls "zeroed on new game".
func (e *Engine) NewGame() {
	if e.TT != nil {
		e.TT.Clear()
	}
	for i := range e.workers {
		e.workers[i].history.clear()
	}
}

func historyKeysFromGame(positions []board.Position) map[uint64]int {
	result := make(map[uint64]int)
	for i := len(positions) - 1; i >= 0; i-- {
		p := &positions[i]
		result[p.Key]++
		if p.Rule50 == 0 {
			break
		}
	}
	return result
}

func (e *Engine) currentResult() Info {
	elapsed := time.Since(e.start)
	nps := int64(0)
	if elapsed > 0 {
		nps = int64(float64(e.nodes) / elapsed.Seconds())
	}
	hashfull := 0
	if e.TT != nil {
		hashfull = e.TT.Hashfull()
	}
	return Info{
		Depth:    e.mainLine.depth,
		SelDepth: e.mainLine.selDepth,
		Score:    e.mainLine.score,
		Nodes:    e.nodes,
		NPS:      nps,
		TBHits:   e.tbHits,
		Time:     elapsed,
		PV:       e.mainLine.moves,
		HashFull: hashfull,
	}
}
