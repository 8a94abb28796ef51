package search

import (
	"testing"

	"github.com/kestrel-chess/kestrel/internal/board"
	"github.com/kestrel-chess/kestrel/internal/tablebase"
)

// materialEvaluator is a minimal Evaluator standing in for
// internal/eval in these unit tests: material count only, no scratch
// state to worry about sharing across workers.
type materialEvaluator struct{}

func (materialEvaluator) Evaluate(p *board.Position, mateBound int) int {
	score := board.PopCount(p.Pawns&p.White)*100 - board.PopCount(p.Pawns&p.Black)*100
	if !p.WhiteMove {
		score = -score
	}
	return score
}

func newTestWorker(t *testing.T, fen string) *worker {
	t.Helper()
	pos, err := board.NewPositionFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	e := &Engine{
		Options: NewOptions(),
		TT:      NewTransTable(1),
		Prober:  tablebase.None{},
	}
	e.tm = &timeManager{depthCap: MaxPly}
	w := &worker{id: 0, engine: e, evaluator: materialEvaluator{}}
	w.stack[0].position = pos
	return w
}

func TestAspirationSearchBelowMinDepthUsesFullWindow(t *testing.T) {
	w := newTestWorker(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	var buf [board.MaxMoves]board.Move
	moves := w.stack[0].position.GenerateLegalMoves(buf[:0])

	got := w.aspirationSearch(moves, aspirationMinDepth-1, 0)
	want := w.searchRoot(moves, -ValueInfinite, ValueInfinite, aspirationMinDepth-1)
	if got != want {
		t.Fatalf("shallow depths must bypass the window: got %d want %d", got, want)
	}
}

func TestAspirationSearchBypassesWindowNearMateScores(t *testing.T) {
	w := newTestWorker(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	var buf [board.MaxMoves]board.Move
	moves := w.stack[0].position.GenerateLegalMoves(buf[:0])

	got := w.aspirationSearch(moves, aspirationMinDepth+1, ValueTBWinInMaxPly)
	want := w.searchRoot(moves, -ValueInfinite, ValueInfinite, aspirationMinDepth+1)
	if got != want {
		t.Fatalf("a mate-bound guess must not be windowed: got %d want %d", got, want)
	}
}
