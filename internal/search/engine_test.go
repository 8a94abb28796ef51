package search

import (
	"context"
	"testing"
	"time"

	"github.com/kestrel-chess/kestrel/internal/board"
)

func newTestEngine() *Engine {
	e := NewEngine(func() Evaluator { return materialEvaluator{} }, nil)
	e.Options.Hash = 1
	e.Options.Threads = 1
	return e
}

func searchFEN(t *testing.T, fen string, depth int) Info {
	t.Helper()
	pos, err := board.NewPositionFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine()
	return e.Search(context.Background(), []board.Position{pos}, Limits{Depth: depth})
}

func TestSearchFindsForcedMateInOne(t *testing.T) {
	// The classic two-move fool's mate: 1.f3 e5 2.g4 Qh4#.
	info := searchFEN(t, "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2", 4)
	if info.Score < ValueMateInPly {
		t.Fatalf("expected a mate score, got %d", info.Score)
	}
	if len(info.PV) == 0 {
		t.Fatal("expected a non-empty principal variation")
	}
	best := info.PV[0]
	if best.To() != board.SquareH4 || best.MovingPiece() != board.Queen {
		t.Fatalf("expected Qh4#, got %s", best)
	}
}

func TestSearchFindsBackRankMateInOne(t *testing.T) {
	// a1a8#: a back-rank mate; the rook checks along the eighth rank
	// and black's own f7/g7/h7 pawns leave the king no flight square.
	info := searchFEN(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", 1)
	if len(info.PV) == 0 {
		t.Fatal("expected a non-empty principal variation")
	}
	best := info.PV[0]
	if best.From() != board.SquareA1 || best.To() != board.SquareA8 {
		t.Fatalf("expected a1a8#, got %s", best)
	}
	if info.Score < ValueMateInPly {
		t.Fatalf("expected a mate score, got %d", info.Score)
	}
}

func TestSearchOnSameColorBishopsIsADraw(t *testing.T) {
	// King and a dark-squared bishop each: with both bishops on the
	// same square color there isn't enough force on the board to
	// force checkmate, a textbook insufficient-material draw.
	info := searchFEN(t, "8/2k1b3/8/8/8/4B3/2K5/8 w - - 0 1", 3)
	if info.Score != ValueDraw {
		t.Fatalf("expected a drawn score, got %d", info.Score)
	}
}

func TestSearchOnStalemateReportsNoMoves(t *testing.T) {
	// Black to move, king h8, boxed in by a white queen on f7 shielded
	// by the white king on g6: no legal move, not in check.
	info := searchFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 4)
	if len(info.PV) != 0 {
		t.Fatalf("a stalemated side has no move to report, got %v", info.PV)
	}
}

func TestSearchOnBareKingsIsADraw(t *testing.T) {
	info := searchFEN(t, "8/8/4k3/8/8/8/4K3/8 w - - 0 1", 3)
	if info.Score != ValueDraw {
		t.Fatalf("two bare kings must score as a draw, got %d", info.Score)
	}
}

func TestSearchRespectsExplicitMoveTime(t *testing.T) {
	pos, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine()
	e.Options.Threads = 1
	start := time.Now()
	info := e.Search(context.Background(), []board.Position{pos}, Limits{MoveTime: 50 * time.Millisecond, Depth: 6})
	if info.Depth == 0 {
		t.Fatal("expected at least one completed iteration")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("search overran its move time budget: %v", elapsed)
	}
}
