package eval

import (
	"testing"

	"github.com/kestrel-chess/kestrel/internal/board"
)

func TestStartPositionIsBalanced(t *testing.T) {
	p, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvaluator()
	if v := e.Evaluate(&p, 30000); v != 0 {
		t.Fatalf("start position should evaluate to 0, got %d", v)
	}
}

func TestExtraQueenIsWinning(t *testing.T) {
	p, err := board.NewPositionFromFEN("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvaluator()
	if v := e.Evaluate(&p, 30000); v <= 500 {
		t.Fatalf("king+queen vs king should evaluate well above 500cp for white, got %d", v)
	}
}

func TestFiftyMoveScalingShrinksScore(t *testing.T) {
	fen := "4k3/8/8/8/8/8/8/3QK3 w - - 0 1"
	fresh, err := board.NewPositionFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	stale, err := board.NewPositionFromFEN("4k3/8/8/8/8/8/8/3QK3 w - - 90 1")
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvaluator()
	freshScore := e.Evaluate(&fresh, 30000)
	staleScore := e.Evaluate(&stale, 30000)
	if staleScore >= freshScore {
		t.Fatalf("evaluation near the fifty-move mark should shrink: fresh=%d stale=%d", freshScore, staleScore)
	}
}

func TestEvaluateNeverReachesMateBound(t *testing.T) {
	p, err := board.NewPositionFromFEN("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvaluator()
	if v := e.Evaluate(&p, 10); v >= 10 || v <= -10 {
		t.Fatalf("evaluation must stay clamped inside the mate bound, got %d", v)
	}
}
