package search

import (
	"testing"

	"github.com/kestrel-chess/kestrel/internal/board"
)

func drain(mp *MovePicker) []board.Move {
	var out []board.Move
	for {
		m, stage := mp.Next()
		if m == board.MoveEmpty && stage == stageDone {
			return out
		}
		out = append(out, m)
	}
}

func TestMovePickerYieldsTTMoveFirst(t *testing.T) {
	p, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	tt := board.NewMove(board.SquareE2, board.SquareE4, board.Pawn, board.Empty)
	var buf [board.MaxMoves]board.Move
	mp := NewMovePicker(&p, tt, board.MoveEmpty, board.MoveEmpty, historyContext{}, buf[:])
	moves := drain(mp)
	if len(moves) == 0 || moves[0] != tt {
		t.Fatalf("expected TT move first, got %v", moves)
	}
	if len(moves) != 20 {
		t.Fatalf("expected 20 pseudo-legal moves from the start position, got %d", len(moves))
	}
}

func TestMovePickerNeverDuplicatesTTMove(t *testing.T) {
	p, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	tt := board.NewMove(board.SquareE2, board.SquareE4, board.Pawn, board.Empty)
	var buf [board.MaxMoves]board.Move
	mp := NewMovePicker(&p, tt, board.MoveEmpty, board.MoveEmpty, historyContext{}, buf[:])
	moves := drain(mp)
	count := 0
	for _, m := range moves {
		if m == tt {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("TT move must be yielded exactly once, got %d", count)
	}
}

func TestQuiescencePickerSkipsQuietMoves(t *testing.T) {
	p, err := board.NewPositionFromFEN("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	if err != nil {
		t.Fatal(err)
	}
	var buf [board.MaxMoves]board.Move
	mp := NewQuiescencePicker(&p, buf[:])
	moves := drain(mp)
	for _, m := range moves {
		if !m.IsCaptureOrPromotion() {
			t.Fatalf("quiescence picker yielded a quiet move %s", m)
		}
	}
}

func TestQuiescencePickerYieldsQuietEvasionsWhenInCheck(t *testing.T) {
	// Black king on e8 in check from a rook on e1 with no capture or
	// blocking piece available: the only legal replies are king moves,
	// all of them quiet.
	p, err := board.NewPositionFromFEN("4k3/8/8/8/8/8/8/4R2K b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var buf [board.MaxMoves]board.Move
	mp := NewQuiescencePicker(&p, buf[:])
	moves := drain(mp)
	if len(moves) == 0 {
		t.Fatal("quiescence must fall back to full evasions when in check, not report no moves")
	}
	for _, m := range moves {
		if m.IsCaptureOrPromotion() {
			t.Fatalf("no capture or promotion is legal here, got %s", m)
		}
	}
}

func TestMovePickerRestrictToSearchMoves(t *testing.T) {
	p, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	restrict := []board.Move{board.NewMove(board.SquareE2, board.SquareE4, board.Pawn, board.Empty)}
	var buf [board.MaxMoves]board.Move
	mp := NewMovePicker(&p, board.MoveEmpty, board.MoveEmpty, board.MoveEmpty, historyContext{}, buf[:])
	mp.RestrictTo(restrict)
	moves := drain(mp)
	if len(moves) != 1 || moves[0] != restrict[0] {
		t.Fatalf("expected only the restricted move, got %v", moves)
	}
}
