package tablebase

import (
	"testing"

	"github.com/kestrel-chess/kestrel/internal/board"
)

func TestNoneIsAlwaysUnavailable(t *testing.T) {
	p, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var n None
	if got := Probe(n, &p); got != Unavailable {
		t.Fatalf("None.ProbeWDL via Probe = %v, want Unavailable", got)
	}
	if got := ProbeRoot(n, &p); got.OK {
		t.Fatalf("None.ProbeRoot via ProbeRoot = %+v, want OK=false", got)
	}
}

type fakeProber struct {
	max int
}

func (f fakeProber) MaxPieces() int { return f.max }
func (f fakeProber) ProbeWDL(*board.Position) WDL {
	return Win
}
func (f fakeProber) ProbeRoot(p *board.Position) RootResult {
	return RootResult{From: board.SquareA1, To: board.SquareA8, WDL: Win, DTZ: 1, OK: true}
}

func TestProbeRespectsPieceCountGate(t *testing.T) {
	p, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	small := fakeProber{max: 3}
	if got := Probe(small, &p); got != Unavailable {
		t.Fatalf("piece count above MaxPieces must report Unavailable, got %v", got)
	}

	large := fakeProber{max: 32}
	if got := Probe(large, &p); got != Win {
		t.Fatalf("piece count within MaxPieces should reach the prober, got %v", got)
	}
}
