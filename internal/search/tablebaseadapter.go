package search

import (
	"github.com/kestrel-chess/kestrel/internal/board"
	"github.com/kestrel-chess/kestrel/internal/tablebase"
)

// probeWDL is §4.4 step 7's interior-node tablebase consultation: a
// WDL hit becomes a mate-distance-encoded score with the bound flag
// the caller should store, or ok=false when the prober declined
// (piece count too high, or no table loaded for that material).
func probeWDL(pr tablebase.Prober, p *board.Position, ply int) (score int, bound BoundFlag, ok bool) {
	wdl := tablebase.Probe(pr, p)
	switch wdl {
	case tablebase.Win:
		return ValueTBWin - ply, BoundLower, true
	case tablebase.Loss:
		return ValueTBLoss + ply, BoundUpper, true
	case tablebase.Draw:
		return ValueDraw, BoundExact, true
	default:
		return 0, BoundNone, false
	}
}

// probeRootDTZ is §4.6's "at start of thinking" root probe: on a hit it
// reports the suggested move directly, short-circuiting the search.
// The prober only names squares and a promotion kind, so the result is
// resolved against the legal move list rather than reconstructed by
// hand, keeping the move's packed piece fields honest.
func probeRootDTZ(pr tablebase.Prober, p *board.Position) (move board.Move, ok bool) {
	res := tablebase.ProbeRoot(pr, p)
	if !res.OK {
		return board.MoveEmpty, false
	}
	var buf [board.MaxMoves]board.Move
	for _, m := range p.GenerateLegalMoves(buf[:0]) {
		if m.From() == res.From && m.To() == res.To && m.Promotion() == res.Promotion {
			return m, true
		}
	}
	return board.MoveEmpty, false
}
