package search

import "github.com/kestrel-chess/kestrel/internal/board"

// aspirationSearch narrows searchRoot's window around the previous
// iteration's score once the search is deep enough for the guess to be
// trustworthy, widening on either side whenever the narrow window
// fails, the way the teacher's aspirationWindow does — generalized to
// §4.5's own widening schedule (delta grows by half itself on every
// miss, and the window opens to the full range once a bound's
// magnitude passes aspirationWideningBound).
func (t *worker) aspirationSearch(restrict []board.Move, depth, prevScore int) int {
	if !t.engine.Options.AspirationWindows ||
		depth < aspirationMinDepth ||
		prevScore <= -ValueTBWinInMaxPly || prevScore >= ValueTBWinInMaxPly {
		return t.searchRoot(restrict, -ValueInfinite, ValueInfinite, depth)
	}

	var (
		delta = aspirationWindow
		alpha = max(-ValueInfinite, prevScore-delta)
		beta  = min(ValueInfinite, prevScore+delta)
	)

	for {
		score := t.searchRoot(restrict, alpha, beta, depth)
		switch {
		case score <= alpha:
			beta = (alpha + beta) / 2
			alpha = max(-ValueInfinite, alpha-delta)
		case score >= beta:
			beta = min(ValueInfinite, beta+delta)
		default:
			return score
		}
		delta += delta / 2
		if abs(alpha) >= aspirationWideningBound || abs(beta) >= aspirationWideningBound {
			alpha, beta = -ValueInfinite, ValueInfinite
		}
	}
}
