package search

import (
	"context"
	"testing"

	"github.com/kestrel-chess/kestrel/internal/board"
)

// TestSearchMirrorSymmetry is the mate-symmetry law's self-play
// harness: for any position p, search(p).score must equal
// -search(mirror(p)).score, since mirroring only swaps which side is
// to move and relabels squares, it can't change who's winning by how
// much.
func TestSearchMirrorSymmetry(t *testing.T) {
	for _, fen := range []string{
		"4k3/8/8/8/8/4P3/8/4K3 w - - 0 1",
		"r3k2r/pp3ppp/2n1bn2/3p4/3P4/2N1BN2/PP3PPP/R3K2R w KQkq - 0 1",
		"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
	} {
		pos, err := board.NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		mirrored := board.Mirror(&pos)

		straight := newTestEngine().Search(context.Background(), []board.Position{pos}, Limits{Depth: 4})
		reflected := newTestEngine().Search(context.Background(), []board.Position{mirrored}, Limits{Depth: 4})

		if straight.Score != -reflected.Score {
			t.Fatalf("%s: search(p).score=%d, search(mirror(p)).score=%d, want negatives of each other",
				fen, straight.Score, reflected.Score)
		}
	}
}
