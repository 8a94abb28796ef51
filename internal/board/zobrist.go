package board

import "math/rand"

// The Zobrist tables are seeded deterministically so that a hash
// computed today matches one computed on any other run of this binary,
// which is what the round-trip and seed-position tests in §8 rely on.
var (
	sideToMoveKey  uint64
	enPassantKey   [8]uint64
	castleKey      [16]uint64
	pieceSquareKey [7 * 2 * 64]uint64
)

func pieceIndex(piece int, white bool) int {
	if white {
		return piece*2 + 1
	}
	return piece * 2
}

func PieceSquareKey(piece int, white bool, sq int) uint64 {
	return pieceSquareKey[pieceIndex(piece, white)*64+sq]
}

func init() {
	var r = rand.New(rand.NewSource(1070372))
	sideToMoveKey = r.Uint64()
	for i := range enPassantKey {
		enPassantKey[i] = r.Uint64()
	}
	for i := range pieceSquareKey {
		pieceSquareKey[i] = r.Uint64()
	}
	var singleRight [4]uint64
	for i := range singleRight {
		singleRight[i] = r.Uint64()
	}
	for mask := 0; mask < 16; mask++ {
		for bit := 0; bit < 4; bit++ {
			if mask&(1<<uint(bit)) != 0 {
				castleKey[mask] ^= singleRight[bit]
			}
		}
	}
}

func (p *Position) computeKey() uint64 {
	var key uint64
	if p.WhiteMove {
		key ^= sideToMoveKey
	}
	key ^= castleKey[p.CastleRights]
	if p.EpSquare != SquareNone {
		key ^= enPassantKey[File(p.EpSquare)]
	}
	for sq := 0; sq < 64; sq++ {
		piece, white, ok := p.pieceOn(sq)
		if ok {
			key ^= PieceSquareKey(piece, white, sq)
		}
	}
	return key
}
