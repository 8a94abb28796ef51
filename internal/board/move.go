package board

import "strings"

// Move packs from/to/moving-piece/captured-piece/promotion into a
// single int32, exactly as the teacher's common.Move does.
type Move int32

const MoveEmpty Move = 0

func NewMove(from, to, movingPiece, capturedPiece int) Move {
	return Move(from | (to << 6) | (movingPiece << 12) | (capturedPiece << 15))
}

func (m Move) From() int          { return int(m & 63) }
func (m Move) To() int            { return int((m >> 6) & 63) }
func (m Move) MovingPiece() int   { return int((m >> 12) & 7) }
func (m Move) CapturedPiece() int { return int((m >> 15) & 7) }
func (m Move) Promotion() int     { return int((m >> 18) & 7) }

func (m Move) IsCaptureOrPromotion() bool {
	return m.CapturedPiece() != Empty || m.Promotion() != Empty
}

// String renders the move in UCI long-algebraic form. It is the
// `uciMove` operation of §6 (chess960 castling notation is not
// supported; this engine always emits king-captures-own-rook-free
// O-O/O-O-O as a plain king move, matching standard-chess UCI).
func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	var promo string
	if p := m.Promotion(); p != Empty {
		promo = string("_nbrq"[p-Pawn])
	}
	return SquareName(m.From()) + SquareName(m.To()) + promo
}

var promotionPieces = [...]int{Knight, Bishop, Rook, Queen}

// ConvertUciToMove parses a UCI long-algebraic move against the legal
// moves of p, satisfying the `convertUciToMove` contract of §6.
func ConvertUciToMove(p *Position, s string) Move {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return MoveEmpty
	}
	var buf [MaxMoves]Move
	for _, mv := range p.GenerateLegalMoves(buf[:0]) {
		if strings.EqualFold(mv.String(), s) {
			return mv
		}
	}
	return MoveEmpty
}
