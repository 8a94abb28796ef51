package board

var (
	f1g1Mask = SquareMask[SquareF1] | SquareMask[SquareG1]
	b1d1Mask = SquareMask[SquareB1] | SquareMask[SquareC1] | SquareMask[SquareD1]
	f8g8Mask = SquareMask[SquareF8] | SquareMask[SquareG8]
	b8d8Mask = SquareMask[SquareB8] | SquareMask[SquareC8] | SquareMask[SquareD8]
)

var (
	whiteCastleKing  = NewMove(SquareE1, SquareG1, King, Empty)
	whiteCastleQueen = NewMove(SquareE1, SquareC1, King, Empty)
	blackCastleKing  = NewMove(SquareE8, SquareG8, King, Empty)
	blackCastleQueen = NewMove(SquareE8, SquareC8, King, Empty)
)

func appendPromotions(ml []Move, base Move) []Move {
	for _, promo := range promotionPieces {
		ml = append(ml, base|Move(promo<<18))
	}
	return ml
}

func appendAttacks(ml []Move, p *Position, from, piece int, targets uint64) []Move {
	for bb := targets; bb != 0; bb &= bb - 1 {
		to := FirstOne(bb)
		ml = append(ml, NewMove(from, to, piece, p.pieceKind(to)))
	}
	return ml
}

// GenerateMoves appends every pseudo-legal move (legality w.r.t. the
// moving side's own king is checked by MakeMove) to ml and returns the
// grown slice. When in check, generation is restricted to moves that
// capture the checker or interpose on a single-checker ray; a double
// check collapses target to zero everywhere except the unrestricted
// king moves below, so only king moves come out.
func (p *Position) GenerateMoves(ml []Move) []Move {
	var ownPieces, oppPieces uint64
	if p.WhiteMove {
		ownPieces, oppPieces = p.White, p.Black
	} else {
		ownPieces, oppPieces = p.Black, p.White
	}
	var occ = p.AllPieces()
	var target = ^ownPieces
	if p.Checkers != 0 {
		if MoreThanOne(p.Checkers) {
			target = 0
		} else {
			kingSq := FirstOne(p.Kings & ownPieces)
			checkerSq := FirstOne(p.Checkers)
			target = p.Checkers | BetweenMask(checkerSq, kingSq)
		}
	}

	ml = p.generatePawnMoves(ml, ownPieces, oppPieces, occ, target, false)

	for bb := p.Knights & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Knight, KnightAttacks(from)&target)
	}
	for bb := p.Bishops & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Bishop, BishopAttacks(from, occ)&target)
	}
	for bb := p.Rooks & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Rook, RookAttacks(from, occ)&target)
	}
	for bb := p.Queens & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Queen, QueenAttacks(from, occ)&target)
	}

	kingSq := FirstOne(p.Kings & ownPieces)
	ml = appendAttacks(ml, p, kingSq, King, KingAttacks(kingSq)&^ownPieces)

	if p.Checkers == 0 {
		if p.WhiteMove {
			if p.CastleRights&WhiteKingSide != 0 && occ&f1g1Mask == 0 &&
				!p.attackedBy(SquareE1, false) && !p.attackedBy(SquareF1, false) {
				ml = append(ml, whiteCastleKing)
			}
			if p.CastleRights&WhiteQueenSide != 0 && occ&b1d1Mask == 0 &&
				!p.attackedBy(SquareE1, false) && !p.attackedBy(SquareD1, false) {
				ml = append(ml, whiteCastleQueen)
			}
		} else {
			if p.CastleRights&BlackKingSide != 0 && occ&f8g8Mask == 0 &&
				!p.attackedBy(SquareE8, true) && !p.attackedBy(SquareF8, true) {
				ml = append(ml, blackCastleKing)
			}
			if p.CastleRights&BlackQueenSide != 0 && occ&b8d8Mask == 0 &&
				!p.attackedBy(SquareE8, true) && !p.attackedBy(SquareD8, true) {
				ml = append(ml, blackCastleQueen)
			}
		}
	}

	return ml
}

// GenerateCaptures appends captures and promotions only, the "noisy"
// move set quiescence search (§4.3) walks. In check it defers to
// GenerateMoves, since every evasion needs to be considered noisy or
// not there is no stand-pat available.
func (p *Position) GenerateCaptures(ml []Move) []Move {
	if p.Checkers != 0 {
		return p.GenerateMoves(ml)
	}

	var ownPieces, oppPieces uint64
	if p.WhiteMove {
		ownPieces, oppPieces = p.White, p.Black
	} else {
		ownPieces, oppPieces = p.Black, p.White
	}
	var occ = p.AllPieces()
	var target = oppPieces

	ml = p.generatePawnMoves(ml, ownPieces, oppPieces, occ, target, true)

	for bb := p.Knights & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Knight, KnightAttacks(from)&target)
	}
	for bb := p.Bishops & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Bishop, BishopAttacks(from, occ)&target)
	}
	for bb := p.Rooks & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Rook, RookAttacks(from, occ)&target)
	}
	for bb := p.Queens & ownPieces; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		ml = appendAttacks(ml, p, from, Queen, QueenAttacks(from, occ)&target)
	}
	kingSq := FirstOne(p.Kings & ownPieces)
	ml = appendAttacks(ml, p, kingSq, King, KingAttacks(kingSq)&target)
	return ml
}

func (p *Position) generatePawnMoves(ml []Move, ownPieces, oppPieces, occ, target uint64, capturesOnly bool) []Move {
	var ownPawns = p.Pawns & ownPieces

	if p.EpSquare != SquareNone {
		for bb := PawnAttacks(p.EpSquare, !p.WhiteMove) & ownPawns; bb != 0; bb &= bb - 1 {
			from := FirstOne(bb)
			ml = append(ml, NewMove(from, p.EpSquare, Pawn, Pawn))
		}
	}

	var push, doublePush, startRank, promoRank int
	if p.WhiteMove {
		push, doublePush, startRank, promoRank = 8, 16, Rank2, Rank7
	} else {
		push, doublePush, startRank, promoRank = -8, -16, Rank7, Rank2
	}

	for bb := ownPawns; bb != 0; bb &= bb - 1 {
		from := FirstOne(bb)
		var to = from + push
		var onPromoRank = Rank(from) == promoRank
		var pushBlocked = SquareMask[to]&occ != 0
		var pushTargeted = SquareMask[to]&target != 0

		if onPromoRank {
			// A push-promotion is noisy in its own right, so it belongs
			// in the captures-only set even though it targets an empty
			// square; capturesOnly is only ever true outside of check,
			// where there's no interposition mask to honor.
			if !pushBlocked && (pushTargeted || capturesOnly) {
				ml = appendPromotions(ml, NewMove(from, to, Pawn, Empty))
			}
		} else if !capturesOnly && !pushBlocked && pushTargeted {
			ml = append(ml, NewMove(from, to, Pawn, Empty))
			if Rank(from) == startRank && SquareMask[from+doublePush]&occ == 0 &&
				SquareMask[from+doublePush]&target != 0 {
				ml = append(ml, NewMove(from, from+doublePush, Pawn, Empty))
			}
		}

		for capBB := PawnAttacks(from, p.WhiteMove) & oppPieces & target; capBB != 0; capBB &= capBB - 1 {
			capTo := FirstOne(capBB)
			if onPromoRank {
				ml = appendPromotions(ml, NewMove(from, capTo, Pawn, p.pieceKind(capTo)))
			} else {
				ml = append(ml, NewMove(from, capTo, Pawn, p.pieceKind(capTo)))
			}
		}
	}
	return ml
}

// GenerateLegalMoves filters GenerateMoves through MakeMove, the
// straightforward "always correct" legality filter §6 assumes exists.
func (p *Position) GenerateLegalMoves(ml []Move) []Move {
	var buf [MaxMoves]Move
	var child Position
	for _, m := range p.GenerateMoves(buf[:0]) {
		if p.MakeMove(m, &child) {
			ml = append(ml, m)
		}
	}
	return ml
}

// IsDrawn implements the board's draw classification (§6): insufficient
// material or the 50-move rule. It does not consider repetition, which
// needs history the position alone does not carry (see
// internal/search's isRepeat, grounded on the same boundary the
// teacher's search draws around `isRepeat`/`historyKeys`).
func (p *Position) IsDrawn() bool {
	if p.Rule50 >= 100 {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial reports bare-king and lone-minor endings, and
// bishops-only endings whose bishops all stand on one square color, the
// same test IsDrawn uses, exposed separately for callers that need to
// distinguish the two draw reasons of §8 scenario 3.
func (p *Position) IsInsufficientMaterial() bool {
	const darkSquares uint64 = 0xAA55AA55AA55AA55
	if (p.Pawns | p.Rooks | p.Queens) != 0 {
		return false
	}
	if !MoreThanOne(p.Knights | p.Bishops) {
		return true
	}
	return p.Knights == 0 && (p.Bishops&darkSquares == 0 || p.Bishops&^darkSquares == 0)
}
