package game

import (
	"github.com/randomtoy/linked-chess/internal/domain/rules"
)

// IsPromotion reports whether moving from->to is a legal pawn move onto
// the last rank for the side to move. It never changes the position.
func (s *State) IsPromotion(from, to string) bool {
	fromSq, err := rules.ParseSquare(from)
	if err != nil {
		return false
	}
	toSq, err := rules.ParseSquare(to)
	if err != nil {
		return false
	}

	piece, ok := s.pos.PieceAt(fromSq)
	if !ok {
		return false
	}
	turn := s.pos.Turn()
	if piece.Color != turn || piece.Kind != rules.Pawn {
		return false
	}
	if toSq.Rank() != lastRank(turn) {
		return false
	}
	return s.pos.LegalMove(fromSq, toSq)
}

func lastRank(c rules.Color) int {
	if c == rules.Black {
		return 1
	}
	return 8
}
