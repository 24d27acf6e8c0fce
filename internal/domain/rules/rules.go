// Package rules defines the chess capabilities the game engine depends on.
// Implementations live in adapters; nothing here knows a rules library.
package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrIllegalMove = errors.New("illegal move")
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrBadSquare   = errors.New("invalid square")
)

// Color is a side. The zero value means "not set".
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

// Complement returns the other side. NoColor stays NoColor.
func (c Color) Complement() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return NoColor, fmt.Errorf("unknown color %q", s)
	}
}

// PieceKind is a piece type.
type PieceKind uint8

const (
	NoKind PieceKind = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

// Piece is a colored piece.
type Piece struct {
	Color Color
	Kind  PieceKind
}

// Square indexes the board a1=0 ... h8=63.
type Square uint8

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return Square(int(s[1]-'1')*8 + int(s[0]-'a')), nil
}

// File returns 0 for the a-file through 7 for the h-file.
func (sq Square) File() int { return int(sq) % 8 }

// Rank returns 1 through 8.
func (sq Square) Rank() int { return int(sq)/8 + 1 }

func (sq Square) String() string {
	return string([]byte{byte('a' + sq.File()), byte('0' + sq.Rank())})
}

// MoveOptions tunes move parsing.
type MoveOptions struct {
	// Sloppy also accepts UCI ("e7e8q") and long algebraic ("e2-e4") input.
	Sloppy bool
}

// AppliedMove describes an accepted move.
type AppliedMove struct {
	SAN       string
	From, To  Square
	Mover     Color
	Promotion PieceKind
}

// Position is a mutable chess position.
type Position interface {
	// Turn is the side to move.
	Turn() Color
	// Apply plays a move. It returns ErrIllegalMove and leaves the
	// position untouched when the move is rejected.
	Apply(move string, opts MoveOptions) (AppliedMove, error)
	InCheckmate() bool
	FEN() string
	PieceAt(sq Square) (Piece, bool)
	// LegalMove reports whether from-to is a legal move for the side to
	// move, i.e. it respects blocking and capture rules and does not leave
	// the mover's king in check.
	LegalMove(from, to Square) bool
}

// Engine creates positions. An empty FEN means the standard start.
type Engine interface {
	NewPosition(fen string) (Position, error)
}
