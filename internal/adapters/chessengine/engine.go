// Package chessengine implements rules.Engine on top of notnil/chess.
package chessengine

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/randomtoy/linked-chess/internal/domain/rules"
)

// Engine creates notnil-backed positions.
type Engine struct{}

// New returns an Engine.
func New() Engine { return Engine{} }

// NewPosition returns the standard start when fen is empty.
func (Engine) NewPosition(fen string) (rules.Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return &position{game: chess.NewGame()}, nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rules.ErrInvalidFEN, err)
	}
	return &position{game: chess.NewGame(opt)}, nil
}

type position struct {
	game *chess.Game
}

func (p *position) Turn() rules.Color { return toColor(p.game.Position().Turn()) }

func (p *position) FEN() string { return p.game.Position().String() }

func (p *position) InCheckmate() bool { return p.game.Method() == chess.Checkmate }

// Apply decodes SAN first. Sloppy input falls back to UCI and long
// algebraic notation. The receiver is untouched when the move is rejected.
func (p *position) Apply(move string, opts rules.MoveOptions) (rules.AppliedMove, error) {
	move = strings.TrimSpace(move)
	pos := p.game.Position()

	m, err := chess.AlgebraicNotation{}.Decode(pos, move)
	if err != nil && opts.Sloppy {
		m, err = decodeSloppy(pos, move)
	}
	if err != nil {
		return rules.AppliedMove{}, fmt.Errorf("%w: %s", rules.ErrIllegalMove, move)
	}

	san := chess.AlgebraicNotation{}.Encode(pos, m)
	mover := toColor(pos.Turn())
	if err := p.game.Move(m); err != nil {
		return rules.AppliedMove{}, fmt.Errorf("%w: %s", rules.ErrIllegalMove, move)
	}

	return rules.AppliedMove{
		SAN:       san,
		From:      rules.Square(m.S1()),
		To:        rules.Square(m.S2()),
		Mover:     mover,
		Promotion: toKind(m.Promo()),
	}, nil
}

func (p *position) PieceAt(sq rules.Square) (rules.Piece, bool) {
	pc := p.game.Position().Board().Piece(chess.Square(sq))
	if pc == chess.NoPiece {
		return rules.Piece{}, false
	}
	return rules.Piece{Color: toColor(pc.Color()), Kind: toKind(pc.Type())}, true
}

// LegalMove consults the generated legal moves, which already exclude
// moves leaving the mover's king in check.
func (p *position) LegalMove(from, to rules.Square) bool {
	for _, m := range p.game.ValidMoves() {
		if m.S1() == chess.Square(from) && m.S2() == chess.Square(to) {
			return true
		}
	}
	return false
}

func decodeSloppy(pos *chess.Position, move string) (*chess.Move, error) {
	lower := strings.ToLower(move)
	if isValidUCISyntax(lower) {
		return chess.UCINotation{}.Decode(pos, lower)
	}
	if !strings.HasPrefix(strings.ToUpper(move), "O-O") {
		move = strings.ReplaceAll(move, "-", "")
	}
	return chess.LongAlgebraicNotation{}.Decode(pos, move)
}

// isValidUCISyntax returns true iff s is [a-h][1-8][a-h][1-8] with an
// optional promotion piece [qrbn].
func isValidUCISyntax(s string) bool {
	if len(s) < 4 || len(s) > 5 {
		return false
	}
	for i := 0; i < 4; i += 2 {
		if s[i] < 'a' || s[i] > 'h' || s[i+1] < '1' || s[i+1] > '8' {
			return false
		}
	}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return false
		}
	}
	return true
}

func toColor(c chess.Color) rules.Color {
	switch c {
	case chess.White:
		return rules.White
	case chess.Black:
		return rules.Black
	default:
		return rules.NoColor
	}
}

func toKind(t chess.PieceType) rules.PieceKind {
	switch t {
	case chess.King:
		return rules.King
	case chess.Queen:
		return rules.Queen
	case chess.Rook:
		return rules.Rook
	case chess.Bishop:
		return rules.Bishop
	case chess.Knight:
		return rules.Knight
	case chess.Pawn:
		return rules.Pawn
	default:
		return rules.NoKind
	}
}
