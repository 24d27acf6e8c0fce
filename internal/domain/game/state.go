// Package game reconciles a chess position with its linked half-move record.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randomtoy/linked-chess/internal/domain/rules"
)

// Sentinel errors. Rejected moves surface as rules.ErrIllegalMove.
var (
	ErrNotYourTurn  = errors.New("not the viewer's turn")
	ErrSameIdentity = errors.New("viewer and opponent must differ")
	ErrNoEngine     = errors.New("rules engine is required")
)

// HalfMove is one ply of the record.
type HalfMove struct {
	SAN      string
	Resource string
}

// Options configures New. Zero values pick the defaults: white for the
// viewer, the standard start position and UUID identities.
type Options struct {
	URL            string
	MoveBase       string
	Viewer         string
	Opponent       string
	ViewerColor    rules.Color
	Name           string
	StartPosition  string
	RealTime       bool
	LastMove       *HalfMove
	LastViewerMove *HalfMove

	Engine rules.Engine
	IDs    IDGenerator
}

// State is a game as seen by one viewer. It is not safe for concurrent use.
type State struct {
	url      string
	moveBase string
	viewer   string
	opponent string

	viewerColor rules.Color
	firstTurn   rules.Color

	name        string
	realTime    bool
	startFEN    string
	customStart bool

	lastMove       *HalfMove
	lastViewerMove *HalfMove
	resignedBy     string

	roles map[rules.Color]string

	pos rules.Position
	ids IDGenerator
}

// New builds a fresh State.
func New(opts Options) (*State, error) {
	if opts.Engine == nil {
		return nil, ErrNoEngine
	}
	if opts.Viewer != "" && opts.Viewer == opts.Opponent {
		return nil, fmt.Errorf("%w: %s", ErrSameIdentity, opts.Viewer)
	}

	pos, err := opts.Engine.NewPosition(opts.StartPosition)
	if err != nil {
		return nil, err
	}

	color := opts.ViewerColor
	if color == rules.NoColor {
		color = rules.White
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDGenerator{}
	}

	s := &State{
		url:            opts.URL,
		moveBase:       stripFragment(opts.MoveBase),
		viewer:         opts.Viewer,
		opponent:       opts.Opponent,
		viewerColor:    color,
		name:           opts.Name,
		realTime:       opts.RealTime,
		startFEN:       pos.FEN(),
		customStart:    strings.TrimSpace(opts.StartPosition) != "",
		lastMove:       cloneMove(opts.LastMove),
		lastViewerMove: cloneMove(opts.LastViewerMove),
		roles:          make(map[rules.Color]string, 2),
		pos:            pos,
		ids:            ids,
	}
	return s, nil
}

// ApplyAsViewer plays san for the viewer. It returns ErrNotYourTurn when
// the opponent is to move and rules.ErrIllegalMove when the move is
// rejected; in both cases nothing changes.
func (s *State) ApplyAsViewer(san string, opts rules.MoveOptions) (*Delta, error) {
	if s.pos.Turn() != s.viewerColor {
		return nil, ErrNotYourTurn
	}

	applied, err := s.pos.Apply(san, opts)
	if err != nil {
		return nil, err
	}
	if s.firstTurn == rules.NoColor {
		s.firstTurn = applied.Mover
	}

	hm := HalfMove{SAN: applied.SAN, Resource: s.mint()}
	d := s.moveDelta(hm, s.lastMove, s.pos.InCheckmate())
	s.lastMove = &hm
	viewerMove := hm
	s.lastViewerMove = &viewerMove
	return d, nil
}

// LoadMove replays a recorded half-move.
func (s *State) LoadMove(san, resource string) (HalfMove, error) {
	applied, err := s.pos.Apply(san, rules.MoveOptions{})
	if err != nil {
		return HalfMove{}, err
	}
	if s.firstTurn == rules.NoColor {
		s.firstTurn = applied.Mover
	}

	hm := HalfMove{SAN: san, Resource: resource}
	s.lastMove = &hm
	if applied.Mover == s.viewerColor {
		viewerMove := hm
		s.lastViewerMove = &viewerMove
	}
	return hm, nil
}

// ResignAs mints a resignation. Only the viewer's resignation is recorded
// locally; the first recorded resigner is kept.
func (s *State) ResignAs(identity string) *Delta {
	resource := s.mint()
	if identity == s.viewer && s.resignedBy == "" {
		s.resignedBy = identity
	}
	return s.resignationDelta(resource, identity)
}

// LoadResignation records a resignation read from the record. It reports
// false when another identity already resigned.
func (s *State) LoadResignation(identity string) bool {
	if s.resignedBy != "" {
		return s.resignedBy == identity
	}
	s.resignedBy = identity
	return true
}

func (s *State) URL() string { return s.url }
func (s *State) MoveBase() string { return s.moveBase }
func (s *State) Viewer() string { return s.viewer }
func (s *State) Opponent() string { return s.opponent }
func (s *State) ViewerColor() rules.Color { return s.viewerColor }
func (s *State) OpponentColor() rules.Color { return s.viewerColor.Complement() }
func (s *State) IsRealTime() bool { return s.realTime }
func (s *State) ResignedBy() string { return s.resignedBy }
func (s *State) FEN() string { return s.pos.FEN() }
func (s *State) Turn() rules.Color { return s.pos.Turn() }
func (s *State) InCheckmate() bool { return s.pos.InCheckmate() }

// Name reports the game name and whether one is set. An empty name counts
// as unset.
func (s *State) Name() (string, bool) { return s.name, s.name != "" }

// FirstTurn reports the color of the first accepted ply, if any.
func (s *State) FirstTurn() (rules.Color, bool) {
	return s.firstTurn, s.firstTurn != rules.NoColor
}

// StartPosition is the FEN the game started from.
func (s *State) StartPosition() string { return s.startFEN }

// IsOpponentsTurn reports whether the opponent is to move.
func (s *State) IsOpponentsTurn() bool { return s.pos.Turn() == s.OpponentColor() }

// IsFinished reports checkmate or a recorded resignation.
func (s *State) IsFinished() bool { return s.resignedBy != "" || s.pos.InCheckmate() }

// LastMove returns a copy of the most recent ply, or nil.
func (s *State) LastMove() *HalfMove { return cloneMove(s.lastMove) }

// LastViewerMove returns a copy of the viewer's most recent ply, or nil.
func (s *State) LastViewerMove() *HalfMove { return cloneMove(s.lastViewerMove) }

func (s *State) mint() string {
	return s.moveBase + "#" + s.ids.NewID()
}

func cloneMove(m *HalfMove) *HalfMove {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

func stripFragment(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}
