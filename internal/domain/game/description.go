package game

import (
	"strings"

	"github.com/randomtoy/linked-chess/internal/domain/rules"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// Description returns the statements that publish the game itself:
// its type, both player roles, optional name and start position, the
// real-time flag and which role moves first. Role identities are minted
// in the game's document on first use and reused afterwards.
func (s *State) Description() []rdf.Triple {
	game := rdf.IRI(s.url)
	white := rdf.IRI(s.role(rules.White))
	black := rdf.IRI(s.role(rules.Black))

	players := map[rules.Color]string{
		s.viewerColor:              s.viewer,
		s.viewerColor.Complement(): s.opponent,
	}

	out := []rdf.Triple{
		rdf.T(game, rdf.Type, rdf.ChessGame),
		rdf.T(game, rdf.ProvidesAgentRole, white),
		rdf.T(game, rdf.ProvidesAgentRole, black),
		rdf.T(white, rdf.Type, rdf.WhitePlayerRole),
		rdf.T(black, rdf.Type, rdf.BlackPlayerRole),
	}
	if id := players[rules.White]; id != "" {
		out = append(out, rdf.T(white, rdf.PerformedBy, rdf.IRI(id)))
	}
	if id := players[rules.Black]; id != "" {
		out = append(out, rdf.T(black, rdf.PerformedBy, rdf.IRI(id)))
	}
	if name, ok := s.Name(); ok {
		out = append(out, rdf.T(game, rdf.Name, rdf.String(name)))
	}
	if s.customStart {
		out = append(out, rdf.T(game, rdf.StartPosition, rdf.String(s.startFEN)))
	}
	if s.realTime {
		out = append(out, rdf.T(game, rdf.IsRealTime, rdf.Literal("true", rdf.XSDBoolean)))
	}

	first, ok := s.FirstTurn()
	if !ok {
		first = s.startingSide()
	}
	starter := white
	if first == rules.Black {
		starter = black
	}
	out = append(out, rdf.T(game, rdf.Starts, starter))
	return out
}

func (s *State) role(c rules.Color) string {
	if r, ok := s.roles[c]; ok {
		return r
	}
	r := stripFragment(s.url) + "#" + s.ids.NewID()
	s.roles[c] = r
	return r
}

// startingSide is the side to move in the start position.
func (s *State) startingSide() rules.Color {
	if fields := strings.Fields(s.startFEN); len(fields) > 1 && fields[1] == "b" {
		return rules.Black
	}
	return rules.White
}
