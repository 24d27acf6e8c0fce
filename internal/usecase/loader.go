package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/domain/rules"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// DefaultHopCap bounds the bindings a single chain hop may produce.
const DefaultHopCap = 100

// SourceResolver turns an IRI into the triples of its document.
type SourceResolver interface {
	Resolve(ctx context.Context, iri string) (rdf.Source, error)
}

// GameInfo is what the game document says about the game.
type GameInfo struct {
	ViewerColor   rules.Color
	Opponent      string
	Name          string
	StartPosition string
	RealTime      bool
	ResignedBy    string
	Head          string
}

// Loader rebuilds game state from the linked half-move chain.
type Loader struct {
	sources SourceResolver
	engine  rules.Engine
	ids     game.IDGenerator
	hopCap  int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHopCap sets the per-hop binding cap. Values below 1 are ignored.
func WithHopCap(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.hopCap = n
		}
	}
}

// WithIDGenerator sets the generator handed to resolved states.
func WithIDGenerator(g game.IDGenerator) LoaderOption {
	return func(l *Loader) { l.ids = g }
}

func NewLoader(sources SourceResolver, engine rules.Engine, opts ...LoaderOption) *Loader {
	l := &Loader{
		sources: sources,
		engine:  engine,
		ids:     game.UUIDGenerator{},
		hopCap:  DefaultHopCap,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve reads the game description and replays its whole move chain.
// Any failure aborts the resolution; no partial state is returned.
func (l *Loader) Resolve(ctx context.Context, gameURL, viewer, moveBase string) (*game.State, error) {
	started := time.Now()

	info, err := l.Describe(ctx, gameURL, viewer)
	if err != nil {
		return nil, err
	}
	moves, err := l.Chain(ctx, info.Head)
	if err != nil {
		return nil, err
	}

	st, err := game.New(game.Options{
		URL:           gameURL,
		MoveBase:      moveBase,
		Viewer:        viewer,
		Opponent:      info.Opponent,
		ViewerColor:   info.ViewerColor,
		Name:          info.Name,
		StartPosition: info.StartPosition,
		RealTime:      info.RealTime,
		Engine:        l.engine,
		IDs:           l.ids,
	})
	if err != nil {
		return nil, err
	}

	for _, m := range moves {
		if _, err := st.LoadMove(m.SAN, m.Resource); err != nil {
			return nil, fmt.Errorf("%w: %s at %s: %v", ErrReplayRejected, m.SAN, m.Resource, err)
		}
	}
	if info.ResignedBy != "" {
		st.LoadResignation(info.ResignedBy)
	}

	obslog.L().Info("game_resolved",
		zap.String("game", gameURL),
		zap.String("viewer", viewer),
		zap.String("color", st.ViewerColor().String()),
		zap.Int("plies", len(moves)),
		zap.Duration("took", time.Since(started)),
	)
	return st, nil
}

// Describe reads colors, players and the optional game attributes.
func (l *Loader) Describe(ctx context.Context, gameURL, viewer string) (GameInfo, error) {
	src, err := l.sources.Resolve(ctx, gameURL)
	if err != nil {
		return GameInfo{}, err
	}

	info := GameInfo{ViewerColor: rules.White}
	g := rdf.IRI(gameURL)

	colorRows := rdf.Select(src, rdf.Query{
		Where: []rdf.Pattern{
			rdf.P(rdf.V("role"), rdf.N(rdf.Type), rdf.V("kind")),
			rdf.P(rdf.V("role"), rdf.N(rdf.PerformedBy), rdf.N(rdf.IRI(viewer))),
		},
		Filter: isPlayerRole,
		Limit:  l.hopCap,
	})
	if len(colorRows) > 0 && colorRows[0]["kind"] != rdf.WhitePlayerRole {
		info.ViewerColor = rules.Black
	}

	opponentRows := rdf.Select(src, rdf.Query{
		Where: []rdf.Pattern{
			rdf.P(rdf.V("role"), rdf.N(rdf.Type), rdf.V("kind")),
			rdf.P(rdf.V("role"), rdf.N(rdf.PerformedBy), rdf.V("agent")),
		},
		Filter: func(b rdf.Binding) bool {
			return isPlayerRole(b) && b["agent"] != rdf.IRI(viewer)
		},
		Limit: 1,
	})
	if len(opponentRows) > 0 {
		info.Opponent = opponentRows[0]["agent"].Value
	}

	if v, ok := first(src, g, rdf.Name); ok {
		info.Name = v.Value
	}
	if v, ok := first(src, g, rdf.StartPosition); ok {
		info.StartPosition = v.Value
	}
	if v, ok := first(src, g, rdf.IsRealTime); ok {
		info.RealTime = strings.EqualFold(v.Value, "true") || v.Value == "1"
	}
	if v, ok := first(src, g, rdf.GivenUpBy); ok && v.IsIRI() {
		info.ResignedBy = v.Value
	}
	if v, ok := first(src, g, rdf.HasFirstHalfMove); ok && v.IsIRI() {
		info.Head = v.Value
	}
	return info, nil
}

// Chain walks the half-move chain from head. Every hop is resolved from
// its own document.
func (l *Loader) Chain(ctx context.Context, head string) ([]game.HalfMove, error) {
	var moves []game.HalfMove
	visited := make(map[string]struct{})

	for current := head; current != ""; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, seen := visited[current]; seen {
			return nil, fmt.Errorf("%w: %s", ErrChainCycle, current)
		}
		visited[current] = struct{}{}

		src, err := l.sources.Resolve(ctx, current)
		if err != nil {
			return nil, err
		}
		san, next, err := l.hop(src, current)
		if err != nil {
			return nil, err
		}

		obslog.L().Debug("chain_hop",
			zap.String("resource", current),
			zap.String("san", san),
			zap.String("next", next),
		)
		if san != "" {
			moves = append(moves, game.HalfMove{SAN: san, Resource: current})
		}
		current = next
	}
	return moves, nil
}

func (l *Loader) hop(src rdf.Source, resource string) (san, next string, err error) {
	node := rdf.N(rdf.IRI(resource))
	rows := rdf.Select(src, rdf.Query{
		Optional: [][]rdf.Pattern{
			{rdf.P(node, rdf.N(rdf.HasSANRecord), rdf.V("san"))},
			{rdf.P(node, rdf.N(rdf.NextHalfMove), rdf.V("next"))},
		},
		Limit: l.hopCap + 1,
	})
	if len(rows) > l.hopCap {
		return "", "", fmt.Errorf("%w: %s yields more than %d bindings", ErrChainTruncated, resource, l.hopCap)
	}

	sans := rdf.Values(rows, "san")
	nexts := rdf.Values(rows, "next")
	if len(sans) > 1 || len(nexts) > 1 {
		return "", "", fmt.Errorf("%w: %s has %d SAN records and %d successors",
			ErrMalformedChain, resource, len(sans), len(nexts))
	}
	if len(sans) == 1 {
		if !sans[0].IsLiteral() {
			return "", "", fmt.Errorf("%w: %s SAN record is not a literal", ErrMalformedChain, resource)
		}
		san = sans[0].Value
	}
	if len(nexts) == 1 {
		if !nexts[0].IsIRI() {
			return "", "", fmt.Errorf("%w: %s successor is not an IRI", ErrMalformedChain, resource)
		}
		next = nexts[0].Value
	}
	return san, next, nil
}

func isPlayerRole(b rdf.Binding) bool {
	k := b["kind"]
	return k == rdf.WhitePlayerRole || k == rdf.BlackPlayerRole
}

func first(src rdf.Source, s, p rdf.Term) (rdf.Term, bool) {
	for q := range src.Match(s, p, rdf.Term{}, rdf.Term{}) {
		return q.O, true
	}
	return rdf.Term{}, false
}
