package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/domain/rules"
	"github.com/randomtoy/linked-chess/internal/linkeddata"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// CreateGameRequest is the input to Create. An empty Game mints one in
// the move base document.
type CreateGameRequest struct {
	Game          string
	Viewer        string
	Opponent      string
	Color         rules.Color
	Name          string
	StartPosition string
	RealTime      bool
	MoveBase      string
}

// GameCreator publishes new games.
type GameCreator struct {
	engine    rules.Engine
	publisher ports.UpdatePublisher
	notify    *Dispatcher
	ids       game.IDGenerator
	rl        ports.RateLimiter
}

func NewGameCreator(engine rules.Engine, publisher ports.UpdatePublisher, notify *Dispatcher, ids game.IDGenerator, rl ports.RateLimiter) *GameCreator {
	if ids == nil {
		ids = game.UUIDGenerator{}
	}
	return &GameCreator{engine: engine, publisher: publisher, notify: notify, ids: ids, rl: rl}
}

// Create publishes the game description and invites the opponent.
func (c *GameCreator) Create(ctx context.Context, ip, token string, req CreateGameRequest) (*game.State, error) {
	if !c.rl.Allow(ip, token) {
		return nil, ErrRateLimited
	}
	if req.Viewer == "" || req.Opponent == "" || req.MoveBase == "" {
		return nil, ErrInvalidRequest
	}

	url := req.Game
	if url == "" {
		url = linkeddata.DocumentURL(req.MoveBase) + "#" + c.ids.NewID()
	}

	st, err := game.New(game.Options{
		URL:           url,
		MoveBase:      req.MoveBase,
		Viewer:        req.Viewer,
		Opponent:      req.Opponent,
		ViewerColor:   req.Color,
		Name:          req.Name,
		StartPosition: req.StartPosition,
		RealTime:      req.RealTime,
		Engine:        c.engine,
		IDs:           c.ids,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	desc := st.Description()
	if err := c.publisher.Publish(ctx, linkeddata.DocumentURL(url), rdf.InsertData(desc)); err != nil {
		return nil, fmt.Errorf("publish game: %w", err)
	}
	obslog.L().Info("game_created",
		zap.String("game", url),
		zap.String("viewer", req.Viewer),
		zap.String("opponent", req.Opponent),
		zap.String("color", st.ViewerColor().String()),
	)

	invite := rdf.EncodeNTriples([]rdf.Triple{rdf.T(rdf.IRI(url), rdf.Type, rdf.ChessGame)})
	if err := c.notify.Send(ctx, st, invite); err != nil {
		obslog.L().Warn("game_invite_failed", zap.String("game", url), zap.Error(err))
	}
	return st, nil
}
