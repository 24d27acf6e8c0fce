package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/domain/rules"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
)

// PlayMoveRequest is the input to Play.
type PlayMoveRequest struct {
	Game     string
	Viewer   string
	MoveBase string
	Move     string
	Sloppy   bool
}

// PlayMoveResult is the output of a successful Play.
type PlayMoveResult struct {
	State    *game.State
	Delta    *game.Delta
	Notified bool
}

// MovePlayer handles local moves.
type MovePlayer struct {
	loader    *Loader
	publisher ports.UpdatePublisher
	notify    *Dispatcher
	rl        ports.RateLimiter
}

func NewMovePlayer(loader *Loader, publisher ports.UpdatePublisher, notify *Dispatcher, rl ports.RateLimiter) *MovePlayer {
	return &MovePlayer{loader: loader, publisher: publisher, notify: notify, rl: rl}
}

// Play resolves the game, applies the viewer's move, publishes the update
// to the move base document and notifies the opponent. A failed
// notification does not undo the published move; it is reported through
// Notified.
func (m *MovePlayer) Play(ctx context.Context, ip, token string, req PlayMoveRequest) (PlayMoveResult, error) {
	if !m.rl.Allow(ip, token) {
		return PlayMoveResult{}, ErrRateLimited
	}
	if req.Game == "" || req.Viewer == "" || req.MoveBase == "" || req.Move == "" {
		return PlayMoveResult{}, ErrInvalidRequest
	}

	st, err := m.loader.Resolve(ctx, req.Game, req.Viewer, req.MoveBase)
	if err != nil {
		return PlayMoveResult{}, err
	}
	if st.IsFinished() {
		return PlayMoveResult{}, ErrGameFinished
	}

	d, err := st.ApplyAsViewer(req.Move, rules.MoveOptions{Sloppy: req.Sloppy})
	if err != nil {
		return PlayMoveResult{}, err
	}

	if err := m.publisher.Publish(ctx, d.Document(), d.Update()); err != nil {
		return PlayMoveResult{}, fmt.Errorf("publish move: %w", err)
	}
	obslog.L().Info("move_published",
		zap.String("game", req.Game),
		zap.String("viewer", req.Viewer),
		zap.String("san", st.LastMove().SAN),
		zap.String("resource", d.Resource),
		zap.Bool("checkmate", st.InCheckmate()),
	)

	notified := m.notify.Send(ctx, st, d.Notification()) == nil
	return PlayMoveResult{State: st, Delta: d, Notified: notified}, nil
}
