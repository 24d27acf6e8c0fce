package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
)

// ResignRequest is the input to Resign.
type ResignRequest struct {
	Game     string
	Viewer   string
	MoveBase string
}

// ResignResult is the output of a successful Resign.
type ResignResult struct {
	State    *game.State
	Delta    *game.Delta
	Notified bool
}

// Resigner handles resignations.
type Resigner struct {
	loader    *Loader
	publisher ports.UpdatePublisher
	notify    *Dispatcher
	rl        ports.RateLimiter
}

func NewResigner(loader *Loader, publisher ports.UpdatePublisher, notify *Dispatcher, rl ports.RateLimiter) *Resigner {
	return &Resigner{loader: loader, publisher: publisher, notify: notify, rl: rl}
}

// Resign records the viewer's resignation. Games that already ended are
// rejected with ErrGameFinished.
func (r *Resigner) Resign(ctx context.Context, ip, token string, req ResignRequest) (ResignResult, error) {
	if !r.rl.Allow(ip, token) {
		return ResignResult{}, ErrRateLimited
	}
	if req.Game == "" || req.Viewer == "" || req.MoveBase == "" {
		return ResignResult{}, ErrInvalidRequest
	}

	st, err := r.loader.Resolve(ctx, req.Game, req.Viewer, req.MoveBase)
	if err != nil {
		return ResignResult{}, err
	}
	if st.IsFinished() {
		return ResignResult{}, ErrGameFinished
	}

	d := st.ResignAs(req.Viewer)
	if err := r.publisher.Publish(ctx, d.Document(), d.Update()); err != nil {
		return ResignResult{}, fmt.Errorf("publish resignation: %w", err)
	}
	obslog.L().Info("resignation_published",
		zap.String("game", req.Game),
		zap.String("viewer", req.Viewer),
		zap.String("resource", d.Resource),
	)

	notified := r.notify.Send(ctx, st, d.Notification()) == nil
	return ResignResult{State: st, Delta: d, Notified: notified}, nil
}
