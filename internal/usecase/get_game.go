package usecase

import (
	"context"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/ports"
)

// GameGetter handles single-game retrieval.
type GameGetter struct {
	loader *Loader
	rl     ports.RateLimiter
}

func NewGameGetter(loader *Loader, rl ports.RateLimiter) *GameGetter {
	return &GameGetter{loader: loader, rl: rl}
}

// GetGame resolves the game as seen by viewer.
func (g *GameGetter) GetGame(ctx context.Context, ip, token, gameURL, viewer string) (*game.State, error) {
	if !g.rl.Allow(ip, token) {
		return nil, ErrRateLimited
	}
	if gameURL == "" || viewer == "" {
		return nil, ErrInvalidRequest
	}
	return g.loader.Resolve(ctx, gameURL, viewer, "")
}

// IsPromotion resolves the game and asks whether from-to promotes a pawn.
func (g *GameGetter) IsPromotion(ctx context.Context, ip, token, gameURL, viewer, from, to string) (bool, error) {
	st, err := g.GetGame(ctx, ip, token, gameURL, viewer)
	if err != nil {
		return false, err
	}
	return st.IsPromotion(from, to), nil
}
