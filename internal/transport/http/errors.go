package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/domain/rules"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/usecase"
)

const errBase = "https://errors.linked-chess.local"

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// MoveProblem adds a machine-readable code to rejected moves.
type MoveProblem struct {
	Problem
	Code string `json:"code"`
}

func problem(c echo.Context, status int, kind, detail string) error {
	return c.JSON(status, Problem{
		Type:   errBase + "/" + kind,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

func moveProblem(c echo.Context, code, detail string) error {
	return c.JSON(http.StatusUnprocessableEntity, MoveProblem{
		Problem: Problem{
			Type:   errBase + "/rejected-move",
			Title:  http.StatusText(http.StatusUnprocessableEntity),
			Status: http.StatusUnprocessableEntity,
			Detail: detail,
		},
		Code: code,
	})
}

// writeErr maps a domain/usecase error to the correct HTTP response.
func writeErr(c echo.Context, err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return problem(c, he.Code, "bad-request", "Request could not be read.")
	case errors.Is(err, usecase.ErrRateLimited):
		c.Response().Header().Set("Retry-After", "2")
		return problem(c, http.StatusTooManyRequests, "rate-limited", "Rate limit exceeded. Try again later.")
	case errors.Is(err, usecase.ErrInvalidRequest),
		errors.Is(err, game.ErrSameIdentity),
		errors.Is(err, rules.ErrInvalidFEN),
		errors.Is(err, rules.ErrBadSquare):
		return problem(c, http.StatusBadRequest, "invalid-request", err.Error())
	case errors.Is(err, rules.ErrIllegalMove):
		return moveProblem(c, "illegal_move", "Move is not legal in the current position.")
	case errors.Is(err, game.ErrNotYourTurn):
		return moveProblem(c, "not_your_turn", "It is the opponent's turn.")
	case errors.Is(err, usecase.ErrGameFinished):
		return moveProblem(c, "game_finished", "Game has ended by checkmate or resignation.")
	case errors.Is(err, ports.ErrNotFound):
		return problem(c, http.StatusNotFound, "not-found", "Resource not found.")
	case errors.Is(err, ports.ErrParse),
		errors.Is(err, usecase.ErrChainTruncated),
		errors.Is(err, usecase.ErrChainCycle),
		errors.Is(err, usecase.ErrMalformedChain),
		errors.Is(err, usecase.ErrReplayRejected):
		obslog.L().Warn("game_data_rejected", zap.Error(err))
		return problem(c, http.StatusUnprocessableEntity, "invalid-game-data", err.Error())
	case errors.Is(err, ports.ErrUpstream):
		obslog.L().Warn("upstream_error", zap.Error(err))
		return problem(c, http.StatusBadGateway, "upstream", "A linked document could not be read.")
	default:
		obslog.L().Error("internal_error", zap.Error(err))
		return problem(c, http.StatusInternalServerError, "internal", "Unexpected error.")
	}
}
