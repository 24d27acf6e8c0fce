package usecase

import "errors"

// Sentinel usecase errors; transport maps these to HTTP codes.
var (
	ErrRateLimited    = errors.New("rate limited")
	ErrInvalidRequest = errors.New("invalid request")
	ErrGameFinished   = errors.New("game is finished")

	ErrChainTruncated = errors.New("move chain hop exceeds result cap")
	ErrChainCycle     = errors.New("move chain revisits a half-move")
	ErrMalformedChain = errors.New("move chain hop is ambiguous")
	ErrReplayRejected = errors.New("recorded half-move rejected on replay")
)
