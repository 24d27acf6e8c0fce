package usecase_test

import (
	"context"
	"testing"

	"github.com/randomtoy/linked-chess/internal/adapters/chessengine"
	"github.com/randomtoy/linked-chess/internal/adapters/memory"
	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/linkeddata"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/usecase"
)

const (
	alice = "https://alice.example/profile/card#me"
	bob   = "https://bob.example/profile/card#me"

	aliceDoc = "https://pod.example/alice/chess.ttl"
	bobDoc   = "https://pod.example/bob/chess.ttl"

	startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

type env struct {
	docs     *memory.Documents
	inbox    *memory.Inbox
	resolver *linkeddata.Resolver
	loader   *usecase.Loader
	dispatch *usecase.Dispatcher
	inboxes  *usecase.InboxService

	creator  *usecase.GameCreator
	player   *usecase.MovePlayer
	resigner *usecase.Resigner
	getter   *usecase.GameGetter
}

func newEnv(t *testing.T, rl ports.RateLimiter, opts ...usecase.LoaderOption) *env {
	t.Helper()
	if rl == nil {
		rl = memory.AlwaysAllow{}
	}

	docs := memory.NewDocuments()
	inbox := memory.NewInbox()
	resolver := linkeddata.NewResolver(linkeddata.NewStoreFetcher(docs))
	publisher := linkeddata.NewStorePublisher(docs)
	engine := chessengine.New()

	opts = append([]usecase.LoaderOption{usecase.WithIDGenerator(game.NewSequence("m"))}, opts...)
	loader := usecase.NewLoader(resolver, engine, opts...)
	inboxes := usecase.NewInboxService(inbox, docs, resolver, nil)
	dispatch := usecase.NewDispatcher(inboxes, usecase.WithNotificationIDs(game.NewSequence("n")))

	return &env{
		docs:     docs,
		inbox:    inbox,
		resolver: resolver,
		loader:   loader,
		dispatch: dispatch,
		inboxes:  inboxes,
		creator:  usecase.NewGameCreator(engine, publisher, dispatch, game.NewSequence("g"), rl),
		player:   usecase.NewMovePlayer(loader, publisher, dispatch, rl),
		resigner: usecase.NewResigner(loader, publisher, dispatch, rl),
		getter:   usecase.NewGameGetter(loader, rl),
	}
}

func (e *env) put(t *testing.T, url, body string) {
	t.Helper()
	err := e.docs.Put(context.Background(), ports.StoredDocument{URL: url, Body: []byte(body)})
	if err != nil {
		t.Fatalf("put %s: %v", url, err)
	}
}

type denyAll struct{}

func (denyAll) Allow(_, _ string) bool { return false }
