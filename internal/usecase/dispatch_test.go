package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/randomtoy/linked-chess/internal/adapters/chessengine"
	"github.com/randomtoy/linked-chess/internal/adapters/memory"
	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/usecase"
)

type recordingNotifier struct {
	got []ports.Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n ports.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

type fixedFinder string

func (f fixedFinder) FindInbox(context.Context, string) (string, error) { return string(f), nil }

func newDispatchState(t *testing.T, realTime bool) *game.State {
	t.Helper()
	st, err := game.New(game.Options{
		URL:      aliceDoc + "#game",
		MoveBase: aliceDoc,
		Viewer:   alice,
		Opponent: bob,
		RealTime: realTime,
		Engine:   chessengine.New(),
		IDs:      game.NewSequence("x"),
	})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	return st
}

func TestDispatcher_RemoteInbox(t *testing.T) {
	local := memory.NewInbox()
	remote := &recordingNotifier{}
	d := usecase.NewDispatcher(
		usecase.NewInboxService(local, memory.NewDocuments(), nil, nil),
		usecase.WithRemoteNotifier(remote),
		usecase.WithInboxFinder(fixedFinder("https://bob.example/inbox/")),
		usecase.WithLocality(func(u string) bool { return strings.HasPrefix(u, "https://pod.example/") }),
		usecase.WithNotificationIDs(game.NewSequence("n")),
	)

	if err := d.Send(context.Background(), newDispatchState(t, false), "<a> <b> <c> .\n"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(remote.got) != 1 {
		t.Fatalf("remote got %d notifications", len(remote.got))
	}
	n := remote.got[0]
	if n.ID != "n1" || n.Inbox != "https://bob.example/inbox/" || n.Recipient != bob || n.Sender != alice || n.Game != aliceDoc+"#game" {
		t.Fatalf("notification = %+v", n)
	}
	if got, _ := local.List(context.Background(), "https://bob.example/inbox/", 0); len(got) != 0 {
		t.Fatalf("remote notification also filed locally: %+v", got)
	}
}

func TestDispatcher_LocalInboxAndRealtime(t *testing.T) {
	local := memory.NewInbox()
	remote := &recordingNotifier{}
	realtime := &recordingNotifier{}
	d := usecase.NewDispatcher(
		usecase.NewInboxService(local, memory.NewDocuments(), nil, nil),
		usecase.WithRemoteNotifier(remote),
		usecase.WithRealtimeNotifier(realtime),
		usecase.WithInboxFinder(fixedFinder("https://pod.example/inbox/bob/")),
		usecase.WithLocality(func(u string) bool { return strings.HasPrefix(u, "https://pod.example/") }),
	)

	if err := d.Send(context.Background(), newDispatchState(t, true), ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(remote.got) != 0 {
		t.Fatalf("local inbox routed remotely")
	}
	if got, _ := local.List(context.Background(), "https://pod.example/inbox/bob/", 0); len(got) != 1 {
		t.Fatalf("local inbox has %d notifications", len(got))
	}
	if len(realtime.got) != 1 || !realtime.got[0].RealTime {
		t.Fatalf("realtime got %+v", realtime.got)
	}
}

func TestDispatcher_AggregatesErrors(t *testing.T) {
	remoteErr := errors.New("remote down")
	realtimeErr := errors.New("bus down")
	d := usecase.NewDispatcher(
		usecase.NewInboxService(memory.NewInbox(), memory.NewDocuments(), nil, nil),
		usecase.WithRemoteNotifier(&recordingNotifier{err: remoteErr}),
		usecase.WithRealtimeNotifier(&recordingNotifier{err: realtimeErr}),
		usecase.WithInboxFinder(fixedFinder("https://bob.example/inbox/")),
		usecase.WithLocality(func(string) bool { return false }),
	)

	err := d.Send(context.Background(), newDispatchState(t, true), "")
	if !errors.Is(err, remoteErr) || !errors.Is(err, realtimeErr) {
		t.Fatalf("err = %v, want both failures", err)
	}
}

type failingFinder struct{ err error }

func (f failingFinder) FindInbox(context.Context, string) (string, error) { return "", f.err }

func TestDispatcher_DiscoveryFailure(t *testing.T) {
	discoverErr := errors.New("profile unreachable")
	local := memory.NewInbox()
	remote := &recordingNotifier{}
	d := usecase.NewDispatcher(
		usecase.NewInboxService(local, memory.NewDocuments(), nil, nil),
		usecase.WithRemoteNotifier(remote),
		usecase.WithInboxFinder(failingFinder{err: discoverErr}),
		usecase.WithLocality(func(u string) bool { return strings.HasPrefix(u, "https://pod.example/") }),
	)

	err := d.Send(context.Background(), newDispatchState(t, false), "<a> <b> <c> .\n")
	if !errors.Is(err, discoverErr) {
		t.Fatalf("err = %v, want discovery failure", err)
	}
	if len(remote.got) != 0 {
		t.Fatalf("remote got %+v", remote.got)
	}
	if got, _ := local.List(context.Background(), bob, 0); len(got) != 0 {
		t.Fatalf("remote recipient filed locally: %+v", got)
	}
}

func TestDispatcher_DiscoveryFailureLocalRecipient(t *testing.T) {
	local := memory.NewInbox()
	d := usecase.NewDispatcher(
		usecase.NewInboxService(local, memory.NewDocuments(), nil, nil),
		usecase.WithInboxFinder(failingFinder{err: ports.ErrNotFound}),
		usecase.WithLocality(func(u string) bool { return strings.HasPrefix(u, "https://bob.example/") }),
	)

	err := d.Send(context.Background(), newDispatchState(t, false), "")
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got, _ := local.List(context.Background(), bob, 0); len(got) != 1 {
		t.Fatalf("local recipient mailbox has %d notifications", len(got))
	}
}
