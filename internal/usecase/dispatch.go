package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
)

// InboxFinder discovers an agent's inbox.
type InboxFinder interface {
	FindInbox(ctx context.Context, webID string) (string, error)
}

// Dispatcher routes notifications: hosted inboxes get them directly,
// remote inboxes over the network, and real-time games are also pushed.
type Dispatcher struct {
	local    *InboxService
	remote   ports.Notifier
	realtime ports.Notifier
	finder   InboxFinder
	isLocal  func(string) bool
	ids      game.IDGenerator
	now      func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithRemoteNotifier(n ports.Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.remote = n }
}

func WithRealtimeNotifier(n ports.Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.realtime = n }
}

func WithInboxFinder(f InboxFinder) DispatcherOption {
	return func(d *Dispatcher) { d.finder = f }
}

func WithLocality(isLocal func(string) bool) DispatcherOption {
	return func(d *Dispatcher) { d.isLocal = isLocal }
}

func WithNotificationIDs(g game.IDGenerator) DispatcherOption {
	return func(d *Dispatcher) { d.ids = g }
}

func NewDispatcher(local *InboxService, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		local:   local,
		isLocal: func(string) bool { return true },
		ids:     game.UUIDGenerator{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send notifies the opponent of st about body.
func (d *Dispatcher) Send(ctx context.Context, st *game.State, body string) error {
	n := ports.Notification{
		ID:        d.ids.NewID(),
		Game:      st.URL(),
		Sender:    st.Viewer(),
		Recipient: st.Opponent(),
		Body:      body,
		RealTime:  st.IsRealTime(),
		CreatedAt: d.now().UTC(),
	}
	if n.Recipient == "" {
		obslog.L().Warn("notify_skip_no_opponent", zap.String("game", n.Game))
		return nil
	}

	var result *multierror.Error
	if d.finder != nil {
		inbox, err := d.finder.FindInbox(ctx, n.Recipient)
		if err != nil {
			obslog.L().Warn("inbox_discovery_failed", zap.String("recipient", n.Recipient), zap.Error(err))
			result = multierror.Append(result, fmt.Errorf("discover inbox of %s: %w", n.Recipient, err))
		}
		n.Inbox = inbox
	}

	switch {
	case n.Inbox != "" && !d.isLocal(n.Inbox) && d.remote != nil:
		if err := d.remote.Notify(ctx, n); err != nil {
			result = multierror.Append(result, err)
		}
	case n.Inbox != "" || d.isLocal(n.Recipient):
		if err := d.local.Deliver(ctx, n); err != nil {
			result = multierror.Append(result, err)
		}
	default:
		obslog.L().Warn("notify_undeliverable", zap.String("recipient", n.Recipient))
	}

	if n.RealTime && d.realtime != nil {
		if err := d.realtime.Notify(ctx, n); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		obslog.L().Warn("notify_error", zap.String("game", n.Game), zap.String("recipient", n.Recipient), zap.Error(err))
		return err
	}
	obslog.L().Info("notify_sent", zap.String("game", n.Game), zap.String("recipient", n.Recipient), zap.String("inbox", n.Inbox))
	return nil
}
