// Package nats fans real-time game notifications out over NATS subjects.
package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
)

const subjectPrefix = "chess.game."

// Subject is the NATS subject carrying notifications for a game. Game IRIs
// contain dots and slashes, so they are folded into a name-based UUID.
func Subject(game string) string {
	return subjectPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(game)).String()
}

// Notifier publishes notifications of real-time games. Other games are
// skipped without error.
type Notifier struct {
	conn *nats.Conn
}

func NewNotifier(conn *nats.Conn) *Notifier {
	return &Notifier{conn: conn}
}

// Connect dials a NATS server.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("linked-chess"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

func (n *Notifier) Notify(ctx context.Context, note ports.Notification) error {
	if !note.RealTime {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	subject := Subject(note.Game)
	if err := n.conn.Publish(subject, raw); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	obslog.L().Debug("realtime_published", zap.String("subject", subject), zap.String("game", note.Game))
	return nil
}

// Subscribe calls handler for every notification published for game.
// The returned function removes the subscription.
func Subscribe(conn *nats.Conn, game string, handler func(ports.Notification)) (func(), error) {
	sub, err := conn.Subscribe(Subject(game), func(msg *nats.Msg) {
		var note ports.Notification
		if err := json.Unmarshal(msg.Data, &note); err != nil {
			obslog.L().Warn("realtime_decode_failed", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		handler(note)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
