package memory

import (
	"context"
	"sync"

	"github.com/randomtoy/linked-chess/internal/ports"
)

// Inbox keeps notifications per mailbox in memory.
type Inbox struct {
	mu    sync.Mutex
	boxes map[string][]ports.Notification
}

func NewInbox() *Inbox {
	return &Inbox{boxes: make(map[string][]ports.Notification)}
}

func (b *Inbox) Notify(_ context.Context, n ports.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := n.Mailbox()
	b.boxes[key] = append(b.boxes[key], n)
	return nil
}

// List returns up to limit notifications, newest first. limit <= 0 means all.
func (b *Inbox) List(_ context.Context, mailbox string, limit int) ([]ports.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	box := b.boxes[mailbox]
	out := make([]ports.Notification, 0, len(box))
	for i := len(box) - 1; i >= 0; i-- {
		out = append(out, box[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
