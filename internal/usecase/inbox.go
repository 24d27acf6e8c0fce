package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/linkeddata"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// InboxStore files and lists notifications.
type InboxStore interface {
	ports.Notifier
	ports.InboxReader
}

// InboxService accepts notifications addressed to players hosted here and
// attaches the announced chain links to the documents they extend.
type InboxService struct {
	inbox   InboxStore
	docs    ports.DocumentStore
	sources SourceResolver
	isLocal func(url string) bool
}

func NewInboxService(inbox InboxStore, docs ports.DocumentStore, sources SourceResolver, isLocal func(string) bool) *InboxService {
	if isLocal == nil {
		isLocal = func(string) bool { return true }
	}
	return &InboxService{inbox: inbox, docs: docs, sources: sources, isLocal: isLocal}
}

// linkPredicates are the only statements a notification may add to a
// hosted document.
var linkPredicates = map[rdf.Term]struct{}{
	rdf.HasFirstHalfMove: {},
	rdf.NextHalfMove:     {},
	rdf.HasLastHalfMove:  {},
}

// Deliver files n and reconciles hosted documents with it. Chain links are
// only attached when they extend the chain of a hosted game with a move that
// exists. The notification is kept even when reconciliation fails.
func (s *InboxService) Deliver(ctx context.Context, n ports.Notification) error {
	if err := s.inbox.Notify(ctx, n); err != nil {
		return fmt.Errorf("file notification: %w", err)
	}

	triples, err := rdf.Parse(strings.NewReader(n.Body), "", rdf.MediaNTriples)
	if err != nil {
		return fmt.Errorf("%w: notification %s: %v", ports.ErrParse, n.ID, err)
	}

	byDoc := make(map[string][]rdf.Triple)
	for _, t := range triples {
		switch {
		case t.P == rdf.Type && t.O == rdf.GiveUpAction && t.S.IsIRI():
			if gt, ok := s.resignation(ctx, t.S.Value); ok {
				doc := linkeddata.DocumentURL(gt.S.Value)
				byDoc[doc] = append(byDoc[doc], gt)
			}
		case t.S.IsIRI() && isLink(t.P):
			doc := linkeddata.DocumentURL(t.S.Value)
			byDoc[doc] = append(byDoc[doc], t)
		}
	}

	for doc, ts := range byDoc {
		if err := s.attach(ctx, n, doc, ts); err != nil {
			return err
		}
	}
	return nil
}

// List returns the newest notifications in mailbox.
func (s *InboxService) List(ctx context.Context, mailbox string, limit int) ([]ports.Notification, error) {
	return s.inbox.List(ctx, mailbox, limit)
}

func (s *InboxService) attach(ctx context.Context, n ports.Notification, doc string, ts []rdf.Triple) error {
	if !s.isLocal(doc) {
		return nil
	}
	stored, err := s.docs.Get(ctx, doc)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			obslog.L().Debug("inbox_skip_unknown_document", zap.String("document", doc))
			return nil
		}
		return err
	}
	existing, err := rdf.Parse(bytes.NewReader(stored.Body), doc, stored.ContentType)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ports.ErrParse, doc, err)
	}
	current := rdf.NewGraph(rdf.IRI(doc), existing)

	var accepted []rdf.Triple
	for _, t := range ts {
		if isLink(t.P) && !s.admitLink(ctx, current, n.Game, t) {
			continue
		}
		current.Add(rdf.Quad{S: t.S, P: t.P, O: t.O, G: rdf.IRI(doc)})
		accepted = append(accepted, t)
	}
	if len(accepted) == 0 {
		return nil
	}
	if err := s.docs.Append(ctx, doc, accepted); err != nil {
		return fmt.Errorf("attach to %s: %w", doc, err)
	}
	obslog.L().Info("inbox_reconciled", zap.String("document", doc), zap.Int("triples", len(accepted)))
	return nil
}

// admitLink reports whether the chain link t may extend the hosted
// document current. The subject must belong to a game described there and
// have no link of that kind yet. The object must be a recorded half-move of
// the same game.
func (s *InboxService) admitLink(ctx context.Context, current rdf.Source, gameURL string, t rdf.Triple) bool {
	reject := func(reason string) bool {
		obslog.L().Warn("inbox_link_rejected",
			zap.String("subject", t.S.Value),
			zap.String("predicate", t.P.Value),
			zap.String("object", t.O.Value),
			zap.String("reason", reason),
		)
		return false
	}
	if !t.O.IsIRI() {
		return reject("object is not an IRI")
	}
	if _, ok := first(current, t.S, t.P); ok {
		return reject("subject already linked")
	}

	var g rdf.Term
	if t.P == rdf.NextHalfMove {
		for q := range current.Match(rdf.Term{}, rdf.HasHalfMove, t.S, rdf.Term{}) {
			g = q.S
			break
		}
	} else if has(current, t.S, rdf.Type, rdf.ChessGame) {
		g = t.S
	}
	if g.IsZero() {
		return reject("subject is not part of a hosted game")
	}
	if gameURL != "" && g != rdf.IRI(gameURL) {
		return reject("subject belongs to another game")
	}

	if s.sources == nil {
		return reject("no resolver")
	}
	src, err := s.sources.Resolve(ctx, t.O.Value)
	if err != nil {
		return reject(err.Error())
	}
	san, ok := first(src, t.O, rdf.HasSANRecord)
	if !ok || !san.IsLiteral() {
		return reject("object has no SAN record")
	}
	if !has(src, g, rdf.HasHalfMove, t.O) {
		return reject("object is not a half-move of the game")
	}
	return true
}

func has(src rdf.Source, s, p, o rdf.Term) bool {
	for range src.Match(s, p, o, rdf.Term{}) {
		return true
	}
	return false
}

// resignation dereferences a give-up action and returns the game-level
// statement it implies.
func (s *InboxService) resignation(ctx context.Context, action string) (rdf.Triple, bool) {
	if s.sources == nil {
		return rdf.Triple{}, false
	}
	src, err := s.sources.Resolve(ctx, action)
	if err != nil {
		obslog.L().Warn("inbox_resignation_unresolved", zap.String("action", action), zap.Error(err))
		return rdf.Triple{}, false
	}
	a := rdf.IRI(action)
	agent, ok := first(src, a, rdf.Agent)
	if !ok || !agent.IsIRI() {
		return rdf.Triple{}, false
	}
	g, ok := first(src, a, rdf.Object)
	if !ok || !g.IsIRI() {
		return rdf.Triple{}, false
	}
	return rdf.T(g, rdf.GivenUpBy, agent), true
}

func isLink(p rdf.Term) bool {
	_, ok := linkPredicates[p]
	return ok
}
