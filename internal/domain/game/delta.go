package game

import (
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// Delta is what a local action adds to the record: the statements for the
// actor's own store and the subset announced to the opponent.
type Delta struct {
	Resource string
	Inserted []rdf.Triple
	Notified []rdf.Triple
}

// Update renders the inserted statements as a SPARQL INSERT DATA update.
func (d *Delta) Update() string { return rdf.InsertData(d.Inserted) }

// Notification renders the announced statements as N-Triples.
func (d *Delta) Notification() string { return rdf.EncodeNTriples(d.Notified) }

// Document is the resource's document, i.e. where the update is applied.
func (d *Delta) Document() string { return stripFragment(d.Resource) }

func (s *State) moveDelta(hm HalfMove, prev *HalfMove, checkmate bool) *Delta {
	game := rdf.IRI(s.url)
	move := rdf.IRI(hm.Resource)

	inserted := []rdf.Triple{
		rdf.T(game, rdf.HasHalfMove, move),
		rdf.T(move, rdf.Type, rdf.HalfMove),
		rdf.T(move, rdf.HasSANRecord, rdf.String(hm.SAN)),
	}

	var link rdf.Triple
	if prev != nil {
		link = rdf.T(rdf.IRI(prev.Resource), rdf.NextHalfMove, move)
	} else {
		link = rdf.T(game, rdf.HasFirstHalfMove, move)
	}
	inserted = append(inserted, link)
	notified := []rdf.Triple{link}

	if checkmate {
		last := rdf.T(game, rdf.HasLastHalfMove, move)
		inserted = append(inserted, last)
		notified = append(notified, last)
	}

	return &Delta{Resource: hm.Resource, Inserted: inserted, Notified: notified}
}

func (s *State) resignationDelta(resource, identity string) *Delta {
	action := rdf.IRI(resource)
	game := rdf.IRI(s.url)
	agent := rdf.IRI(identity)

	typed := rdf.T(action, rdf.Type, rdf.GiveUpAction)
	return &Delta{
		Resource: resource,
		Inserted: []rdf.Triple{
			typed,
			rdf.T(action, rdf.Agent, agent),
			rdf.T(action, rdf.Object, game),
			rdf.T(game, rdf.GivenUpBy, agent),
		},
		Notified: []rdf.Triple{typed},
	}
}
