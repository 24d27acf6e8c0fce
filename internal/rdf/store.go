package rdf

import (
	"iter"
	"sync"
)

// Source answers quad pattern lookups. Zero terms match anything.
type Source interface {
	Match(s, p, o, g Term) iter.Seq[Quad]
}

// Store is an in-memory quad set indexed by subject and predicate.
// It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	quads []Quad
	seen  map[Quad]struct{}
	bySub map[Term][]int
	byPre map[Term][]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		seen:  make(map[Quad]struct{}),
		bySub: make(map[Term][]int),
		byPre: make(map[Term][]int),
	}
}

// NewGraph builds a store holding triples in the named graph g.
func NewGraph(g Term, triples []Triple) *Store {
	s := NewStore()
	s.AddTriples(g, triples)
	return s
}

// Add inserts q unless it is already present.
func (s *Store) Add(q Quad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[q]; ok {
		return
	}
	s.seen[q] = struct{}{}
	idx := len(s.quads)
	s.quads = append(s.quads, q)
	s.bySub[q.S] = append(s.bySub[q.S], idx)
	s.byPre[q.P] = append(s.byPre[q.P], idx)
}

// AddTriples inserts every triple into graph g.
func (s *Store) AddTriples(g Term, triples []Triple) {
	for _, t := range triples {
		s.Add(Quad{S: t.S, P: t.P, O: t.O, G: g})
	}
}

// Len returns the number of distinct quads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quads)
}

// Match yields quads matching the pattern in insertion order.
func (s *Store) Match(subj, pred, obj, graph Term) iter.Seq[Quad] {
	return func(yield func(Quad) bool) {
		s.mu.RLock()
		candidates := s.candidates(subj, pred)
		s.mu.RUnlock()

		for _, q := range candidates {
			if !matches(q, subj, pred, obj, graph) {
				continue
			}
			if !yield(q) {
				return
			}
		}
	}
}

// candidates snapshots the narrowest index slice. Caller holds the read lock.
func (s *Store) candidates(subj, pred Term) []Quad {
	var idx []int
	switch {
	case !subj.IsZero():
		idx = s.bySub[subj]
	case !pred.IsZero():
		idx = s.byPre[pred]
	default:
		out := make([]Quad, len(s.quads))
		copy(out, s.quads)
		return out
	}
	out := make([]Quad, len(idx))
	for i, j := range idx {
		out[i] = s.quads[j]
	}
	return out
}

func matches(q Quad, s, p, o, g Term) bool {
	return (s.IsZero() || q.S == s) &&
		(p.IsZero() || q.P == p) &&
		(o.IsZero() || q.O == o) &&
		(g.IsZero() || q.G == g)
}
