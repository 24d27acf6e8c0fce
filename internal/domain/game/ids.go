package game

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator mints the local part of new resource identities.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator mints random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Sequence mints prefix1, prefix2, ... and is handy for deterministic output.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequence returns a Sequence starting at 1.
func NewSequence(prefix string) *Sequence { return &Sequence{prefix: prefix} }

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.prefix + strconv.Itoa(s.n)
}
