package memory

import (
	"context"
	"fmt"
	"sync"

	"offertory/internal/core"
	"offertory/internal/sheets"
)

var _ sheets.TallyWriter = (*Store)(nil)

// Store keeps tallies in process memory.
type Store struct {
	mu      sync.Mutex
	tallies []core.SundayTally
}

func New() *Store { return &Store{} }

// AppendTally stores the tally and returns a synthetic row reference.
func (s *Store) AppendTally(_ context.Context, t core.SundayTally) (string, error) {
	if t.Date.IsZero() {
		return "", core.ErrInvalidDate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tallies = append(s.tallies, t)
	return fmt.Sprintf("mem:%d", len(s.tallies)), nil
}

// Tallies returns a copy of what has been written.
func (s *Store) Tallies() []core.SundayTally {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SundayTally(nil), s.tallies...)
}
