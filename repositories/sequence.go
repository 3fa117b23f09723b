package repositories

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const sequenceBandwidth = 100

// Sequences hands out strictly increasing ids per entity kind.
// Leased ranges that were not used before a crash are skipped, never reused.
type Sequences struct {
	db   *badger.DB
	mu   sync.Mutex
	seqs map[string]*badger.Sequence
}

func NewSequences(db *badger.DB) *Sequences {
	return &Sequences{db: db, seqs: make(map[string]*badger.Sequence)}
}

// Next returns the next id for name, starting at 1.
func (s *Sequences) Next(name string) (int64, error) {
	s.mu.Lock()
	seq, ok := s.seqs[name]
	if !ok {
		var err error
		seq, err = s.db.GetSequence([]byte("seq:"+name), sequenceBandwidth)
		if err != nil {
			s.mu.Unlock()
			return 0, fmt.Errorf("sequence %s: %w", name, err)
		}
		s.seqs[name] = seq
	}
	s.mu.Unlock()

	n, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", name, err)
	}
	return int64(n) + 1, nil
}

// Release returns the unused part of every lease. Call it before closing the database.
func (s *Sequences) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, seq := range s.seqs {
		if err := seq.Release(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release sequence %s: %w", name, err)
		}
		delete(s.seqs, name)
	}
	return firstErr
}
