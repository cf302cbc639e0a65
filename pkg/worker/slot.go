package worker

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/screa/pda-vanity-grinder/pkg/types"
)

// Publisher accepts confirmed matches from workers.
type Publisher interface {
	// Publish offers a match and reports whether it was accepted.
	Publish(m *types.MatchResult) bool
	// Done is closed once no further matches will be accepted.
	Done() <-chan struct{}
}

// Slot is the shared result cell for one run. The first limit publishers
// win. Later ones are dropped silently.
type Slot struct {
	mu      sync.Mutex
	limit   int
	results []*types.MatchResult
	done    chan struct{}
	once    sync.Once
	sink    io.Writer
	sinkErr error
}

// NewSlot returns a slot accepting up to limit matches. If sink is non-nil
// every accepted match is written to it as "<address>: <seed hex> <bump>".
func NewSlot(limit int, sink io.Writer) *Slot {
	if limit < 1 {
		limit = 1
	}
	return &Slot{
		limit: limit,
		done:  make(chan struct{}),
		sink:  sink,
	}
}

// Publish implements Publisher.
func (s *Slot) Publish(m *types.MatchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return false
	default:
	}

	s.results = append(s.results, &types.MatchResult{
		Seed:     bytes.Clone(m.Seed),
		Bump:     m.Bump,
		Digest:   m.Digest,
		Address:  m.Address,
		WorkerID: m.WorkerID,
	})
	if s.sink != nil {
		if _, err := fmt.Fprintf(s.sink, "%s: %s %d\n", m.Address, m.SeedHex(), m.Bump); err != nil && s.sinkErr == nil {
			s.sinkErr = err
		}
	}
	if len(s.results) >= s.limit {
		s.Close()
	}
	return true
}

// Done implements Publisher.
func (s *Slot) Done() <-chan struct{} {
	return s.done
}

// Close stops accepting matches. Safe to call more than once.
func (s *Slot) Close() {
	s.once.Do(func() { close(s.done) })
}

// Results returns the accepted matches in acceptance order.
func (s *Slot) Results() []*types.MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.MatchResult, len(s.results))
	copy(out, s.results)
	return out
}

// Err returns the first error from writing to the sink, if any.
func (s *Slot) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinkErr
}
