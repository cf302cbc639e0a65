package types

import (
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/screa/pda-vanity-grinder/internal/crypto"
)

// MatchResult is a confirmed vanity PDA: the address has the prefix and
// the digest is off curve.
type MatchResult struct {
	Seed     []byte
	Bump     byte
	Digest   crypto.Digest
	Address  string
	WorkerID int
}

// SeedHex returns the seed as lowercase hex.
func (m *MatchResult) SeedHex() string {
	return hex.EncodeToString(m.Seed)
}

// Result represents a finished grinding run
type Result struct {
	Matches  []*MatchResult
	Seeds    int64
	Hashes   int64
	Duration time.Duration
}

// First returns the accepted match, or nil if the run was stopped early.
func (r *Result) First() *MatchResult {
	if r == nil || len(r.Matches) == 0 {
		return nil
	}
	return r.Matches[0]
}

// Candidate is a bump whose address passed the prefix filter.
type Candidate struct {
	Bump   byte
	Digest crypto.Digest
}

// WorkerConfig contains configuration for individual workers.
// It is built once before spawn and never mutated afterwards.
type WorkerConfig struct {
	ProgramID crypto.ProgramID
	Matcher   *crypto.PrefixMatcher
	Window    int
	SeedLen   int
	Canonical bool
}

// Counters are the shared progress counters. Workers add to them in batches.
type Counters struct {
	Seeds       atomic.Int64
	Hashes      atomic.Int64
	PrefixHits  atomic.Int64
	OracleCalls atomic.Int64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Seeds       int64
	Hashes      int64
	PrefixHits  int64
	OracleCalls int64
}

// Snapshot loads every counter.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Seeds:       c.Seeds.Load(),
		Hashes:      c.Hashes.Load(),
		PrefixHits:  c.PrefixHits.Load(),
		OracleCalls: c.OracleCalls.Load(),
	}
}
