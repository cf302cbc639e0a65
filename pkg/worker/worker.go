package worker

import (
	"bytes"
	"context"
	cryptorand "crypto/rand"
	"math/rand/v2"

	"github.com/screa/pda-vanity-grinder/internal/crypto"
	"github.com/screa/pda-vanity-grinder/internal/logger"
	"github.com/screa/pda-vanity-grinder/pkg/types"
)

// flushEvery is how many seeds a worker scans between counter flushes.
const flushEvery = 4096

// State is the position of a worker in its search loop.
type State int

const (
	StateGenerating State = iota
	StateScanning
	StateConfirming
	StateDone
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateScanning:
		return "scanning"
	case StateConfirming:
		return "confirming"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Worker grinds random seeds until its Publisher stops accepting matches
type Worker struct {
	id     int
	config *types.WorkerConfig
	slot   Publisher
	stats  *types.Counters
	log    *logger.Logger
	rng    *rand.ChaCha8
	state  State

	// Pre-allocated buffers for performance
	hasher     *crypto.Hasher
	seed       [crypto.MaxSeedLen]byte
	candidates []types.Candidate
	digests    []crypto.Digest // canonical mode only
	hits       []bool          // canonical mode only

	local types.Snapshot // counts not yet flushed to stats
}

// Option configures a Worker.
type Option func(*Worker)

// WithRandSeed fixes the worker's seed stream. Tests use it for
// reproducible runs. Without it the stream is keyed from crypto/rand.
func WithRandSeed(key [32]byte) Option {
	return func(w *Worker) {
		w.rng = rand.NewChaCha8(key)
	}
}

// WithLogger attaches a logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(w *Worker) {
		w.log = l
	}
}

// NewWorker creates a new worker instance. stats may be nil.
func NewWorker(id int, config *types.WorkerConfig, slot Publisher, stats *types.Counters, opts ...Option) *Worker {
	w := &Worker{
		id:     id,
		config: config,
		slot:   slot,
		stats:  stats,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		var key [32]byte
		if _, err := cryptorand.Read(key[:]); err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		w.rng = rand.NewChaCha8(key)
	}
	if w.stats == nil {
		w.stats = &types.Counters{}
	}

	window := clampWindow(config.Window)
	w.hasher = crypto.NewHasher(config.ProgramID, nil)
	w.candidates = make([]types.Candidate, 0, window)
	if config.Canonical {
		w.digests = make([]crypto.Digest, window)
		w.hits = make([]bool, window)
	}
	return w
}

// ID returns the worker's index.
func (w *Worker) ID() int {
	return w.id
}

// State returns where the worker is in its loop. Not synchronized with Run.
func (w *Worker) State() State {
	return w.state
}

// Run loops until ctx is cancelled or the publisher is done. Termination
// is checked once per seed.
func (w *Worker) Run(ctx context.Context) {
	defer func() {
		w.flush()
		w.state = StateDone
	}()

	done := w.slot.Done()
	for scanned := 1; ; scanned++ {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		default:
		}

		if m, ok := w.Step(); ok {
			if w.slot.Publish(m) {
				w.log.Debugf("accepted %s (bump %d)", m.Address, m.Bump)
			} else {
				w.log.Debugf("discarded %s, result slot already filled", m.Address)
			}
		}

		if scanned%flushEvery == 0 {
			w.flush()
		}
	}
}

// Step runs one Generating -> Scanning -> Confirming pass over a fresh seed.
func (w *Worker) Step() (*types.MatchResult, bool) {
	w.state = StateGenerating
	return w.scan(w.nextSeed())
}

// scan evaluates one seed: cheap prefix filter over the window first, the
// curve oracle only for the hits.
func (w *Worker) scan(seed []byte) (*types.MatchResult, bool) {
	w.hasher.Reset(seed)
	w.local.Seeds++

	w.state = StateScanning
	if w.config.Canonical {
		return w.scanCanonical()
	}

	w.candidates = CollectWindow(w.hasher, w.config.Matcher, w.config.Window, w.candidates)
	w.local.Hashes += int64(clampWindow(w.config.Window))
	if len(w.candidates) == 0 {
		return nil, false
	}
	w.local.PrefixHits += int64(len(w.candidates))

	w.state = StateConfirming
	for _, c := range w.candidates {
		w.local.OracleCalls++
		if crypto.IsOffCurve(c.Digest) {
			return w.result(c.Bump, c.Digest), true
		}
	}
	return nil, false
}

// scanCanonical hashes the whole window, then accepts a prefix hit only if
// it is the first off-curve bump from the top. The oracle still runs only
// when at least one bump matched.
func (w *Worker) scanCanonical() (*types.MatchResult, bool) {
	window := clampWindow(w.config.Window)
	matched := 0
	for i := 0; i < window; i++ {
		w.digests[i] = w.hasher.Digest(byte(MaxBump - i))
		w.hits[i] = w.config.Matcher.Matches(&w.digests[i])
		if w.hits[i] {
			matched++
		}
	}
	w.local.Hashes += int64(window)
	if matched == 0 {
		return nil, false
	}
	w.local.PrefixHits += int64(matched)

	w.state = StateConfirming
	for i := 0; i < window; i++ {
		w.local.OracleCalls++
		if !crypto.IsOffCurve(w.digests[i]) {
			continue
		}
		if w.hits[i] {
			return w.result(byte(MaxBump-i), w.digests[i]), true
		}
		return nil, false
	}
	return nil, false
}

func (w *Worker) nextSeed() []byte {
	seed := w.seed[:w.config.SeedLen]
	_, _ = w.rng.Read(seed)
	return seed
}

func (w *Worker) result(bump byte, d crypto.Digest) *types.MatchResult {
	return &types.MatchResult{
		Seed:     bytes.Clone(w.hasher.Seed()),
		Bump:     bump,
		Digest:   d,
		Address:  crypto.EncodeDigestString(d),
		WorkerID: w.id,
	}
}

// flush publishes locally batched counts to the shared counters.
func (w *Worker) flush() {
	w.stats.Seeds.Add(w.local.Seeds)
	w.stats.Hashes.Add(w.local.Hashes)
	w.stats.PrefixHits.Add(w.local.PrefixHits)
	w.stats.OracleCalls.Add(w.local.OracleCalls)
	w.local = types.Snapshot{}
}
