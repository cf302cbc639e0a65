package grinder

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/screa/pda-vanity-grinder/internal/config"
	"github.com/screa/pda-vanity-grinder/internal/crypto"
	"github.com/screa/pda-vanity-grinder/internal/logger"
	"github.com/screa/pda-vanity-grinder/pkg/types"
	"github.com/screa/pda-vanity-grinder/pkg/worker"
)

// Grinder coordinates a pool of workers searching for a vanity PDA
type Grinder struct {
	config       *config.Config
	logger       *logger.Logger
	workerConfig *types.WorkerConfig

	mu      sync.Mutex
	slot    *worker.Slot
	stats   *types.Counters
	cancel  context.CancelFunc
	stopped bool
}

// New validates cfg and prepares the read-only worker configuration.
func New(cfg *config.Config, log *logger.Logger) (*Grinder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	programID, err := cfg.ProgramID()
	if err != nil {
		return nil, err
	}
	matcher, err := crypto.NewPrefixMatcher(cfg.Prefix)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Grinder{
		config: cfg,
		logger: log,
		workerConfig: &types.WorkerConfig{
			ProgramID: programID,
			Matcher:   matcher,
			Window:    cfg.Window,
			SeedLen:   cfg.SeedLen,
			Canonical: cfg.Canonical,
		},
	}, nil
}

// Run starts the workers and blocks until Count matches are accepted, the
// context is done or Stop is called. Each call gets a fresh result slot.
// After Stop, Run returns at once with no matches.
func (g *Grinder) Run(ctx context.Context) (*types.Result, error) {
	start := time.Now()

	sink, closeSink, err := g.openSink()
	if err != nil {
		return nil, err
	}
	defer closeSink()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slot := worker.NewSlot(g.config.Count, sink)
	stats := &types.Counters{}
	g.mu.Lock()
	g.slot, g.stats, g.cancel = slot, stats, cancel
	if g.stopped {
		cancel()
	}
	g.mu.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < g.config.Workers; i++ {
		id := i
		eg.Go(func() error {
			w := worker.NewWorker(id, g.workerConfig, slot, stats,
				worker.WithLogger(g.logger.With("worker", id)))
			w.Run(egCtx)
			return nil
		})
	}

	// Start periodic logging if verbose mode is enabled
	var logDone chan struct{}
	var logWG sync.WaitGroup
	if g.config.Verbose {
		logDone = make(chan struct{})
		ticker := time.NewTicker(time.Duration(g.config.LogInterval) * time.Second)
		logWG.Add(1)
		go func() {
			defer logWG.Done()
			g.periodicLogger(ticker, logDone, start, slot, stats)
		}()
		g.logger.Debugf("Grinding started with %d workers, logging every %d seconds...",
			g.config.Workers, g.config.LogInterval)
	}

	_ = eg.Wait()
	if logDone != nil {
		close(logDone)
		logWG.Wait()
	}

	snap := stats.Snapshot()
	result := &types.Result{
		Matches:  slot.Results(),
		Seeds:    snap.Seeds,
		Hashes:   snap.Hashes,
		Duration: time.Since(start),
	}
	if err := slot.Err(); err != nil {
		return result, fmt.Errorf("write results file: %w", err)
	}
	return result, nil
}

// Stop ends the current run and every later one. Safe to call at any time
// and more than once.
func (g *Grinder) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	if g.cancel != nil {
		g.cancel()
	}
}

// Results returns the matches accepted so far in the current run
func (g *Grinder) Results() []*types.MatchResult {
	g.mu.Lock()
	slot := g.slot
	g.mu.Unlock()
	if slot == nil {
		return nil
	}
	return slot.Results()
}

// Stats returns the counters of the current run
func (g *Grinder) Stats() types.Snapshot {
	g.mu.Lock()
	stats := g.stats
	g.mu.Unlock()
	if stats == nil {
		return types.Snapshot{}
	}
	return stats.Snapshot()
}

func (g *Grinder) openSink() (io.Writer, func(), error) {
	if g.config.ResultsFile == "" {
		return nil, func() {}, nil
	}
	file, err := os.OpenFile(g.config.ResultsFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open results file: %w", err)
	}
	return file, func() {
		if err := file.Close(); err != nil {
			g.logger.Errorf("close results file: %v", err)
		}
	}, nil
}

// periodicLogger logs grinding progress at regular intervals
func (g *Grinder) periodicLogger(ticker *time.Ticker, done chan struct{}, start time.Time, slot *worker.Slot, stats *types.Counters) {
	defer ticker.Stop()
	expected := g.config.ExpectedSeeds()
	for {
		select {
		case <-ticker.C:
			snap := stats.Snapshot()
			elapsed := time.Since(start)

			// Calculate rate safely
			rate := 0.0
			if elapsed.Seconds() > 0 {
				rate = float64(snap.Seeds) / elapsed.Seconds()
			}

			found := len(slot.Results())
			g.logger.Printf("Progress: %d seeds, %d hashes, %.2f seeds/sec, %d prefix hits, %d curve checks, %d/%d matches (expect ~%.0f seeds per match)",
				snap.Seeds, snap.Hashes, rate, snap.PrefixHits, snap.OracleCalls, found, g.config.Count, expected)
		case <-done:
			return
		}
	}
}
