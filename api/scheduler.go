/*
scheduler.go - Automated daily expiry and tier sweep

PURPOSE:
  Periodically runs the loyalty point-expiry sweep followed by a full
  tier re-evaluation pass. The sweep itself persists a last-run date and
  refuses to run twice in one calendar day, so the scheduler can tick
  hourly without risking a double expiry.

USAGE:
  scheduler := NewSweepScheduler(sweeper, ledger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - ../loyalty/expiry.go: the sweep and its daily guard
  - handlers.go: RunExpirySweep, the manual trigger
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/pos-engine/loyalty"
	"github.com/warp/pos-engine/sale"
)

// SweepScheduler triggers the daily expiry sweep and tier recompute.
type SweepScheduler struct {
	Sweeper       *loyalty.Sweeper
	Ledger        *sale.Ledger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewSweepScheduler(sweeper *loyalty.Sweeper, ledger *sale.Ledger) *SweepScheduler {
	return &SweepScheduler{
		Sweeper:       sweeper,
		Ledger:        ledger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	log.Printf("[Scheduler] Started with check interval: %v", s.CheckInterval)
}

// Stop stops the scheduler.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (s *SweepScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *SweepScheduler) sweep() {
	ctx := context.Background()

	result, err := s.Sweeper.Run(ctx)
	if err != nil {
		log.Printf("[Scheduler] expiry sweep failed: %v", err)
		return
	}
	if result.Skipped {
		return
	}
	if err := s.Ledger.ReevaluateAllTiers(ctx); err != nil {
		log.Printf("[Scheduler] tier re-evaluation failed: %v", err)
	}
}
