// Package turntimer provides the per-turn countdown cadence. It only decides
// when a tick happens; the remaining seconds live in the draft state.
package turntimer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tick is one countdown beat. Epoch identifies the Start call that produced it
// so receivers can discard beats from a countdown that has since been replaced.
type Tick struct {
	Epoch uint64
}

// Sink receives ticks. It should return promptly once ctx is done.
type Sink func(ctx context.Context, tick Tick)

type Timer struct {
	clock    clockwork.Clock
	interval time.Duration
	sink     Sink

	mu     sync.Mutex
	ticker clockwork.Ticker
	cancel context.CancelFunc
	epoch  uint64
}

func New(clock clockwork.Clock, interval time.Duration, sink Sink) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock, interval: interval, sink: sink}
}

// Start replaces any running countdown with one tagged epoch.
func (t *Timer) Start(parent context.Context, epoch uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	// Ticker is created here, not in the goroutine, so that after Start returns
	// exactly one ticker exists.
	ctx, cancel := context.WithCancel(parent)
	ticker := t.clock.NewTicker(t.interval)
	t.ticker = ticker
	t.cancel = cancel
	t.epoch = epoch

	go t.run(ctx, ticker, epoch)
}

// Stop halts the countdown. A tick already handed to the sink may still arrive;
// its epoch is stale by then.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticker != nil
}

// Epoch is the tag of the current (or last) countdown.
func (t *Timer) Epoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epoch
}

func (t *Timer) stopLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	t.cancel()
	t.ticker = nil
	t.cancel = nil
}

func (t *Timer) run(ctx context.Context, ticker clockwork.Ticker, epoch uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			t.sink(ctx, Tick{Epoch: epoch})
		}
	}
}
