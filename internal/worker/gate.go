package worker

import (
	"bucketscan/internal/scanner"
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const instrumentationName = "bucketscan/internal/worker"

// DefaultConcurrency is the number of admission slots used when none is configured.
const DefaultConcurrency = 50

// Gate is a counting admission gate. At most Capacity callers hold a slot at
// any instant; waiters are admitted in FIFO order.
//
// When a rate limiter is configured a caller that got a slot additionally
// waits for a token before Acquire returns, so the limiter never admits more
// than Capacity requests at once either.
type Gate struct {
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	capacity int

	// mu protects inFlight and peak.
	mu       sync.Mutex
	inFlight int
	peak     int

	gauge metric.Int64UpDownCounter
}

// NewGate creates a gate with n slots. n < 1 falls back to DefaultConcurrency.
// ratePerSecond > 0 limits how many slots are granted per second.
func NewGate(n int, ratePerSecond float64) *Gate {
	if n < 1 {
		n = DefaultConcurrency
	}

	g := &Gate{
		sem:      semaphore.NewWeighted(int64(n)),
		capacity: n,
	}
	if ratePerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}

	gauge, err := otel.Meter(instrumentationName).Int64UpDownCounter("bucketscan.gate.in_flight",
		metric.WithDescription("Probes currently holding an admission slot."))
	if err != nil {
		otel.Handle(err)
	}
	g.gauge = gauge

	return g
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire slot: %w", err)
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.sem.Release(1)

			return fmt.Errorf("could not wait for rate limit: %w", err)
		}
	}

	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.mu.Unlock()
	g.gauge.Add(ctx, 1)

	return nil
}

// Release gives back a slot. It must be called exactly once per successful
// Acquire.
func (g *Gate) Release() {
	g.mu.Lock()
	if g.inFlight > 0 {
		g.inFlight--
	}
	g.mu.Unlock()
	g.gauge.Add(context.Background(), -1)

	g.sem.Release(1)
}

// Capacity returns the number of slots.
func (g *Gate) Capacity() int { return g.capacity }

// InFlight returns the number of slots currently held.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.inFlight
}

// Peak returns the highest number of slots held at once so far.
func (g *Gate) Peak() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.peak
}

// Ensure Gate conforms to the scanner.Admitter interface at compile time.
var _ scanner.Admitter = (*Gate)(nil)
