package scanner

import (
	"bucketscan/pkg/domain"
	"context"
)

// Scanner probes a single domain to a terminal result.
//
//go:generate mockgen -package mockscanner -source=interface.go -destination=mock/mockscanner.go *
type Scanner interface {
	// Probe runs the full probe for d, retrying transient failures according
	// to the configured policy. It always returns exactly one terminal result
	// and never panics on network failures.
	Probe(ctx context.Context, d domain.Domain) domain.Result
}

// Admitter is the admission gate a probe passes before each HTTP attempt.
type Admitter interface {
	// Acquire blocks until a slot is available or ctx is done.
	Acquire(ctx context.Context) error
	// Release gives back a slot obtained from Acquire.
	Release()
}
