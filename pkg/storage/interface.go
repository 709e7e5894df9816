// Package storage defines the result sink the probing engine writes to.
// Implementations must be safe for concurrent use: many probes append at the
// same time and every record has to land as one whole line.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import (
	"bucketscan/pkg/domain"
	"context"
)

// Sink is an append-only destination for findings and error records.
// There is no read back, no update and no deduplication.
type Sink interface {
	// AppendFinding appends one finding as a single line.
	AppendFinding(ctx context.Context, finding domain.Finding) error
	// AppendError appends one error record as a single line.
	AppendError(ctx context.Context, record domain.ErrorRecord) error
	// Close releases the underlying handles. It is called once, after the run.
	Close() error
}
