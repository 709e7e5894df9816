// Package resolver defines the DNS lookup used to confirm takeover candidates.
package resolver

import (
	"context"
	"errors"
)

// ErrNoCNAME is returned when a host has no CNAME delegation (NXDOMAIN or an
// empty answer).
var ErrNoCNAME = errors.New("no CNAME record")

// Resolver looks up the CNAME delegation of a host.
//
//go:generate mockgen -package mockresolver -source=interface.go -destination=mock/mockresolver.go *
type Resolver interface {
	// CNAME returns the CNAME targets of host. A host without a CNAME record
	// yields ErrNoCNAME.
	CNAME(ctx context.Context, host string) ([]string, error)
}
