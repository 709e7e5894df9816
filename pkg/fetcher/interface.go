// Package fetcher defines the HTTP probing abstraction used by the scanner.
// Implementations issue one GET per call and report failures as serrors kinds
// so callers can decide whether to retry without inspecting transport errors.
package fetcher

import (
	"context"
)

// Response is the part of an HTTP response the scanner classifies.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body is the response body, possibly truncated to the configured cap.
	Body []byte
}

// Fetcher issues HTTP GET requests.
//
//go:generate mockgen -package mockfetcher -source=interface.go -destination=mock/mockfetcher.go *
type Fetcher interface {
	// Get requests URL and returns the response with its body fully read.
	// A non-nil error always carries one of the serrors probe kinds.
	Get(ctx context.Context, URL string) (*Response, error)
}
